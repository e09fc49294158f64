package messaging

import (
	"context"
)

const (
	// ProvidersStream is the JetStream stream that carries provider events.
	ProvidersStream = "PROVIDERS"
	// ProviderDataProcessedSubject is published after provider data has been persisted.
	ProviderDataProcessedSubject = "providers.data.processed"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}
