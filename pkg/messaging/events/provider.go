package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/providerhub/pkg/messaging"
	"github.com/google/uuid"
)

// ProviderDataAction tells how a processed submission was persisted.
type ProviderDataAction string

const (
	ActionCreated  ProviderDataAction = "created"
	ActionReplaced ProviderDataAction = "replaced"
	ActionUpdated  ProviderDataAction = "updated"
)

type ProviderDataProcessedEvent struct {
	ProviderDataID uuid.UUID          `json:"provider_data_id"`
	ProviderID     uuid.UUID          `json:"provider_id"`
	ProductCount   int                `json:"product_count"`
	Action         ProviderDataAction `json:"action"`
	ProcessedAt    time.Time          `json:"processed_at"`
}

func (e ProviderDataProcessedEvent) Subject() string {
	return messaging.ProviderDataProcessedSubject
}

func (e ProviderDataProcessedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
