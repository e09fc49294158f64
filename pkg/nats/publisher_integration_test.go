package nats_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/providerhub/pkg/messaging"
	"github.com/abgdnv/providerhub/pkg/messaging/events"
	pnats "github.com/abgdnv/providerhub/pkg/nats"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "PROVIDER_SVC_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// PublisherSuite publishes through a real JetStream server.
type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *tcnats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = tcnats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get NATS connection string")

	s.nc, err = pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")

	s.logger.Info("Initialization complete for PublisherSuite")
}

func (s *PublisherSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestPublishProviderDataProcessed() {
	// given
	require.NoError(s.T(), pnats.EnsureStream(s.ctx, s.js, messaging.ProvidersStream, messaging.ProviderDataProcessedSubject))
	// a second call updates the stream in place
	require.NoError(s.T(), pnats.EnsureStream(s.ctx, s.js, messaging.ProvidersStream, messaging.ProviderDataProcessedSubject))

	otel.SetTextMapPropagator(propagation.TraceContext{})
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11, 0x12},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(s.ctx, spanCtx)

	event := events.ProviderDataProcessedEvent{
		ProviderDataID: uuid.New(),
		ProviderID:     uuid.New(),
		ProductCount:   3,
		Action:         events.ActionReplaced,
		ProcessedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	// when
	err := pnats.NewNatsPublisher(s.js).Publish(ctx, event)

	// then
	s.Require().NoError(err)
	stream, err := s.js.Stream(s.ctx, messaging.ProvidersStream)
	s.Require().NoError(err)
	msg, err := stream.GetLastMsgForSubject(s.ctx, messaging.ProviderDataProcessedSubject)
	s.Require().NoError(err)

	var received events.ProviderDataProcessedEvent
	s.Require().NoError(json.Unmarshal(msg.Data, &received))
	s.Equal(event.ProviderDataID, received.ProviderDataID)
	s.Equal(event.ProviderID, received.ProviderID)
	s.Equal(3, received.ProductCount)
	s.Equal(events.ActionReplaced, received.Action)
	s.True(event.ProcessedAt.Equal(received.ProcessedAt))
	extracted := otel.GetTextMapPropagator().Extract(s.ctx, propagation.HeaderCarrier(msg.Header))
	s.Equal(spanCtx.TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}
