package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/abgdnv/providerhub/pkg/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ProviderDataProcessedEvent(t *testing.T) {
	// given
	event := ProviderDataProcessedEvent{
		ProviderDataID: uuid.New(),
		ProviderID:     uuid.New(),
		ProductCount:   3,
		Action:         ActionReplaced,
		ProcessedAt:    time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}

	// when
	payload, err := event.Payload()

	// then
	require.NoError(t, err)
	assert.Equal(t, messaging.ProviderDataProcessedSubject, event.Subject())
	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.Equal(t, "replaced", fields["action"])
	assert.Equal(t, float64(3), fields["product_count"])
	assert.Equal(t, event.ProviderID.String(), fields["provider_id"])
	assert.Equal(t, "2025-07-01T12:00:00Z", fields["processed_at"])
}
