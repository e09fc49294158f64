package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/abgdnv/providerhub/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func Test_ContextHandler(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{0x01}, TraceFlags: trace.FlagsSampled})

	testCases := []struct {
		name     string
		ctx      context.Context
		expected map[string]string
		absent   []string
	}{
		{
			name:   "plain context",
			ctx:    context.Background(),
			absent: []string{"trace_id", "request_id"},
		},
		{
			name:     "request id",
			ctx:      web.WithRequestID(context.Background(), "req-1"),
			expected: map[string]string{"request_id": "req-1"},
			absent:   []string{"trace_id"},
		},
		{
			name: "span and request id",
			ctx:  trace.ContextWithSpanContext(web.WithRequestID(context.Background(), "req-2"), spanCtx),
			expected: map[string]string{
				"request_id": "req-2",
				"trace_id":   traceID.String(),
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

			// when
			log.InfoContext(tc.ctx, "hello")

			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, "test", record["component"])
			for k, v := range tc.expected {
				assert.Equal(t, v, record[k])
			}
			for _, k := range tc.absent {
				assert.NotContains(t, record, k)
			}
		})
	}
}
