// Package rest exposes provider data processing over HTTP.
package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/providerhub/internal/service"
	"github.com/abgdnv/providerhub/pkg/web"
	"github.com/go-chi/chi/v5"
)

// ProviderDataProcessor processes one serialized provider data record.
type ProviderDataProcessor interface {
	ProcessProviderData(ctx context.Context, raw []byte) (*service.ProcessReport, error)
}

type Handler struct {
	processor    ProviderDataProcessor
	maxBodyBytes int64
	logger       *slog.Logger
}

func NewHandler(processor ProviderDataProcessor, maxBodyBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		processor:    processor,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the provider data API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/provider-data", func(r chi.Router) {
		r.Post("/", h.ProcessProviderData)
	})
	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ProcessProviderData handles POST requests carrying a JSON encoded provider data record.
// Rejected submissions are still answered with 200; the report says why.
func (h *Handler) ProcessProviderData(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(r.Context(), "Request body too large", "limit", tooLarge.Limit)
			web.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.logger.WarnContext(r.Context(), "Failed to read request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return
	}

	report, err := h.processor.ProcessProviderData(r.Context(), raw)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to process provider data", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to process provider data")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, report)
}
