// Package service implements provider data processing: product validation and the persistence decision.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/abgdnv/providerhub/internal/errors"
	"github.com/abgdnv/providerhub/internal/model"
	"github.com/abgdnv/providerhub/internal/store"
	"github.com/abgdnv/providerhub/pkg/messaging"
	"github.com/abgdnv/providerhub/pkg/messaging/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// timestampPrecision is the finest timestamp resolution the store keeps.
const timestampPrecision = time.Microsecond

// Validator produces the findings for a single product.
type Validator interface {
	ValidateProduct(ctx context.Context, product *model.ProductData) ([]ProductValidationResult, error)
}

// ProviderProcessor turns raw provider submissions into persisted records and reports.
type ProviderProcessor struct {
	store            store.ProviderStore
	products         Validator
	publisher        messaging.Publisher
	validate         *validator.Validate
	processedCounter metric.Int64Counter
	createMissing    bool
	logger           *slog.Logger
	now              func() time.Time
}

// NewProviderProcessor creates a new ProviderProcessor.
// When createMissing is false a submission for a provider without a stored record fails with ReasonProviderNotFound.
func NewProviderProcessor(providerStore store.ProviderStore, productValidator Validator, publisher messaging.Publisher, createMissing bool, logger *slog.Logger) *ProviderProcessor {
	meter := otel.Meter("provider-service")
	processedCounter, err := meter.Int64Counter("provider_data_processed", metric.WithDescription("Total number of processed provider submissions"))
	if err != nil {
		panic(fmt.Sprintf("failed to create provider_data_processed counter: %v", err))
	}
	return &ProviderProcessor{
		store:            providerStore,
		products:         productValidator,
		publisher:        publisher,
		validate:         validator.New(),
		processedCounter: processedCounter,
		createMissing:    createMissing,
		logger:           logger.With("component", "provider_processor"),
		now:              time.Now,
	}
}

// ProcessProviderData decodes a JSON encoded ProviderData, validates its products and persists it.
// Problems with the submission are reported in the returned ProcessReport.
// An error is returned only when the store or a reference fails.
func (p *ProviderProcessor) ProcessProviderData(ctx context.Context, raw []byte) (*ProcessReport, error) {
	ctx, span := otel.Tracer("provider-service").Start(ctx, "ProcessProviderData")
	defer span.End()

	report, err := p.process(ctx, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("success", report.Success), attribute.Int("findings", len(report.ProductResults)))
	p.processedCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", report.Success)))
	return report, nil
}

func (p *ProviderProcessor) process(ctx context.Context, raw []byte) (*ProcessReport, error) {
	var candidate model.ProviderData
	if err := json.Unmarshal(raw, &candidate); err != nil {
		p.logger.WarnContext(ctx, "Failed to decode provider data", "error", err)
		return failureReport(ReasonMalformedData, nil), nil
	}
	if candidate.IsEmpty() {
		p.logger.WarnContext(ctx, "Provider data has no provider id")
		return failureReport(ReasonDataNotFound, nil), nil
	}
	if err := p.validate.Struct(&candidate); err != nil {
		p.logger.WarnContext(ctx, "Provider data is invalid", "provider_id", candidate.ProviderID, "error", err)
		return failureReport(ReasonMalformedData, nil), nil
	}
	candidate.Timestamp = candidate.Timestamp.Truncate(timestampPrecision)

	existing, err := p.store.FindByProviderID(ctx, candidate.ProviderID)
	switch {
	case errors.Is(err, apperrors.ErrProviderNotFound):
		if !p.createMissing {
			p.logger.InfoContext(ctx, "Provider not found", "provider_id", candidate.ProviderID)
			return failureReport(ReasonProviderNotFound, nil), nil
		}
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("failed to find provider %s: %w", candidate.ProviderID, err)
	}

	if existing != nil && candidate.Timestamp.Before(existing.Timestamp.Truncate(timestampPrecision)) {
		p.logger.WarnContext(ctx, "Outdated provider data",
			"provider_id", candidate.ProviderID,
			"timestamp", candidate.Timestamp,
			"stored_timestamp", existing.Timestamp,
		)
		return failureReport(ReasonOutdatedData, nil), nil
	}

	results, err := p.validateProducts(ctx, candidate.Products)
	if err != nil {
		return nil, err
	}
	report := successReport(results)
	if report.HasErrors() {
		p.logger.InfoContext(ctx, "Provider data has product errors", "provider_id", candidate.ProviderID, "findings", len(results))
		return failureReport(ReasonProductErrors, results), nil
	}

	event, err := p.persist(ctx, &candidate, existing)
	if err != nil {
		return nil, err
	}
	if event != nil {
		if err := p.publisher.Publish(ctx, *event); err != nil {
			p.logger.ErrorContext(ctx, "Failed to publish ProviderDataProcessedEvent", "provider_id", event.ProviderID, "error", err)
		}
	}
	return report, nil
}

func (p *ProviderProcessor) validateProducts(ctx context.Context, products []model.ProductData) ([]ProductValidationResult, error) {
	var results []ProductValidationResult
	for i := range products {
		found, err := p.products.ValidateProduct(ctx, &products[i])
		if err != nil {
			return nil, fmt.Errorf("failed to validate product %s: %w", products[i].ID, err)
		}
		results = append(results, found...)
	}
	return results, nil
}

// persist applies the candidate to the store and returns the event describing the change.
// It returns a nil event when nothing had to be written.
func (p *ProviderProcessor) persist(ctx context.Context, candidate, existing *model.ProviderData) (*events.ProviderDataProcessedEvent, error) {
	switch {
	case existing == nil:
		record := newRecord(candidate)
		if err := p.store.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save provider %s: %w", record.ProviderID, err)
		}
		p.logger.InfoContext(ctx, "Provider data created", "provider_id", record.ProviderID, "id", record.ID, "products", len(record.Products))
		return p.event(record, events.ActionCreated), nil

	case candidate.ReplaceData:
		if err := p.store.RemoveByID(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to remove provider data %s: %w", existing.ID, err)
		}
		record := newRecord(candidate)
		if err := p.store.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save provider %s: %w", record.ProviderID, err)
		}
		p.logger.InfoContext(ctx, "Provider data replaced",
			"provider_id", record.ProviderID,
			"old_id", existing.ID,
			"id", record.ID,
			"products", len(record.Products),
		)
		return p.event(record, events.ActionReplaced), nil

	default:
		merged, changed := mergeProducts(existing, candidate)
		if !changed {
			p.logger.DebugContext(ctx, "Provider data unchanged", "provider_id", existing.ProviderID)
			return nil, nil
		}
		if err := p.store.Update(ctx, merged); err != nil {
			return nil, fmt.Errorf("failed to update provider data %s: %w", merged.ID, err)
		}
		p.logger.InfoContext(ctx, "Provider data updated", "provider_id", merged.ProviderID, "id", merged.ID, "products", len(merged.Products))
		return p.event(merged, events.ActionUpdated), nil
	}
}

func (p *ProviderProcessor) event(record *model.ProviderData, action events.ProviderDataAction) *events.ProviderDataProcessedEvent {
	return &events.ProviderDataProcessedEvent{
		ProviderDataID: record.ID,
		ProviderID:     record.ProviderID,
		ProductCount:   len(record.Products),
		Action:         action,
		ProcessedAt:    p.now().UTC(),
	}
}

// newRecord copies the candidate for storing, assigning a record id when the submission has none.
func newRecord(candidate *model.ProviderData) *model.ProviderData {
	record := candidate.Clone()
	record.ReplaceData = false
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return record
}

// mergeProducts merges the candidate products into a copy of existing by product id.
// Products with a known id are replaced in place, new ones are appended in submission order.
// The stored timestamp moves forward to the candidate's.
// changed is false when the merged record equals existing.
func mergeProducts(existing, candidate *model.ProviderData) (merged *model.ProviderData, changed bool) {
	merged = existing.Clone()
	if candidate.Timestamp.After(merged.Timestamp) {
		merged.Timestamp = candidate.Timestamp
	}

	index := make(map[uuid.UUID]int, len(merged.Products))
	for i, product := range merged.Products {
		index[product.ID] = i
	}
	for _, product := range candidate.Products {
		if i, ok := index[product.ID]; ok {
			merged.Products[i] = product
			continue
		}
		index[product.ID] = len(merged.Products)
		merged.Products = append(merged.Products, product)
	}
	return merged, !sameRecord(existing, merged)
}

func sameRecord(a, b *model.ProviderData) bool {
	if !a.Timestamp.Equal(b.Timestamp) || len(a.Products) != len(b.Products) {
		return false
	}
	for i := range a.Products {
		if !sameProduct(a.Products[i], b.Products[i]) {
			return false
		}
	}
	return true
}

func sameProduct(a, b model.ProductData) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.MeasureUnitCode == b.MeasureUnitCode &&
		a.Price.Equal(b.Price)
}
