// Package store provides persistence for provider data records.
package store

import (
	"context"

	"github.com/abgdnv/providerhub/internal/model"
	"github.com/google/uuid"
)

// ProviderStore is an interface for provider data storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProviderStore interface {
	// FindByProviderID retrieves the record stored for a provider.
	// Returns ErrProviderNotFound if the provider has no record.
	FindByProviderID(ctx context.Context, providerID uuid.UUID) (*model.ProviderData, error)

	// Save stores a new record. The record ID must be set.
	Save(ctx context.Context, data *model.ProviderData) error

	// Update overwrites the record with the same ID, products included.
	// Returns ErrProviderNotFound if no record exists with the given ID.
	Update(ctx context.Context, data *model.ProviderData) error

	// RemoveByID deletes a record and its products.
	// Returns ErrProviderNotFound if no record exists with the given ID.
	RemoveByID(ctx context.Context, id uuid.UUID) error
}
