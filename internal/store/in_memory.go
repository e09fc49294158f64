package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/abgdnv/providerhub/internal/errors"
	"github.com/abgdnv/providerhub/internal/model"
	"github.com/google/uuid"
)

var _ ProviderStore = (*InMemoryStore)(nil)

// InMemoryStore keeps records in process memory. Records are copied on the way in and out.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*model.ProviderData
	byProvider map[uuid.UUID]uuid.UUID
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[uuid.UUID]*model.ProviderData),
		byProvider: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *InMemoryStore) FindByProviderID(_ context.Context, providerID uuid.UUID) (*model.ProviderData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byProvider[providerID]
	if !ok {
		return nil, apperrors.ErrProviderNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, data *model.ProviderData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.ID == uuid.Nil {
		return fmt.Errorf("%w: record id is not set", apperrors.ErrSaveProvider)
	}
	if _, ok := s.byID[data.ID]; ok {
		return fmt.Errorf("%w: record %s already exists", apperrors.ErrSaveProvider, data.ID)
	}
	if _, ok := s.byProvider[data.ProviderID]; ok {
		return fmt.Errorf("%w: provider %s already has a record", apperrors.ErrSaveProvider, data.ProviderID)
	}
	s.byID[data.ID] = normalize(data.Clone())
	s.byProvider[data.ProviderID] = data.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, data *model.ProviderData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[data.ID]
	if !ok {
		return apperrors.ErrProviderNotFound
	}
	if current.ProviderID != data.ProviderID {
		return fmt.Errorf("%w: provider id cannot change", apperrors.ErrUpdateProvider)
	}
	s.byID[data.ID] = normalize(data.Clone())
	return nil
}

func (s *InMemoryStore) RemoveByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return apperrors.ErrProviderNotFound
	}
	delete(s.byProvider, current.ProviderID)
	delete(s.byID, id)
	return nil
}

// normalize drops the request-only flag and sub-microsecond time so stored records look the same as those read from PostgreSQL.
func normalize(data *model.ProviderData) *model.ProviderData {
	data.ReplaceData = false
	data.Timestamp = data.Timestamp.Truncate(time.Microsecond).UTC()
	if data.Products == nil {
		data.Products = []model.ProductData{}
	}
	return data
}
