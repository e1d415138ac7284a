package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	GetByPhone(ctx context.Context, phone string) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
}

// GetOrCreateByPhone returns the lead matching the normalized phone, creating
// a fresh one in status "new" if none exists.
func GetOrCreateByPhone(ctx context.Context, repo Repository, phone, name string) (*Lead, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, ErrMissingPhone
	}

	lead, err := repo.GetByPhone(ctx, normalized)
	if err == nil {
		return lead, nil
	}
	if err != ErrLeadNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	lead = &Lead{
		ID:            uuid.New(),
		Phone:         normalized,
		Name:          name,
		Status:        StatusNew,
		LastContactAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lead.Score = ScoreOf(lead)
	if err := repo.Create(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Lead
	byPhone map[string]uuid.UUID
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[uuid.UUID]*Lead),
		byPhone: make(map[string]uuid.UUID),
	}
}

// Create stores a new lead.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) error {
	if lead.Phone == "" {
		return ErrMissingPhone
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *lead
	r.byID[lead.ID] = &cp
	r.byPhone[lead.Phone] = lead.ID
	return nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.byID[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

// GetByPhone retrieves a lead by its normalized phone number.
func (r *InMemoryRepository) GetByPhone(ctx context.Context, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return nil, ErrLeadNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Update overwrites an existing lead.
func (r *InMemoryRepository) Update(ctx context.Context, lead *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[lead.ID]; !ok {
		return ErrLeadNotFound
	}
	cp := *lead
	r.byID[lead.ID] = &cp
	r.byPhone[lead.Phone] = lead.ID
	return nil
}
