package memory

import (
	"context"
	"strings"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

// EventRepository keeps events in an in-memory map.
type EventRepository struct {
	baseMemoryRepo[domain.Event]
}

var _ store.EventRepository = (*EventRepository)(nil)

// NewEventRepository builds an empty in-memory event store.
func NewEventRepository() *EventRepository {
	return &EventRepository{
		baseMemoryRepo: newBaseMemoryRepo(func(e *domain.Event) *domain.RecordMeta {
			return &e.RecordMeta
		}),
	}
}

func (r *EventRepository) Create(ctx context.Context, record *domain.Event) error {
	return r.create(ctx, record)
}

func (r *EventRepository) Update(ctx context.Context, record *domain.Event) error {
	return r.update(ctx, record)
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.getByID(ctx, id, false)
}

func (r *EventRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	return r.list(ctx, opts, nil)
}

func (r *EventRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, id)
}

func (r *EventRepository) GetByName(ctx context.Context, name string) (*domain.Event, error) {
	var found *domain.Event
	r.each(func(e *domain.Event) {
		if found == nil && strings.EqualFold(e.Name, name) {
			match := *e
			found = &match
		}
	})
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerEmail string, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	return r.list(ctx, opts, func(e *domain.Event) bool {
		return strings.EqualFold(e.CreatedBy, ownerEmail)
	})
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	r.each(func(*domain.Event) { total++ })
	return total, nil
}

func (r *EventRepository) CountByOwner(ctx context.Context, ownerEmail string) (int64, error) {
	var total int64
	r.each(func(e *domain.Event) {
		if strings.EqualFold(e.CreatedBy, ownerEmail) {
			total++
		}
	})
	return total, nil
}
