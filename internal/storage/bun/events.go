package bunrepo

import (
	"context"
	"strings"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type EventRepository struct {
	base baseRepository[domain.Event]
}

var _ store.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *bun.DB) *EventRepository {
	handlers := repository.ModelHandlers[*domain.Event]{
		NewRecord:          func() *domain.Event { return &domain.Event{} },
		GetID:              func(e *domain.Event) uuid.UUID { return e.ID },
		SetID:              func(e *domain.Event, id uuid.UUID) { e.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(e *domain.Event) string { return e.ID.String() },
	}
	return &EventRepository{
		base: newBaseRepository[domain.Event](db, handlers, func(e *domain.Event) *domain.RecordMeta { return &e.RecordMeta }),
	}
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	return r.base.create(ctx, e)
}

func (r *EventRepository) Update(ctx context.Context, e *domain.Event) error {
	return r.base.update(ctx, e)
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *EventRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	return r.base.list(ctx, opts)
}

func (r *EventRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *EventRepository) GetByName(ctx context.Context, name string) (*domain.Event, error) {
	record, err := r.base.repo.Get(ctx,
		withoutDeleted(),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(name) = ?", strings.ToLower(name))
		},
	)
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerEmail string, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	return r.base.list(ctx, opts, withOwner(ownerEmail))
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.base.db.NewSelect().
		Model((*domain.Event)(nil)).
		Where("deleted_at IS NULL").
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}

func (r *EventRepository) CountByOwner(ctx context.Context, ownerEmail string) (int64, error) {
	count, err := r.base.db.NewSelect().
		Model((*domain.Event)(nil)).
		Where("deleted_at IS NULL").
		Where("lower(created_by) = ?", strings.ToLower(ownerEmail)).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}
