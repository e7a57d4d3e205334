package memory

import (
	"context"
	"time"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

// TicketRepository keeps tickets in an in-memory map. Aggregates mirror the
// SQL implementations: no matching rows reports ok=false so callers can apply
// their own zero-default policy.
type TicketRepository struct {
	baseMemoryRepo[domain.Ticket]
}

var _ store.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository builds an empty in-memory ticket store.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		baseMemoryRepo: newBaseMemoryRepo(func(t *domain.Ticket) *domain.RecordMeta {
			return &t.RecordMeta
		}),
	}
}

func (r *TicketRepository) Create(ctx context.Context, record *domain.Ticket) error {
	return r.create(ctx, record)
}

func (r *TicketRepository) Update(ctx context.Context, record *domain.Ticket) error {
	return r.update(ctx, record)
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return r.getByID(ctx, id, false)
}

func (r *TicketRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Ticket], error) {
	return r.list(ctx, opts, nil)
}

func (r *TicketRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, id)
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	result, err := r.list(ctx, store.ListOptions{}, func(t *domain.Ticket) bool {
		return t.EventID == eventID
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// UpdateWithVersion applies the write only when the stored version matches
// expected, bumping it by one. The whole check-and-write runs under the
// repository lock.
func (r *TicketRepository) UpdateWithVersion(ctx context.Context, record *domain.Ticket, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[record.ID]
	if !ok || !current.DeletedAt.IsZero() {
		return store.ErrNotFound
	}
	if current.Version != expected {
		return store.ErrVersionMismatch
	}
	record.Version = expected + 1
	record.UpdatedAt = time.Now().UTC()
	r.records[record.ID] = *record
	return nil
}

func (r *TicketRepository) TotalSold(ctx context.Context) (int64, bool, error) {
	return r.sum(func(t *domain.Ticket) (int64, bool) {
		return int64(t.QuantitySold), true
	})
}

func (r *TicketRepository) ActiveAttendances(ctx context.Context) (int64, bool, error) {
	return r.sum(func(t *domain.Ticket) (int64, bool) {
		if t.AttendanceStatus == domain.AttendanceScanned {
			return 1, true
		}
		return 0, true
	})
}

func (r *TicketRepository) TotalSoldForEvents(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error) {
	members := idSet(eventIDs)
	return r.sum(func(t *domain.Ticket) (int64, bool) {
		if _, ok := members[t.EventID]; !ok {
			return 0, false
		}
		return int64(t.QuantitySold), true
	})
}

func (r *TicketRepository) ActiveAttendancesForEvents(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error) {
	members := idSet(eventIDs)
	return r.sum(func(t *domain.Ticket) (int64, bool) {
		if _, ok := members[t.EventID]; !ok {
			return 0, false
		}
		if t.AttendanceStatus == domain.AttendanceScanned {
			return 1, true
		}
		return 0, true
	})
}

// sum aggregates over live tickets; ok=false when no ticket contributed,
// mirroring a SQL SUM over zero rows returning NULL.
func (r *TicketRepository) sum(fn func(*domain.Ticket) (int64, bool)) (int64, bool, error) {
	var total int64
	contributed := false
	r.each(func(t *domain.Ticket) {
		v, counted := fn(t)
		if counted {
			contributed = true
			total += v
		}
	})
	return total, contributed, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
