package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TicketRepository persists tickets through Bun. Counter updates go through
// UpdateWithVersion so the ledger's check-then-write stays atomic even when
// several processes share the database.
type TicketRepository struct {
	base baseRepository[domain.Ticket]
}

var _ store.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(db *bun.DB) *TicketRepository {
	handlers := repository.ModelHandlers[*domain.Ticket]{
		NewRecord:          func() *domain.Ticket { return &domain.Ticket{} },
		GetID:              func(t *domain.Ticket) uuid.UUID { return t.ID },
		SetID:              func(t *domain.Ticket, id uuid.UUID) { t.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(t *domain.Ticket) string { return t.ID.String() },
	}
	return &TicketRepository{
		base: newBaseRepository[domain.Ticket](db, handlers, func(t *domain.Ticket) *domain.RecordMeta { return &t.RecordMeta }),
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	if t.AttendanceStatus == "" {
		t.AttendanceStatus = domain.AttendanceNotAttended
	}
	return r.base.create(ctx, t)
}

func (r *TicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	return r.base.update(ctx, t)
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *TicketRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Ticket], error) {
	return r.base.list(ctx, opts)
}

func (r *TicketRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	result, err := r.base.list(ctx, store.ListOptions{}, withEventID(eventID))
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// UpdateWithVersion issues a conditional UPDATE guarded by the version
// column. Zero affected rows means another writer won the race (or the row is
// gone); callers distinguish via a follow-up read.
func (r *TicketRepository) UpdateWithVersion(ctx context.Context, t *domain.Ticket, expected int64) error {
	t.UpdatedAt = time.Now().UTC()
	t.Version = expected + 1

	res, err := r.base.db.NewUpdate().
		Model(t).
		WherePK().
		Where("version = ?", expected).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		t.Version = expected
		if _, err := r.base.getByID(ctx, t.ID, false); errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return store.ErrVersionMismatch
	}
	return nil
}

func (r *TicketRepository) TotalSold(ctx context.Context) (int64, bool, error) {
	return r.sumColumn(ctx, "sum(quantity_sold)", nil)
}

func (r *TicketRepository) ActiveAttendances(ctx context.Context) (int64, bool, error) {
	return r.countWhere(ctx, nil)
}

func (r *TicketRepository) TotalSoldForEvents(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error) {
	if len(eventIDs) == 0 {
		return 0, false, nil
	}
	return r.sumColumn(ctx, "sum(quantity_sold)", eventIDs)
}

func (r *TicketRepository) ActiveAttendancesForEvents(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error) {
	if len(eventIDs) == 0 {
		return 0, false, nil
	}
	return r.countWhere(ctx, eventIDs)
}

// sumColumn runs an aggregate over live tickets. A NULL result (no rows)
// reports ok=false; the dashboard applies its zero-default policy.
func (r *TicketRepository) sumColumn(ctx context.Context, expr string, eventIDs []uuid.UUID) (int64, bool, error) {
	q := r.base.db.NewSelect().
		Model((*domain.Ticket)(nil)).
		ColumnExpr(expr).
		Where("deleted_at IS NULL")
	if len(eventIDs) > 0 {
		q = q.Where("event_id IN (?)", bun.In(eventIDs))
	}
	var total sql.NullInt64
	if err := q.Scan(ctx, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return total.Int64, total.Valid, nil
}

func (r *TicketRepository) countWhere(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error) {
	q := r.base.db.NewSelect().
		Model((*domain.Ticket)(nil)).
		Where("deleted_at IS NULL").
		Where("attendance_status = ?", domain.AttendanceScanned)
	if len(eventIDs) > 0 {
		q = q.Where("event_id IN (?)", bun.In(eventIDs))
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, false, err
	}
	return int64(count), true, nil
}
