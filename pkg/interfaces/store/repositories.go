package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ErrVersionMismatch is returned by compare-and-swap updates when the stored
// version no longer matches the expected one.
var ErrVersionMismatch = errors.New("store: version mismatch")

// ListOptions capture pagination knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base CRUD helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, opts ListOptions) (ListResult[T], error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TicketRepository persists ticket types and their counters. Aggregate
// queries return an explicit ok flag: absence of rows is data, not an error,
// and the dashboard maps it to zero.
type TicketRepository interface {
	Repository[domain.Ticket]
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error)
	// UpdateWithVersion persists the record only when the stored version
	// equals expected, then increments it. Returns ErrVersionMismatch on a
	// concurrent write.
	UpdateWithVersion(ctx context.Context, record *domain.Ticket, expected int64) error
	TotalSold(ctx context.Context) (int64, bool, error)
	ActiveAttendances(ctx context.Context) (int64, bool, error)
	TotalSoldForEvents(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error)
	ActiveAttendancesForEvents(ctx context.Context, eventIDs []uuid.UUID) (int64, bool, error)
}

// EventRepository persists events and ownership lookups.
type EventRepository interface {
	Repository[domain.Event]
	GetByName(ctx context.Context, name string) (*domain.Event, error)
	ListByOwner(ctx context.Context, ownerEmail string, opts ListOptions) (ListResult[domain.Event], error)
	Count(ctx context.Context) (int64, error)
	CountByOwner(ctx context.Context, ownerEmail string) (int64, error)
}

// UserRepository persists accounts and their token state.
type UserRepository interface {
	Repository[domain.User]
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*domain.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)
}
