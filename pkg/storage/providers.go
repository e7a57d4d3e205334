package storage

import (
	"context"
	"database/sql"

	bunrepo "github.com/goliatone/go-ticketing/internal/storage/bun"
	"github.com/goliatone/go-ticketing/internal/storage/memory"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// Providers exposes all repositories needed by services.
type Providers struct {
	Events      store.EventRepository
	Tickets     store.TicketRepository
	Users       store.UserRepository
	Transaction store.TransactionManager
}

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders() Providers {
	return Providers{
		Events:      memory.NewEventRepository(),
		Tickets:     memory.NewTicketRepository(),
		Users:       memory.NewUserRepository(),
		Transaction: &store.NopTransactionManager{},
	}
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
func NewBunProviders(db *bun.DB) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(
		(*domain.Event)(nil),
		(*domain.Ticket)(nil),
		(*domain.User)(nil),
	)

	return Providers{
		Events:      bunrepo.NewEventRepository(db),
		Tickets:     bunrepo.NewTicketRepository(db),
		Users:       bunrepo.NewUserRepository(db),
		Transaction: &bunTxManager{db: db},
	}
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
