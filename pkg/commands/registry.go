package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-ticketing/internal/commands"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
)

// Re-export request types so consumers need not import internal packages.
type (
	PurchaseTicket = internalcommands.PurchaseTicket
	ScanTicket     = internalcommands.ScanTicket
	CreateTicket   = internalcommands.CreateTicket
	CreateEvent    = internalcommands.CreateEvent
	DeleteEvent    = internalcommands.DeleteEvent
)

// Registry exposes go-command compatible handlers backed by the domain services.
type Registry struct {
	Catalog        *internalcommands.Catalog
	PurchaseTicket command.Commander[PurchaseTicket]
	ScanTicket     command.Commander[ScanTicket]
	CreateTicket   command.Commander[CreateTicket]
	CreateEvent    command.Commander[CreateEvent]
	DeleteEvent    command.Commander[DeleteEvent]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Ledger *ledger.Service
	Events *events.Service
	Logger logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	catalog, err := internalcommands.NewCatalog(internalcommands.Dependencies{
		Ledger: deps.Ledger,
		Events: deps.Events,
		Logger: deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:        catalog,
		PurchaseTicket: catalog.PurchaseTicket,
		ScanTicket:     catalog.ScanTicket,
		CreateTicket:   catalog.CreateTicket,
		CreateEvent:    catalog.CreateEvent,
		DeleteEvent:    catalog.DeleteEvent,
	}, nil
}
