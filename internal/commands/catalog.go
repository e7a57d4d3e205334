package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	PurchaseTicket command.Commander[PurchaseTicket]
	ScanTicket     command.Commander[ScanTicket]
	CreateTicket   command.Commander[CreateTicket]
	CreateEvent    command.Commander[CreateEvent]
	DeleteEvent    command.Commander[DeleteEvent]
}

type ledgerService interface {
	Purchase(ctx context.Context, ticketID uuid.UUID, input ledger.PurchaseInput) (*domain.Ticket, error)
	Scan(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error)
	CreateTicket(ctx context.Context, eventID uuid.UUID, input ledger.TicketInput) (*domain.Ticket, error)
}

type eventService interface {
	Create(ctx context.Context, input events.CreateInput) (*domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID, actorEmail string) error
}

// Dependencies wires domain services into the command catalog.
type Dependencies struct {
	Ledger ledgerService
	Events eventService
	Logger logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Ledger == nil {
		return nil, errors.New("commands: ledger service is required")
	}
	if deps.Events == nil {
		return nil, errors.New("commands: event service is required")
	}

	return &Catalog{
		PurchaseTicket: purchaseCommand{svc: deps.Ledger},
		ScanTicket:     scanCommand{svc: deps.Ledger},
		CreateTicket:   createTicketCommand{svc: deps.Ledger},
		CreateEvent:    createEventCommand{svc: deps.Events},
		DeleteEvent:    deleteEventCommand{svc: deps.Events},
	}, nil
}

// PurchaseTicket reserves seats on a ticket type for a buyer.
type PurchaseTicket struct {
	TicketID       uuid.UUID `json:"ticket_id"`
	Quantity       int       `json:"quantity"`
	PurchaserEmail string    `json:"purchaser_email"`
}

type purchaseCommand struct {
	svc ledgerService
}

func (c purchaseCommand) Execute(ctx context.Context, msg PurchaseTicket) error {
	if msg.TicketID == uuid.Nil {
		return errors.New("commands: ticket id is required")
	}
	_, err := c.svc.Purchase(ctx, msg.TicketID, ledger.PurchaseInput{
		Quantity:       msg.Quantity,
		PurchaserEmail: strings.TrimSpace(msg.PurchaserEmail),
	})
	return err
}

// ScanTicket records entry at the venue door.
type ScanTicket struct {
	TicketID uuid.UUID `json:"ticket_id"`
}

type scanCommand struct {
	svc ledgerService
}

func (c scanCommand) Execute(ctx context.Context, msg ScanTicket) error {
	if msg.TicketID == uuid.Nil {
		return errors.New("commands: ticket id is required")
	}
	_, err := c.svc.Scan(ctx, msg.TicketID)
	return err
}

// CreateTicket adds a ticket type to an event.
type CreateTicket struct {
	EventID           uuid.UUID `json:"event_id"`
	TicketType        string    `json:"ticket_type"`
	Price             float64   `json:"price"`
	QuantityAvailable int       `json:"quantity_available"`
}

type createTicketCommand struct {
	svc ledgerService
}

func (c createTicketCommand) Execute(ctx context.Context, msg CreateTicket) error {
	if msg.EventID == uuid.Nil {
		return errors.New("commands: event id is required")
	}
	_, err := c.svc.CreateTicket(ctx, msg.EventID, ledger.TicketInput{
		TicketType:        strings.TrimSpace(msg.TicketType),
		Price:             msg.Price,
		QuantityAvailable: msg.QuantityAvailable,
	})
	return err
}

// CreateEvent registers a new event owned by an organizer.
type CreateEvent struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Venue       string         `json:"venue"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      time.Time      `json:"ends_at"`
	OwnerEmail  string         `json:"owner_email"`
	Metadata    map[string]any `json:"metadata"`
}

type createEventCommand struct {
	svc eventService
}

func (c createEventCommand) Execute(ctx context.Context, msg CreateEvent) error {
	_, err := c.svc.Create(ctx, events.CreateInput{
		Name:        strings.TrimSpace(msg.Name),
		Description: msg.Description,
		Venue:       msg.Venue,
		StartsAt:    msg.StartsAt,
		EndsAt:      msg.EndsAt,
		OwnerEmail:  strings.TrimSpace(msg.OwnerEmail),
		Metadata:    domain.JSONMap(msg.Metadata),
	})
	return err
}

// DeleteEvent removes an event on behalf of its owner.
type DeleteEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	ActorEmail string    `json:"actor_email"`
}

type deleteEventCommand struct {
	svc eventService
}

func (c deleteEventCommand) Execute(ctx context.Context, msg DeleteEvent) error {
	if msg.EventID == uuid.Nil {
		return errors.New("commands: event id is required")
	}
	return c.svc.Delete(ctx, msg.EventID, strings.TrimSpace(msg.ActorEmail))
}
