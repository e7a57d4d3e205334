package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ticketing/internal/dashboard"
	"github.com/goliatone/go-ticketing/internal/realtime"
	"github.com/goliatone/go-ticketing/pkg/activity"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

// updatePublisher is the slice of the realtime bridge the ledger needs.
type updatePublisher interface {
	TicketUpdate(ctx context.Context, ticketID uuid.UUID, changeKind string, payload any)
	DashboardUpdate(ctx context.Context, payload any)
}

// insightsProvider supplies the dashboard snapshot attached to updates.
type insightsProvider interface {
	Insights(ctx context.Context) (dashboard.Insights, error)
}

// Dependencies groups the repositories and services required by the ledger.
type Dependencies struct {
	Tickets   store.TicketRepository
	Events    store.EventRepository
	Publisher updatePublisher
	Insights  insightsProvider
	Hooks     activity.Hooks
	Logger    logger.Logger
}

// Service owns every ticket counter mutation. Admission to a ticket is
// serialized through a per-ticket mutex so quantity checks and writes form
// one atomic step; unrelated tickets never contend.
type Service struct {
	tickets   store.TicketRepository
	events    store.EventRepository
	publisher updatePublisher
	insights  insightsProvider
	hooks     activity.Hooks
	logger    logger.Logger
	locks     *lockArena
}

// PurchaseInput carries the buyer's request.
type PurchaseInput struct {
	Quantity       int
	PurchaserEmail string
}

// TicketInput describes a new ticket type within an event.
type TicketInput struct {
	TicketType        string
	Price             float64
	QuantityAvailable int
}

var (
	ErrMissingTickets  = errors.New("ledger: ticket repository is required")
	ErrMissingEvents   = errors.New("ledger: event repository is required")
	ErrInvalidQuantity = errors.New("ledger: quantity must be positive")
	ErrInvalidCapacity = errors.New("ledger: capacity must be positive")
	ErrMissingType     = errors.New("ledger: ticket type is required")
)

// New builds the ledger service.
func New(deps Dependencies) (*Service, error) {
	if deps.Tickets == nil {
		return nil, ErrMissingTickets
	}
	if deps.Events == nil {
		return nil, ErrMissingEvents
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Service{
		tickets:   deps.Tickets,
		events:    deps.Events,
		publisher: deps.Publisher,
		insights:  deps.Insights,
		hooks:     deps.Hooks,
		logger:    deps.Logger.With(logger.F("component", "ledger")),
		locks:     newLockArena(),
	}, nil
}

// Purchase admits the request against the ticket's remaining capacity. The
// check and the counter write happen under the ticket's lock, so concurrent
// buyers are admitted in arrival order and the sold counter can never pass
// the available one. Broadcasts fire after the write commits and their
// failure never unwinds it.
func (s *Service) Purchase(ctx context.Context, ticketID uuid.UUID, input PurchaseInput) (*domain.Ticket, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	lock := s.locks.lockFor(ticketID)
	lock.Lock()
	ticket, err := s.admit(ctx, ticketID, input)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	s.notifyTicket(ctx, ticket, realtime.ChangePurchased)
	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbTicketPurchased,
		ActorEmail: input.PurchaserEmail,
		ObjectType: "ticket",
		ObjectID:   ticket.ID.String(),
		EventID:    ticket.EventID.String(),
		Metadata:   map[string]any{"quantity": input.Quantity, "remaining": ticket.Remaining()},
	})
	return ticket, nil
}

func (s *Service) admit(ctx context.Context, ticketID uuid.UUID, input PurchaseInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError("ledger: load ticket", err)
	}

	if ticket.QuantitySold+input.Quantity > ticket.QuantityAvailable {
		return nil, fmt.Errorf("ledger: ticket %s has %d remaining: %w",
			ticketID, ticket.Remaining(), domain.ErrSoldOut)
	}

	ticket.QuantitySold += input.Quantity
	ticket.PurchasedBy = strings.TrimSpace(input.PurchaserEmail)
	ticket.PurchasedAt = time.Now().UTC()

	if err := s.tickets.UpdateWithVersion(ctx, ticket, ticket.Version); err != nil {
		return nil, mapStoreError("ledger: persist purchase", err)
	}
	return ticket, nil
}

// Scan marks the ticket attended. A ticket that was already scanned is
// rejected so a copied QR code cannot admit twice.
func (s *Service) Scan(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	lock := s.locks.lockFor(ticketID)
	lock.Lock()
	ticket, err := s.markScanned(ctx, ticketID)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	s.notifyTicket(ctx, ticket, realtime.ChangeScanned)
	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbTicketScanned,
		ActorEmail: ticket.PurchasedBy,
		ObjectType: "ticket",
		ObjectID:   ticket.ID.String(),
		EventID:    ticket.EventID.String(),
	})
	return ticket, nil
}

func (s *Service) markScanned(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError("ledger: load ticket", err)
	}

	if ticket.AttendanceStatus == domain.AttendanceScanned {
		return nil, fmt.Errorf("ledger: ticket %s: %w", ticketID, domain.ErrAlreadyScanned)
	}

	ticket.AttendanceStatus = domain.AttendanceScanned
	ticket.ScannedAt = time.Now().UTC()

	if err := s.tickets.UpdateWithVersion(ctx, ticket, ticket.Version); err != nil {
		return nil, mapStoreError("ledger: persist scan", err)
	}
	return ticket, nil
}

// CreateTicket registers a new ticket type under an existing event.
func (s *Service) CreateTicket(ctx context.Context, eventID uuid.UUID, input TicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.TicketType) == "" {
		return nil, ErrMissingType
	}
	if input.QuantityAvailable <= 0 {
		return nil, ErrInvalidCapacity
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, mapStoreError("ledger: load event", err)
	}

	ticket := &domain.Ticket{
		EventID:           eventID,
		TicketType:        strings.TrimSpace(input.TicketType),
		Price:             input.Price,
		QuantityAvailable: input.QuantityAvailable,
		AttendanceStatus:  domain.AttendanceNotAttended,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("ledger: create ticket: %w", err)
	}

	s.notifyTicket(ctx, ticket, realtime.ChangeCreated)
	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbTicketCreated,
		ObjectType: "ticket",
		ObjectID:   ticket.ID.String(),
		EventID:    eventID.String(),
	})
	return ticket, nil
}

// EventTickets lists the ticket types for an event.
func (s *Service) EventTickets(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, mapStoreError("ledger: load event", err)
	}
	tickets, err := s.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list tickets: %w", err)
	}
	return tickets, nil
}

// notifyTicket pushes the ticket change plus a fresh dashboard snapshot.
// Subscribers are best effort; a broken hub never fails the mutation.
func (s *Service) notifyTicket(ctx context.Context, ticket *domain.Ticket, changeKind string) {
	if s.publisher == nil {
		return
	}
	s.publisher.TicketUpdate(ctx, ticket.ID, changeKind, ticket)

	if s.insights == nil {
		return
	}
	snapshot, err := s.insights.Insights(ctx)
	if err != nil {
		s.logger.Warn("dashboard snapshot failed",
			logger.F("ticket_id", ticket.ID),
			logger.F("error", err),
		)
		return
	}
	s.publisher.DashboardUpdate(ctx, snapshot)
}

func mapStoreError(msg string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	case errors.Is(err, store.ErrVersionMismatch):
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
