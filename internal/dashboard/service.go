package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

// Insights is the rollup shown on the operator dashboard. TotalRevenue is
// carried for wire compatibility but always reads zero until pricing data is
// folded into purchases.
type Insights struct {
	TotalTicketsSold  int64   `json:"total_tickets_sold"`
	ActiveAttendances int64   `json:"active_attendances"`
	TotalEvents       int64   `json:"total_events"`
	TotalRevenue      float64 `json:"total_revenue"`
}

// Dependencies groups the repositories required by the aggregator.
type Dependencies struct {
	Tickets store.TicketRepository
	Events  store.EventRepository
	Logger  logger.Logger
}

// Service computes dashboard rollups straight from storage. It keeps no
// state, so it is safe to call while purchases and scans are in flight; the
// numbers are a consistent-enough snapshot, not an isolated one.
type Service struct {
	tickets store.TicketRepository
	events  store.EventRepository
	logger  logger.Logger
}

var (
	ErrMissingTickets = errors.New("dashboard: ticket repository is required")
	ErrMissingEvents  = errors.New("dashboard: event repository is required")
)

// New builds the aggregator service.
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
		tickets: deps.Tickets,
		events:  deps.Events,
		logger:  deps.Logger.With(logger.F("component", "dashboard")),
	}, nil
}

// Insights returns platform-wide totals. Aggregates with no contributing
// rows read as zero.
func (s *Service) Insights(ctx context.Context) (Insights, error) {
	sold, ok, err := s.tickets.TotalSold(ctx)
	if err != nil {
		return Insights{}, fmt.Errorf("dashboard: total sold: %w", err)
	}
	if !ok {
		sold = 0
	}

	attendances, ok, err := s.tickets.ActiveAttendances(ctx)
	if err != nil {
		return Insights{}, fmt.Errorf("dashboard: active attendances: %w", err)
	}
	if !ok {
		attendances = 0
	}

	eventCount, err := s.events.Count(ctx)
	if err != nil {
		return Insights{}, fmt.Errorf("dashboard: event count: %w", err)
	}

	return Insights{
		TotalTicketsSold:  sold,
		ActiveAttendances: attendances,
		TotalEvents:       eventCount,
		TotalRevenue:      0,
	}, nil
}

// OwnerInsights returns the same rollup restricted to events created by
// ownerEmail. An owner with no events gets all zeros, not an error.
func (s *Service) OwnerInsights(ctx context.Context, ownerEmail string) (Insights, error) {
	owned, err := s.events.ListByOwner(ctx, ownerEmail, store.ListOptions{})
	if err != nil {
		return Insights{}, fmt.Errorf("dashboard: owner events: %w", err)
	}
	if len(owned.Items) == 0 {
		return Insights{}, nil
	}

	eventIDs := make([]uuid.UUID, 0, len(owned.Items))
	for _, event := range owned.Items {
		eventIDs = append(eventIDs, event.ID)
	}

	sold, ok, err := s.tickets.TotalSoldForEvents(ctx, eventIDs)
	if err != nil {
		return Insights{}, fmt.Errorf("dashboard: owner total sold: %w", err)
	}
	if !ok {
		sold = 0
	}

	attendances, ok, err := s.tickets.ActiveAttendancesForEvents(ctx, eventIDs)
	if err != nil {
		return Insights{}, fmt.Errorf("dashboard: owner attendances: %w", err)
	}
	if !ok {
		attendances = 0
	}

	return Insights{
		TotalTicketsSold:  sold,
		ActiveAttendances: attendances,
		TotalEvents:       int64(len(owned.Items)),
		TotalRevenue:      0,
	}, nil
}
