package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-ticketing/internal/dashboard"
	"github.com/goliatone/go-ticketing/internal/storage/memory"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

type capturePublisher struct {
	mu         sync.Mutex
	ticket     []string
	dashboards int
}

func (p *capturePublisher) TicketUpdate(_ context.Context, _ uuid.UUID, changeKind string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticket = append(p.ticket, changeKind)
}

func (p *capturePublisher) DashboardUpdate(_ context.Context, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dashboards++
}

func (p *capturePublisher) changes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ticket...)
}

type staticInsights struct{}

func (staticInsights) Insights(context.Context) (dashboard.Insights, error) {
	return dashboard.Insights{TotalTicketsSold: 1}, nil
}

type fixture struct {
	svc       *Service
	tickets   store.TicketRepository
	events    store.EventRepository
	publisher *capturePublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tickets := memory.NewTicketRepository()
	events := memory.NewEventRepository()
	publisher := &capturePublisher{}
	svc, err := New(Dependencies{
		Tickets:   tickets,
		Events:    events,
		Publisher: publisher,
		Insights:  staticInsights{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{svc: svc, tickets: tickets, events: events, publisher: publisher}
}

func (f fixture) addEvent(t *testing.T) *domain.Event {
	t.Helper()
	event := &domain.Event{
		Name:      "Go Conference",
		Venue:     "Main Hall",
		StartsAt:  time.Now().Add(24 * time.Hour),
		CreatedBy: "owner@example.com",
	}
	if err := f.events.Create(context.Background(), event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func (f fixture) addTicket(t *testing.T, event *domain.Event, capacity int) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		EventID:           event.ID,
		TicketType:        "general",
		Price:             25,
		QuantityAvailable: capacity,
		AttendanceStatus:  domain.AttendanceNotAttended,
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestPurchaseHappyPath(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket(t, f.addEvent(t), 10)

	got, err := f.svc.Purchase(context.Background(), ticket.ID, PurchaseInput{
		Quantity:       2,
		PurchaserEmail: "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got.QuantitySold != 2 {
		t.Fatalf("expected 2 sold, got %d", got.QuantitySold)
	}
	if got.PurchasedBy != "buyer@example.com" {
		t.Fatalf("purchaser not recorded: %q", got.PurchasedBy)
	}
	if got.PurchasedAt.IsZero() {
		t.Fatal("purchase timestamp not stamped")
	}

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.QuantitySold != 2 {
		t.Fatalf("mutation not persisted, sold = %d", stored.QuantitySold)
	}

	changes := f.publisher.changes()
	if len(changes) != 1 || changes[0] != "PURCHASED" {
		t.Fatalf("expected one PURCHASED broadcast, got %v", changes)
	}
	if f.publisher.dashboards != 1 {
		t.Fatalf("expected dashboard snapshot broadcast, got %d", f.publisher.dashboards)
	}
}

func TestPurchaseUnknownTicket(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Purchase(context.Background(), uuid.New(), PurchaseInput{Quantity: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPurchaseInvalidQuantity(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket(t, f.addEvent(t), 10)

	for _, quantity := range []int{0, -3} {
		if _, err := f.svc.Purchase(context.Background(), ticket.ID, PurchaseInput{Quantity: quantity}); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", quantity, err)
		}
	}
}

func TestPurchaseAdmissionBoundary(t *testing.T) {
	cases := []struct {
		name       string
		quantities []int
		wantSold   int
		wantFails  int
	}{
		{"reject third over capacity", []int{10, 30, 15}, 40, 1},
		{"reject middle over capacity", []int{10, 45, 15}, 25, 1},
		{"exact fill", []int{10, 30, 10}, 50, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ticket := f.addTicket(t, f.addEvent(t), 50)

			fails := 0
			for _, quantity := range tc.quantities {
				_, err := f.svc.Purchase(context.Background(), ticket.ID, PurchaseInput{Quantity: quantity})
				if err != nil {
					if !errors.Is(err, domain.ErrSoldOut) {
						t.Fatalf("expected ErrSoldOut, got %v", err)
					}
					fails++
				}
			}

			if fails != tc.wantFails {
				t.Fatalf("expected %d rejections, got %d", tc.wantFails, fails)
			}
			stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if stored.QuantitySold != tc.wantSold {
				t.Fatalf("expected %d sold, got %d", tc.wantSold, stored.QuantitySold)
			}
		})
	}
}

func TestPurchaseNeverOversellsUnderContention(t *testing.T) {
	f := newFixture(t)
	const capacity = 5
	const buyers = 20
	ticket := f.addTicket(t, f.addEvent(t), capacity)

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Purchase(context.Background(), ticket.ID, PurchaseInput{
				Quantity:       1,
				PurchaserEmail: "buyer@example.com",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, soldOut := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != capacity {
		t.Fatalf("expected %d admissions, got %d", capacity, succeeded)
	}
	if soldOut != buyers-capacity {
		t.Fatalf("expected %d rejections, got %d", buyers-capacity, soldOut)
	}

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.QuantitySold != capacity {
		t.Fatalf("counter lost updates: sold = %d, want %d", stored.QuantitySold, capacity)
	}
}

func TestUnrelatedTicketsDoNotContend(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(t)
	ticketA := f.addTicket(t, event, 100)
	ticketB := f.addTicket(t, event, 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Purchase(context.Background(), ticketA.ID, PurchaseInput{Quantity: 1})
		}()
		go func() {
			defer wg.Done()
			_, _ = f.svc.Purchase(context.Background(), ticketB.ID, PurchaseInput{Quantity: 1})
		}()
	}
	wg.Wait()

	for _, id := range []uuid.UUID{ticketA.ID, ticketB.ID} {
		stored, err := f.tickets.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if stored.QuantitySold != 50 {
			t.Fatalf("ticket %s: expected 50 sold, got %d", id, stored.QuantitySold)
		}
	}
}

func TestScanRoundTrip(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket(t, f.addEvent(t), 10)
	if _, err := f.svc.Purchase(context.Background(), ticket.ID, PurchaseInput{Quantity: 1, PurchaserEmail: "buyer@example.com"}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	got, err := f.svc.Scan(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.AttendanceStatus != domain.AttendanceScanned {
		t.Fatalf("expected scanned status, got %q", got.AttendanceStatus)
	}
	if got.ScannedAt.IsZero() {
		t.Fatal("scan timestamp not stamped")
	}

	changes := f.publisher.changes()
	if len(changes) != 2 || changes[1] != "SCANNED" {
		t.Fatalf("expected SCANNED broadcast after purchase, got %v", changes)
	}
}

func TestScanRejectsSecondScan(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket(t, f.addEvent(t), 10)

	if _, err := f.svc.Scan(context.Background(), ticket.ID); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if _, err := f.svc.Scan(context.Background(), ticket.ID); !errors.Is(err, domain.ErrAlreadyScanned) {
		t.Fatalf("expected ErrAlreadyScanned, got %v", err)
	}
}

func TestScanUnknownTicket(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Scan(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTicket(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(t)

	ticket, err := f.svc.CreateTicket(context.Background(), event.ID, TicketInput{
		TicketType:        "vip",
		Price:             120,
		QuantityAvailable: 20,
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if ticket.ID == uuid.Nil {
		t.Fatal("expected assigned ID")
	}
	if ticket.AttendanceStatus != domain.AttendanceNotAttended {
		t.Fatalf("expected not_attended default, got %q", ticket.AttendanceStatus)
	}

	changes := f.publisher.changes()
	if len(changes) != 1 || changes[0] != "CREATED" {
		t.Fatalf("expected CREATED broadcast, got %v", changes)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(t)

	if _, err := f.svc.CreateTicket(context.Background(), event.ID, TicketInput{QuantityAvailable: 10}); !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
	if _, err := f.svc.CreateTicket(context.Background(), event.ID, TicketInput{TicketType: "vip"}); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := f.svc.CreateTicket(context.Background(), uuid.New(), TicketInput{TicketType: "vip", QuantityAvailable: 10}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown event, got %v", err)
	}
}

func TestEventTickets(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent(t)
	other := f.addEvent(t)
	f.addTicket(t, event, 10)
	f.addTicket(t, event, 20)
	f.addTicket(t, other, 30)

	tickets, err := f.svc.EventTickets(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("event tickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}

	if _, err := f.svc.EventTickets(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPurchaseWithoutPublisher(t *testing.T) {
	tickets := memory.NewTicketRepository()
	events := memory.NewEventRepository()
	svc, err := New(Dependencies{Tickets: tickets, Events: events})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event := &domain.Event{Name: "Quiet Event", CreatedBy: "owner@example.com"}
	if err := events.Create(context.Background(), event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	ticket := &domain.Ticket{
		EventID:           event.ID,
		TicketType:        "general",
		QuantityAvailable: 1,
		AttendanceStatus:  domain.AttendanceNotAttended,
	}
	if err := tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	if _, err := svc.Purchase(context.Background(), ticket.ID, PurchaseInput{Quantity: 1}); err != nil {
		t.Fatalf("purchase without publisher: %v", err)
	}
}
