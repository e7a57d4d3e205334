package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

func TestTicketRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	ticket := &domain.Ticket{
		EventID:           uuid.New(),
		TicketType:        "VIP",
		Price:             100,
		QuantityAvailable: 50,
		AttendanceStatus:  domain.AttendanceNotAttended,
	}
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ID == uuid.Nil {
		t.Fatalf("expected assigned id")
	}

	got, err := repo.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TicketType != "VIP" {
		t.Fatalf("expected VIP, got %s", got.TicketType)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTicketRepositoryUpdateWithVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	ticket := &domain.Ticket{
		EventID:           uuid.New(),
		TicketType:        "GA",
		QuantityAvailable: 10,
		AttendanceStatus:  domain.AttendanceNotAttended,
	}
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	ticket.QuantitySold = 3
	if err := repo.UpdateWithVersion(ctx, ticket, 0); err != nil {
		t.Fatalf("cas update: %v", err)
	}
	if ticket.Version != 1 {
		t.Fatalf("expected version bump, got %d", ticket.Version)
	}

	stale := *ticket
	stale.QuantitySold = 5
	if err := repo.UpdateWithVersion(ctx, &stale, 0); !errors.Is(err, store.ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}

	got, err := repo.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuantitySold != 3 {
		t.Fatalf("stale write must not apply, got sold=%d", got.QuantitySold)
	}
}

func TestTicketRepositoryAggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	if _, ok, err := repo.TotalSold(ctx); err != nil || ok {
		t.Fatalf("empty repo should report absent aggregate, ok=%v err=%v", ok, err)
	}

	eventA := uuid.New()
	eventB := uuid.New()
	seed := []domain.Ticket{
		{EventID: eventA, TicketType: "GA", QuantityAvailable: 100, QuantitySold: 10, AttendanceStatus: domain.AttendanceScanned},
		{EventID: eventA, TicketType: "VIP", QuantityAvailable: 10, QuantitySold: 5, AttendanceStatus: domain.AttendanceNotAttended},
		{EventID: eventB, TicketType: "GA", QuantityAvailable: 20, QuantitySold: 20, AttendanceStatus: domain.AttendanceScanned},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, ok, err := repo.TotalSold(ctx)
	if err != nil || !ok || total != 35 {
		t.Fatalf("total sold = %d ok=%v err=%v", total, ok, err)
	}
	active, ok, err := repo.ActiveAttendances(ctx)
	if err != nil || !ok || active != 2 {
		t.Fatalf("active = %d ok=%v err=%v", active, ok, err)
	}

	scoped, ok, err := repo.TotalSoldForEvents(ctx, []uuid.UUID{eventA})
	if err != nil || !ok || scoped != 15 {
		t.Fatalf("scoped sold = %d ok=%v err=%v", scoped, ok, err)
	}
	if _, ok, _ := repo.TotalSoldForEvents(ctx, []uuid.UUID{uuid.New()}); ok {
		t.Fatalf("unknown event should report absent aggregate")
	}
}

func TestEventRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()

	for _, owner := range []string{"a@example.com", "a@example.com", "b@example.com"} {
		evt := &domain.Event{Name: uuid.NewString(), CreatedBy: owner}
		if err := repo.Create(ctx, evt); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	count, err := repo.CountByOwner(ctx, "A@Example.com")
	if err != nil || count != 2 {
		t.Fatalf("count by owner = %d err=%v", count, err)
	}
	total, err := repo.Count(ctx)
	if err != nil || total != 3 {
		t.Fatalf("count = %d err=%v", total, err)
	}

	result, err := repo.ListByOwner(ctx, "b@example.com", store.ListOptions{})
	if err != nil || result.Total != 1 {
		t.Fatalf("list by owner total = %d err=%v", result.Total, err)
	}
}

func TestEventRepositoryGetByName(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()

	evt := &domain.Event{Name: "Launch Party", CreatedBy: "a@example.com"}
	if err := repo.Create(ctx, evt); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByName(ctx, "launch party")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != evt.ID {
		t.Fatalf("expected %s, got %s", evt.ID, got.ID)
	}
	if _, err := repo.GetByName(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	user := &domain.User{
		Email:        "owner@example.com",
		PhoneNumber:  "+15550100",
		PasswordHash: "x",
		Role:         domain.RoleEventOwner,
		RefreshToken: "refresh-1",
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetByEmail(ctx, "OWNER@example.com"); err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if _, err := repo.GetByPhoneNumber(ctx, "+15550100"); err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-1"); err != nil {
		t.Fatalf("get by refresh token: %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("empty token must not match, got %v", err)
	}

	if err := repo.SoftDelete(ctx, user.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "owner@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted user should be invisible, got %v", err)
	}
}
