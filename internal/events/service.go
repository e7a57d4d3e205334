package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ticketing/internal/realtime"
	"github.com/goliatone/go-ticketing/pkg/activity"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

// updatePublisher is the slice of the realtime bridge the event service needs.
type updatePublisher interface {
	EventUpdate(ctx context.Context, eventID uuid.UUID, changeKind string, payload any)
}

// Dependencies groups the repositories and services required by the event
// service. Tickets and Transaction are optional; without them Delete skips
// the ticket cascade and runs without transactional guarantees.
type Dependencies struct {
	Events      store.EventRepository
	Tickets     store.TicketRepository
	Transaction store.TransactionManager
	Publisher   updatePublisher
	Hooks       activity.Hooks
	Logger      logger.Logger
}

// Service owns the event catalogue. Every mutation checks ownership against
// the acting account's email and announces itself to live subscribers.
type Service struct {
	events    store.EventRepository
	tickets   store.TicketRepository
	tx        store.TransactionManager
	publisher updatePublisher
	hooks     activity.Hooks
	logger    logger.Logger
}

// CreateInput describes a new event.
type CreateInput struct {
	Name        string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	OwnerEmail  string
	Metadata    domain.JSONMap
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Venue       *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Metadata    domain.JSONMap
}

var (
	ErrMissingEvents = errors.New("events: event repository is required")
	ErrMissingName   = errors.New("events: name is required")
	ErrMissingOwner  = errors.New("events: owner email is required")
)

// New builds the event service.
func New(deps Dependencies) (*Service, error) {
	if deps.Events == nil {
		return nil, ErrMissingEvents
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Transaction == nil {
		deps.Transaction = &store.NopTransactionManager{}
	}
	return &Service{
		events:    deps.Events,
		tickets:   deps.Tickets,
		tx:        deps.Transaction,
		publisher: deps.Publisher,
		hooks:     deps.Hooks,
		logger:    deps.Logger.With(logger.F("component", "events")),
	}, nil
}

// Create registers an event under ownerEmail. An owner cannot reuse a name
// they already have an event under.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMissingName
	}
	owner := strings.TrimSpace(input.OwnerEmail)
	if owner == "" {
		return nil, ErrMissingOwner
	}

	if existing, err := s.events.GetByName(ctx, name); err == nil {
		if strings.EqualFold(existing.CreatedBy, owner) {
			return nil, fmt.Errorf("events: event %q: %w", name, domain.ErrDuplicate)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("events: name lookup: %w", err)
	}

	event := &domain.Event{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Venue:       strings.TrimSpace(input.Venue),
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		CreatedBy:   owner,
		Metadata:    input.Metadata,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("events: create: %w", err)
	}

	s.announce(ctx, event, realtime.ChangeCreated)
	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbEventCreated,
		ActorEmail: owner,
		ObjectType: "event",
		ObjectID:   event.ID.String(),
	})
	return event, nil
}

// GetByID loads one event.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("events: load", err)
	}
	return event, nil
}

// List returns a page of events.
func (s *Service) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	result, err := s.events.List(ctx, opts)
	if err != nil {
		return store.ListResult[domain.Event]{}, fmt.Errorf("events: list: %w", err)
	}
	return result, nil
}

// OwnerEvents returns the events created by ownerEmail.
func (s *Service) OwnerEvents(ctx context.Context, ownerEmail string, opts store.ListOptions) (store.ListResult[domain.Event], error) {
	result, err := s.events.ListByOwner(ctx, ownerEmail, opts)
	if err != nil {
		return store.ListResult[domain.Event]{}, fmt.Errorf("events: owner list: %w", err)
	}
	return result, nil
}

// Update applies the non-nil fields of input. Only the owner may update.
func (s *Service) Update(ctx context.Context, id uuid.UUID, actorEmail string, input UpdateInput) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("events: load", err)
	}
	if !strings.EqualFold(event.CreatedBy, strings.TrimSpace(actorEmail)) {
		return nil, fmt.Errorf("events: update %s: %w", id, domain.ErrForbidden)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrMissingName
		}
		event.Name = name
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Venue != nil {
		event.Venue = strings.TrimSpace(*input.Venue)
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
	}
	if input.Metadata != nil {
		event.Metadata = input.Metadata
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, mapStoreError("events: update", err)
	}

	s.announce(ctx, event, realtime.ChangeUpdated)
	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbEventUpdated,
		ActorEmail: actorEmail,
		ObjectType: "event",
		ObjectID:   event.ID.String(),
	})
	return event, nil
}

// Delete soft deletes the event together with its ticket types. Only the
// owner may delete. The event and ticket writes share one transaction so a
// failed cascade leaves the catalogue untouched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorEmail string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return mapStoreError("events: load", err)
	}
	if !strings.EqualFold(event.CreatedBy, strings.TrimSpace(actorEmail)) {
		return fmt.Errorf("events: delete %s: %w", id, domain.ErrForbidden)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.events.SoftDelete(ctx, id); err != nil {
			return err
		}
		if s.tickets == nil {
			return nil
		}
		tickets, err := s.tickets.ListByEvent(ctx, id)
		if err != nil {
			return err
		}
		for _, ticket := range tickets {
			if err := s.tickets.SoftDelete(ctx, ticket.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapStoreError("events: delete", err)
	}

	s.announce(ctx, event, realtime.ChangeDeleted)
	s.hooks.Notify(ctx, activity.Event{
		Verb:       activity.VerbEventDeleted,
		ActorEmail: actorEmail,
		ObjectType: "event",
		ObjectID:   event.ID.String(),
	})
	return nil
}

func (s *Service) announce(ctx context.Context, event *domain.Event, changeKind string) {
	if s.publisher == nil {
		return
	}
	s.publisher.EventUpdate(ctx, event.ID, changeKind, event)
}

func mapStoreError(msg string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
