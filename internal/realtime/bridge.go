package realtime

import (
	"context"
	"strings"

	"github.com/goliatone/go-ticketing/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// Bridge translates domain changes into hub updates. Publishing is fire and
// forget: delivery problems are logged, never returned, so a dead dashboard
// can never fail a purchase.
type Bridge struct {
	hub    *Hub
	logger logger.Logger
}

var _ broadcaster.Broadcaster = (*Bridge)(nil)

// NewBridge builds a bridge over hub.
func NewBridge(hub *Hub, log logger.Logger) *Bridge {
	if log == nil {
		log = &logger.Nop{}
	}
	return &Bridge{
		hub:    hub,
		logger: log.With(logger.F("component", "realtime.bridge")),
	}
}

// TicketUpdate announces a ticket state change such as PURCHASED or SCANNED.
func (b *Bridge) TicketUpdate(ctx context.Context, ticketID uuid.UUID, changeKind string, payload any) {
	b.publish(ctx, Update{
		Type:      UpdateTypeTicket,
		TicketID:  ticketID,
		EventType: changeKind,
		Data:      payload,
	})
}

// EventUpdate announces an event lifecycle change.
func (b *Bridge) EventUpdate(ctx context.Context, eventID uuid.UUID, changeKind string, payload any) {
	b.publish(ctx, Update{
		Type:      UpdateTypeEvent,
		EventID:   eventID,
		EventType: changeKind,
		Data:      payload,
	})
}

// DashboardUpdate pushes a fresh insights snapshot to every subscriber.
func (b *Bridge) DashboardUpdate(ctx context.Context, payload any) {
	b.publish(ctx, Update{
		Type: UpdateTypeDashboard,
		Data: payload,
	})
}

// Broadcast lets the bridge stand in wherever a generic broadcaster is
// expected. Topics follow the "<kind>.<change>" convention used by the
// services, e.g. "ticket.purchased" or "event.created".
func (b *Bridge) Broadcast(ctx context.Context, event broadcaster.Event) error {
	kind, change, _ := strings.Cut(event.Topic, ".")
	update := Update{
		EventType: strings.ToUpper(change),
		Data:      event.Payload,
	}
	switch kind {
	case "ticket":
		update.Type = UpdateTypeTicket
	case "event":
		update.Type = UpdateTypeEvent
	case "dashboard":
		update.Type = UpdateTypeDashboard
		update.EventType = ""
	default:
		update.Type = kind
	}
	b.publish(ctx, update)
	return nil
}

func (b *Bridge) publish(ctx context.Context, update Update) {
	if b.hub == nil {
		return
	}
	if err := b.hub.Broadcast(ctx, update); err != nil {
		b.logger.Warn("broadcast failed", logger.F("type", update.Type), logger.F("error", err))
	}
}
