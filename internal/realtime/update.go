package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Update kinds pushed to live subscribers.
const (
	UpdateTypeEvent     = "event_update"
	UpdateTypeTicket    = "ticket_update"
	UpdateTypeDashboard = "dashboard_update"
)

// Change kinds carried inside ticket and event updates.
const (
	ChangeCreated   = "CREATED"
	ChangeUpdated   = "UPDATED"
	ChangeDeleted   = "DELETED"
	ChangePurchased = "PURCHASED"
	ChangeScanned   = "SCANNED"
)

// Update is the wire message fanned out to every live subscriber. Timestamp
// is epoch milliseconds so browser clients can feed it straight to Date().
type Update struct {
	Type      string    `json:"type"`
	EventID   uuid.UUID `json:"eventId,omitzero"`
	TicketID  uuid.UUID `json:"ticketId,omitzero"`
	EventType string    `json:"eventType,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

func stamp(u Update) Update {
	if u.Timestamp == 0 {
		u.Timestamp = time.Now().UnixMilli()
	}
	return u
}
