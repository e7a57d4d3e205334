package broadcaster

import "context"

// Event carries a domain change destined for real-time transports.
type Event struct {
	Topic   string
	Payload any
}

// Broadcaster pushes events to SSE/WebSocket/webhook transports. The ledger
// and event services depend on this contract only; the live hub is one
// implementation.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) error { return nil }
