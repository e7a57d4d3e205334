package realtime

import (
	"context"
	"sync"

	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
)

// Channel is one subscriber's transport. Send must be safe to call from
// multiple goroutines; a non-nil error marks the subscriber dead and the hub
// drops it. OnClose registers the callback invoked exactly once when the hub
// closes or replaces the channel.
type Channel interface {
	Send(update Update) error
	Close()
	OnClose(fn func())
}

// defaultSendBuffer is the per-subscriber queue depth used when Dependencies
// does not set one.
const defaultSendBuffer = 16

// Hub keeps the live subscriber registry and fans updates out to it. Each
// subscriber gets a bounded queue drained by its own writer goroutine, so a
// slow or broken subscriber never blocks the publisher and never prevents
// delivery to the remaining subscribers. A subscriber whose queue overflows
// is dropped.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*subscriber
	sendBuffer int
	logger     logger.Logger
}

// Dependencies configures the hub.
type Dependencies struct {
	// SendBuffer is the per-subscriber queue depth. Zero means the default.
	SendBuffer int
	Logger     logger.Logger
}

// NewHub builds an empty hub.
func NewHub(deps Dependencies) *Hub {
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.SendBuffer <= 0 {
		deps.SendBuffer = defaultSendBuffer
	}
	return &Hub{
		clients:    make(map[string]*subscriber),
		sendBuffer: deps.SendBuffer,
		logger:     deps.Logger.With(logger.F("component", "realtime.hub")),
	}
}

// subscriber pairs a transport channel with its delivery queue. The writer
// goroutine is the only caller of ch.Send after registration.
type subscriber struct {
	ch       Channel
	queue    chan Update
	quit     chan struct{}
	stopOnce sync.Once
}

// stop tells the writer goroutine to exit. Safe to call more than once.
func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// enqueue offers an update without blocking. False means the queue is full.
func (s *subscriber) enqueue(update Update) bool {
	select {
	case s.queue <- update:
		return true
	default:
		return false
	}
}

// Subscribe registers ch under clientID. A second subscription with the same
// clientID replaces the first; the displaced channel is closed. Registration
// is complete before Subscribe returns, so no broadcast after that point can
// miss the subscriber. The handshake message is best effort: its failure does
// not void the subscription.
func (h *Hub) Subscribe(clientID string, ch Channel) {
	sub := &subscriber{
		ch:    ch,
		queue: make(chan Update, h.sendBuffer),
		quit:  make(chan struct{}),
	}

	h.mu.Lock()
	prev, replaced := h.clients[clientID]
	h.clients[clientID] = sub
	h.mu.Unlock()

	if replaced {
		prev.stop()
		prev.ch.Close()
		h.logger.Debug("subscriber replaced", logger.F("client_id", clientID))
	}

	ch.OnClose(func() {
		sub.stop()
		h.removeIf(clientID, sub)
	})

	sub.enqueue(stamp(Update{Type: "connected"}))
	go h.drain(clientID, sub)

	h.logger.Info("subscriber registered", logger.F("client_id", clientID))
}

// drain is the subscriber's writer loop. A send failure drops the subscriber
// and stops the loop; the handshake is exempt so a transport that rejects the
// first frame still gets later broadcasts.
func (h *Hub) drain(clientID string, sub *subscriber) {
	for {
		select {
		case <-sub.quit:
			return
		case update := <-sub.queue:
			if err := sub.ch.Send(update); err != nil {
				if update.Type == "connected" {
					h.logger.Debug("handshake send failed",
						logger.F("client_id", clientID),
						logger.F("error", err),
					)
					continue
				}
				h.logger.Warn("subscriber send failed, dropping",
					logger.F("client_id", clientID),
					logger.F("error", err),
				)
				sub.stop()
				h.removeIf(clientID, sub)
				sub.ch.Close()
				return
			}
		}
	}
}

// RemoveClient closes and drops the subscriber. Unknown IDs are a no-op.
func (h *Hub) RemoveClient(clientID string) {
	h.mu.Lock()
	sub, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	if ok {
		sub.stop()
		sub.ch.Close()
		h.logger.Info("subscriber removed", logger.F("client_id", clientID))
	}
}

// Broadcast enqueues update for every active subscriber and returns without
// waiting on any of them. A subscriber whose queue is full is dropped; the
// publisher always gets nil back. With no subscribers this is a no-op.
func (h *Hub) Broadcast(ctx context.Context, update Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	update = stamp(update)

	h.mu.RLock()
	targets := make(map[string]*subscriber, len(h.clients))
	for id, sub := range h.clients {
		targets[id] = sub
	}
	h.mu.RUnlock()

	for id, sub := range targets {
		if sub.enqueue(update) {
			continue
		}
		h.logger.Warn("subscriber queue full, dropping",
			logger.F("client_id", id),
			logger.F("queue_depth", cap(sub.queue)),
		)
		sub.stop()
		h.removeIf(id, sub)
		sub.ch.Close()
	}
	return nil
}

// ClientCount reports the number of active subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every live subscriber and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range clients {
		sub.stop()
		sub.ch.Close()
	}
}

// removeIf drops the registration only when it still points at sub, so a dead
// subscriber's cleanup never evicts a replacement registered under the same
// ID.
func (h *Hub) removeIf(clientID string, sub *subscriber) {
	h.mu.Lock()
	if current, ok := h.clients[clientID]; ok && current == sub {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()
}
