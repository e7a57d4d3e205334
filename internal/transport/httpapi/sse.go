package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-ticketing/internal/realtime"
	"github.com/google/uuid"
)

var errChannelClosed = errors.New("httpapi: sse channel closed")

// sseChannel adapts one server-sent-events connection to the hub's Channel
// contract. Writes are serialized; a write after Close reports the channel
// dead so the hub evicts it.
type sseChannel struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher

	closed    bool
	done      chan struct{}
	closeOnce sync.Once
	onClose   []func()
}

func newSSEChannel(w http.ResponseWriter, flusher http.Flusher) *sseChannel {
	return &sseChannel{
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
}

func (c *sseChannel) Send(update realtime.Update) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("httpapi: encode update: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	if _, err := fmt.Fprintf(c.w, "event: %s\ndata: %s\n\n", update.Type, payload); err != nil {
		return fmt.Errorf("httpapi: write update: %w", err)
	}
	c.flusher.Flush()
	return nil
}

// heartbeat writes an SSE comment so proxies keep the connection open.
func (c *sseChannel) heartbeat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	if _, err := fmt.Fprint(c.w, ": ping\n\n"); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *sseChannel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		callbacks := c.onClose
		c.onClose = nil
		c.mu.Unlock()

		close(c.done)
		for _, fn := range callbacks {
			fn()
		}
	})
}

func (c *sseChannel) OnClose(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	alreadyClosed := c.closed
	if !alreadyClosed {
		c.onClose = append(c.onClose, fn)
	}
	c.mu.Unlock()
	if alreadyClosed {
		fn()
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := newSSEChannel(w, flusher)
	s.hub.Subscribe(clientID, ch)
	defer ch.Close()

	heartbeat := s.heartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch.done:
			return
		case <-ticker.C:
			if err := ch.heartbeat(); err != nil {
				return
			}
		}
	}
}
