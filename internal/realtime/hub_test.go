package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

type captureChannel struct {
	mu      sync.Mutex
	updates []Update
	failOn  func(Update) error
	closed  bool
	onClose func()
}

func (c *captureChannel) Send(update Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != nil {
		if err := c.failOn(update); err != nil {
			return err
		}
	}
	c.updates = append(c.updates, update)
	return nil
}

func (c *captureChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.onClose != nil {
		c.onClose()
	}
}

func (c *captureChannel) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

func (c *captureChannel) received() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Update, len(c.updates))
	copy(out, c.updates)
	return out
}

func (c *captureChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// blockingChannel wedges on Send until released, standing in for a client
// that stops reading its connection.
type blockingChannel struct {
	release   chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	onClose   func()
}

func newBlockingChannel() *blockingChannel {
	return &blockingChannel{release: make(chan struct{})}
}

func (b *blockingChannel) Send(Update) error {
	<-b.release
	return nil
}

func (b *blockingChannel) Close() {
	b.closeOnce.Do(func() {
		close(b.release)
		b.mu.Lock()
		fn := b.onClose
		b.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

func (b *blockingChannel) OnClose(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onClose = fn
}

// waitFor polls cond until it holds. Delivery runs on per-subscriber writer
// goroutines, so assertions about received updates have to wait.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// waitForUpdate blocks until ch has received an update matching pred and
// returns the latest match.
func waitForUpdate(t *testing.T, ch *captureChannel, pred func(Update) bool) Update {
	t.Helper()
	var match Update
	waitFor(t, func() bool {
		found := false
		for _, u := range ch.received() {
			if pred(u) {
				match = u
				found = true
			}
		}
		return found
	})
	return match
}

func TestSubscribeSendsHandshake(t *testing.T) {
	hub := NewHub(Dependencies{})
	ch := &captureChannel{}

	hub.Subscribe("client-1", ch)

	got := waitForUpdate(t, ch, func(u Update) bool { return u.Type == "connected" })
	if got.Timestamp == 0 {
		t.Fatal("expected handshake timestamp")
	}
	if len(ch.received()) != 1 {
		t.Fatalf("expected only the handshake, got %d updates", len(ch.received()))
	}
}

func TestSubscribeSurvivesHandshakeFailure(t *testing.T) {
	hub := NewHub(Dependencies{})
	ch := &captureChannel{}
	var handshakes atomic.Int32
	ch.failOn = func(u Update) error {
		if u.Type == "connected" {
			handshakes.Add(1)
			return errors.New("write refused")
		}
		return nil
	}

	hub.Subscribe("client-1", ch)

	waitFor(t, func() bool { return handshakes.Load() == 1 })
	if hub.ClientCount() != 1 {
		t.Fatalf("expected subscription to survive handshake failure, count = %d", hub.ClientCount())
	}

	if err := hub.Broadcast(context.Background(), Update{Type: UpdateTypeTicket}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	waitForUpdate(t, ch, func(u Update) bool { return u.Type == UpdateTypeTicket })
}

func TestSubscribeReplacesDuplicateClientID(t *testing.T) {
	hub := NewHub(Dependencies{})
	first := &captureChannel{}
	second := &captureChannel{}

	hub.Subscribe("client-1", first)
	hub.Subscribe("client-1", second)

	if !first.isClosed() {
		t.Fatal("expected displaced channel to be closed")
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected one active subscriber, got %d", hub.ClientCount())
	}

	if err := hub.Broadcast(context.Background(), Update{Type: UpdateTypeDashboard}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	waitForUpdate(t, second, func(u Update) bool { return u.Type == UpdateTypeDashboard })
	for _, u := range first.received() {
		if u.Type == UpdateTypeDashboard {
			t.Fatal("displaced channel should not receive broadcasts")
		}
	}
}

func TestBroadcastIsolatesFailingSubscriber(t *testing.T) {
	hub := NewHub(Dependencies{})
	healthy1 := &captureChannel{}
	broken := &captureChannel{failOn: func(u Update) error {
		if u.Type != "connected" {
			return errors.New("connection reset")
		}
		return nil
	}}
	healthy2 := &captureChannel{}

	hub.Subscribe("healthy-1", healthy1)
	hub.Subscribe("broken", broken)
	hub.Subscribe("healthy-2", healthy2)

	if err := hub.Broadcast(context.Background(), Update{Type: UpdateTypeTicket, EventType: ChangePurchased}); err != nil {
		t.Fatalf("broadcast should not surface subscriber failures: %v", err)
	}

	for _, ch := range []*captureChannel{healthy1, healthy2} {
		waitForUpdate(t, ch, func(u Update) bool { return u.EventType == ChangePurchased })
	}

	waitFor(t, func() bool { return hub.ClientCount() == 2 })
	waitFor(t, broken.isClosed)

	// A later broadcast still reaches the survivors.
	if err := hub.Broadcast(context.Background(), Update{Type: UpdateTypeTicket, EventType: ChangeScanned}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	waitForUpdate(t, healthy1, func(u Update) bool { return u.EventType == ChangeScanned })
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub(Dependencies{})
	if err := hub.Broadcast(context.Background(), Update{Type: UpdateTypeDashboard}); err != nil {
		t.Fatalf("expected no-op broadcast, got %v", err)
	}
}

func TestBroadcastNotStalledByUnresponsiveSubscriber(t *testing.T) {
	hub := NewHub(Dependencies{SendBuffer: 4})
	stuck := newBlockingChannel()
	healthy := &captureChannel{}

	hub.Subscribe("stuck", stuck)
	hub.Subscribe("healthy", healthy)
	defer stuck.Close()

	// Enough broadcasts to overflow the stuck subscriber's queue. Every call
	// must return promptly even though the stuck writer never completes a
	// send.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 8; i++ {
			_ = hub.Broadcast(context.Background(), Update{Type: UpdateTypeDashboard})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on an unresponsive subscriber")
	}

	// The overflowing subscriber is evicted, the healthy one keeps receiving.
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	waitForUpdate(t, healthy, func(u Update) bool { return u.Type == UpdateTypeDashboard })

	if err := hub.Broadcast(context.Background(), Update{Type: UpdateTypeTicket, EventType: ChangeScanned}); err != nil {
		t.Fatalf("broadcast after eviction: %v", err)
	}
	waitForUpdate(t, healthy, func(u Update) bool { return u.EventType == ChangeScanned })
}

func TestRemoveClientIdempotent(t *testing.T) {
	hub := NewHub(Dependencies{})
	ch := &captureChannel{}
	hub.Subscribe("client-1", ch)

	hub.RemoveClient("client-1")
	hub.RemoveClient("client-1")
	hub.RemoveClient("never-subscribed")

	if hub.ClientCount() != 0 {
		t.Fatalf("expected empty registry, got %d", hub.ClientCount())
	}
	if !ch.isClosed() {
		t.Fatal("expected removed channel to be closed")
	}
}

func TestChannelCloseUnregistersFromHub(t *testing.T) {
	hub := NewHub(Dependencies{})
	ch := &captureChannel{}
	hub.Subscribe("client-1", ch)

	ch.Close()

	if hub.ClientCount() != 0 {
		t.Fatalf("expected transport close to unregister subscriber, count = %d", hub.ClientCount())
	}
}

func TestStaleCloseDoesNotEvictReplacement(t *testing.T) {
	hub := NewHub(Dependencies{})
	first := &captureChannel{}
	second := &captureChannel{}

	hub.Subscribe("client-1", first)
	hub.Subscribe("client-1", second)
	// Closing the displaced channel again must not evict the replacement.
	first.Close()

	if hub.ClientCount() != 1 {
		t.Fatalf("expected replacement to stay registered, count = %d", hub.ClientCount())
	}
}

func TestConcurrentSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(Dependencies{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		id := uuid.NewString()
		go func() {
			defer wg.Done()
			hub.Subscribe(id, &captureChannel{})
		}()
		go func() {
			defer wg.Done()
			_ = hub.Broadcast(ctx, Update{Type: UpdateTypeDashboard})
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 16 {
		t.Fatalf("expected 16 subscribers, got %d", hub.ClientCount())
	}
}
