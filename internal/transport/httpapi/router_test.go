package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-ticketing/internal/auth"
	"github.com/goliatone/go-ticketing/internal/dashboard"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/internal/realtime"
	"github.com/goliatone/go-ticketing/internal/storage/memory"
)

type apiFixture struct {
	server *httptest.Server
	hub    *realtime.Hub
}

func newAPIFixture(t *testing.T, opts ...func(*Dependencies)) *apiFixture {
	t.Helper()

	eventRepo := memory.NewEventRepository()
	ticketRepo := memory.NewTicketRepository()
	userRepo := memory.NewUserRepository()

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte("test-secret-0123456789"),
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	authSvc, err := auth.New(auth.Dependencies{
		Users:  userRepo,
		Tokens: tokens,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	hub := realtime.NewHub(realtime.Dependencies{})
	bridge := realtime.NewBridge(hub, nil)

	dashSvc, err := dashboard.New(dashboard.Dependencies{
		Tickets: ticketRepo,
		Events:  eventRepo,
	})
	if err != nil {
		t.Fatalf("dashboard service: %v", err)
	}
	ledgerSvc, err := ledger.New(ledger.Dependencies{
		Tickets:   ticketRepo,
		Events:    eventRepo,
		Publisher: bridge,
		Insights:  dashSvc,
	})
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	eventSvc, err := events.New(events.Dependencies{
		Events:    eventRepo,
		Tickets:   ticketRepo,
		Publisher: bridge,
	})
	if err != nil {
		t.Fatalf("event service: %v", err)
	}

	deps := Dependencies{
		Auth:              authSvc,
		Events:            eventSvc,
		Ledger:            ledgerSvc,
		Dashboard:         dashSvc,
		Hub:               hub,
		HeartbeatInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	srv, err := NewServer(deps)
	if err != nil {
		t.Fatalf("http server: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(hub.Shutdown)
	return &apiFixture{server: ts, hub: hub}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp, env
}

func (f *apiFixture) login(t *testing.T, email, role string) string {
	t.Helper()

	resp, _ := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"first_name": "Test",
		"email":      email,
		"password":   "correct-horse",
		"role":       role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}

	resp, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}

	data, _ := env.Data.(map[string]any)
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatal("login response missing access token")
	}
	return token
}

func dataField(t *testing.T, env envelope, key string) string {
	t.Helper()
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("response data is not an object: %#v", env.Data)
	}
	value, _ := data[key].(string)
	if value == "" {
		t.Fatalf("response data missing %q: %#v", key, data)
	}
	return value
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp, env := f.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}
	if env.Status != "success" {
		t.Fatalf("unexpected status %q", env.Status)
	}
}

func TestAuthRequiredForMutations(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/events", "", map[string]any{"name": "Nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, "/api/v1/events", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public listing should not require auth, got %d", resp.StatusCode)
	}
}

func TestEventTicketPurchaseFlow(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.login(t, "owner@example.com", "event_owner")
	buyer := f.login(t, "buyer@example.com", "user")

	resp, env := f.do(t, http.MethodPost, "/api/v1/events", owner, map[string]any{
		"name":  "Go Conf",
		"venue": "Main Hall",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event returned %d (%s)", resp.StatusCode, env.Message)
	}
	eventID := dataField(t, env, "id")

	resp, env = f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/tickets", owner, map[string]any{
		"ticket_type":        "general",
		"price":              25.0,
		"quantity_available": 5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create ticket returned %d (%s)", resp.StatusCode, env.Message)
	}
	ticketID := dataField(t, env, "id")

	resp, env = f.do(t, http.MethodPost, "/api/v1/tickets/"+ticketID+"/purchase", buyer, map[string]any{
		"quantity": 3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("purchase returned %d (%s)", resp.StatusCode, env.Message)
	}
	if sold, _ := env.Data.(map[string]any)["quantity_sold"].(float64); sold != 3 {
		t.Fatalf("expected 3 sold, got %v", sold)
	}

	// second purchase exceeds remaining capacity
	resp, _ = f.do(t, http.MethodPost, "/api/v1/tickets/"+ticketID+"/purchase", buyer, map[string]any{
		"quantity": 4,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("oversell should return 409, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/v1/tickets/"+ticketID+"/scan", owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan returned %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, "/api/v1/tickets/"+ticketID+"/scan", owner, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second scan should return 409, got %d", resp.StatusCode)
	}

	resp, env = f.do(t, http.MethodGet, "/api/v1/dashboard/insights", owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("insights returned %d", resp.StatusCode)
	}
	data, _ := env.Data.(map[string]any)
	if sold, _ := data["total_tickets_sold"].(float64); sold != 3 {
		t.Fatalf("expected 3 total sold, got %v", sold)
	}
	if totalEvents, _ := data["total_events"].(float64); totalEvents != 1 {
		t.Fatalf("expected 1 event, got %v", totalEvents)
	}
}

func TestOwnershipEnforcedOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.login(t, "owner@example.com", "event_owner")
	intruder := f.login(t, "intruder@example.com", "user")

	_, env := f.do(t, http.MethodPost, "/api/v1/events", owner, map[string]any{"name": "Private Gig"})
	eventID := dataField(t, env, "id")

	resp, _ := f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, intruder, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner delete, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner delete returned %d", resp.StatusCode)
	}
}

func TestSubscribeStreamsUpdates(t *testing.T) {
	f := newAPIFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/api/v1/updates/subscribe?clientId=door-1", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitForData := func(want string) string {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q arrived", want)
				}
				if strings.HasPrefix(line, "data: ") && strings.Contains(line, want) {
					return strings.TrimPrefix(line, "data: ")
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	// the hub greets each subscriber before any broadcast
	waitForData("connected")

	for f.hub.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if err := f.hub.Broadcast(context.Background(), realtime.Update{
		Type:      realtime.UpdateTypeDashboard,
		EventType: realtime.ChangePurchased,
	}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	payload := waitForData(realtime.UpdateTypeDashboard)
	var update realtime.Update
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		t.Fatalf("decode update %q: %v", payload, err)
	}
	if update.Type != realtime.UpdateTypeDashboard {
		t.Fatalf("unexpected update type %q", update.Type)
	}
}

func TestSubscribeRouteGatedByRealtimeFlag(t *testing.T) {
	f := newAPIFixture(t, func(deps *Dependencies) {
		deps.DisableRealtime = true
	})

	resp, err := f.server.Client().Get(f.server.URL + "/api/v1/updates/subscribe")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 with realtime disabled, got %d", resp.StatusCode)
	}

	// the rest of the API keeps working
	resp, _ = f.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}
}
