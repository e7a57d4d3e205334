package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-ticketing/internal/auth"
	"github.com/goliatone/go-ticketing/internal/dashboard"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/internal/realtime"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
)

// Dependencies wires the services the HTTP layer fronts.
type Dependencies struct {
	Auth              *auth.Service
	Events            *events.Service
	Ledger            *ledger.Service
	Dashboard         *dashboard.Service
	Hub               *realtime.Hub
	Logger            logger.Logger
	HeartbeatInterval time.Duration
	// DisableRealtime drops the live update subscribe route.
	DisableRealtime bool
}

// Server translates HTTP requests to and from the service layer.
type Server struct {
	auth              *auth.Service
	events            *events.Service
	ledger            *ledger.Service
	dashboard         *dashboard.Service
	hub               *realtime.Hub
	logger            logger.Logger
	heartbeatInterval time.Duration
	realtimeOff       bool
}

// NewServer validates the dependency set and builds the HTTP layer.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("httpapi: auth service is required")
	}
	if deps.Events == nil {
		return nil, errors.New("httpapi: event service is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("httpapi: ledger service is required")
	}
	if deps.Dashboard == nil {
		return nil, errors.New("httpapi: dashboard service is required")
	}
	if deps.Hub == nil {
		return nil, errors.New("httpapi: realtime hub is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Server{
		auth:              deps.Auth,
		events:            deps.Events,
		ledger:            deps.Ledger,
		dashboard:         deps.Dashboard,
		hub:               deps.Hub,
		logger:            deps.Logger.With(logger.F("component", "httpapi")),
		heartbeatInterval: deps.HeartbeatInterval,
		realtimeOff:       deps.DisableRealtime,
	}, nil
}

// Router assembles the route tree. Authenticated routes sit behind the
// bearer-token middleware; reads on the public catalogue do not.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/verify-email", s.handleVerifyEmail)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password", s.handleResetPassword)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Get("/{eventID}", s.handleGetEvent)
			r.Get("/{eventID}/tickets", s.handleListTickets)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.handleCreateEvent)
				r.Put("/{eventID}", s.handleUpdateEvent)
				r.Delete("/{eventID}", s.handleDeleteEvent)
				r.Post("/{eventID}/tickets", s.handleCreateTicket)
			})
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/{ticketID}/purchase", s.handlePurchase)
			r.Post("/{ticketID}/scan", s.handleScan)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/insights", s.handleInsights)
			r.Get("/my-insights", s.handleOwnerInsights)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/my-events", s.handleMyEvents)
		})

		if !s.realtimeOff {
			r.Get("/updates/subscribe", s.handleSubscribe)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.hub.ClientCount(),
	})
}
