package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/store"
	"github.com/google/uuid"
)

type createEventRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Venue       string         `json:"venue"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      time.Time      `json:"ends_at"`
	Metadata    map[string]any `json:"metadata"`
}

type updateEventRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Venue       *string        `json:"venue"`
	StartsAt    *time.Time     `json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at"`
	Metadata    map[string]any `json:"metadata"`
}

type createTicketRequest struct {
	TicketType        string  `json:"ticket_type"`
	Price             float64 `json:"price"`
	QuantityAvailable int     `json:"quantity_available"`
}

type purchaseRequest struct {
	Quantity int `json:"quantity"`
}

type listResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func listOptions(r *http.Request) store.ListOptions {
	opts := store.ListOptions{}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}
	return opts
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := s.events.Create(r.Context(), events.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		OwnerEmail:  claims.Email,
		Metadata:    domain.JSONMap(req.Metadata),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, event)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	result, err := s.events.List(r.Context(), listOptions(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.Items == nil {
		result.Items = []domain.Event{}
	}
	writeData(w, http.StatusOK, listResponse{Items: result.Items, Total: result.Total})
}

func (s *Server) handleMyEvents(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	result, err := s.events.OwnerEvents(r.Context(), claims.Email, listOptions(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.Items == nil {
		result.Items = []domain.Event{}
	}
	writeData(w, http.StatusOK, listResponse{Items: result.Items, Total: result.Total})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	event, err := s.events.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := s.events.Update(r.Context(), id, claims.Email, events.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Metadata:    domain.JSONMap(req.Metadata),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	id, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := s.events.Delete(r.Context(), id, claims.Email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "event deleted")
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req createTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := s.ledger.CreateTicket(r.Context(), eventID, ledger.TicketInput{
		TicketType:        req.TicketType,
		Price:             req.Price,
		QuantityAvailable: req.QuantityAvailable,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, ticket)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	tickets, err := s.ledger.EventTickets(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	writeData(w, http.StatusOK, tickets)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	ticketID, ok := pathID(r, "ticketID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := s.ledger.Purchase(r.Context(), ticketID, ledger.PurchaseInput{
		Quantity:       req.Quantity,
		PurchaserEmail: claims.Email,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, ticket)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := pathID(r, "ticketID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	ticket, err := s.ledger.Scan(r.Context(), ticketID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, ticket)
}
