package ticket_api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourbook/internal/auth"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/utils"
)

type TicketService interface {
	CreateTicket(ctx context.Context, userID string, req models.CreateTicketRequest) (*models.SupportTicket, error)
	ListTickets(ctx context.Context, userID string) ([]*models.SupportTicket, error)
	GetTicket(ctx context.Context, userID, id string) (*models.SupportTicket, error)
	AddReply(ctx context.Context, userID, ticketID string, req models.CreateReplyRequest) (*models.TicketReply, error)
	CloseTicket(ctx context.Context, userID, ticketID string) (*models.SupportTicket, error)
}

type Handler struct {
	TicketService TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateTicket)
	r.Get("/", h.ListTickets)
	r.Get("/{ticketId}", h.GetTicket)
	r.Post("/{ticketId}/replies", h.AddReply)
	r.Post("/{ticketId}/close", h.CloseTicket)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	ticket, err := h.TicketService.CreateTicket(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "SUPPORT", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Ticket created", ticket)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.TicketService.ListTickets(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "SUPPORT", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Tickets retrieved", tickets)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "ticketId"))
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "SUPPORT", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket retrieved", ticket)
}

func (h *Handler) AddReply(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	reply, err := h.TicketService.AddReply(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "ticketId"), req)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "SUPPORT", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Reply added", reply)
}

func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.CloseTicket(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "ticketId"))
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "SUPPORT", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket closed", ticket)
}
