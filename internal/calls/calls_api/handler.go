package calls_api

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

type CallService interface {
	ScheduleCall(ctx context.Context, userID string, req models.ScheduleCallRequest) (*models.ScheduledCall, error)
	ListCalls(ctx context.Context, userID string) ([]*models.ScheduledCall, error)
	UpdateCall(ctx context.Context, userID, id string, req models.UpdateCallRequest) (*models.ScheduledCall, error)
	DeleteCall(ctx context.Context, userID, id string) error
}

type Handler struct {
	CallService CallService
	Logger      *logger.Logger
}

func NewHandler(callService CallService, log *logger.Logger) *Handler {
	return &Handler{CallService: callService, Logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.ScheduleCall)
	r.Get("/", h.ListCalls)
	r.Patch("/{callId}", h.UpdateCall)
	r.Delete("/{callId}", h.DeleteCall)
}

func (h *Handler) ScheduleCall(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	call, err := h.CallService.ScheduleCall(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "CALLS", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Call scheduled", call)
}

func (h *Handler) ListCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := h.CallService.ListCalls(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "CALLS", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Calls retrieved", calls)
}

func (h *Handler) UpdateCall(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	call, err := h.CallService.UpdateCall(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "callId"), req)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "CALLS", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Call updated", call)
}

func (h *Handler) DeleteCall(w http.ResponseWriter, r *http.Request) {
	if err := h.CallService.DeleteCall(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "callId")); err != nil {
		utils.WriteServiceError(w, h.Logger, "CALLS", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Call deleted", nil)
}
