package profile_api

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

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error)
}

type Handler struct {
	ProfileService ProfileService
	Logger         *logger.Logger
}

func NewHandler(profileService ProfileService, log *logger.Logger) *Handler {
	return &Handler{ProfileService: profileService, Logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.GetProfile)
	r.Patch("/", h.UpdateProfile)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.ProfileService.GetProfile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "PROFILE", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Profile retrieved", p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	p, err := h.ProfileService.UpdateProfile(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "PROFILE", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Profile updated", p)
}
