package order_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourbook/internal/auth"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/utils"
)

// OrderService is the subset of order.OrderService the HTTP layer drives.
type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	ListOrders(ctx context.Context, userID string) ([]*models.Order, error)
	GetOrder(ctx context.Context, userID string, ref models.OrderRef) (*models.Order, error)
	DeleteOrder(ctx context.Context, userID string, ref models.OrderRef) error
	UpdateTravelers(ctx context.Context, userID string, ref models.OrderRef, travelers []models.Traveler) (*models.Order, error)
	CreateCheckoutSession(ctx context.Context, caller *models.Identity, ref models.OrderRef) (*models.CheckoutSession, error)
}

type VoucherRenderer interface {
	PNG(order *models.Order) ([]byte, error)
}

type Handler struct {
	OrderService OrderService
	Vouchers     VoucherRenderer
	Logger       *logger.Logger
}

func NewHandler(orderService OrderService, vouchers VoucherRenderer, log *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Vouchers:     vouchers,
		Logger:       log,
	}
}

// Routes mounts the order endpoints. Callers wrap it with auth.RequireUser.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateOrder)
	r.Get("/", h.ListOrders)
	r.Route("/{orderId}", func(r chi.Router) {
		r.Get("/", h.GetOrder)
		r.Delete("/", h.DeleteOrder)
		r.Patch("/travelers", h.UpdateTravelers)
		r.Post("/checkout-session", h.CreateCheckoutSession)
		r.Get("/voucher", h.GetVoucher)
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateOrder: invalid body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.OrderService.CreateOrder(r.Context(), userID, req)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Order created", resp)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Orders retrieved", orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.orderRef(w, r)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(r.Context(), auth.UserID(r.Context()), ref)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order retrieved", order)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.orderRef(w, r)
	if !ok {
		return
	}
	if err := h.OrderService.DeleteOrder(r.Context(), auth.UserID(r.Context()), ref); err != nil {
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order deleted", nil)
}

func (h *Handler) UpdateTravelers(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.orderRef(w, r)
	if !ok {
		return
	}

	var req models.UpdateTravelersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	order, err := h.OrderService.UpdateTravelers(r.Context(), auth.UserID(r.Context()), ref, req.Travelers)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Travelers updated", order)
}

func (h *Handler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.orderRef(w, r)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(r.Context(), auth.UserID(r.Context()), ref)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}

	if h.Vouchers == nil {
		utils.WriteServiceError(w, h.Logger, "VOUCHER", models.ErrVoucherNotConfigured)
		return
	}
	png, err := h.Vouchers.PNG(order)
	if err != nil {
		utils.WriteServiceError(w, h.Logger, "VOUCHER", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Warn("VOUCHER", fmt.Sprintf("Failed to write voucher for %s: %v", order.ID, err))
	}
}
