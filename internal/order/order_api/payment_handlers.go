package order_api

import (
	"fmt"
	"net/http"

	"tourbook/internal/auth"
	"tourbook/internal/utils"
)

// CreateCheckoutSession starts a hosted deposit payment for an order. The
// envelope data is {sessionId, url}.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.orderRef(w, r)
	if !ok {
		return
	}
	caller := auth.IdentityFromContext(r.Context())
	if caller == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}

	session, err := h.OrderService.CreateCheckoutSession(r.Context(), caller, ref)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateCheckoutSession: %s: %v", ref, err))
		utils.WriteServiceError(w, h.Logger, "API", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Checkout session created", session)
}
