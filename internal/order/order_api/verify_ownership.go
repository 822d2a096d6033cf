package order_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourbook/internal/models"
	"tourbook/internal/utils"
)

// orderRef parses the {orderId} path segment. Ownership itself is checked
// by the service on every request.
func (h *Handler) orderRef(w http.ResponseWriter, r *http.Request) (models.OrderRef, bool) {
	ref, err := models.ParseOrderRef(chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order id", err.Error())
		return models.OrderRef{}, false
	}
	return ref, true
}
