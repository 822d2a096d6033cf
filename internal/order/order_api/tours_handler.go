package order_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourbook/internal/tours"
	"tourbook/internal/utils"
)

type ToursHandler struct {
	Catalog *tours.Catalog
}

func (h *ToursHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{tourId}", h.Get)
}

func (h *ToursHandler) List(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Tours retrieved", map[string]any{
		"currency": h.Catalog.Currency,
		"tours":    h.Catalog.List(),
	})
}

func (h *ToursHandler) Get(w http.ResponseWriter, r *http.Request) {
	tour, ok := h.Catalog.Get(chi.URLParam(r, "tourId"))
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "Not Found", "tour not found")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Tour retrieved", tour)
}
