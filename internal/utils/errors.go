package utils

import (
	"errors"
	"fmt"
	"net/http"

	"tourbook/internal/logger"
	"tourbook/internal/models"
)

// StatusFor maps a service error onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrStoreUnavailable), errors.Is(err, models.ErrGatewayNotConfigured),
		errors.Is(err, models.ErrVoucherNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteServiceError answers with the mapped status. 5xx details are logged
// and replaced by a generic message.
func WriteServiceError(w http.ResponseWriter, log *logger.Logger, category string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(category, fmt.Sprintf("request failed: %v", err))
		detail := "internal error"
		if status == http.StatusServiceUnavailable {
			detail = rootMessage(err)
		}
		WriteError(w, status, http.StatusText(status), detail)
		return
	}
	log.Debug(category, fmt.Sprintf("request rejected (%d): %v", status, err))
	WriteError(w, status, http.StatusText(status), err.Error())
}

func rootMessage(err error) string {
	for _, sentinel := range []error{models.ErrStoreUnavailable, models.ErrGatewayNotConfigured, models.ErrVoucherNotConfigured} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "service unavailable"
}
