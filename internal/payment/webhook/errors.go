package webhook

import "net/http"

const (
	CategoryConfiguration = "configuration"
	CategoryValidation    = "validation"
	CategoryProcessing    = "processing"
)

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error  // Underlying error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

func configurationError(msg string) *WebhookError {
	return &WebhookError{
		Category:      CategoryConfiguration,
		StatusCode:    http.StatusServiceUnavailable,
		PublicError:   "Webhook endpoint not configured",
		InternalError: msg,
	}
}

func validationError(public string, err error) *WebhookError {
	return &WebhookError{
		Category:      CategoryValidation,
		StatusCode:    http.StatusBadRequest,
		PublicError:   public,
		InternalError: public + ": " + err.Error(),
		OriginalErr:   err,
	}
}

// processingError answers 500 so Stripe re-delivers the event.
func processingError(public, internal string, err error) *WebhookError {
	return &WebhookError{
		Category:      CategoryProcessing,
		StatusCode:    http.StatusInternalServerError,
		PublicError:   public,
		InternalError: internal,
		OriginalErr:   err,
	}
}
