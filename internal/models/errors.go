package models

import "errors"

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("resource belongs to another user")
	ErrNotFound             = errors.New("resource not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrStoreUnavailable     = errors.New("order store unavailable")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrVoucherNotConfigured = errors.New("voucher signing not configured")
	ErrGateway              = errors.New("payment gateway error")
	ErrCheckoutInProgress   = errors.New("checkout already in progress for this order")
)

type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ErrInvalidInput }

// InvalidInput returns an error matching ErrInvalidInput whose message is
// exactly msg, for validation failures shown to end users verbatim.
func InvalidInput(msg string) error { return &inputError{msg: msg} }
