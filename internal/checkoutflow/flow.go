package checkoutflow

import (
	"context"
	"errors"
	"fmt"

	"tourbook/internal/models"
)

type Kind int

const (
	Success Kind = iota
	Cancelled
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Cancelled:
		return "cancelled"
	case Error:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Steps are the three calls the flow coordinates. None may be nil.
type Steps struct {
	CreateOrder     func(ctx context.Context) (*models.CreateOrderResponse, error)
	ConfirmMismatch func(ctx context.Context, clientTotalCents, serverTotalCents int64) (bool, error)
	CreateSession   func(ctx context.Context, orderID string) (*models.CheckoutSession, error)
}

// Result is the tagged outcome of Run. Order is set whenever an order was
// created, including on Error, so callers can retry checkout without
// creating a duplicate.
type Result struct {
	Kind    Kind
	Order   *models.Order
	Pricing *models.Pricing
	Session *models.CheckoutSession
	Err     error
}

func (r Result) Message() string {
	switch r.Kind {
	case Success:
		return "redirecting to checkout"
	case Cancelled:
		return "checkout cancelled: price change not accepted"
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return "checkout failed"
}

var errIncompleteSteps = errors.New("checkout flow: missing step")

// Run creates the order, asks for confirmation when clientTotalCents differs
// from the server price, then requests a checkout session. It never panics
// and never returns an ambiguous result.
func Run(ctx context.Context, steps Steps, clientTotalCents *int64) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: Error, Order: res.Order, Pricing: res.Pricing, Err: fmt.Errorf("checkout flow panicked: %v", r)}
		}
	}()

	if steps.CreateOrder == nil || steps.ConfirmMismatch == nil || steps.CreateSession == nil {
		return Result{Kind: Error, Err: errIncompleteSteps}
	}

	created, err := steps.CreateOrder(ctx)
	if err != nil {
		return Result{Kind: Error, Err: fmt.Errorf("create order: %w", err)}
	}
	if created == nil || created.Order == nil {
		return Result{Kind: Error, Err: errors.New("create order: empty response")}
	}
	res.Order, res.Pricing = created.Order, created.Pricing

	if res.Pricing != nil && clientTotalCents != nil && *clientTotalCents != res.Pricing.TotalCents {
		ok, err := steps.ConfirmMismatch(ctx, *clientTotalCents, res.Pricing.TotalCents)
		if err != nil {
			res.Kind, res.Err = Error, fmt.Errorf("confirm price: %w", err)
			return res
		}
		if !ok {
			res.Kind = Cancelled
			return res
		}
	}

	session, err := steps.CreateSession(ctx, res.Order.ID)
	if err != nil {
		res.Kind, res.Err = Error, fmt.Errorf("create checkout session: %w", err)
		return res
	}
	if session == nil || session.URL == "" {
		res.Kind, res.Err = Error, errors.New("create checkout session: no redirect url")
		return res
	}

	res.Kind, res.Session = Success, session
	return res
}
