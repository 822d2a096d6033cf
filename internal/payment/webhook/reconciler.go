package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"tourbook/internal/kafka"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/payment/gateway"
	"tourbook/internal/payment/storage"
	"tourbook/internal/utils"
)

const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// OrderStore is the slice of the order repository the reconciler writes to.
type OrderStore interface {
	ResolveRef(ctx context.Context, ref models.OrderRef) (string, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	MarkPaid(ctx context.Context, id, sessionID, paymentIntentID string) (previous models.OrderStatus, changed bool, err error)
}

// Result describes what a verified event did.
type Result struct {
	EventID string
	Type    string
	Outcome models.WebhookOutcome
	OrderID string
	Changed bool
}

type Reconciler struct {
	secret    string
	orders    OrderStore
	journal   storage.Store
	publisher kafka.Publisher
	log       *logger.Logger
}

// NewReconciler accepts an empty secret; Handle then answers 503 so a
// misconfigured deployment is visible to Stripe and to operators.
func NewReconciler(secret string, orders OrderStore, journal storage.Store, publisher kafka.Publisher, log *logger.Logger) *Reconciler {
	if publisher == nil {
		publisher = kafka.NopPublisher{Log: log}
	}
	return &Reconciler{secret: secret, orders: orders, journal: journal, publisher: publisher, log: log}
}

// Handle verifies the signature over the raw payload and applies the event.
// Every returned error is a *WebhookError.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, signatureHeader string) (*Result, error) {
	if r.secret == "" {
		r.log.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return nil, configurationError("Stripe webhook secret is not configured")
	}
	if r.orders == nil {
		r.log.Error("WEBHOOK", "Order store is not configured")
		return nil, configurationError("order store is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, r.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		r.log.LogSecurity("WEBHOOK_SIGNATURE", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return nil, validationError("Webhook signature verification failed", err)
	}

	r.log.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event %s: %s", event.ID, event.Type))

	switch event.Type {
	case EventCheckoutCompleted, EventAsyncPaymentSucceeded:
		return r.handleSession(ctx, event)
	default:
		r.log.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
		res := &Result{EventID: event.ID, Type: string(event.Type), Outcome: models.WebhookIgnored}
		r.record(ctx, res, "")
		return res, nil
	}
}

func (r *Reconciler) handleSession(ctx context.Context, event stripe.Event) (*Result, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		r.log.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal checkout session: %v", err))
		return nil, validationError("Invalid event data", err)
	}

	res := &Result{EventID: event.ID, Type: string(event.Type)}

	// Completed sessions paid by a delayed method stay unpaid until the
	// async_payment_succeeded event arrives.
	if event.Type == EventCheckoutCompleted && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		r.log.Info("WEBHOOK", fmt.Sprintf("Session %s completed but unpaid, awaiting async payment", session.ID))
		res.Outcome = models.WebhookIgnored
		r.record(ctx, res, session.ID)
		return res, nil
	}

	order, err := r.match(ctx, &session)
	if err != nil {
		return nil, processingError("Failed to process payment",
			fmt.Sprintf("order lookup for session %s failed: %v", session.ID, err), err)
	}
	if order == nil {
		r.log.Warn("WEBHOOK", fmt.Sprintf("No order matches session %s (metadata orderId=%q), flagged for investigation",
			session.ID, session.Metadata[gateway.MetadataOrderID]))
		res.Outcome = models.WebhookUnmatched
		r.record(ctx, res, session.ID)
		return res, nil
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	previous, changed, err := r.orders.MarkPaid(ctx, order.ID, session.ID, paymentIntentID)
	if err != nil {
		r.log.Error("WEBHOOK", fmt.Sprintf("Failed to mark order %s paid: %v", order.ID, err))
		return nil, processingError("Failed to process payment",
			fmt.Sprintf("mark order %s paid: %v", order.ID, err), err)
	}

	res.Outcome = models.WebhookMatched
	res.OrderID = order.ID
	res.Changed = changed
	r.log.LogOrder("DEPOSIT_PAID", order.ID, fmt.Sprintf("session=%s previous=%s", session.ID, previous))

	if res.Changed {
		order.Status = models.StatusDepositPaid
		order.StripeSessionID = session.ID
		order.StripePaymentIntentID = paymentIntentID
		evt := models.NewOrderEvent(order)
		evt.AmountPaid = session.AmountTotal
		utils.Attempt(r.log, "KAFKA", "publish order paid", func() error {
			return r.publisher.PublishOrderEvent(ctx, kafka.TopicOrderPaid, evt)
		})
	}

	r.record(ctx, res, session.ID)
	return res, nil
}

// match applies the lookup precedence: metadata orderId as UUID, then as a
// legacy integer; the stored session id only when no orderId was sent.
// A nil order with a nil error is a miss.
func (r *Reconciler) match(ctx context.Context, session *stripe.CheckoutSession) (*models.Order, error) {
	raw := session.Metadata[gateway.MetadataOrderID]
	if raw != "" {
		for _, ref := range models.CandidateRefs(raw) {
			id, err := r.orders.ResolveRef(ctx, ref)
			if errors.Is(err, models.ErrOrderNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return r.orders.GetOrder(ctx, id)
		}
		return nil, nil
	}

	if session.ID == "" {
		return nil, nil
	}
	order, err := r.orders.FindBySessionID(ctx, session.ID)
	if errors.Is(err, models.ErrOrderNotFound) {
		return nil, nil
	}
	return order, err
}

func (r *Reconciler) record(ctx context.Context, res *Result, sessionID string) {
	if r.journal == nil {
		return
	}
	utils.Attempt(r.log, "WEBHOOK", "journal event "+res.EventID, func() error {
		_, err := r.journal.RecordEvent(ctx, &models.WebhookEvent{
			EventID:   res.EventID,
			Type:      res.Type,
			OrderID:   res.OrderID,
			SessionID: sessionID,
			Outcome:   res.Outcome,
		})
		return err
	})
}
