// Package billing manages plans, Stripe checkout and the subscription that
// decides each user's storage limit.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const (
	eventCheckoutCompleted     = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	eventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	eventSubscriptionDeleted   = "customer.subscription.deleted"
)

type store interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlan(ctx context.Context, planID int64) (Plan, error)
	UserEmail(ctx context.Context, userID int64) (string, error)
	FindSubscription(ctx context.Context, userID int64) (Subscription, error)
	UpsertSubscription(ctx context.Context, userID, planID int64, start, end time.Time, stripeSubscriptionID string) error
	DeactivateSubscription(ctx context.Context, userID int64, end time.Time) error
	DeactivateByStripeID(ctx context.Context, stripeSubscriptionID string, end time.Time) (bool, error)
	CreatePayment(ctx context.Context, p Payment) error
	UpdatePaymentStatus(ctx context.Context, stripeSession string, status PaymentStatus) (bool, error)
}

// Options configure a Service.
type Options struct {
	WebhookSecret string
	Currency      string
}

// Service implements plan listing, checkout and webhook handling.
type Service struct {
	repo          store
	checkout      CheckoutAPI
	webhookSecret string
	currency      string
	now           func() time.Time
	log           *zap.Logger
}

// NewService constructs a billing service. checkout may be nil when Stripe
// is not configured.
func NewService(repo store, checkout CheckoutAPI, opts Options, log *zap.Logger) *Service {
	if opts.Currency == "" {
		opts.Currency = "eur"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		checkout:      checkout,
		webhookSecret: opts.WebhookSecret,
		currency:      opts.Currency,
		now:           time.Now,
		log:           log,
	}
}

// Plans lists purchasable and free plans.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

// Subscription returns the user's current subscription.
func (s *Service) Subscription(ctx context.Context, userID int64) (Subscription, error) {
	return s.repo.FindSubscription(ctx, userID)
}

// Checkout opens a monthly subscription checkout for planID and records a
// pending payment. baseURL is where Stripe redirects afterwards.
func (s *Service) Checkout(ctx context.Context, userID, planID int64, baseURL string) (CheckoutSession, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return CheckoutSession{}, err
	}
	if plan.IsFree() {
		return CheckoutSession{}, ErrFreePlanPurchase
	}
	if s.checkout == nil {
		return CheckoutSession{}, ErrStripeDisabled
	}

	email, err := s.repo.UserEmail(ctx, userID)
	if err != nil {
		return CheckoutSession{}, err
	}

	baseURL = strings.TrimRight(baseURL, "/")
	userIDStr := strconv.FormatInt(userID, 10)
	planIDStr := strconv.FormatInt(plan.ID, 10)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(baseURL + "/subscription?session_id={CHECKOUT_SESSION_ID}&success=true"),
		CancelURL:          stripe.String(baseURL + "/subscription?canceled=true"),
		CustomerEmail:      stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Subscription " + plan.Name),
						Description: stripe.String(fmt.Sprintf("Plan %s - %d GB of storage", plan.Name, plan.StorageLimitMB/1024)),
					},
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
					UnitAmount: stripe.Int64(plan.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": userIDStr, "planId": planIDStr},
		},
	}
	params.AddMetadata("userId", userIDStr)
	params.AddMetadata("planId", planIDStr)
	params.AddMetadata("planName", plan.Name)

	session, err := s.checkout.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	if session.URL == "" {
		return CheckoutSession{}, fmt.Errorf("%w: %s", ErrCheckoutURLMissing, session.ID)
	}

	if err := s.repo.CreatePayment(ctx, Payment{
		StripeSession: session.ID,
		UserID:        userID,
		AmountCents:   plan.PriceCents,
		Status:        PaymentPending,
	}); err != nil {
		return CheckoutSession{}, err
	}

	s.log.Info("checkout session created", zap.Int64("user_id", userID), zap.Int64("plan_id", plan.ID), zap.String("session", session.ID))
	return CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// Cancel deactivates the user's paid subscription. Access continues until
// the paid period ends on Stripe's side.
func (s *Service) Cancel(ctx context.Context, userID int64) error {
	sub, err := s.repo.FindSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if !sub.IsActive {
		return ErrAlreadyCancelled
	}
	if sub.Plan.IsFree() {
		return ErrFreePlanCancel
	}
	return s.repo.DeactivateSubscription(ctx, userID, s.now())
}

// WebhookEnabled reports whether a signing secret is configured.
func (s *Service) WebhookEnabled() bool {
	return s.webhookSecret != ""
}

// HandleWebhook verifies and applies a Stripe event.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return errors.Join(ErrInvalidSignature, err)
	}

	switch string(event.Type) {
	case eventCheckoutCompleted:
		return s.checkoutCompleted(ctx, event)
	case eventAsyncPaymentSucceeded:
		return s.asyncPayment(ctx, event, PaymentPaid)
	case eventAsyncPaymentFailed:
		return s.asyncPayment(ctx, event, PaymentFailed)
	case eventSubscriptionDeleted:
		return s.subscriptionDeleted(ctx, event)
	default:
		s.log.Debug("unhandled stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}

	if found, err := s.repo.UpdatePaymentStatus(ctx, session.ID, PaymentPaid); err != nil {
		return err
	} else if !found {
		s.log.Warn("payment not found for session", zap.String("session", session.ID))
	}

	userID, _ := strconv.ParseInt(session.Metadata["userId"], 10, 64)
	planID, _ := strconv.ParseInt(session.Metadata["planId"], 10, 64)
	if userID <= 0 || planID <= 0 {
		s.log.Warn("checkout session without user or plan metadata", zap.String("session", session.ID))
		return nil
	}

	var stripeSubscriptionID string
	if session.Subscription != nil {
		stripeSubscriptionID = session.Subscription.ID
	}

	start := s.now()
	if err := s.repo.UpsertSubscription(ctx, userID, planID, start, start.AddDate(0, 1, 0), stripeSubscriptionID); err != nil {
		return err
	}
	s.log.Info("subscription activated", zap.Int64("user_id", userID), zap.Int64("plan_id", planID))
	return nil
}

func (s *Service) asyncPayment(ctx context.Context, event stripe.Event, status PaymentStatus) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}
	if _, err := s.repo.UpdatePaymentStatus(ctx, session.ID, status); err != nil {
		return err
	}
	return nil
}

func (s *Service) subscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	found, err := s.repo.DeactivateByStripeID(ctx, sub.ID, s.now())
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	userID, _ := strconv.ParseInt(sub.Metadata["userId"], 10, 64)
	if userID <= 0 {
		s.log.Warn("deleted subscription matches no user", zap.String("subscription", sub.ID))
		return nil
	}
	if err := s.repo.DeactivateSubscription(ctx, userID, s.now()); err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return err
	}
	return nil
}
