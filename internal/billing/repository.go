package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Repository persists plans, subscriptions and payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a billing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPlans returns every plan ordered by price.
func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
SELECT id, name, price_cents, storage_limit_mb, features
FROM subscription_plans
ORDER BY price_cents, id;`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]Plan, 0)
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.StorageLimitMB, &p.Features); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// GetPlan returns a plan by id.
func (r *Repository) GetPlan(ctx context.Context, planID int64) (Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var p Plan
	err := r.pool.QueryRow(ctx, `
SELECT id, name, price_cents, storage_limit_mb, features
FROM subscription_plans WHERE id = $1;`, planID).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.StorageLimitMB, &p.Features)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// UserEmail returns the email used to prefill checkout.
func (r *Repository) UserEmail(ctx context.Context, userID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var email string
	if err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1;`, userID).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get user email: %w", err)
	}
	return email, nil
}

// FindSubscription returns the user's subscription with its plan.
func (r *Repository) FindSubscription(ctx context.Context, userID int64) (Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT s.user_id, s.is_active, s.start_date, s.end_date, COALESCE(s.stripe_subscription_id, ''),
       p.id, p.name, p.price_cents, p.storage_limit_mb, p.features
FROM subscriptions s
JOIN subscription_plans p ON p.id = s.plan_id
WHERE s.user_id = $1;`

	var sub Subscription
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&sub.UserID, &sub.IsActive, &sub.StartDate, &sub.EndDate, &sub.StripeSubscriptionID,
		&sub.Plan.ID, &sub.Plan.Name, &sub.Plan.PriceCents, &sub.Plan.StorageLimitMB, &sub.Plan.Features,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrSubscriptionNotFound
		}
		return Subscription{}, fmt.Errorf("find subscription: %w", err)
	}
	return sub, nil
}

// UpsertSubscription activates planID for the user.
func (r *Repository) UpsertSubscription(ctx context.Context, userID, planID int64, start, end time.Time, stripeSubscriptionID string) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO subscriptions (user_id, plan_id, is_active, start_date, end_date, stripe_subscription_id)
VALUES ($1, $2, TRUE, $3, $4, NULLIF($5, ''))
ON CONFLICT (user_id) DO UPDATE
SET plan_id = EXCLUDED.plan_id,
    is_active = TRUE,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    stripe_subscription_id = COALESCE(EXCLUDED.stripe_subscription_id, subscriptions.stripe_subscription_id);`

	if _, err := r.pool.Exec(ctx, query, userID, planID, start, end, stripeSubscriptionID); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// DeactivateSubscription marks the user's subscription inactive as of end.
func (r *Repository) DeactivateSubscription(ctx context.Context, userID int64, end time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE subscriptions SET is_active = FALSE, end_date = $2 WHERE user_id = $1;`, userID, end)
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// DeactivateByStripeID deactivates the subscription created by a Stripe
// subscription. It reports whether a row matched.
func (r *Repository) DeactivateByStripeID(ctx context.Context, stripeSubscriptionID string, end time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
UPDATE subscriptions SET is_active = FALSE, end_date = $2
WHERE stripe_subscription_id = $1;`, stripeSubscriptionID, end)
	if err != nil {
		return false, fmt.Errorf("deactivate stripe subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreatePayment stores a pending payment.
func (r *Repository) CreatePayment(ctx context.Context, p Payment) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
INSERT INTO payments (stripe_session, user_id, amount_cents, status)
VALUES ($1, $2, $3, $4);`, p.StripeSession, p.UserID, p.AmountCents, string(p.Status))
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdatePaymentStatus sets the status of a payment by session id and
// reports whether the payment exists.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, stripeSession string, status PaymentStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
UPDATE payments SET status = $2, updated_at = NOW()
WHERE stripe_session = $1;`, stripeSession, string(status))
	if err != nil {
		return false, fmt.Errorf("update payment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// StorageLimitBytes resolves the limit of the user's active plan. ok is
// false when the user has no active subscription.
func (r *Repository) StorageLimitBytes(ctx context.Context, userID int64) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var limitMB int64
	err := r.pool.QueryRow(ctx, `
SELECT p.storage_limit_mb
FROM subscriptions s
JOIN subscription_plans p ON p.id = s.plan_id
WHERE s.user_id = $1 AND s.is_active;`, userID).Scan(&limitMB)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("resolve storage limit: %w", err)
	}
	return limitMB * 1024 * 1024, true, nil
}
