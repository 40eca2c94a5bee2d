package billing

import "time"

// FreePlanName names the plan every user has without paying.
const FreePlanName = "Free"

// PaymentStatus tracks a checkout session.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Plan is a purchasable storage tier.
type Plan struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	PriceCents     int64    `json:"price_cents"`
	StorageLimitMB int64    `json:"storage_limit_mb"`
	Features       []string `json:"features"`
}

// IsFree reports whether the plan is the free tier.
func (p Plan) IsFree() bool {
	return p.Name == FreePlanName
}

// StorageLimitBytes converts the plan limit to bytes.
func (p Plan) StorageLimitBytes() int64 {
	return p.StorageLimitMB * 1024 * 1024
}

// Subscription binds a user to a plan.
type Subscription struct {
	UserID               int64      `json:"user_id"`
	Plan                 Plan       `json:"plan"`
	IsActive             bool       `json:"is_active"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	StripeSubscriptionID string     `json:"-"`
}

// Payment records one checkout session.
type Payment struct {
	StripeSession string
	UserID        int64
	AmountCents   int64
	Status        PaymentStatus
}

// CheckoutSession is what the client needs to redirect to the payment page.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
