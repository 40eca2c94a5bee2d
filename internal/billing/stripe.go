package billing

import (
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// CheckoutAPI creates Stripe checkout sessions.
type CheckoutAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewCheckoutAPI builds a checkout client bound to secretKey. It returns nil
// when no key is configured so checkout reports ErrStripeDisabled.
func NewCheckoutAPI(secretKey string) CheckoutAPI {
	if secretKey == "" {
		return nil
	}
	return client.New(secretKey, nil).CheckoutSessions
}
