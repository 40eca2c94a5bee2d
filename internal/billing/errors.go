package billing

import (
	"errors"

	"github.com/abduss/modelvault/internal/apperror"
)

var (
	ErrPlanNotFound         = apperror.NotFound("plan not found")
	ErrUserNotFound         = apperror.NotFound("user not found")
	ErrSubscriptionNotFound = apperror.NotFound("no subscription found")
	ErrFreePlanPurchase     = apperror.Validation("the free plan cannot be purchased")
	ErrFreePlanCancel       = apperror.Validation("the free plan cannot be cancelled")
	ErrAlreadyCancelled     = apperror.Validation("the subscription is already cancelled")
	ErrMissingSignature     = apperror.Validation("missing stripe signature")
	ErrInvalidSignature     = apperror.Validation("invalid webhook signature")
	// ErrStripeDisabled is returned by checkout when no secret key is configured.
	ErrStripeDisabled = errors.New("stripe is not configured")
	// ErrCheckoutURLMissing is returned when stripe creates a session without a URL.
	ErrCheckoutURLMissing = errors.New("checkout session has no url")
)
