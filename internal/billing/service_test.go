package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/quota"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var _ quota.LimitSource = (*Repository)(nil)

const testSecret = "whsec_test"

var (
	freePlan = Plan{ID: 1, Name: FreePlanName, StorageLimitMB: 1024}
	proPlan  = Plan{ID: 2, Name: "Pro", PriceCents: 999, StorageLimitMB: 10240}
)

type memoryStore struct {
	plans         map[int64]Plan
	subs          map[int64]Subscription
	payments      map[string]Payment
	stripeSubs    map[string]int64
	upsertEndDate time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		plans:      map[int64]Plan{freePlan.ID: freePlan, proPlan.ID: proPlan},
		subs:       map[int64]Subscription{},
		payments:   map[string]Payment{},
		stripeSubs: map[string]int64{},
	}
}

func (m *memoryStore) ListPlans(context.Context) ([]Plan, error) {
	return []Plan{freePlan, proPlan}, nil
}

func (m *memoryStore) GetPlan(_ context.Context, id int64) (Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

func (m *memoryStore) UserEmail(_ context.Context, userID int64) (string, error) {
	if userID == 404 {
		return "", ErrUserNotFound
	}
	return "user@example.com", nil
}

func (m *memoryStore) FindSubscription(_ context.Context, userID int64) (Subscription, error) {
	sub, ok := m.subs[userID]
	if !ok {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (m *memoryStore) UpsertSubscription(_ context.Context, userID, planID int64, start, end time.Time, stripeID string) error {
	m.subs[userID] = Subscription{UserID: userID, Plan: m.plans[planID], IsActive: true, StartDate: start, EndDate: &end, StripeSubscriptionID: stripeID}
	if stripeID != "" {
		m.stripeSubs[stripeID] = userID
	}
	m.upsertEndDate = end
	return nil
}

func (m *memoryStore) DeactivateSubscription(_ context.Context, userID int64, end time.Time) error {
	sub, ok := m.subs[userID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	sub.IsActive = false
	sub.EndDate = &end
	m.subs[userID] = sub
	return nil
}

func (m *memoryStore) DeactivateByStripeID(ctx context.Context, stripeID string, end time.Time) (bool, error) {
	userID, ok := m.stripeSubs[stripeID]
	if !ok {
		return false, nil
	}
	return true, m.DeactivateSubscription(ctx, userID, end)
}

func (m *memoryStore) CreatePayment(_ context.Context, p Payment) error {
	m.payments[p.StripeSession] = p
	return nil
}

func (m *memoryStore) UpdatePaymentStatus(_ context.Context, session string, status PaymentStatus) (bool, error) {
	p, ok := m.payments[session]
	if !ok {
		return false, nil
	}
	p.Status = status
	m.payments[session] = p
	return true, nil
}

type fakeCheckout struct {
	params *stripe.CheckoutSessionParams
	url    string
	err    error
}

func (f *fakeCheckout) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: f.url}, nil
}

func newTestService(checkout CheckoutAPI) (*Service, *memoryStore) {
	repo := newMemoryStore()
	svc := NewService(repo, checkout, Options{WebhookSecret: testSecret}, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCheckoutCreatesPendingPayment(t *testing.T) {
	checkout := &fakeCheckout{url: "https://checkout.stripe.test/cs_test_1"}
	svc, repo := newTestService(checkout)

	session, err := svc.Checkout(context.Background(), 7, proPlan.ID, "https://app.example/")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.SessionID)
	assert.Equal(t, checkout.url, session.URL)

	require.NotNil(t, checkout.params)
	assert.Equal(t, "subscription", *checkout.params.Mode)
	assert.Equal(t, "https://app.example/subscription?canceled=true", *checkout.params.CancelURL)
	assert.Equal(t, int64(999), *checkout.params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "eur", *checkout.params.LineItems[0].PriceData.Currency)
	assert.Equal(t, "7", checkout.params.Metadata["userId"])
	assert.Equal(t, "2", checkout.params.Metadata["planId"])

	assert.Equal(t, Payment{StripeSession: "cs_test_1", UserID: 7, AmountCents: 999, Status: PaymentPending}, repo.payments["cs_test_1"])
}

func TestCheckoutRejections(t *testing.T) {
	svc, _ := newTestService(&fakeCheckout{url: "u"})
	ctx := context.Background()

	_, err := svc.Checkout(ctx, 7, freePlan.ID, "")
	assert.ErrorIs(t, err, ErrFreePlanPurchase)

	_, err = svc.Checkout(ctx, 7, 99, "")
	assert.Equal(t, http.StatusNotFound, apperror.Status(err))

	disabled, _ := newTestService(nil)
	_, err = disabled.Checkout(ctx, 7, proPlan.ID, "")
	assert.ErrorIs(t, err, ErrStripeDisabled)
	assert.Equal(t, http.StatusInternalServerError, apperror.Status(err))

	noURL, repo := newTestService(&fakeCheckout{})
	_, err = noURL.Checkout(ctx, 7, proPlan.ID, "")
	assert.ErrorIs(t, err, ErrCheckoutURLMissing)
	assert.Empty(t, repo.payments)
}

func TestCancel(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Cancel(ctx, 1), ErrSubscriptionNotFound)

	repo.subs[2] = Subscription{UserID: 2, Plan: freePlan, IsActive: true}
	assert.ErrorIs(t, svc.Cancel(ctx, 2), ErrFreePlanCancel)

	repo.subs[3] = Subscription{UserID: 3, Plan: proPlan, IsActive: true}
	require.NoError(t, svc.Cancel(ctx, 3))
	assert.False(t, repo.subs[3].IsActive)

	assert.ErrorIs(t, svc.Cancel(ctx, 3), ErrAlreadyCancelled)
}

func signed(t *testing.T, payload string) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header
}

const completedEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": "cs_test_1",
    "object": "checkout.session",
    "subscription": "sub_123",
    "metadata": {"userId": "7", "planId": "2"}
  }}
}`

func TestWebhookCheckoutCompletedActivatesPlan(t *testing.T) {
	svc, repo := newTestService(nil)
	repo.payments["cs_test_1"] = Payment{StripeSession: "cs_test_1", UserID: 7, Status: PaymentPending}

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(completedEvent), signed(t, completedEvent)))

	assert.Equal(t, PaymentPaid, repo.payments["cs_test_1"].Status)
	sub := repo.subs[7]
	assert.True(t, sub.IsActive)
	assert.Equal(t, proPlan.ID, sub.Plan.ID)
	assert.Equal(t, "sub_123", sub.StripeSubscriptionID)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), repo.upsertEndDate)
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	svc, repo := newTestService(nil)
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(completedEvent), signed(t, completedEvent)))

	deleted := `{"id":"evt_2","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_123","object":"subscription"}}}`
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(deleted), signed(t, deleted)))
	assert.False(t, repo.subs[7].IsActive)
}

func TestWebhookAsyncPaymentFailed(t *testing.T) {
	svc, repo := newTestService(nil)
	repo.payments["cs_9"] = Payment{StripeSession: "cs_9", Status: PaymentPending}

	failed := `{"id":"evt_3","object":"event","type":"checkout.session.async_payment_failed","data":{"object":{"id":"cs_9","object":"checkout.session"}}}`
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(failed), signed(t, failed)))
	assert.Equal(t, PaymentFailed, repo.payments["cs_9"].Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _ := newTestService(nil)

	err := svc.HandleWebhook(context.Background(), []byte(completedEvent), "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	err = svc.HandleWebhook(context.Background(), []byte(completedEvent), "")
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestWebhookHandlerWithoutSecretIsNoop(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, Options{}, nil)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterPublicRoutes(router.Group("/v1"), svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/billing/webhook", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestPlanLimitBytes(t *testing.T) {
	assert.Equal(t, int64(10240)*1024*1024, proPlan.StorageLimitBytes())
	assert.True(t, freePlan.IsFree())
	assert.False(t, errors.Is(ErrStripeDisabled, apperror.ErrValidation))
}
