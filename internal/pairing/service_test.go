package pairing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func (m *memorySessions) Create(_ context.Context, sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memorySessions) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (m *memorySessions) Update(_ context.Context, id string, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if err := fn(&sess); err != nil {
		return Session{}, err
	}
	m.sessions[id] = sess
	return sess, nil
}

type memoryDevices struct {
	devices map[string]Device
	links   map[[2]int64]bool
}

func (m *memoryDevices) FindDeviceBySerial(_ context.Context, serial string) (Device, error) {
	d, ok := m.devices[serial]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	return d, nil
}

func (m *memoryDevices) LinkDevice(_ context.Context, userID, deviceID int64) (bool, error) {
	key := [2]int64{userID, deviceID}
	if m.links[key] {
		return false, nil
	}
	m.links[key] = true
	return true, nil
}

func (m *memoryDevices) ListUserDevices(_ context.Context, userID int64) ([]Device, error) {
	out := make([]Device, 0)
	for _, d := range m.devices {
		if m.links[[2]int64{userID, d.ID}] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryDevices) UnlinkDevice(_ context.Context, userID, deviceID int64) (bool, error) {
	key := [2]int64{userID, deviceID}
	if !m.links[key] {
		return false, nil
	}
	delete(m.links, key)
	return true, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService() (*Service, *memoryDevices, *clock) {
	devices := &memoryDevices{
		devices: map[string]Device{"SN-1": {ID: 11, SerialNumber: "SN-1", ModelName: "Holo One"}},
		links:   map[[2]int64]bool{},
	}
	clk := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(&memorySessions{sessions: map[string]Session{}}, devices, nil)
	svc.now = clk.now
	return svc, devices, clk
}

func TestPairingLifecycle(t *testing.T) {
	svc, devices, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.Create(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 10, 0, 0, time.UTC), sess.ExpiresAt)

	status, device, err := svc.Status(ctx, 5, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
	assert.Nil(t, device)

	created, err := svc.Complete(ctx, sess.ID, "SN-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, devices.links[[2]int64{5, 11}])

	status, device, err = svc.Status(ctx, 5, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	require.NotNil(t, device)
	assert.Equal(t, "Holo One", device.ModelName)

	_, err = svc.Complete(ctx, sess.ID, "SN-1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCompleteExistingLinkIsNotCreated(t *testing.T) {
	svc, devices, _ := newTestService()
	devices.links[[2]int64{5, 11}] = true

	sess, err := svc.Create(context.Background(), 5)
	require.NoError(t, err)

	created, err := svc.Complete(context.Background(), sess.ID, "SN-1")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCompleteExpiredSession(t *testing.T) {
	svc, _, clk := newTestService()
	ctx := context.Background()
	sess, err := svc.Create(ctx, 5)
	require.NoError(t, err)

	clk.t = clk.t.Add(SessionTTL + time.Second)

	_, err = svc.Complete(ctx, sess.ID, "SN-1")
	assert.ErrorIs(t, err, ErrSessionExpired)

	status, _, err := svc.Status(ctx, 5, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, status)
}

func TestCompleteUnknownDeviceLeavesSessionPending(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	sess, err := svc.Create(ctx, 5)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, sess.ID, "SN-404")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	status, _, err := svc.Status(ctx, 5, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
}

func TestStatusForOtherUserIsForbidden(t *testing.T) {
	svc, _, _ := newTestService()
	sess, err := svc.Create(context.Background(), 5)
	require.NoError(t, err)

	_, _, err = svc.Status(context.Background(), 6, sess.ID)
	assert.Equal(t, http.StatusForbidden, apperror.Status(err))

	_, _, err = svc.Status(context.Background(), 5, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUnpair(t *testing.T) {
	svc, devices, _ := newTestService()
	devices.links[[2]int64{5, 11}] = true

	require.NoError(t, svc.Unpair(context.Background(), 5, 11))
	assert.ErrorIs(t, svc.Unpair(context.Background(), 5, 11), ErrNotPaired)
}

func TestCompleteHandlerStatusCodes(t *testing.T) {
	svc, _, _ := newTestService()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterPublicRoutes(router.Group("/v1"), svc)
	protected := router.Group("/v1")
	protected.Use(func(c *gin.Context) {
		auth.SetUser(c, auth.ContextUser{ID: 5})
		c.Next()
	})
	RegisterRoutes(protected, svc)

	sess, err := svc.Create(context.Background(), 5)
	require.NoError(t, err)

	post := func(body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/pairing/complete", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, post(`{"pairingId":""}`))
	assert.Equal(t, http.StatusCreated, post(`{"pairingId":"`+sess.ID+`","deviceSerialNumber":"SN-1"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"pairingId":"`+sess.ID+`","deviceSerialNumber":"SN-1"}`))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/devices/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
