// Package pairing links physical viewer devices to user accounts through
// short-lived pairing sessions.
package pairing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionStore interface {
	Create(ctx context.Context, sess Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (Session, error)
}

type deviceStore interface {
	FindDeviceBySerial(ctx context.Context, serial string) (Device, error)
	LinkDevice(ctx context.Context, userID, deviceID int64) (bool, error)
	ListUserDevices(ctx context.Context, userID int64) ([]Device, error)
	UnlinkDevice(ctx context.Context, userID, deviceID int64) (bool, error)
}

// Service coordinates pairing sessions and device links.
type Service struct {
	sessions sessionStore
	devices  deviceStore
	now      func() time.Time
	log      *zap.Logger
}

// NewService constructs a pairing service.
func NewService(sessions sessionStore, devices deviceStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sessions: sessions, devices: devices, now: time.Now, log: log}
}

// Create opens a pairing session for userID.
func (s *Service) Create(ctx context.Context, userID int64) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(SessionTTL).UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Status reports the session status to its owner. The device is returned
// for completed sessions when it is still registered.
func (s *Service) Status(ctx context.Context, userID int64, id string) (Status, *Device, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if sess.UserID != userID {
		return "", nil, ErrForbidden
	}

	status := sess.StatusAt(s.now())
	if status != StatusCompleted {
		return status, nil, nil
	}

	device, err := s.devices.FindDeviceBySerial(ctx, sess.DeviceSerialNumber)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return status, nil, nil
		}
		return "", nil, err
	}
	return status, &device, nil
}

// Complete is called by a device to claim a pending session. created is
// false when the device was already linked to the session's user.
func (s *Service) Complete(ctx context.Context, id, serial string) (bool, error) {
	id = strings.TrimSpace(id)
	serial = strings.TrimSpace(serial)
	if id == "" || serial == "" {
		return false, ErrMissingFields
	}

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.claimable(sess); err != nil {
		return false, err
	}

	device, err := s.devices.FindDeviceBySerial(ctx, serial)
	if err != nil {
		return false, err
	}

	sess, err = s.sessions.Update(ctx, id, func(cur *Session) error {
		if err := s.claimable(*cur); err != nil {
			return err
		}
		cur.DeviceSerialNumber = serial
		return nil
	})
	if err != nil {
		return false, err
	}

	created, err := s.devices.LinkDevice(ctx, sess.UserID, device.ID)
	if err != nil {
		return false, err
	}
	s.log.Info("device paired", zap.Int64("user_id", sess.UserID), zap.Int64("device_id", device.ID), zap.Bool("created", created))
	return created, nil
}

func (s *Service) claimable(sess Session) error {
	switch sess.StatusAt(s.now()) {
	case StatusCompleted:
		return ErrAlreadyCompleted
	case StatusExpired:
		return ErrSessionExpired
	default:
		return nil
	}
}

// Devices lists the user's paired devices.
func (s *Service) Devices(ctx context.Context, userID int64) ([]Device, error) {
	return s.devices.ListUserDevices(ctx, userID)
}

// Unpair removes a device from the user's account.
func (s *Service) Unpair(ctx context.Context, userID, deviceID int64) error {
	removed, err := s.devices.UnlinkDevice(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotPaired
	}
	return nil
}
