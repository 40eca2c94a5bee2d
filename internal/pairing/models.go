package pairing

import "time"

// SessionTTL bounds how long a device may complete a pairing.
const SessionTTL = 10 * time.Minute

// Status is derived from a session on every read.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Session is a short-lived pairing offer created by a user and claimed by a
// device.
type Session struct {
	ID                 string    `json:"id"`
	UserID             int64     `json:"user_id"`
	ExpiresAt          time.Time `json:"expires_at"`
	DeviceSerialNumber string    `json:"device_serial_number,omitempty"`
}

// StatusAt derives the session status at now. A completed session stays
// completed after its expiry.
func (s Session) StatusAt(now time.Time) Status {
	if s.DeviceSerialNumber != "" {
		return StatusCompleted
	}
	if now.After(s.ExpiresAt) {
		return StatusExpired
	}
	return StatusPending
}

// Device is a physical viewer known to the system.
type Device struct {
	ID           int64      `json:"id"`
	SerialNumber string     `json:"serialNumber"`
	ModelName    string     `json:"modelName"`
	CreatedAt    time.Time  `json:"createdAt"`
	PairedAt     *time.Time `json:"pairedAt,omitempty"`
}
