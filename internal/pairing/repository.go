package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Repository persists devices and their links to users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a device repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindDeviceBySerial loads a registered device.
func (r *Repository) FindDeviceBySerial(ctx context.Context, serial string) (Device, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT d.id, d.serial_number, m.name, d.created_at
FROM devices d
JOIN device_models m ON m.id = d.model_id
WHERE d.serial_number = $1;`

	var d Device
	if err := r.pool.QueryRow(ctx, query, serial).Scan(&d.ID, &d.SerialNumber, &d.ModelName, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, ErrDeviceNotFound
		}
		return Device{}, fmt.Errorf("find device: %w", err)
	}
	return d, nil
}

// LinkDevice pairs a device with a user. created is false when the pair
// already existed.
func (r *Repository) LinkDevice(ctx context.Context, userID, deviceID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO user_devices (user_id, device_id)
VALUES ($1, $2)
ON CONFLICT (user_id, device_id) DO UPDATE SET paired_at = user_devices.paired_at
RETURNING (xmax = 0);`

	var created bool
	if err := r.pool.QueryRow(ctx, query, userID, deviceID).Scan(&created); err != nil {
		return false, fmt.Errorf("link device: %w", err)
	}
	return created, nil
}

// ListUserDevices returns the user's devices, most recently paired first.
func (r *Repository) ListUserDevices(ctx context.Context, userID int64) ([]Device, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT d.id, d.serial_number, m.name, d.created_at, ud.paired_at
FROM user_devices ud
JOIN devices d ON d.id = ud.device_id
JOIN device_models m ON m.id = d.model_id
WHERE ud.user_id = $1
ORDER BY ud.paired_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := make([]Device, 0)
	for rows.Next() {
		var (
			d        Device
			pairedAt time.Time
		)
		if err := rows.Scan(&d.ID, &d.SerialNumber, &d.ModelName, &d.CreatedAt, &pairedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.PairedAt = &pairedAt
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, nil
}

// UnlinkDevice removes a pairing and reports whether it existed.
func (r *Repository) UnlinkDevice(ctx context.Context, userID, deviceID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM user_devices WHERE user_id = $1 AND device_id = $2;`, userID, deviceID)
	if err != nil {
		return false, fmt.Errorf("unlink device: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
