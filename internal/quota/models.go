package quota

import "math"

const bytesPerMB = 1024 * 1024

// Snapshot is the usage of one bucket measured at listing time.
type Snapshot struct {
	Bucket     string `json:"bucket"`
	UsedBytes  int64  `json:"used_bytes"`
	LimitBytes int64  `json:"limit_bytes"`
}

// UsedMB reports usage in megabytes rounded to two decimals.
func (s Snapshot) UsedMB() float64 {
	return math.Round(float64(s.UsedBytes)/bytesPerMB*100) / 100
}

// LimitMB reports the limit in megabytes.
func (s Snapshot) LimitMB() float64 {
	return float64(s.LimitBytes) / bytesPerMB
}

// Remaining returns the bytes still available, never negative.
func (s Snapshot) Remaining() int64 {
	if s.UsedBytes >= s.LimitBytes {
		return 0
	}
	return s.LimitBytes - s.UsedBytes
}
