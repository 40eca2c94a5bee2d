package presigned

import "time"

// Method is the HTTP verb a presigned URL grants.
type Method string

const (
	MethodGet Method = "GET"
	MethodPut Method = "PUT"
)

// Request asks for a presigned URL on one object of the caller's bucket.
type Request struct {
	Bucket     string `json:"bucket" binding:"required"`
	Key        string `json:"key" binding:"required"`
	Method     Method `json:"method"`
	TTLSeconds int64  `json:"ttl_seconds"`
	// SizeBytes is the size of the object a PUT grant will upload.
	SizeBytes int64 `json:"size_bytes"`
}

// Grant is an issued presigned URL.
type Grant struct {
	URL       string    `json:"url"`
	Method    Method    `json:"method"`
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuditRecord is persisted for every issued grant.
type AuditRecord struct {
	UserID    int64
	Bucket    string
	Key       string
	Method    Method
	ExpiresAt time.Time
}
