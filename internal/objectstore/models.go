package objectstore

import "time"

// Ref describes where a freshly written object lives.
type Ref struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

// Object describes one stored object. ContentType and Metadata are only
// populated by Stat and Get; listings leave them empty.
type Object struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Config parameterizes a Store.
type Config struct {
	Endpoint   string
	UseSSL     bool
	Region     string
	PresignTTL time.Duration
}
