package file

import "time"

// Metadata describes a stored upload.
type Metadata struct {
	Bucket      string `json:"bucket"`
	ObjectName  string `json:"object_name"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	SizeBytes   int64  `json:"size"`
	ContentType string `json:"type"`
	Checksum    string `json:"checksum"`
}

// Entry is one object under the caller's upload prefix.
type Entry struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag"`
}
