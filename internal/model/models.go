package model

import (
	"io"
	"time"
)

// Category classifies an object inside a model folder.
type Category string

const (
	CategoryImage Category = "image"
	CategoryAsset Category = "model"
	CategoryOther Category = "other"
)

// File is one object of a model folder.
type File struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Category     Category  `json:"category"`
	URL          string    `json:"url,omitempty"`
}

// Model is a folder of objects holding at least one 3D asset. It is
// rebuilt from the bucket listing on every read.
type Model struct {
	Bucket    string    `json:"bucket"`
	Folder    string    `json:"folder"`
	Title     string    `json:"title"`
	Image     *File     `json:"image,omitempty"`
	Asset     File      `json:"model"`
	Files     []File    `json:"files"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Upload is one incoming file.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader identifies who writes objects, recorded as object metadata.
type Uploader struct {
	UserID   int64
	Username string
}
