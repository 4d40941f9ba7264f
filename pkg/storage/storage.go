package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Config holds storage configuration
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // For S3-compatible storage (MinIO, etc.)
	AccessKey string
	SecretKey string
	BaseURL   string // Public URL prefix
}

// UploadResult contains the result of an upload operation
type UploadResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// PresignedURLResult contains a presigned URL for direct download
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Storage is the object store used for evidence archives
type Storage interface {
	// Upload uploads an object
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)

	// GetURL returns the public URL for an object
	GetURL(key string) string

	// GetPresignedDownloadURL generates a time-limited download URL
	GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (*PresignedURLResult, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// EvidenceKey returns the object key of an analysis evidence archive
func EvidenceKey(analysisID string) string {
	return fmt.Sprintf("analyses/%s/evidence.json", analysisID)
}
