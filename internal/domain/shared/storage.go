package shared

import (
	"context"
	"time"
)

// FileStorage keeps generated and uploaded files: invoice PDFs, delivery
// batch documents and GPX tracks
type FileStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// DownloadURL returns a URL the client can fetch the file from directly
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}
