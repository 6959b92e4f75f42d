package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testS3Config() *config.StorageConfig {
	return &config.StorageConfig{
		Type:            "s3",
		Bucket:          "dpnk-test",
		Region:          "eu-central-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}
}

func TestNewS3Storage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"access key without secret", func(c *config.StorageConfig) { c.SecretAccessKey = "" }, "secret access key is required"},
		{"valid", func(c *config.StorageConfig) {}, ""},
		{"endpoint without scheme", func(c *config.StorageConfig) { c.Endpoint = "minio:9000" }, ""},
		{"default region", func(c *config.StorageConfig) { c.Region = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testS3Config()
			tt.mutate(cfg)
			s, err := NewS3Storage(context.Background(), cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "dpnk-test", s.Bucket())
		})
	}

	_, err := NewS3Storage(context.Background(), nil)
	assert.Error(t, err)
}

func TestS3Storage_Options(t *testing.T) {
	s, err := NewS3Storage(context.Background(), testS3Config(),
		WithLogger(zaptest.NewLogger(t)),
		WithPresignExpiration(time.Hour),
	)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.presignExpiration)
}

func TestS3Storage_DownloadURL(t *testing.T) {
	s, err := NewS3Storage(context.Background(), testS3Config())
	require.NoError(t, err)

	t.Run("empty key", func(t *testing.T) {
		u, _, err := s.DownloadURL(context.Background(), "", time.Minute)
		require.Error(t, err)
		assert.Empty(t, u)
	})

	t.Run("presigned url", func(t *testing.T) {
		u, expiresAt, err := s.DownloadURL(context.Background(), "invoices/20260001.pdf", 0)
		require.NoError(t, err)
		assert.True(t, strings.Contains(u, "localhost:9000"))
		assert.True(t, strings.Contains(u, "dpnk-test"))
		assert.True(t, strings.Contains(u, "X-Amz-Signature"))
		assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
	})
}

func TestS3Storage_EmptyKeyOperations(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3Storage(ctx, testS3Config())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Put(ctx, "", nil, "text/plain"), errEmptyKey)
	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
	assert.ErrorIs(t, s.Delete(ctx, ""), errEmptyKey)
	_, err = s.Exists(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
}
