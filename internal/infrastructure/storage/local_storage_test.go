package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)

	key := "invoices/2026/20260001.pdf"
	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, key, []byte("%PDF-1.4"), "application/pdf"))

	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Get(ctx, key)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestLocalStorage_KeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(root, "")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "../../escape.txt", []byte("x"), "text/plain"))
	path, err := s.path("../../escape.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, root))

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"root", "/"},
		{"dots", ".."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.Put(ctx, tt.key, []byte("x"), "text/plain"))
		})
	}
}

func TestLocalStorage_DownloadURL(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "https://dpnk.example.cz/files/")
	require.NoError(t, err)

	u, expiresAt, err := s.DownloadURL(context.Background(), "gpx/trip 1.gpx", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://dpnk.example.cz/files/gpx/trip%201.gpx", u)
	assert.True(t, expiresAt.After(time.Now()))

	_, _, err = s.DownloadURL(context.Background(), "", time.Hour)
	assert.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, &config.StorageConfig{Type: "local", LocalPath: t.TempDir()}, "http://localhost", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(ctx, &config.StorageConfig{Type: "ftp"}, "", zap.NewNop())
	assert.Error(t, err)

	_, err = New(ctx, &config.StorageConfig{Type: "local"}, "", zap.NewNop())
	assert.Error(t, err)
}
