package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		bucket, path string
		want         string
		wantErr      bool
	}{
		{"media", "2026/03/photo.jpg", "2026/03/photo.jpg", false},
		{"media", "a/./b.png", "a/b.png", false},
		{"media", "a/../b.png", "b.png", false},
		{"media", "../etc/passwd", "", true},
		{"media", "/abs.png", "", true},
		{"media", "", "", true},
		{"media", `a\b.png`, "", true},
		{"", "a.png", "", true},
		{"../media", "a.png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.bucket+"/"+tt.path, func(t *testing.T) {
			got, err := CleanPath(tt.bucket, tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPath), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "https://cdn.example.com/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	stored, err := s.Upload(ctx, "media", "abc/original.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "abc/original.png", stored)

	data, err := os.ReadFile(filepath.Join(dir, "media", "abc", "original.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "https://cdn.example.com/uploads/media/abc/original.png", s.PublicURL("media", stored))
	assert.Equal(t, "/uploads/media/a%20b.png", mustLocal(t, dir).PublicURL("media", "a b.png"))

	require.NoError(t, s.Delete(ctx, "media", stored))
	_, err = os.Stat(filepath.Join(dir, "media", "abc", "original.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "media", "abc"))
	assert.True(t, os.IsNotExist(err), "empty directory should be pruned")

	require.NoError(t, s.Delete(ctx, "media", stored), "deleting twice is fine")

	_, err = s.Upload(ctx, "media", "../../escape.txt", []byte("x"), "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func mustLocal(t *testing.T, dir string) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(dir, "")
	require.NoError(t, err)
	return s
}

func TestLocalStore_CancelledContext(t *testing.T) {
	s := mustLocal(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upload(ctx, "media", "a.png", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestS3PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "aws virtual host",
			cfg:  S3Config{Bucket: "deta-assets", Region: "eu-central-1"},
			want: "https://deta-assets.s3.eu-central-1.amazonaws.com/media/x/y.jpg",
		},
		{
			name: "custom endpoint path style",
			cfg:  S3Config{Bucket: "deta", Region: "us-east-1", Endpoint: "http://localhost:9000/", Prefix: "site/"},
			want: "http://localhost:9000/deta/site/media/x/y.jpg",
		},
		{
			name: "cdn override",
			cfg:  S3Config{Bucket: "deta", Region: "us-east-1", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/media/x/y.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewS3Store(context.Background(), tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.PublicURL("media", "x/y.jpg"))
		})
	}
}

func TestNew(t *testing.T) {
	p, err := New(context.Background(), Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, p)

	_, err = New(context.Background(), Config{Backend: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Backend: "s3"})
	assert.Error(t, err, "bucket is required")
}
