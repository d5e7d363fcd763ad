// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage is the file storage provider: uploaded objects live in
// named buckets on local disk or in S3 and are served from public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidPath is returned for object paths that are empty, absolute or
// escape their bucket.
var ErrInvalidPath = errors.New("invalid object path")

// Provider stores objects by bucket and path.
type Provider interface {
	// Upload writes data and returns the stored path.
	Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error)
	// PublicURL returns the URL the object is served from.
	PublicURL(bucket, objectPath string) string
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, objectPath string) error
}

// Config selects and configures a provider.
type Config struct {
	Backend string // "local" or "s3"

	// Local disk.
	Dir     string
	BaseURL string // public URL prefix the directory is served under

	// S3.
	S3 S3Config
}

// New creates the provider named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir, cfg.BaseURL)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// CleanPath validates bucket and objectPath and returns the object path in
// canonical slash form.
func CleanPath(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\.`) {
		return "", fmt.Errorf("%w: bucket %q", ErrInvalidPath, bucket)
	}
	if objectPath == "" || strings.HasPrefix(objectPath, "/") || strings.Contains(objectPath, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	clean := path.Clean(objectPath)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	return clean, nil
}

// escapePath escapes each segment of a slash-separated path for a URL.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
