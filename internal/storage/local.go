// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLocalBaseURL is the path the upload directory is served under.
const DefaultLocalBaseURL = "/uploads"

// LocalStore keeps objects under dir/<bucket>/<path>.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a store rooted at dir, creating it when missing.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		dir = "./uploads"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	return &LocalStore{dir: abs, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the absolute root directory, for serving it over HTTP.
func (s *LocalStore) Dir() string {
	return s.dir
}

// target resolves an object to a file path inside the root directory.
func (s *LocalStore) target(bucket, objectPath string) (string, string, error) {
	clean, err := CleanPath(bucket, objectPath)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(s.dir, bucket, filepath.FromSlash(clean))

	rel, err := filepath.Rel(s.dir, full)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", "", fmt.Errorf("%w: path traversal detected", ErrInvalidPath)
	}
	return full, clean, nil
}

// Upload writes data to disk.
func (s *LocalStore) Upload(ctx context.Context, bucket, objectPath string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, clean, err := s.target(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}
	return clean, nil
}

// PublicURL returns baseURL/<bucket>/<path>.
func (s *LocalStore) PublicURL(bucket, objectPath string) string {
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + escapePath(objectPath)
}

// Delete removes the file and prunes its directory when it becomes empty.
func (s *LocalStore) Delete(ctx context.Context, bucket, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, _, err := s.target(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	// Remove fails on non-empty directories, which is what we want.
	_ = os.Remove(filepath.Dir(full))
	return nil
}
