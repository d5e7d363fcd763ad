// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3 provider. Logical buckets become key
// prefixes inside one S3 bucket.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, LocalStack)
	Prefix   string // Optional key prefix, e.g. "detaweb/"
	// PublicURL overrides the URL objects are served from, e.g. a CDN.
	PublicURL string
}

// S3Store stores objects in S3.
type S3Store struct {
	client    *s3.Client
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Store creates an S3-backed store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		publicURL: strings.TrimSuffix(s3PublicBase(cfg), "/"),
	}, nil
}

func s3PublicBase(cfg S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return cfg.PublicURL
	case cfg.Endpoint != "":
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + url.PathEscape(cfg.Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func (s *S3Store) key(bucket, clean string) string {
	return s.prefix + bucket + "/" + clean
}

// Upload puts the object under <prefix><bucket>/<path>.
func (s *S3Store) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	clean, err := CleanPath(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(bucket, clean)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put failed: %w", err)
	}
	return clean, nil
}

// PublicURL returns the object's URL under the public base.
func (s *S3Store) PublicURL(bucket, objectPath string) string {
	return s.publicURL + "/" + escapePath(s.key(bucket, objectPath))
}

// Delete removes the object. S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, bucket, objectPath string) error {
	clean, err := CleanPath(bucket, objectPath)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(bucket, clean)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed for %s: %w", clean, err)
	}
	return nil
}
