// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Storage buckets.
const (
	BucketMedia       = "media"
	BucketBackgrounds = "backgrounds"
)

// IsValidBucket reports whether b is a known storage bucket.
func IsValidBucket(b string) bool {
	return b == BucketMedia || b == BucketBackgrounds
}

// Supported image variant types
const (
	VariantThumbnail = "thumbnail"
	VariantMedium    = "medium"
	VariantLarge     = "large"
)

// Supported MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypePDF  = "application/pdf"
)

// ImageVariantConfig defines settings for generating image variants.
type ImageVariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool // true = crop to exact size, false = fit within bounds
}

// ImageVariants defines the image variant configurations generated on upload.
var ImageVariants = map[string]ImageVariantConfig{
	VariantThumbnail: {Width: 150, Height: 150, Quality: 80, Crop: true},
	VariantMedium:    {Width: 800, Height: 600, Quality: 85, Crop: false},
	VariantLarge:     {Width: 1920, Height: 1080, Quality: 90, Crop: false},
}

// IsImageMimeType reports whether mimeType is a processable image type.
func IsImageMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

// IsAllowedUploadType reports whether mimeType may be uploaded to the media library.
func IsAllowedUploadType(mimeType string) bool {
	return IsImageMimeType(mimeType) || mimeType == MimeTypePDF
}
