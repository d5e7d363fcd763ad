// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded images and renders their resized
// variants. It works on bytes; storing them is the caller's job.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/detagroup/detaweb/internal/model"
)

// ErrUnsupportedFormat is returned for data that is not a JPEG, PNG, GIF
// or WebP image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Image is a decoded upload re-encoded without metadata.
type Image struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
	// Ext is the file extension matching Data, with the dot.
	Ext string

	img    image.Image
	format string
}

// Variant is a resized rendition of an Image.
type Variant struct {
	Kind   string
	Data   []byte
	Width  int
	Height int
}

// Processor handles image processing operations using pure Go libraries.
type Processor struct {
	quality  int
	variants map[string]model.ImageVariantConfig
}

// NewProcessor creates a processor producing the standard variants.
func NewProcessor() *Processor {
	return &Processor{quality: 95, variants: model.ImageVariants}
}

// Process decodes data, applies the EXIF orientation and re-encodes it.
// Re-encoding drops EXIF metadata, including GPS positions.
func (p *Processor) Process(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	out, err := encodeImage(img, format, p.quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	// WebP has no pure Go encoder and is stored as JPEG.
	if format == "webp" {
		format = "jpeg"
	}

	bounds := img.Bounds()
	return &Image{
		Data:     out,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatToMimeType(format),
		Ext:      formatToExt(format),
		img:      img,
		format:   format,
	}, nil
}

// Variant renders one variant of src. It returns nil when src already fits
// a non-cropping variant.
func (p *Processor) Variant(src *Image, kind string, config model.ImageVariantConfig) (*Variant, error) {
	if src.Width <= config.Width && src.Height <= config.Height && !config.Crop {
		return nil, nil
	}

	var resized image.Image
	if config.Crop {
		resized = imaging.Fill(src.img, config.Width, config.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(src.img, config.Width, config.Height, imaging.Lanczos)
	}

	data, err := encodeImage(resized, src.format, config.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s variant: %w", kind, err)
	}

	b := resized.Bounds()
	return &Variant{Kind: kind, Data: data, Width: b.Dx(), Height: b.Dy()}, nil
}

// Variants renders every configured variant, smallest name first. It keeps
// going when one fails and errors only when all of them do.
func (p *Processor) Variants(src *Image) ([]*Variant, error) {
	kinds := make([]string, 0, len(p.variants))
	for kind := range p.variants {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var results []*Variant
	var errs []error
	for _, kind := range kinds {
		v, err := p.Variant(src, kind, p.variants[kind])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v != nil {
			results = append(results, v)
		}
	}

	if len(errs) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("all variants failed: %w", errors.Join(errs...))
	}
	return results, nil
}

// IsImage checks if a MIME type represents an image that can be processed.
func (p *Processor) IsImage(mimeType string) bool {
	return model.IsImageMimeType(mimeType)
}

// DetectMimeType sniffs the MIME type of data, without parameters.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// ExtForMimeType returns the file extension for an upload type, falling
// back to the extension of filename.
func ExtForMimeType(mimeType, filename string) string {
	switch mimeType {
	case model.MimeTypeJPEG:
		return ".jpg"
	case model.MimeTypePNG:
		return ".png"
	case model.MimeTypeGIF:
		return ".gif"
	case model.MimeTypeWebP:
		return ".webp"
	case model.MimeTypePDF:
		return ".pdf"
	}
	return strings.ToLower(filepath.Ext(filename))
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// 2 and 4 flip, 3 rotates 180°, 6 and 8 rotate 90°, 5 and 7 rotate and flip.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return model.MimeTypePNG
	case "gif":
		return model.MimeTypeGIF
	default:
		return model.MimeTypeJPEG
	}
}

func formatToExt(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
