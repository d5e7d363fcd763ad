// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/imaging"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/storage"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

// MaxUploadSize is the largest accepted upload.
const MaxUploadSize = 20 * 1024 * 1024 // 20MB

var pageKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// UploadInput describes one file sent to the media library.
type UploadInput struct {
	Bucket     string
	Filename   string
	Data       io.Reader
	UploadedBy string
}

// VariantView is a stored variant with its public URL.
type VariantView struct {
	Kind   string `json:"kind"`
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

// MediaItem is a media row with the URLs it is served from.
type MediaItem struct {
	store.Media
	URL      string        `json:"url"`
	Variants []VariantView `json:"variants"`
}

// BackgroundInput creates or updates a background image slot.
type BackgroundInput struct {
	PageKey  string `json:"page_key"`
	MediaID  string `json:"media_id"`
	Position int64  `json:"position"`
	IsActive bool   `json:"is_active"`
}

// BackgroundView is a background slot with the URL of its image.
type BackgroundView struct {
	store.BackgroundImage
	URL string `json:"url"`
}

// MediaService stores uploads in a storage provider and keeps their
// metadata in the database.
type MediaService struct {
	queries   *store.Queries
	tx        *store.TxRunner
	storage   storage.Provider
	processor *imaging.Processor
	logger    *slog.Logger
	now       func() time.Time
}

// NewMediaService creates a MediaService.
func NewMediaService(db *sql.DB, queries *store.Queries, provider storage.Provider, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{
		queries:   queries,
		tx:        store.NewTxRunner(db, queries),
		storage:   provider,
		processor: imaging.NewProcessor(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type storedObject struct {
	path   string
	kind   string
	width  int
	height int
	size   int
}

// Upload validates and stores a file. Images are re-encoded without
// metadata and get resized variants. The content type is sniffed from the
// data, the client-supplied one is ignored.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (*MediaItem, error) {
	if !model.IsValidBucket(in.Bucket) {
		return nil, ErrInvalidBucket
	}

	data, err := io.ReadAll(io.LimitReader(in.Data, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	mimeType := imaging.DetectMimeType(data)
	if !model.IsAllowedUploadType(mimeType) {
		return nil, ErrUnsupportedMediaType
	}
	if in.Bucket == model.BucketBackgrounds && !model.IsImageMimeType(mimeType) {
		return nil, ErrUnsupportedMediaType
	}

	id := uuid.New().String()
	filename := util.Slugify(in.Filename)
	if filename == "" {
		filename = "file"
	}

	original := storedObject{kind: "original", size: len(data)}
	var variants []*imaging.Variant
	ext := imaging.ExtForMimeType(mimeType, filename)

	if model.IsImageMimeType(mimeType) {
		img, err := s.processor.Process(bytes.NewReader(data))
		if err != nil {
			if errors.Is(err, imaging.ErrUnsupportedFormat) {
				return nil, ErrUnsupportedMediaType
			}
			return nil, fmt.Errorf("processing image: %w", err)
		}
		data, mimeType, ext = img.Data, img.MimeType, img.Ext
		original.width, original.height, original.size = img.Width, img.Height, len(img.Data)

		variants, err = s.processor.Variants(img)
		if err != nil {
			s.logger.Warn("failed to create image variants", "media_id", id, "error", err)
		}
	}

	original.path = id + "/original" + ext
	if _, err := s.storage.Upload(ctx, in.Bucket, original.path, data, mimeType); err != nil {
		return nil, fmt.Errorf("storing original: %w", err)
	}
	uploaded := []string{original.path}

	stored := make([]storedObject, 0, len(variants))
	for _, v := range variants {
		obj := storedObject{
			path:   id + "/" + v.Kind + ext,
			kind:   v.Kind,
			width:  v.Width,
			height: v.Height,
			size:   len(v.Data),
		}
		if _, err := s.storage.Upload(ctx, in.Bucket, obj.path, v.Data, mimeType); err != nil {
			s.removeObjects(ctx, in.Bucket, uploaded)
			return nil, fmt.Errorf("storing %s variant: %w", v.Kind, err)
		}
		uploaded = append(uploaded, obj.path)
		stored = append(stored, obj)
	}

	now := s.now()
	var media store.Media
	var rows []store.MediaVariant
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		params := store.CreateMediaParams{
			ID:         id,
			Bucket:     in.Bucket,
			Path:       original.path,
			Filename:   filename,
			MimeType:   mimeType,
			Size:       int64(original.size),
			UploadedBy: util.NullStringFromValue(in.UploadedBy),
			CreatedAt:  now,
		}
		if original.width > 0 {
			params.Width = sql.NullInt64{Int64: int64(original.width), Valid: true}
			params.Height = sql.NullInt64{Int64: int64(original.height), Valid: true}
		}

		var err error
		media, err = q.CreateMedia(ctx, params)
		if err != nil {
			return err
		}

		for _, obj := range stored {
			row, err := q.CreateMediaVariant(ctx, store.CreateMediaVariantParams{
				MediaID:   id,
				Kind:      obj.kind,
				Path:      obj.path,
				Width:     int64(obj.width),
				Height:    int64(obj.height),
				Size:      int64(obj.size),
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		s.removeObjects(ctx, in.Bucket, uploaded)
		if store.IsForeignKeyViolation(err) {
			return nil, fieldError("uploaded_by", "validation.unknown_reference")
		}
		return nil, fmt.Errorf("creating media record: %w", err)
	}

	s.logger.Info("media uploaded",
		"category", model.EventCategoryMedia,
		"media_id", id,
		"bucket", in.Bucket,
		"mime_type", mimeType,
		"size", original.size,
	)

	return s.item(media, rows), nil
}

// Get returns one media item with its variants.
func (s *MediaService) Get(ctx context.Context, id string) (*MediaItem, error) {
	media, err := s.queries.GetMedia(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting media: %w", err)
	}

	variants, err := s.queries.ListMediaVariants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	return s.item(media, variants), nil
}

// List returns a page of media, newest first. An empty bucket lists all.
func (s *MediaService) List(ctx context.Context, bucket string, page, perPage int) (*Page[MediaItem], error) {
	if bucket != "" && !model.IsValidBucket(bucket) {
		return nil, ErrInvalidBucket
	}
	page, perPage = pageBounds(page, perPage)

	total, err := s.queries.CountMedia(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("counting media: %w", err)
	}

	rows, err := s.queries.ListMedia(ctx, bucket, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}

	items := make([]MediaItem, 0, len(rows))
	for _, m := range rows {
		variants, err := s.queries.ListMediaVariants(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("listing variants: %w", err)
		}
		items = append(items, *s.item(m, variants))
	}

	return &Page[MediaItem]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Delete removes a media item. Stored objects are removed after the rows
// are gone; failures there are logged and do not fail the call.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	media, err := s.queries.GetMedia(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting media: %w", err)
	}

	variants, err := s.queries.ListMediaVariants(ctx, id)
	if err != nil {
		return fmt.Errorf("listing variants: %w", err)
	}

	n, err := s.queries.DeleteMedia(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting media: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	paths := []string{media.Path}
	for _, v := range variants {
		paths = append(paths, v.Path)
	}
	s.removeObjects(ctx, media.Bucket, paths)

	s.logger.Info("media deleted", "category", model.EventCategoryMedia, "media_id", id)
	return nil
}

// CreateBackground assigns an image to a page background slot.
func (s *MediaService) CreateBackground(ctx context.Context, in BackgroundInput) (*BackgroundView, error) {
	if err := s.validateBackground(ctx, in, true); err != nil {
		return nil, err
	}

	now := s.now()
	bg, err := s.queries.CreateBackgroundImage(ctx, store.CreateBackgroundImageParams{
		ID:        uuid.New().String(),
		PageKey:   in.PageKey,
		MediaID:   in.MediaID,
		Position:  in.Position,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating background image: %w", err)
	}
	return s.background(ctx, bg)
}

// UpdateBackground changes the page, position or visibility of a slot.
// The image itself is fixed once assigned.
func (s *MediaService) UpdateBackground(ctx context.Context, id string, in BackgroundInput) (*BackgroundView, error) {
	if err := s.validateBackground(ctx, in, false); err != nil {
		return nil, err
	}

	bg, err := s.queries.UpdateBackgroundImage(ctx, store.UpdateBackgroundImageParams{
		ID:        id,
		PageKey:   in.PageKey,
		Position:  in.Position,
		IsActive:  in.IsActive,
		UpdatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating background image: %w", err)
	}
	return s.background(ctx, bg)
}

// GetBackground returns one background slot.
func (s *MediaService) GetBackground(ctx context.Context, id string) (*BackgroundView, error) {
	bg, err := s.queries.GetBackgroundImage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting background image: %w", err)
	}
	return s.background(ctx, bg)
}

// ListBackgrounds returns background slots ordered by page and position.
// An empty pageKey lists every page.
func (s *MediaService) ListBackgrounds(ctx context.Context, pageKey string, activeOnly bool) ([]BackgroundView, error) {
	rows, err := s.queries.ListBackgroundImages(ctx, pageKey, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing background images: %w", err)
	}

	views := make([]BackgroundView, 0, len(rows))
	for _, bg := range rows {
		v, err := s.background(ctx, bg)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// DeleteBackground removes a slot. The media item is kept.
func (s *MediaService) DeleteBackground(ctx context.Context, id string) error {
	n, err := s.queries.DeleteBackgroundImage(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting background image: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MediaService) validateBackground(ctx context.Context, in BackgroundInput, checkMedia bool) error {
	verr := NewValidationError()
	if !pageKeyPattern.MatchString(in.PageKey) {
		verr.Add("page_key", "validation.invalid")
	}
	if checkMedia {
		if in.MediaID == "" {
			verr.Add("media_id", "validation.required")
		} else {
			media, err := s.queries.GetMedia(ctx, in.MediaID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				verr.Add("media_id", "validation.unknown_reference")
			case err != nil:
				return fmt.Errorf("getting media: %w", err)
			case !model.IsImageMimeType(media.MimeType):
				verr.Add("media_id", "validation.invalid")
			}
		}
	}
	return verr.OrNil()
}

func (s *MediaService) background(ctx context.Context, bg store.BackgroundImage) (*BackgroundView, error) {
	media, err := s.queries.GetMedia(ctx, bg.MediaID)
	if err != nil {
		return nil, fmt.Errorf("getting background media: %w", err)
	}
	return &BackgroundView{BackgroundImage: bg, URL: s.storage.PublicURL(media.Bucket, media.Path)}, nil
}

// item builds the view of media; variants are ordered by width.
func (s *MediaService) item(media store.Media, variants []store.MediaVariant) *MediaItem {
	sort.SliceStable(variants, func(i, j int) bool { return variants[i].Width < variants[j].Width })
	item := &MediaItem{
		Media:    media,
		URL:      s.storage.PublicURL(media.Bucket, media.Path),
		Variants: make([]VariantView, 0, len(variants)),
	}
	for _, v := range variants {
		item.Variants = append(item.Variants, VariantView{
			Kind:   v.Kind,
			URL:    s.storage.PublicURL(media.Bucket, v.Path),
			Width:  v.Width,
			Height: v.Height,
		})
	}
	return item
}

func (s *MediaService) removeObjects(ctx context.Context, bucket string, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := s.storage.Delete(ctx, bucket, p); err != nil {
			s.logger.Warn("failed to delete stored object", "bucket", bucket, "path", p, "error", err)
		}
	}
}
