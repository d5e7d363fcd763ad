// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/storage"
	"github.com/detagroup/detaweb/internal/testutil"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, x%h, color.RGBA{R: 200, G: 120, B: 40, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func (e *testEnv) media(t *testing.T) (*MediaService, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)
	return NewMediaService(e.db, e.queries, provider, testutil.TestLoggerSilent()), dir
}

func TestMediaService_UploadImage(t *testing.T) {
	env := newTestEnv(t)
	svc, dir := env.media(t)
	ctx := context.Background()

	item, err := svc.Upload(ctx, UploadInput{
		Bucket:   model.BucketMedia,
		Filename: "Wheat Field.PNG",
		Data:     bytes.NewReader(pngBytes(t, 1000, 800)),
	})
	require.NoError(t, err)

	assert.Equal(t, model.MimeTypePNG, item.MimeType)
	assert.Equal(t, "wheat-field.png", item.Filename)
	assert.Equal(t, int64(1000), item.Width.Int64)
	assert.Equal(t, int64(800), item.Height.Int64)
	assert.Equal(t, item.ID+"/original.png", item.Path)
	assert.Equal(t, "/uploads/media/"+item.ID+"/original.png", item.URL)

	// 1000x800 fits inside the large variant, so only two are produced.
	require.Len(t, item.Variants, 2)
	assert.Equal(t, model.VariantThumbnail, item.Variants[0].Kind)
	assert.Equal(t, int64(150), item.Variants[0].Height)
	assert.Equal(t, model.VariantMedium, item.Variants[1].Kind)
	assert.Equal(t, int64(750), item.Variants[1].Width)

	for _, name := range []string{"original.png", "medium.png", "thumbnail.png"} {
		_, err := os.Stat(filepath.Join(dir, "media", item.ID, name))
		assert.NoError(t, err, name)
	}

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.URL, got.URL)
	assert.Len(t, got.Variants, 2)
}

func TestMediaService_UploadDocument(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := env.media(t)

	item, err := svc.Upload(context.Background(), UploadInput{
		Bucket:   model.BucketMedia,
		Filename: "price-list.pdf",
		Data:     bytes.NewReader(pdfBytes),
	})
	require.NoError(t, err)

	assert.Equal(t, model.MimeTypePDF, item.MimeType)
	assert.False(t, item.Width.Valid)
	assert.Empty(t, item.Variants)
	assert.Equal(t, int64(len(pdfBytes)), item.Size)
}

func TestMediaService_UploadRejected(t *testing.T) {
	env := newTestEnv(t)
	svc, dir := env.media(t)

	tests := []struct {
		name   string
		bucket string
		data   []byte
		want   error
	}{
		{"unknown bucket", "private", pdfBytes, ErrInvalidBucket},
		{"plain text", model.BucketMedia, []byte("just some text"), ErrUnsupportedMediaType},
		{"document as background", model.BucketBackgrounds, pdfBytes, ErrUnsupportedMediaType},
		{"too large", model.BucketMedia, make([]byte, MaxUploadSize+1), ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), UploadInput{
				Bucket:   tt.bucket,
				Filename: "file",
				Data:     bytes.NewReader(tt.data),
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing should be written for rejected uploads")
}

func TestMediaService_List(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := env.media(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Upload(ctx, UploadInput{Bucket: model.BucketMedia, Filename: "doc.pdf", Data: bytes.NewReader(pdfBytes)})
		require.NoError(t, err)
	}
	_, err := svc.Upload(ctx, UploadInput{Bucket: model.BucketBackgrounds, Filename: "hero.png", Data: bytes.NewReader(pngBytes(t, 40, 30))})
	require.NoError(t, err)

	page, err := svc.List(ctx, model.BucketMedia, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	all, err := svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)

	_, err = svc.List(ctx, "private", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidBucket)
}

func TestMediaService_Delete(t *testing.T) {
	env := newTestEnv(t)
	svc, dir := env.media(t)
	ctx := context.Background()

	item, err := svc.Upload(ctx, UploadInput{Bucket: model.BucketMedia, Filename: "a.png", Data: bytes.NewReader(pngBytes(t, 300, 300))})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, item.ID))

	_, err = os.Stat(filepath.Join(dir, "media", item.ID))
	assert.True(t, errors.Is(err, os.ErrNotExist), "object directory should be pruned")

	_, err = svc.Get(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, item.ID), ErrNotFound)
}

func TestMediaService_Backgrounds(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := env.media(t)
	ctx := context.Background()

	img, err := svc.Upload(ctx, UploadInput{Bucket: model.BucketBackgrounds, Filename: "port.png", Data: bytes.NewReader(pngBytes(t, 64, 48))})
	require.NoError(t, err)
	doc, err := svc.Upload(ctx, UploadInput{Bucket: model.BucketMedia, Filename: "doc.pdf", Data: bytes.NewReader(pdfBytes)})
	require.NoError(t, err)

	t.Run("rejects documents and unknown media", func(t *testing.T) {
		_, err := svc.CreateBackground(ctx, BackgroundInput{PageKey: "home", MediaID: doc.ID})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "validation.invalid", verr.Fields["media_id"])

		_, err = svc.CreateBackground(ctx, BackgroundInput{PageKey: "Home Page", MediaID: "missing"})
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "validation.unknown_reference", verr.Fields["media_id"])
		assert.Equal(t, "validation.invalid", verr.Fields["page_key"])
	})

	bg, err := svc.CreateBackground(ctx, BackgroundInput{PageKey: "home", MediaID: img.ID, Position: 1, IsActive: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bg.URL, "/uploads/backgrounds/"+img.ID+"/"))

	hidden, err := svc.CreateBackground(ctx, BackgroundInput{PageKey: "home", MediaID: img.ID, Position: 2})
	require.NoError(t, err)

	active, err := svc.ListBackgrounds(ctx, "home", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, bg.ID, active[0].ID)

	_, err = svc.UpdateBackground(ctx, hidden.ID, BackgroundInput{PageKey: "about", Position: 0, IsActive: true})
	require.NoError(t, err)

	about, err := svc.ListBackgrounds(ctx, "about", true)
	require.NoError(t, err)
	assert.Len(t, about, 1)

	moved, err := svc.GetBackground(ctx, hidden.ID)
	require.NoError(t, err)
	assert.Equal(t, "about", moved.PageKey)
	assert.Equal(t, img.ID, moved.MediaID)
	_, err = svc.GetBackground(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateBackground(ctx, "missing", BackgroundInput{PageKey: "about"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteBackground(ctx, bg.ID))
	assert.ErrorIs(t, svc.DeleteBackground(ctx, bg.ID), ErrNotFound)

	// Deleting the image removes the remaining slot with it.
	require.NoError(t, svc.Delete(ctx, img.ID))
	all, err := svc.ListBackgrounds(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, all)
}
