// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/service"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 8 << 20

// ListMedia handles GET /admin/media?bucket=&page=&per_page=.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	result, err := h.svc.Media.List(r.Context(), r.URL.Query().Get("bucket"), page, perPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := mapAll(result.Items, func(m service.MediaItem) MediaResponse { return mediaResponse(&m) })
	WriteSuccess(w, r, items, pageMeta(result.Total, result.Page, result.PerPage))
}

// UploadMedia handles POST /admin/media as multipart/form-data with a
// "file" part and an optional "bucket" field.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(w, r, service.ErrFileTooLarge)
			return
		}
		WriteBadRequest(w, r)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, r, map[string]string{"file": "validation.required"})
		return
	}
	defer func() { _ = file.Close() }()

	bucket := r.FormValue("bucket")
	if bucket == "" {
		bucket = model.BucketMedia
	}

	item, err := h.svc.Media.Upload(r.Context(), service.UploadInput{
		Bucket:     bucket,
		Filename:   header.Filename,
		Data:       file,
		UploadedBy: middleware.GetUserID(r),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, mediaResponse(item), nil)
}

// GetMedia handles GET /admin/media/{id}.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Media.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, mediaResponse(item), nil)
}

// DeleteMedia handles DELETE /admin/media/{id}.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Media.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListPageBackgrounds handles GET /backgrounds/{page}: the active hero
// images of one page.
func (h *Handler) ListPageBackgrounds(w http.ResponseWriter, r *http.Request) {
	bgs, err := h.svc.Media.ListBackgrounds(r.Context(), chi.URLParam(r, "page"), true)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, bgs, nil)
}

// AdminListBackgrounds handles GET /admin/backgrounds?page_key=.
func (h *Handler) AdminListBackgrounds(w http.ResponseWriter, r *http.Request) {
	bgs, err := h.svc.Media.ListBackgrounds(r.Context(), r.URL.Query().Get("page_key"), false)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, bgs, nil)
}

// CreateBackground handles POST /admin/backgrounds.
func (h *Handler) CreateBackground(w http.ResponseWriter, r *http.Request) {
	var in service.BackgroundInput
	if !decodeJSON(w, r, &in) {
		return
	}
	bg, err := h.svc.Media.CreateBackground(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, bg, nil)
}

// GetBackground handles GET /admin/backgrounds/{id}.
func (h *Handler) GetBackground(w http.ResponseWriter, r *http.Request) {
	bg, err := h.svc.Media.GetBackground(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, bg, nil)
}

// UpdateBackground handles PUT /admin/backgrounds/{id}.
func (h *Handler) UpdateBackground(w http.ResponseWriter, r *http.Request) {
	var in service.BackgroundInput
	if !decodeJSON(w, r, &in) {
		return
	}
	bg, err := h.svc.Media.UpdateBackground(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, bg, nil)
}

// DeleteBackground handles DELETE /admin/backgrounds/{id}.
func (h *Handler) DeleteBackground(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Media.DeleteBackground(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}
