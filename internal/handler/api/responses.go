// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"time"

	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/store"
)

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID               string    `json:"id"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	CustomerPhone    string    `json:"customer_phone"`
	CustomerCompany  string    `json:"customer_company,omitempty"`
	CountryID        string    `json:"country_id,omitempty"`
	CityID           string    `json:"city_id,omitempty"`
	PortID           string    `json:"port_id,omitempty"`
	DeliveryMethodID string    `json:"delivery_method_id,omitempty"`
	Notes            string    `json:"notes"`
	Status           string    `json:"status"`
	LanguageCode     string    `json:"language_code"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OrderItemResponse represents an order line in API responses.
type OrderItemResponse struct {
	ID          int64   `json:"id"`
	ProductID   string  `json:"product_id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// OrderDetailResponse is an order with its items and named locations.
type OrderDetailResponse struct {
	Order          OrderResponse       `json:"order"`
	Items          []OrderItemResponse `json:"items"`
	Country        *service.LookupRef  `json:"country,omitempty"`
	City           *service.LookupRef  `json:"city,omitempty"`
	Port           *service.LookupRef  `json:"port,omitempty"`
	DeliveryMethod *service.LookupRef  `json:"delivery_method,omitempty"`
	NextStatuses   []string            `json:"next_statuses"`
}

// ArticleResponse represents an article in API responses.
type ArticleResponse struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"category_id,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AuthorID    string     `json:"author_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ArticleViewResponse is a resolved article with its rendered HTML.
type ArticleViewResponse struct {
	content.Resolved[ArticleResponse]
	HTML string `json:"html,omitempty"`
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id,omitempty"`
	Price      float64   `json:"price"`
	Unit       string    `json:"unit"`
	ImageURL   string    `json:"image_url,omitempty"`
	IsFeatured bool      `json:"is_featured"`
	IsActive   bool      `json:"is_active"`
	Position   int64     `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MediaResponse represents a media item in API responses.
type MediaResponse struct {
	ID         string                `json:"id"`
	Bucket     string                `json:"bucket"`
	Filename   string                `json:"filename"`
	MimeType   string                `json:"mime_type"`
	Size       int64                 `json:"size"`
	Width      int64                 `json:"width,omitempty"`
	Height     int64                 `json:"height,omitempty"`
	UploadedBy string                `json:"uploaded_by,omitempty"`
	URL        string                `json:"url"`
	Variants   []service.VariantView `json:"variants"`
	CreatedAt  time.Time             `json:"created_at"`
}

// EventResponse represents an event log entry in API responses.
type EventResponse struct {
	ID         int64     `json:"id"`
	Level      string    `json:"level"`
	Category   string    `json:"category"`
	Message    string    `json:"message"`
	UserID     string    `json:"user_id,omitempty"`
	Metadata   string    `json:"metadata,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	RequestURL string    `json:"request_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LookupResponse represents a stored lookup entry.
type LookupResponse struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Position int64  `json:"position"`
	IsActive bool   `json:"is_active"`
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func orderResponse(o store.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		CustomerPhone:    o.CustomerPhone,
		CustomerCompany:  o.CustomerCompany.String,
		CountryID:        o.CountryID.String,
		CityID:           o.CityID.String,
		PortID:           o.PortID.String,
		DeliveryMethodID: o.DeliveryMethodID.String,
		Notes:            o.Notes,
		Status:           o.Status,
		LanguageCode:     o.LanguageCode,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func orderResponses(orders []store.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = orderResponse(o)
	}
	return out
}

func orderDetailResponse(d *service.OrderDetail) OrderDetailResponse {
	items := make([]OrderItemResponse, len(d.Items))
	for i, it := range d.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID.String,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
		}
	}
	return OrderDetailResponse{
		Order:          orderResponse(d.Order),
		Items:          items,
		Country:        d.Country,
		City:           d.City,
		Port:           d.Port,
		DeliveryMethod: d.DeliveryMethod,
		NextStatuses:   d.NextStatuses,
	}
}

func articleResponse(a store.Article) ArticleResponse {
	return ArticleResponse{
		ID:          a.ID,
		CategoryID:  a.CategoryID.String,
		ImageURL:    a.ImageUrl,
		IsPublished: a.IsPublished,
		PublishedAt: nullTime(a.PublishedAt),
		AuthorID:    a.AuthorID.String,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func articleViewResponse(v *service.ArticleView) ArticleViewResponse {
	return ArticleViewResponse{
		Resolved: mapResolved(v.Resolved, articleResponse),
		HTML:     v.HTML,
	}
}

func productResponse(p store.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		CategoryID: p.CategoryID.String,
		Price:      p.Price,
		Unit:       p.Unit,
		ImageURL:   p.ImageUrl,
		IsFeatured: p.IsFeatured,
		IsActive:   p.IsActive,
		Position:   p.Position,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func mediaResponse(m *service.MediaItem) MediaResponse {
	variants := m.Variants
	if variants == nil {
		variants = []service.VariantView{}
	}
	return MediaResponse{
		ID:         m.ID,
		Bucket:     m.Bucket,
		Filename:   m.Filename,
		MimeType:   m.MimeType,
		Size:       m.Size,
		Width:      m.Width.Int64,
		Height:     m.Height.Int64,
		UploadedBy: m.UploadedBy.String,
		URL:        m.URL,
		Variants:   variants,
		CreatedAt:  m.CreatedAt,
	}
}

func eventResponse(e store.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Level:      e.Level,
		Category:   e.Category,
		Message:    e.Message,
		UserID:     e.UserID.String,
		Metadata:   e.Metadata,
		IPAddress:  e.IpAddress,
		RequestURL: e.RequestUrl,
		CreatedAt:  e.CreatedAt,
	}
}

func lookupResponse(l *store.Lookup) LookupResponse {
	return LookupResponse{
		ID:       l.ID,
		ParentID: l.ParentID.String,
		Position: l.Position,
		IsActive: l.IsActive,
	}
}

// mapResolved converts the entity of a resolved view, keeping its text.
func mapResolved[E, R any](r content.Resolved[E], convert func(E) R) content.Resolved[R] {
	return content.Resolved[R]{
		Entity:           convert(r.Entity),
		Locale:           r.Locale,
		SourceLocale:     r.SourceLocale,
		Title:            r.Title,
		Excerpt:          r.Excerpt,
		Content:          r.Content,
		Slug:             r.Slug,
		Missing:          r.Missing,
		AvailableLocales: r.AvailableLocales,
	}
}

func mapAll[E, R any](items []E, convert func(E) R) []R {
	out := make([]R, len(items))
	for i, it := range items {
		out[i] = convert(it)
	}
	return out
}
