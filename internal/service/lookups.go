// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

const lookupsResource = "lookups"

var lookupIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// LookupItem is a lookup entry named in one language. Missing is set when
// the language has no name for it.
type LookupItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Position int64  `json:"position"`
	IsActive bool   `json:"is_active"`
	Name     string `json:"name"`
	Missing  bool   `json:"missing,omitempty"`
}

// LookupInput creates or replaces a lookup entry. Names maps a locale to
// the entry's name in it.
type LookupInput struct {
	ID       string            `json:"id"`
	ParentID string            `json:"parent_id"`
	Position int64             `json:"position"`
	IsActive bool              `json:"is_active"`
	Names    map[string]string `json:"names"`
}

// LookupService serves the reference data of the order form.
type LookupService struct {
	queries  *store.Queries
	tx       *store.TxRunner
	registry *locale.Registry
	lists    *cache.TypedCache[[]LookupItem]
	logger   *slog.Logger
}

// NewLookupService creates a LookupService.
func NewLookupService(db *sql.DB, queries *store.Queries, registry *locale.Registry, c cache.Cacher, logger *slog.Logger, ttl time.Duration) *LookupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{
		queries:  queries,
		tx:       store.NewTxRunner(db, queries),
		registry: registry,
		lists:    cache.NewTypedCache[[]LookupItem](c, ttl),
		logger:   logger,
	}
}

// ParseLookupKind validates a lookup kind from a request.
func ParseLookupKind(s string) (store.LookupKind, error) {
	kind := store.LookupKind(strings.TrimSpace(s))
	if _, err := kind.Table(); err != nil {
		return "", ErrUnknownLookupKind
	}
	return kind, nil
}

func hasParent(kind store.LookupKind) bool {
	return kind == store.LookupCity || kind == store.LookupPort
}

// List returns the entries of kind named in lang, optionally limited to
// the children of parentID.
func (s *LookupService) List(ctx context.Context, kind store.LookupKind, lang, parentID string, activeOnly bool) ([]LookupItem, error) {
	if _, err := kind.Table(); err != nil {
		return nil, ErrUnknownLookupKind
	}
	key := cache.Key(lookupsResource, string(kind), lang, parentID, fmt.Sprint(activeOnly))

	items, err := s.lists.GetOrSet(ctx, key, func() (*[]LookupItem, error) {
		rows, err := s.queries.ListLookups(ctx, store.ListLookupsParams{
			Kind:         kind,
			LanguageCode: lang,
			ParentID:     util.NullStringFromValue(parentID),
			ActiveOnly:   activeOnly,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", kind, err)
		}
		out := make([]LookupItem, len(rows))
		for i, r := range rows {
			out[i] = LookupItem{
				ID:       r.ID,
				ParentID: r.ParentID.String,
				Position: r.Position,
				IsActive: r.IsActive,
				Name:     r.Name.String,
				Missing:  !r.Name.Valid,
			}
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return *items, nil
}

// Names returns every translated name of one entry keyed by locale.
func (s *LookupService) Names(ctx context.Context, kind store.LookupKind, id string) (map[string]string, error) {
	if _, err := s.queries.GetLookup(ctx, kind, id); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	rows, err := s.queries.ListLookupTranslations(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("listing names: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, r := range rows {
		names[r.LanguageCode] = r.Name
	}
	return names, nil
}

// Upsert creates or replaces an entry and its names in one transaction.
// Locales absent from in.Names keep their current name.
func (s *LookupService) Upsert(ctx context.Context, kind store.LookupKind, in LookupInput) (*store.Lookup, error) {
	if _, err := kind.Table(); err != nil {
		return nil, ErrUnknownLookupKind
	}
	in.ID = strings.TrimSpace(in.ID)
	in.ParentID = strings.TrimSpace(in.ParentID)

	verr := NewValidationError()
	if !lookupIDPattern.MatchString(in.ID) {
		verr.Add("id", "validation.invalid")
	}
	if hasParent(kind) {
		if in.ParentID == "" {
			verr.Add("parent_id", "validation.required")
		} else if _, err := s.queries.GetLookup(ctx, store.LookupCountry, in.ParentID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("checking parent: %w", err)
			}
			verr.Add("parent_id", "validation.unknown_reference")
		}
	} else {
		in.ParentID = ""
	}
	codes := make([]string, 0, len(in.Names))
	for code, name := range in.Names {
		if !s.registry.Has(code) {
			verr.Add("names."+code, "validation.unknown_reference")
			continue
		}
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			verr.Add("names."+code, "validation.required")
		case len([]rune(name)) > 200:
			verr.Add("names."+code, "validation.max_length")
		}
		in.Names[code] = name
		codes = append(codes, code)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	sort.Strings(codes)

	var lookup store.Lookup
	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		lookup, err = q.UpsertLookup(ctx, store.UpsertLookupParams{
			Kind:     kind,
			ID:       in.ID,
			ParentID: util.NullStringFromValue(in.ParentID),
			Position: in.Position,
			IsActive: in.IsActive,
		})
		if err != nil {
			return fmt.Errorf("saving %s: %w", kind, err)
		}
		for _, code := range codes {
			if err := q.UpsertLookupTranslation(ctx, store.LookupTranslation{
				Kind:         string(kind),
				LookupID:     in.ID,
				LanguageCode: code,
				Name:         in.Names[code],
			}); err != nil {
				return fmt.Errorf("saving %s name: %w", code, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &lookup, nil
}

// Delete removes an entry and its names. Deleting a country removes its
// cities and ports too; orders referencing any of them keep a null
// reference.
func (s *LookupService) Delete(ctx context.Context, kind store.LookupKind, id string) error {
	if _, err := kind.Table(); err != nil {
		return ErrUnknownLookupKind
	}

	type child struct {
		kind store.LookupKind
		id   string
	}
	var children []child
	if kind == store.LookupCountry {
		for _, k := range []store.LookupKind{store.LookupCity, store.LookupPort} {
			rows, err := s.queries.ListLookups(ctx, store.ListLookupsParams{
				Kind:     k,
				ParentID: util.NullStringFromValue(id),
			})
			if err != nil {
				return fmt.Errorf("listing %s: %w", k, err)
			}
			for _, r := range rows {
				children = append(children, child{kind: k, id: r.ID})
			}
		}
	}

	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		for _, c := range children {
			if _, err := q.DeleteLookup(ctx, c.kind, c.id); err != nil {
				return fmt.Errorf("deleting %s: %w", c.kind, err)
			}
		}
		n, err := q.DeleteLookup(ctx, kind, id)
		if err != nil {
			return fmt.Errorf("deleting %s: %w", kind, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *LookupService) invalidate(ctx context.Context) {
	if err := s.lists.Invalidate(context.WithoutCancel(ctx), cache.Prefix(lookupsResource)); err != nil {
		s.logger.Error("failed to invalidate lookup cache", "error", err)
	}
}
