// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/detagroup/detaweb/internal/logging"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

// SessionKeyUserID holds the signed-in profile id.
const SessionKeyUserID = "user_id"

type contextKey string

const contextKeyUser contextKey = "user"

// ProfileLoader loads the profile of a signed-in user.
type ProfileLoader interface {
	GetProfile(ctx context.Context, id string) (*store.Profile, error)
}

// LoadUser puts the signed-in profile, if any, into the request context.
// A session pointing at a deleted user is cleared.
func LoadUser(sm *scs.SessionManager, profiles ProfileLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sm.GetString(r.Context(), SessionKeyUserID)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			profile, err := profiles.GetProfile(r.Context(), id)
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				sm.Remove(r.Context(), SessionKeyUserID)
			case err != nil:
				slog.Error("failed to load user", "user_id", id, "error", err)
				WriteAPIError(w, r, http.StatusInternalServerError, "internal", "error.internal")
				return
			default:
				r = r.WithContext(WithUser(r.Context(), profile))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying profile.
func WithUser(ctx context.Context, profile *store.Profile) context.Context {
	return context.WithValue(ctx, contextKeyUser, profile)
}

// GetUser returns the signed-in profile or nil.
func GetUser(r *http.Request) *store.Profile {
	if p, ok := r.Context().Value(contextKeyUser).(*store.Profile); ok {
		return p
	}
	return nil
}

// GetUserID returns the signed-in profile id or "".
func GetUserID(r *http.Request) string {
	if p := GetUser(r); p != nil {
		return p.ID
	}
	return ""
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			WriteAPIError(w, r, http.StatusUnauthorized, "unauthorized", "error.unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects users below minRole with 403, and anonymous
// requests with 401. Denials are logged as auth events.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, r, http.StatusUnauthorized, "unauthorized", "error.unauthorized")
				return
			}
			if !model.HasRole(user.Role, minRole) {
				slog.Warn("access denied",
					logging.AttrCategory, model.EventCategoryAuth,
					logging.AttrUserID, user.ID,
					logging.AttrIP, util.ClientIP(r),
					logging.AttrRequestURL, r.URL.Path,
					"role", user.Role,
					"required_role", minRole,
				)
				WriteAPIError(w, r, http.StatusForbidden, "forbidden", "error.forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole(model.RoleAdmin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequireEditor is RequireRole(model.RoleEditor).
func RequireEditor() func(http.Handler) http.Handler {
	return RequireRole(model.RoleEditor)
}
