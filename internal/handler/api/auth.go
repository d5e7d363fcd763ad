// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/detagroup/detaweb/internal/auth"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/logging"
	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/util"
)

// SignInRequest carries sign-in credentials.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateMeRequest edits the signed-in profile.
type UpdateMeRequest struct {
	FullName string `json:"full_name"`
}

// ChangePasswordRequest replaces the signed-in user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SignUp handles POST /auth/signup and signs the new user in.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if !decodeJSON(w, r, &in) {
		return
	}
	profile, err := h.svc.Users.SignUp(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.startSession(r, profile.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, profile, &Meta{Message: translator(r)("auth.signed_in")})
}

// SignIn handles POST /auth/signin. Repeated failures lock the email for
// a while, whether or not an account exists for it.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := auth.NormalizeEmail(req.Email)

	if locked, remaining := h.guard.Locked(email); locked {
		writeLocked(w, r, remaining)
		return
	}

	profile, err := h.svc.Users.SignIn(r.Context(), email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logger.Warn("failed sign-in",
			logging.AttrCategory, model.EventCategoryAuth,
			logging.AttrIP, util.ClientIP(r),
			"email", email,
		)
		if locked, d := h.guard.Failed(email); locked {
			writeLocked(w, r, d)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.guard.Succeeded(email)
	if err := h.startSession(r, profile.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.Info("user signed in",
		logging.AttrCategory, model.EventCategoryAuth,
		logging.AttrUserID, profile.ID,
		logging.AttrIP, util.ClientIP(r),
	)
	WriteSuccess(w, r, profile, &Meta{Message: translator(r)("auth.signed_in")})
}

// SignOut handles POST /auth/signout. The session is destroyed and the
// locale returns to the site default.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if err := h.sm.Destroy(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if lc, ok := locale.FromContext(r.Context()); ok {
		lc.Reset()
	}
	if userID != "" {
		h.logger.Info("user signed out", logging.AttrCategory, model.EventCategoryAuth, logging.AttrUserID, userID)
	}
	WriteSuccess(w, r, nil, &Meta{Message: translator(r)("auth.signed_out")})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, middleware.GetUser(r), nil)
}

// UpdateMe handles PATCH /auth/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.svc.Users.UpdateName(r.Context(), middleware.GetUserID(r), req.FullName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, profile, nil)
}

// ChangePassword handles PUT /auth/me/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := middleware.GetUserID(r)
	if err := h.svc.Users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.Info("password changed", logging.AttrCategory, model.EventCategoryAuth, logging.AttrUserID, userID)
	WriteNoContent(w)
}

// startSession binds the session to userID under a fresh token.
func (h *Handler) startSession(r *http.Request, userID string) error {
	if err := h.sm.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sm.Put(r.Context(), middleware.SessionKeyUserID, userID)
	return nil
}

func writeLocked(w http.ResponseWriter, r *http.Request, remaining time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
	WriteError(w, r, http.StatusTooManyRequests, "account_locked", "auth.account_locked", nil)
}
