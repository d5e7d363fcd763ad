// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/detagroup/detaweb/internal/logging"
	"github.com/detagroup/detaweb/internal/model"
)

// LoginGuardConfig holds the account lockout settings.
type LoginGuardConfig struct {
	// MaxFailedAttempts locks the account after this many failures
	// within AttemptWindow.
	MaxFailedAttempts int
	// LockoutDuration doubles with each consecutive lockout, up to a day.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginGuardConfig returns the production settings.
func DefaultLoginGuardConfig() LoginGuardConfig {
	return LoginGuardConfig{
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

type loginAttempts struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginGuard locks accounts after repeated failed sign-ins. Accounts are
// keyed by normalized email so unknown addresses are throttled too.
type LoginGuard struct {
	cfg LoginGuardConfig
	now func() time.Time

	mu       sync.Mutex
	attempts map[string]*loginAttempts
}

// NewLoginGuard creates a LoginGuard. Zero config fields take defaults.
func NewLoginGuard(cfg LoginGuardConfig) *LoginGuard {
	def := DefaultLoginGuardConfig()
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	return &LoginGuard{
		cfg:      cfg,
		now:      time.Now,
		attempts: make(map[string]*loginAttempts),
	}
}

// Locked reports whether email is locked and for how much longer.
func (g *LoginGuard) Locked(email string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.attempts[email]
	if !ok {
		return false, 0
	}
	if remaining := a.lockedUntil.Sub(g.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// Failed records a failed sign-in and reports whether it locked the account.
func (g *LoginGuard) Failed(email string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	a, ok := g.attempts[email]
	if !ok {
		a = &loginAttempts{}
		g.attempts[email] = a
	}
	if a.count == 0 || now.Sub(a.firstFailed) > g.cfg.AttemptWindow {
		a.count = 0
		a.firstFailed = now
	}
	a.count++
	if a.count < g.cfg.MaxFailedAttempts {
		return false, 0
	}

	lock := g.cfg.LockoutDuration
	for i := 0; i < a.lockouts && lock < 24*time.Hour; i++ {
		lock *= 2
	}
	if lock > 24*time.Hour {
		lock = 24 * time.Hour
	}
	a.lockedUntil = now.Add(lock)
	a.lockouts++
	a.count = 0

	slog.Warn("account locked after failed sign-ins",
		logging.AttrCategory, model.EventCategoryAuth,
		"email", email,
		"lockouts", a.lockouts,
		"duration", lock,
	)
	return true, lock
}

// Succeeded clears the failure history of email.
func (g *LoginGuard) Succeeded(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, email)
}

// Sweep drops entries whose lockout and attempt window have both passed.
// It is run periodically by the scheduler.
func (g *LoginGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for email, a := range g.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > g.cfg.AttemptWindow {
			delete(g.attempts, email)
			removed++
		}
	}
	return removed
}
