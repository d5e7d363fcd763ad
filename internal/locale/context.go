// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package locale

import (
	"context"
	"errors"
	"sync"

	"github.com/detagroup/detaweb/internal/i18n"
)

// ErrUnknownLanguage is returned when selecting a locale that is not an
// active language.
var ErrUnknownLanguage = errors.New("unknown language")

// Change describes a locale switch delivered to subscribers.
type Change struct {
	From             string
	To               string
	Direction        string
	DirectionChanged bool
}

// Context is the active locale of one session. It starts on the registry
// default, can be overridden with Set and returns to the default on Reset.
type Context struct {
	registry *Registry
	catalog  *i18n.Catalog

	mu       sync.Mutex
	active   string
	override bool
	nextID   int
	subs     map[int]func(Change)
}

// New returns a Context on the registry's current default.
func New(registry *Registry, catalog *i18n.Catalog) *Context {
	return &Context{
		registry: registry,
		catalog:  catalog,
		active:   registry.Default(),
		subs:     map[int]func(Change){},
	}
}

// Active returns the active locale code.
func (c *Context) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Overridden reports whether the locale was chosen explicitly.
func (c *Context) Overridden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.override
}

// Direction returns the writing direction of the active locale.
func (c *Context) Direction() string {
	return c.registry.Direction(c.Active())
}

// IsRTL reports whether the active locale is right to left.
func (c *Context) IsRTL() bool {
	return c.registry.IsRTL(c.Active())
}

// T looks key up in the active locale's dictionary.
func (c *Context) T(key string, args ...any) string {
	return c.catalog.T(c.Active(), key, args...)
}

// Set overrides the active locale for this session.
func (c *Context) Set(code string) error {
	if !c.registry.Has(code) {
		return ErrUnknownLanguage
	}
	c.switchTo(code, true)
	return nil
}

// Reset drops any override and returns to the registry default.
func (c *Context) Reset() {
	c.switchTo(c.registry.Default(), false)
}

// Sync follows a changed registry default unless the session chose a
// locale explicitly.
func (c *Context) Sync() {
	c.mu.Lock()
	override := c.override
	c.mu.Unlock()
	if !override {
		c.switchTo(c.registry.Default(), false)
	}
}

// OnChange registers fn to run after every locale switch. The returned
// function unsubscribes.
func (c *Context) OnChange(fn func(Change)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Context) switchTo(code string, override bool) {
	c.mu.Lock()
	from := c.active
	c.active = code
	c.override = override
	subs := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if from == code {
		return
	}

	change := Change{
		From:             from,
		To:               code,
		Direction:        c.registry.Direction(code),
		DirectionChanged: c.registry.IsRTL(from) != c.registry.IsRTL(code),
	}
	for _, fn := range subs {
		fn(change)
	}
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying lc.
func WithContext(ctx context.Context, lc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, lc)
}

// FromContext returns the locale context stored in ctx, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(ctxKey{}).(*Context)
	return lc, ok
}

// ActiveFrom returns the active locale stored in ctx, or fallback.
func ActiveFrom(ctx context.Context, fallback string) string {
	if lc, ok := FromContext(ctx); ok {
		return lc.Active()
	}
	return fallback
}
