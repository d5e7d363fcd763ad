package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/store"
)

const settingsResource = "settings"

var settingKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,63}$`)

// SettingInput sets a site setting. Value holds non-text data such as a
// phone number or a URL; Translations hold the localized text.
type SettingInput struct {
	Value        string       `json:"value"`
	Translations Translations `json:"translations"`
}

// UpsertSetting creates or replaces the setting under key.
func (s *ContentService) UpsertSetting(ctx context.Context, key string, in SettingInput) (*store.SiteSetting, error) {
	key = strings.TrimSpace(key)
	if !settingKeyPattern.MatchString(key) {
		return nil, fieldError("key", "validation.invalid")
	}
	prepared, err := s.prepareTranslations(in.Translations)
	if err != nil {
		return nil, err
	}

	var setting store.SiteSetting
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		setting, err = q.UpsertSiteSetting(ctx, key, strings.TrimSpace(in.Value), s.now())
		if err != nil {
			return fmt.Errorf("saving setting: %w", err)
		}
		return s.upsertTranslations(ctx, q, store.SiteSettingTranslations, key, prepared)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, settingsResource)
	return &setting, nil
}

// GetSetting resolves one setting at opts.Locale.
func (s *ContentService) GetSetting(ctx context.Context, key string, opts ResolveOptions) (*content.Resolved[store.SiteSetting], error) {
	setting, err := s.queries.GetSiteSetting(ctx, key)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	resolved, err := resolveOne(ctx, s.queries, store.SiteSettingTranslations, setting, setting.ID, opts)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// ListSettings returns every setting resolved at opts.Locale.
func (s *ContentService) ListSettings(ctx context.Context, opts ResolveOptions) ([]content.Resolved[store.SiteSetting], error) {
	key := cache.Key(settingsResource, fallbackKey(opts))
	list, err := cached(ctx, s, key, func() (*[]content.Resolved[store.SiteSetting], error) {
		settings, err := s.queries.ListSiteSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing settings: %w", err)
		}
		items, err := resolveAll(ctx, s.queries, store.SiteSettingTranslations, settings,
			func(st store.SiteSetting) string { return st.ID }, opts)
		if err != nil {
			return nil, err
		}
		return &items, nil
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// DeleteSetting removes a setting and its translations.
func (s *ContentService) DeleteSetting(ctx context.Context, key string) error {
	n, err := s.queries.DeleteSiteSetting(ctx, key)
	if err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, settingsResource)
	return nil
}
