package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TranslationTable selects the translation table of a translatable entity.
type TranslationTable string

const (
	ArticleTranslations     TranslationTable = "article_translations"
	ProductTranslations     TranslationTable = "product_translations"
	CategoryTranslations    TranslationTable = "category_translations"
	SiteSettingTranslations TranslationTable = "site_setting_translations"
)

func (t TranslationTable) valid() error {
	switch t {
	case ArticleTranslations, ProductTranslations, CategoryTranslations, SiteSettingTranslations:
		return nil
	}
	return fmt.Errorf("unknown translation table %q", string(t))
}

const translationColumns = `entity_id, language_code, title, excerpt, content, slug, created_at, updated_at`

func scanTranslation(row interface{ Scan(...interface{}) error }) (Translation, error) {
	var i Translation
	err := row.Scan(
		&i.EntityID,
		&i.LanguageCode,
		&i.Title,
		&i.Excerpt,
		&i.Content,
		&i.Slug,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanTranslations(rows *sql.Rows) ([]Translation, error) {
	defer func() { _ = rows.Close() }()
	var items []Translation
	for rows.Next() {
		i, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpsertTranslationParams struct {
	EntityID     string    `json:"entity_id"`
	LanguageCode string    `json:"language_code"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt"`
	Content      string    `json:"content"`
	Slug         string    `json:"slug"`
	Now          time.Time `json:"now"`
}

// UpsertTranslation writes the row keyed by (entity_id, language_code),
// keeping created_at of an existing row.
func (q *Queries) UpsertTranslation(ctx context.Context, table TranslationTable, arg UpsertTranslationParams) (Translation, error) {
	if err := table.valid(); err != nil {
		return Translation{}, err
	}
	query := `INSERT INTO ` + string(table) + ` (` + translationColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entity_id, language_code) DO UPDATE SET
    title = excluded.title,
    excerpt = excluded.excerpt,
    content = excluded.content,
    slug = excluded.slug,
    updated_at = excluded.updated_at
RETURNING ` + translationColumns
	return scanTranslation(q.queryRow(ctx, query,
		arg.EntityID,
		arg.LanguageCode,
		arg.Title,
		arg.Excerpt,
		arg.Content,
		arg.Slug,
		arg.Now,
		arg.Now,
	))
}

func (q *Queries) ListTranslations(ctx context.Context, table TranslationTable, entityID string) ([]Translation, error) {
	if err := table.valid(); err != nil {
		return nil, err
	}
	rows, err := q.query(ctx, `SELECT `+translationColumns+` FROM `+string(table)+`
WHERE entity_id = ? ORDER BY language_code`, entityID)
	if err != nil {
		return nil, err
	}
	return scanTranslations(rows)
}

// ListTranslationsForEntities loads the translations of several entities in
// one query.
func (q *Queries) ListTranslationsForEntities(ctx context.Context, table TranslationTable, entityIDs []string) ([]Translation, error) {
	if err := table.valid(); err != nil {
		return nil, err
	}
	if len(entityIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entityIDs)), ", ")
	args := make([]interface{}, len(entityIDs))
	for i, id := range entityIDs {
		args[i] = id
	}
	rows, err := q.query(ctx, `SELECT `+translationColumns+` FROM `+string(table)+`
WHERE entity_id IN (`+placeholders+`) ORDER BY entity_id, language_code`, args...)
	if err != nil {
		return nil, err
	}
	return scanTranslations(rows)
}

// FindEntityIDBySlug returns the entity whose translation in languageCode
// carries slug.
func (q *Queries) FindEntityIDBySlug(ctx context.Context, table TranslationTable, languageCode, slug string) (string, error) {
	if err := table.valid(); err != nil {
		return "", err
	}
	var id string
	err := q.queryRow(ctx, `SELECT entity_id FROM `+string(table)+`
WHERE language_code = ? AND slug = ? LIMIT 1`, languageCode, slug).Scan(&id)
	return id, err
}

func (q *Queries) DeleteTranslation(ctx context.Context, table TranslationTable, entityID, languageCode string) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}
	result, err := q.exec(ctx, `DELETE FROM `+string(table)+` WHERE entity_id = ? AND language_code = ?`, entityID, languageCode)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
