package store

import (
	"context"
	"time"
)

const languageColumns = `code, name, native_name, is_rtl, is_default, is_active, position, created_at, updated_at`

func scanLanguage(row interface{ Scan(...interface{}) error }) (Language, error) {
	var i Language
	err := row.Scan(
		&i.Code,
		&i.Name,
		&i.NativeName,
		&i.IsRtl,
		&i.IsDefault,
		&i.IsActive,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listLanguages = `SELECT ` + languageColumns + ` FROM languages ORDER BY position, code`

func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.query(ctx, listLanguages)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Language
	for rows.Next() {
		i, err := scanLanguage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listActiveLanguages = `SELECT ` + languageColumns + ` FROM languages WHERE is_active = ? ORDER BY position, code`

func (q *Queries) ListActiveLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.query(ctx, listActiveLanguages, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Language
	for rows.Next() {
		i, err := scanLanguage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getLanguage = `SELECT ` + languageColumns + ` FROM languages WHERE code = ?`

func (q *Queries) GetLanguage(ctx context.Context, code string) (Language, error) {
	return scanLanguage(q.queryRow(ctx, getLanguage, code))
}

const getDefaultLanguage = `SELECT ` + languageColumns + ` FROM languages WHERE is_default = ? LIMIT 1`

func (q *Queries) GetDefaultLanguage(ctx context.Context) (Language, error) {
	return scanLanguage(q.queryRow(ctx, getDefaultLanguage, true))
}

type CreateLanguageParams struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	IsRtl      bool      `json:"is_rtl"`
	IsActive   bool      `json:"is_active"`
	Position   int64     `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const createLanguage = `INSERT INTO languages (code, name, native_name, is_rtl, is_default, is_active, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + languageColumns

func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (Language, error) {
	return scanLanguage(q.queryRow(ctx, createLanguage,
		arg.Code,
		arg.Name,
		arg.NativeName,
		arg.IsRtl,
		false,
		arg.IsActive,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	))
}

type UpdateLanguageParams struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	IsRtl      bool      `json:"is_rtl"`
	IsActive   bool      `json:"is_active"`
	Position   int64     `json:"position"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const updateLanguage = `UPDATE languages
SET name = ?, native_name = ?, is_rtl = ?, is_active = ?, position = ?, updated_at = ?
WHERE code = ?
RETURNING ` + languageColumns

func (q *Queries) UpdateLanguage(ctx context.Context, arg UpdateLanguageParams) (Language, error) {
	return scanLanguage(q.queryRow(ctx, updateLanguage,
		arg.Name,
		arg.NativeName,
		arg.IsRtl,
		arg.IsActive,
		arg.Position,
		arg.UpdatedAt,
		arg.Code,
	))
}

const clearDefaultLanguage = `UPDATE languages SET is_default = ?, updated_at = ? WHERE is_default = ?`

// ClearDefaultLanguage unsets the default flag on every language. Call it
// inside the same transaction as SetDefaultLanguage.
func (q *Queries) ClearDefaultLanguage(ctx context.Context, now time.Time) error {
	_, err := q.exec(ctx, clearDefaultLanguage, false, now, true)
	return err
}

const setDefaultLanguage = `UPDATE languages SET is_default = ?, is_active = ?, updated_at = ? WHERE code = ?`

func (q *Queries) SetDefaultLanguage(ctx context.Context, code string, now time.Time) (int64, error) {
	result, err := q.exec(ctx, setDefaultLanguage, true, true, now, code)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteLanguage = `DELETE FROM languages WHERE code = ?`

func (q *Queries) DeleteLanguage(ctx context.Context, code string) (int64, error) {
	result, err := q.exec(ctx, deleteLanguage, code)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
