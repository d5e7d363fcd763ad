package store

import (
	"context"
	"database/sql"
	"fmt"
)

// LookupKind names one of the reference tables used by the order form.
type LookupKind string

const (
	LookupCountry        LookupKind = "country"
	LookupCity           LookupKind = "city"
	LookupPort           LookupKind = "port"
	LookupDeliveryMethod LookupKind = "delivery_method"
)

var lookupTables = map[LookupKind]string{
	LookupCountry:        "countries",
	LookupCity:           "cities",
	LookupPort:           "ports",
	LookupDeliveryMethod: "delivery_methods",
}

// Table returns the table backing the kind.
func (k LookupKind) Table() (string, error) {
	t, ok := lookupTables[k]
	if !ok {
		return "", fmt.Errorf("unknown lookup kind %q", k)
	}
	return t, nil
}

// LookupRow is a lookup entry with its name in one language. Name is
// invalid when no translation exists for that language.
type LookupRow struct {
	ID       string         `json:"id"`
	ParentID sql.NullString `json:"parent_id"`
	Position int64          `json:"position"`
	IsActive bool           `json:"is_active"`
	Name     sql.NullString `json:"name"`
}

type ListLookupsParams struct {
	Kind         LookupKind
	LanguageCode string
	ParentID     sql.NullString
	ActiveOnly   bool
}

func (q *Queries) ListLookups(ctx context.Context, arg ListLookupsParams) ([]LookupRow, error) {
	table, err := arg.Kind.Table()
	if err != nil {
		return nil, err
	}

	query := `SELECT l.id, l.parent_id, l.position, l.is_active, t.name
FROM ` + table + ` l
LEFT JOIN lookup_translations t ON t.kind = ? AND t.lookup_id = l.id AND t.language_code = ?
WHERE 1 = 1`
	args := []interface{}{string(arg.Kind), arg.LanguageCode}
	if arg.ParentID.Valid {
		query += ` AND l.parent_id = ?`
		args = append(args, arg.ParentID.String)
	}
	if arg.ActiveOnly {
		query += ` AND l.is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY l.position, l.id`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []LookupRow
	for rows.Next() {
		var i LookupRow
		if err := rows.Scan(&i.ID, &i.ParentID, &i.Position, &i.IsActive, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) GetLookup(ctx context.Context, kind LookupKind, id string) (Lookup, error) {
	table, err := kind.Table()
	if err != nil {
		return Lookup{}, err
	}
	var i Lookup
	err = q.queryRow(ctx, `SELECT id, parent_id, position, is_active FROM `+table+` WHERE id = ?`, id).
		Scan(&i.ID, &i.ParentID, &i.Position, &i.IsActive)
	return i, err
}

const getLookupName = `SELECT name FROM lookup_translations WHERE kind = ? AND lookup_id = ? AND language_code = ?`

func (q *Queries) GetLookupName(ctx context.Context, kind LookupKind, id, languageCode string) (string, error) {
	var name string
	err := q.queryRow(ctx, getLookupName, string(kind), id, languageCode).Scan(&name)
	return name, err
}

type UpsertLookupParams struct {
	Kind     LookupKind
	ID       string
	ParentID sql.NullString
	Position int64
	IsActive bool
}

func (q *Queries) UpsertLookup(ctx context.Context, arg UpsertLookupParams) (Lookup, error) {
	table, err := arg.Kind.Table()
	if err != nil {
		return Lookup{}, err
	}
	query := `INSERT INTO ` + table + ` (id, parent_id, position, is_active) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET parent_id = excluded.parent_id, position = excluded.position, is_active = excluded.is_active
RETURNING id, parent_id, position, is_active`
	var i Lookup
	err = q.queryRow(ctx, query, arg.ID, arg.ParentID, arg.Position, arg.IsActive).
		Scan(&i.ID, &i.ParentID, &i.Position, &i.IsActive)
	return i, err
}

func (q *Queries) DeleteLookup(ctx context.Context, kind LookupKind, id string) (int64, error) {
	table, err := kind.Table()
	if err != nil {
		return 0, err
	}
	if _, err := q.exec(ctx, `DELETE FROM lookup_translations WHERE kind = ? AND lookup_id = ?`, string(kind), id); err != nil {
		return 0, err
	}
	result, err := q.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertLookupTranslation = `INSERT INTO lookup_translations (kind, lookup_id, language_code, name)
VALUES (?, ?, ?, ?)
ON CONFLICT (kind, lookup_id, language_code) DO UPDATE SET name = excluded.name`

func (q *Queries) UpsertLookupTranslation(ctx context.Context, arg LookupTranslation) error {
	_, err := q.exec(ctx, upsertLookupTranslation, arg.Kind, arg.LookupID, arg.LanguageCode, arg.Name)
	return err
}

const listLookupTranslations = `SELECT kind, lookup_id, language_code, name FROM lookup_translations
WHERE kind = ? AND lookup_id = ? ORDER BY language_code`

func (q *Queries) ListLookupTranslations(ctx context.Context, kind LookupKind, id string) ([]LookupTranslation, error) {
	rows, err := q.query(ctx, listLookupTranslations, string(kind), id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []LookupTranslation
	for rows.Next() {
		var i LookupTranslation
		if err := rows.Scan(&i.Kind, &i.LookupID, &i.LanguageCode, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
