package store

import (
	"context"
	"database/sql"
	"time"
)

const mediaColumns = `id, bucket, path, filename, mime_type, size, width, height, uploaded_by, created_at`

func scanMedia(row interface{ Scan(...interface{}) error }) (Media, error) {
	var i Media
	err := row.Scan(
		&i.ID,
		&i.Bucket,
		&i.Path,
		&i.Filename,
		&i.MimeType,
		&i.Size,
		&i.Width,
		&i.Height,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

type CreateMediaParams struct {
	ID         string         `json:"id"`
	Bucket     string         `json:"bucket"`
	Path       string         `json:"path"`
	Filename   string         `json:"filename"`
	MimeType   string         `json:"mime_type"`
	Size       int64          `json:"size"`
	Width      sql.NullInt64  `json:"width"`
	Height     sql.NullInt64  `json:"height"`
	UploadedBy sql.NullString `json:"uploaded_by"`
	CreatedAt  time.Time      `json:"created_at"`
}

const createMedia = `INSERT INTO media (` + mediaColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + mediaColumns

func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Media, error) {
	return scanMedia(q.queryRow(ctx, createMedia,
		arg.ID,
		arg.Bucket,
		arg.Path,
		arg.Filename,
		arg.MimeType,
		arg.Size,
		arg.Width,
		arg.Height,
		arg.UploadedBy,
		arg.CreatedAt,
	))
}

const getMedia = `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`

func (q *Queries) GetMedia(ctx context.Context, id string) (Media, error) {
	return scanMedia(q.queryRow(ctx, getMedia, id))
}

// ListMedia returns media newest first, restricted to bucket when set.
func (q *Queries) ListMedia(ctx context.Context, bucket string, limit, offset int64) ([]Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media`
	var args []interface{}
	if bucket != "" {
		query += ` WHERE bucket = ?`
		args = append(args, bucket)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Media
	for rows.Next() {
		i, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) CountMedia(ctx context.Context, bucket string) (int64, error) {
	query := `SELECT COUNT(*) FROM media`
	var args []interface{}
	if bucket != "" {
		query += ` WHERE bucket = ?`
		args = append(args, bucket)
	}
	var count int64
	err := q.queryRow(ctx, query, args...).Scan(&count)
	return count, err
}

const deleteMedia = `DELETE FROM media WHERE id = ?`

func (q *Queries) DeleteMedia(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteMedia, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type CreateMediaVariantParams struct {
	MediaID   string    `json:"media_id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Width     int64     `json:"width"`
	Height    int64     `json:"height"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

const mediaVariantColumns = `id, media_id, kind, path, width, height, size, created_at`

const createMediaVariant = `INSERT INTO media_variants (media_id, kind, path, width, height, size, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + mediaVariantColumns

func (q *Queries) CreateMediaVariant(ctx context.Context, arg CreateMediaVariantParams) (MediaVariant, error) {
	var i MediaVariant
	err := q.queryRow(ctx, createMediaVariant,
		arg.MediaID,
		arg.Kind,
		arg.Path,
		arg.Width,
		arg.Height,
		arg.Size,
		arg.CreatedAt,
	).Scan(&i.ID, &i.MediaID, &i.Kind, &i.Path, &i.Width, &i.Height, &i.Size, &i.CreatedAt)
	return i, err
}

const listMediaVariants = `SELECT ` + mediaVariantColumns + ` FROM media_variants WHERE media_id = ? ORDER BY width`

func (q *Queries) ListMediaVariants(ctx context.Context, mediaID string) ([]MediaVariant, error) {
	rows, err := q.query(ctx, listMediaVariants, mediaID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []MediaVariant
	for rows.Next() {
		var i MediaVariant
		if err := rows.Scan(&i.ID, &i.MediaID, &i.Kind, &i.Path, &i.Width, &i.Height, &i.Size, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// Background images

const backgroundImageColumns = `id, page_key, media_id, position, is_active, created_at, updated_at`

func scanBackgroundImage(row interface{ Scan(...interface{}) error }) (BackgroundImage, error) {
	var i BackgroundImage
	err := row.Scan(&i.ID, &i.PageKey, &i.MediaID, &i.Position, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type CreateBackgroundImageParams struct {
	ID        string    `json:"id"`
	PageKey   string    `json:"page_key"`
	MediaID   string    `json:"media_id"`
	Position  int64     `json:"position"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const createBackgroundImage = `INSERT INTO background_images (` + backgroundImageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + backgroundImageColumns

func (q *Queries) CreateBackgroundImage(ctx context.Context, arg CreateBackgroundImageParams) (BackgroundImage, error) {
	return scanBackgroundImage(q.queryRow(ctx, createBackgroundImage,
		arg.ID,
		arg.PageKey,
		arg.MediaID,
		arg.Position,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	))
}

const getBackgroundImage = `SELECT ` + backgroundImageColumns + ` FROM background_images WHERE id = ?`

func (q *Queries) GetBackgroundImage(ctx context.Context, id string) (BackgroundImage, error) {
	return scanBackgroundImage(q.queryRow(ctx, getBackgroundImage, id))
}

type UpdateBackgroundImageParams struct {
	ID        string    `json:"id"`
	PageKey   string    `json:"page_key"`
	Position  int64     `json:"position"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

const updateBackgroundImage = `UPDATE background_images SET page_key = ?, position = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING ` + backgroundImageColumns

func (q *Queries) UpdateBackgroundImage(ctx context.Context, arg UpdateBackgroundImageParams) (BackgroundImage, error) {
	return scanBackgroundImage(q.queryRow(ctx, updateBackgroundImage,
		arg.PageKey,
		arg.Position,
		arg.IsActive,
		arg.UpdatedAt,
		arg.ID,
	))
}

// ListBackgroundImages filters by page key when set; activeOnly hides
// disabled images.
func (q *Queries) ListBackgroundImages(ctx context.Context, pageKey string, activeOnly bool) ([]BackgroundImage, error) {
	query := `SELECT ` + backgroundImageColumns + ` FROM background_images WHERE 1 = 1`
	var args []interface{}
	if pageKey != "" {
		query += ` AND page_key = ?`
		args = append(args, pageKey)
	}
	if activeOnly {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY page_key, position, created_at`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []BackgroundImage
	for rows.Next() {
		i, err := scanBackgroundImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteBackgroundImage = `DELETE FROM background_images WHERE id = ?`

func (q *Queries) DeleteBackgroundImage(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteBackgroundImage, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
