package store

import (
	"context"
	"database/sql"
	"time"
)

// Categories

const categoryColumns = `id, kind, position, created_at, updated_at`

func scanCategory(row interface{ Scan(...interface{}) error }) (Category, error) {
	var i Category
	err := row.Scan(&i.ID, &i.Kind, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

type CreateCategoryParams struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const createCategory = `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?)
RETURNING ` + categoryColumns

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.queryRow(ctx, createCategory, arg.ID, arg.Kind, arg.Position, arg.CreatedAt, arg.UpdatedAt))
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (Category, error) {
	return scanCategory(q.queryRow(ctx, getCategory, id))
}

const updateCategory = `UPDATE categories SET position = ?, updated_at = ? WHERE id = ?
RETURNING ` + categoryColumns

func (q *Queries) UpdateCategory(ctx context.Context, id string, position int64, now time.Time) (Category, error) {
	return scanCategory(q.queryRow(ctx, updateCategory, position, now, id))
}

// ListCategories returns categories of a kind, or all when kind is empty.
func (q *Queries) ListCategories(ctx context.Context, kind string) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY position, created_at`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Category
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Articles

const articleColumns = `id, category_id, image_url, is_published, published_at, author_id, created_at, updated_at`

func scanArticle(row interface{ Scan(...interface{}) error }) (Article, error) {
	var i Article
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.ImageUrl,
		&i.IsPublished,
		&i.PublishedAt,
		&i.AuthorID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type CreateArticleParams struct {
	ID          string         `json:"id"`
	CategoryID  sql.NullString `json:"category_id"`
	ImageUrl    string         `json:"image_url"`
	IsPublished bool           `json:"is_published"`
	PublishedAt sql.NullTime   `json:"published_at"`
	AuthorID    sql.NullString `json:"author_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

const createArticle = `INSERT INTO articles (` + articleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + articleColumns

func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	return scanArticle(q.queryRow(ctx, createArticle,
		arg.ID,
		arg.CategoryID,
		arg.ImageUrl,
		arg.IsPublished,
		arg.PublishedAt,
		arg.AuthorID,
		arg.CreatedAt,
		arg.UpdatedAt,
	))
}

const getArticle = `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

func (q *Queries) GetArticle(ctx context.Context, id string) (Article, error) {
	return scanArticle(q.queryRow(ctx, getArticle, id))
}

type UpdateArticleParams struct {
	ID          string         `json:"id"`
	CategoryID  sql.NullString `json:"category_id"`
	ImageUrl    string         `json:"image_url"`
	IsPublished bool           `json:"is_published"`
	PublishedAt sql.NullTime   `json:"published_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

const updateArticle = `UPDATE articles
SET category_id = ?, image_url = ?, is_published = ?, published_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + articleColumns

func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (Article, error) {
	return scanArticle(q.queryRow(ctx, updateArticle,
		arg.CategoryID,
		arg.ImageUrl,
		arg.IsPublished,
		arg.PublishedAt,
		arg.UpdatedAt,
		arg.ID,
	))
}

type ListArticlesParams struct {
	PublishedOnly bool
	CategoryID    string
	Limit         int64
	Offset        int64
}

func articleFilter(publishedOnly bool, categoryID string) (string, []interface{}) {
	where := ` WHERE 1 = 1`
	var args []interface{}
	if publishedOnly {
		where += ` AND is_published = ?`
		args = append(args, true)
	}
	if categoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	return where, args
}

func (q *Queries) ListArticles(ctx context.Context, arg ListArticlesParams) ([]Article, error) {
	where, args := articleFilter(arg.PublishedOnly, arg.CategoryID)
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.query(ctx, `SELECT `+articleColumns+` FROM articles`+where+`
ORDER BY COALESCE(published_at, created_at) DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Article
	for rows.Next() {
		i, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) CountArticles(ctx context.Context, publishedOnly bool, categoryID string) (int64, error) {
	where, args := articleFilter(publishedOnly, categoryID)
	var count int64
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM articles`+where, args...).Scan(&count)
	return count, err
}

const deleteArticle = `DELETE FROM articles WHERE id = ?`

func (q *Queries) DeleteArticle(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteArticle, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Products

const productColumns = `id, category_id, price, unit, image_url, is_featured, is_active, position, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.Price,
		&i.Unit,
		&i.ImageUrl,
		&i.IsFeatured,
		&i.IsActive,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type CreateProductParams struct {
	ID         string         `json:"id"`
	CategoryID sql.NullString `json:"category_id"`
	Price      float64        `json:"price"`
	Unit       string         `json:"unit"`
	ImageUrl   string         `json:"image_url"`
	IsFeatured bool           `json:"is_featured"`
	IsActive   bool           `json:"is_active"`
	Position   int64          `json:"position"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

const createProduct = `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + productColumns

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.queryRow(ctx, createProduct,
		arg.ID,
		arg.CategoryID,
		arg.Price,
		arg.Unit,
		arg.ImageUrl,
		arg.IsFeatured,
		arg.IsActive,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	))
}

const getProduct = `SELECT ` + productColumns + ` FROM products WHERE id = ?`

func (q *Queries) GetProduct(ctx context.Context, id string) (Product, error) {
	return scanProduct(q.queryRow(ctx, getProduct, id))
}

type UpdateProductParams struct {
	ID         string         `json:"id"`
	CategoryID sql.NullString `json:"category_id"`
	Price      float64        `json:"price"`
	Unit       string         `json:"unit"`
	ImageUrl   string         `json:"image_url"`
	IsFeatured bool           `json:"is_featured"`
	IsActive   bool           `json:"is_active"`
	Position   int64          `json:"position"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

const updateProduct = `UPDATE products
SET category_id = ?, price = ?, unit = ?, image_url = ?, is_featured = ?, is_active = ?, position = ?, updated_at = ?
WHERE id = ?
RETURNING ` + productColumns

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.queryRow(ctx, updateProduct,
		arg.CategoryID,
		arg.Price,
		arg.Unit,
		arg.ImageUrl,
		arg.IsFeatured,
		arg.IsActive,
		arg.Position,
		arg.UpdatedAt,
		arg.ID,
	))
}

type ListProductsParams struct {
	ActiveOnly   bool
	FeaturedOnly bool
	CategoryID   string
	Limit        int64
	Offset       int64
}

func productFilter(arg ListProductsParams) (string, []interface{}) {
	where := ` WHERE 1 = 1`
	var args []interface{}
	if arg.ActiveOnly {
		where += ` AND is_active = ?`
		args = append(args, true)
	}
	if arg.FeaturedOnly {
		where += ` AND is_featured = ?`
		args = append(args, true)
	}
	if arg.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, arg.CategoryID)
	}
	return where, args
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	where, args := productFilter(arg)
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.query(ctx, `SELECT `+productColumns+` FROM products`+where+`
ORDER BY position, created_at DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Product
	for rows.Next() {
		i, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) CountProducts(ctx context.Context, arg ListProductsParams) (int64, error) {
	where, args := productFilter(arg)
	var count int64
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&count)
	return count, err
}

const deleteProduct = `DELETE FROM products WHERE id = ?`

func (q *Queries) DeleteProduct(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteProduct, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Site settings

const siteSettingColumns = `id, value, created_at, updated_at`

func scanSiteSetting(row interface{ Scan(...interface{}) error }) (SiteSetting, error) {
	var i SiteSetting
	err := row.Scan(&i.ID, &i.Value, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertSiteSetting = `INSERT INTO site_settings (id, value, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
RETURNING ` + siteSettingColumns

func (q *Queries) UpsertSiteSetting(ctx context.Context, id, value string, now time.Time) (SiteSetting, error) {
	return scanSiteSetting(q.queryRow(ctx, upsertSiteSetting, id, value, now, now))
}

const getSiteSetting = `SELECT ` + siteSettingColumns + ` FROM site_settings WHERE id = ?`

func (q *Queries) GetSiteSetting(ctx context.Context, id string) (SiteSetting, error) {
	return scanSiteSetting(q.queryRow(ctx, getSiteSetting, id))
}

const listSiteSettings = `SELECT ` + siteSettingColumns + ` FROM site_settings ORDER BY id`

func (q *Queries) ListSiteSettings(ctx context.Context) ([]SiteSetting, error) {
	rows, err := q.query(ctx, listSiteSettings)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []SiteSetting
	for rows.Next() {
		i, err := scanSiteSetting(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteSiteSetting = `DELETE FROM site_settings WHERE id = ?`

func (q *Queries) DeleteSiteSetting(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteSiteSetting, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
