package store

import (
	"context"
	"database/sql"
	"time"
)

const orderColumns = `id, customer_name, customer_email, customer_phone, customer_company,
country_id, city_id, port_id, delivery_method_id, notes, status, language_code, search_key,
created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerName,
		&i.CustomerEmail,
		&i.CustomerPhone,
		&i.CustomerCompany,
		&i.CountryID,
		&i.CityID,
		&i.PortID,
		&i.DeliveryMethodID,
		&i.Notes,
		&i.Status,
		&i.LanguageCode,
		&i.SearchKey,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanOrders(rows *sql.Rows) ([]Order, error) {
	defer func() { _ = rows.Close() }()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateOrderParams struct {
	ID               string         `json:"id"`
	CustomerName     string         `json:"customer_name"`
	CustomerEmail    string         `json:"customer_email"`
	CustomerPhone    string         `json:"customer_phone"`
	CustomerCompany  sql.NullString `json:"customer_company"`
	CountryID        sql.NullString `json:"country_id"`
	CityID           sql.NullString `json:"city_id"`
	PortID           sql.NullString `json:"port_id"`
	DeliveryMethodID sql.NullString `json:"delivery_method_id"`
	Notes            string         `json:"notes"`
	Status           string         `json:"status"`
	LanguageCode     string         `json:"language_code"`
	SearchKey        string         `json:"search_key"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

const createOrder = `INSERT INTO orders (
    id, customer_name, customer_email, customer_phone, customer_company,
    country_id, city_id, port_id, delivery_method_id, notes, status, language_code, search_key,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.queryRow(ctx, createOrder,
		arg.ID,
		arg.CustomerName,
		arg.CustomerEmail,
		arg.CustomerPhone,
		arg.CustomerCompany,
		arg.CountryID,
		arg.CityID,
		arg.PortID,
		arg.DeliveryMethodID,
		arg.Notes,
		arg.Status,
		arg.LanguageCode,
		arg.SearchKey,
		arg.CreatedAt,
		arg.UpdatedAt,
	))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

func (q *Queries) GetOrder(ctx context.Context, id string) (Order, error) {
	return scanOrder(q.queryRow(ctx, getOrder, id))
}

const updateOrderStatus = `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, id, status string, now time.Time) (Order, error) {
	return scanOrder(q.queryRow(ctx, updateOrderStatus, status, now, id))
}

const deleteOrder = `DELETE FROM orders WHERE id = ?`

func (q *Queries) DeleteOrder(ctx context.Context, id string) (int64, error) {
	result, err := q.exec(ctx, deleteOrder, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListOrdersParams filters the admin order listing. Empty Status matches
// every status; Search is matched against search_key with LIKE and must
// already be normalized and escaped.
type ListOrdersParams struct {
	Status string
	Search string
	Limit  int64
	Offset int64
}

func orderFilter(status, search string) (string, []interface{}) {
	where := ` WHERE 1 = 1`
	var args []interface{}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, status)
	}
	if search != "" {
		where += ` AND (search_key LIKE ? ESCAPE '\' OR LOWER(id) LIKE ? ESCAPE '\')`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	return where, args
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	where, args := orderFilter(arg.Status, arg.Search)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (q *Queries) CountOrders(ctx context.Context, status, search string) (int64, error) {
	where, args := orderFilter(status, search)
	var count int64
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&count)
	return count, err
}

type OrderStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

const countOrdersByStatus = `SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`

func (q *Queries) CountOrdersByStatus(ctx context.Context) ([]OrderStatusCount, error) {
	rows, err := q.query(ctx, countOrdersByStatus)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []OrderStatusCount
	for rows.Next() {
		var i OrderStatusCount
		if err := rows.Scan(&i.Status, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateOrderItemParams struct {
	OrderID     string         `json:"order_id"`
	ProductID   sql.NullString `json:"product_id"`
	Description string         `json:"description"`
	Quantity    float64        `json:"quantity"`
	Unit        string         `json:"unit"`
}

const createOrderItem = `INSERT INTO order_items (order_id, product_id, description, quantity, unit)
VALUES (?, ?, ?, ?, ?)
RETURNING id, order_id, product_id, description, quantity, unit`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var i OrderItem
	err := q.queryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.Description,
		arg.Quantity,
		arg.Unit,
	).Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Description, &i.Quantity, &i.Unit)
	return i, err
}

const listOrderItems = `SELECT id, order_id, product_id, description, quantity, unit
FROM order_items WHERE order_id = ? ORDER BY id`

func (q *Queries) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := q.query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Description, &i.Quantity, &i.Unit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateOrderMessageParams struct {
	OrderID    string    `json:"order_id"`
	SenderType string    `json:"sender_type"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

const orderMessageColumns = `id, order_id, sender_type, sender_name, message, created_at`

func scanOrderMessage(row interface{ Scan(...interface{}) error }) (OrderMessage, error) {
	var i OrderMessage
	err := row.Scan(&i.ID, &i.OrderID, &i.SenderType, &i.SenderName, &i.Message, &i.CreatedAt)
	return i, err
}

const createOrderMessage = `INSERT INTO order_messages (order_id, sender_type, sender_name, message, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + orderMessageColumns

func (q *Queries) CreateOrderMessage(ctx context.Context, arg CreateOrderMessageParams) (OrderMessage, error) {
	return scanOrderMessage(q.queryRow(ctx, createOrderMessage,
		arg.OrderID,
		arg.SenderType,
		arg.SenderName,
		arg.Message,
		arg.CreatedAt,
	))
}

// ListOrderMessages returns an order's thread oldest first. A valid since
// limits the result to messages created after it.
func (q *Queries) ListOrderMessages(ctx context.Context, orderID string, since sql.NullTime) ([]OrderMessage, error) {
	query := `SELECT ` + orderMessageColumns + ` FROM order_messages WHERE order_id = ?`
	args := []interface{}{orderID}
	if since.Valid {
		query += ` AND created_at > ?`
		args = append(args, since.Time)
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []OrderMessage
	for rows.Next() {
		i, err := scanOrderMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
