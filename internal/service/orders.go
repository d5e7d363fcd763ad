// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/auth"
	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/notify"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

// Paging limits for the admin order listing.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100

	// StaffSenderName signs admin messages sent without a name.
	StaffSenderName = "Deta Group"
)

const ordersCacheResource = "orders"

// Notifier receives best-effort notifications after a write has committed.
type Notifier interface {
	Enqueue(ctx context.Context, orderID, kind string, data any)
}

// OrderInput is an order submission from the public ordering form.
type OrderInput struct {
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email"`
	CustomerPhone    string           `json:"customer_phone"`
	CustomerCompany  string           `json:"customer_company"`
	CountryID        string           `json:"country_id"`
	CityID           string           `json:"city_id"`
	PortID           string           `json:"port_id"`
	DeliveryMethodID string           `json:"delivery_method_id"`
	Notes            string           `json:"notes"`
	LanguageCode     string           `json:"language_code"`
	Items            []OrderItemInput `json:"items"`
}

// OrderItemInput is one product line of a submission.
type OrderItemInput struct {
	ProductID   string  `json:"product_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

func (in OrderInput) normalized() OrderInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = auth.NormalizeEmail(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerCompany = strings.TrimSpace(in.CustomerCompany)
	in.CountryID = strings.TrimSpace(in.CountryID)
	in.CityID = strings.TrimSpace(in.CityID)
	in.PortID = strings.TrimSpace(in.PortID)
	in.DeliveryMethodID = strings.TrimSpace(in.DeliveryMethodID)
	in.Notes = strings.TrimSpace(in.Notes)
	in.LanguageCode = strings.TrimSpace(in.LanguageCode)
	if in.LanguageCode == "" {
		in.LanguageCode = model.DefaultLanguageCode
	}
	items := make([]OrderItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		it.Description = strings.TrimSpace(it.Description)
		it.Unit = strings.TrimSpace(it.Unit)
		items = append(items, it)
	}
	in.Items = items
	return in
}

// LookupRef is a lookup id with its name in the requested language.
type LookupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderDetail is an order fetched together with its items and resolved
// location and delivery names.
type OrderDetail struct {
	Order          store.Order       `json:"order"`
	Items          []store.OrderItem `json:"items"`
	Country        *LookupRef        `json:"country,omitempty"`
	City           *LookupRef        `json:"city,omitempty"`
	Port           *LookupRef        `json:"port,omitempty"`
	DeliveryMethod *LookupRef        `json:"delivery_method,omitempty"`
	NextStatuses   []string          `json:"next_statuses"`
}

// ListOrdersInput filters the admin order listing.
type ListOrdersInput struct {
	Status  string
	Search  string
	Page    int
	PerPage int
}

// OrderList is one page of the admin order listing.
type OrderList struct {
	Orders  []store.Order `json:"orders"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

// StatusUpdate qualifies an admin status change. Force bypasses the
// transition table.
type StatusUpdate struct {
	Force   bool
	ActorID string
}

// MessageInput is a new message on an order thread.
type MessageInput struct {
	OrderID    string
	SenderType string
	SenderName string
	Text       string
}

// OrderService implements the order lifecycle and messaging.
type OrderService struct {
	queries  *store.Queries
	tx       *store.TxRunner
	lists    *cache.TypedCache[OrderList]
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates an OrderService. notifier may be nil.
func NewOrderService(db *sql.DB, queries *store.Queries, c cache.Cacher, notifier Notifier, logger *slog.Logger, ttl time.Duration) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		queries:  queries,
		tx:       store.NewTxRunner(db, queries),
		lists:    cache.NewTypedCache[OrderList](c, ttl),
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitOrder validates in, stores it as a pending order with its items
// and queues the confirmation email once the insert has committed.
func (s *OrderService) SubmitOrder(ctx context.Context, in OrderInput) (*store.Order, error) {
	in = in.normalized()

	if err := s.validateOrder(ctx, in); err != nil {
		return nil, err
	}

	now := s.now()
	var order store.Order
	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		order, err = q.CreateOrder(ctx, store.CreateOrderParams{
			ID:               uuid.NewString(),
			CustomerName:     in.CustomerName,
			CustomerEmail:    in.CustomerEmail,
			CustomerPhone:    in.CustomerPhone,
			CustomerCompany:  util.NullStringFromValue(in.CustomerCompany),
			CountryID:        util.NullStringFromValue(in.CountryID),
			CityID:           util.NullStringFromValue(in.CityID),
			PortID:           util.NullStringFromValue(in.PortID),
			DeliveryMethodID: util.NullStringFromValue(in.DeliveryMethodID),
			Notes:            in.Notes,
			Status:           string(model.OrderStatusPending),
			LanguageCode:     in.LanguageCode,
			SearchKey:        util.SearchKey(in.CustomerName, in.CustomerEmail, in.CustomerPhone, in.CustomerCompany),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, it := range in.Items {
			if _, err := q.CreateOrderItem(ctx, store.CreateOrderItemParams{
				OrderID:     order.ID,
				ProductID:   util.NullStringFromValue(it.ProductID),
				Description: it.Description,
				Quantity:    it.Quantity,
				Unit:        it.Unit,
			}); err != nil {
				return fmt.Errorf("creating order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("order submitted", "order_id", order.ID, "language", order.LanguageCode, "items", len(in.Items))

	if s.notifier != nil {
		s.notifier.Enqueue(context.WithoutCancel(ctx), order.ID, notify.KindOrderSubmitted, s.submittedPayload(ctx, order))
	}

	return &order, nil
}

// validateOrder runs the required-field checks, the order schema and the
// reference checks. It performs no writes.
func (s *OrderService) validateOrder(ctx context.Context, in OrderInput) error {
	verr := NewValidationError()
	if in.CustomerName == "" {
		verr.Add("customer_name", "validation.required")
	}
	if in.CustomerEmail == "" {
		verr.Add("customer_email", "validation.required")
	}
	if in.CustomerPhone == "" {
		verr.Add("customer_phone", "validation.required")
	}

	if err := validateOrderSchema(in); err != nil {
		var schemaErr *ValidationError
		if !errors.As(err, &schemaErr) {
			return err
		}
		for field, key := range schemaErr.Fields {
			verr.Add(field, key)
		}
	}
	if verr.HasErrors() {
		return verr
	}

	refs := []struct {
		field string
		kind  store.LookupKind
		id    string
	}{
		{"country_id", store.LookupCountry, in.CountryID},
		{"city_id", store.LookupCity, in.CityID},
		{"port_id", store.LookupPort, in.PortID},
		{"delivery_method_id", store.LookupDeliveryMethod, in.DeliveryMethodID},
	}
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		l, err := s.queries.GetLookup(ctx, ref.kind, ref.id)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !l.IsActive) {
			verr.Add(ref.field, "validation.unknown_reference")
			continue
		}
		if err != nil {
			return fmt.Errorf("checking %s: %w", ref.field, err)
		}
		// Cities and ports belong to a country.
		if in.CountryID != "" && l.ParentID.Valid && l.ParentID.String != in.CountryID {
			verr.Add(ref.field, "validation.invalid")
		}
	}

	for i, it := range in.Items {
		if it.ProductID == "" {
			if it.Description == "" {
				verr.Add(fmt.Sprintf("items.%d.description", i), "validation.required")
			}
			continue
		}
		if _, err := s.queries.GetProduct(ctx, it.ProductID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("checking product: %w", err)
			}
			verr.Add(fmt.Sprintf("items.%d.product_id", i), "validation.unknown_reference")
		}
	}

	return verr.OrNil()
}

func (s *OrderService) submittedPayload(ctx context.Context, o store.Order) notify.OrderSubmitted {
	return notify.OrderSubmitted{
		OrderID:         o.ID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		CustomerCompany: o.CustomerCompany.String,
		LanguageCode:    o.LanguageCode,
		Country:         s.lookupName(ctx, store.LookupCountry, o.CountryID, o.LanguageCode),
		City:            s.lookupName(ctx, store.LookupCity, o.CityID, o.LanguageCode),
		Port:            s.lookupName(ctx, store.LookupPort, o.PortID, o.LanguageCode),
		DeliveryMethod:  s.lookupName(ctx, store.LookupDeliveryMethod, o.DeliveryMethodID, o.LanguageCode),
		Notes:           o.Notes,
		SubmittedAt:     o.CreatedAt,
	}
}

// lookupName resolves a lookup name, falling back to the id when the
// language has no translation.
func (s *OrderService) lookupName(ctx context.Context, kind store.LookupKind, id sql.NullString, lang string) string {
	if !id.Valid {
		return ""
	}
	name, err := s.queries.GetLookupName(ctx, kind, id.String, lang)
	if err != nil || name == "" {
		return id.String
	}
	return name
}

func (s *OrderService) lookupRef(ctx context.Context, kind store.LookupKind, id sql.NullString, lang string) *LookupRef {
	if !id.Valid {
		return nil
	}
	return &LookupRef{ID: id.String, Name: s.lookupName(ctx, kind, id, lang)}
}

// GetOrder returns an order by id.
func (s *OrderService) GetOrder(ctx context.Context, id string) (store.Order, error) {
	o, err := s.queries.GetOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return store.Order{}, notFound(err, ErrOrderNotFound)
	}
	return o, nil
}

// GetOrderDetail returns an order with its items and lookup names in lang.
func (s *OrderService) GetOrderDetail(ctx context.Context, id, lang string) (*OrderDetail, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, o, lang)
}

func (s *OrderService) detail(ctx context.Context, o store.Order, lang string) (*OrderDetail, error) {
	items, err := s.queries.ListOrderItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	if items == nil {
		items = []store.OrderItem{}
	}
	if lang == "" {
		lang = o.LanguageCode
	}

	next := model.OrderStatus(o.Status).NextStatuses()
	nextStrs := make([]string, len(next))
	for i, st := range next {
		nextStrs[i] = string(st)
	}

	return &OrderDetail{
		Order:          o,
		Items:          items,
		Country:        s.lookupRef(ctx, store.LookupCountry, o.CountryID, lang),
		City:           s.lookupRef(ctx, store.LookupCity, o.CityID, lang),
		Port:           s.lookupRef(ctx, store.LookupPort, o.PortID, lang),
		DeliveryMethod: s.lookupRef(ctx, store.LookupDeliveryMethod, o.DeliveryMethodID, lang),
		NextStatuses:   nextStrs,
	}, nil
}

// FindOrder returns the order only when both id and email match. A wrong
// email yields ErrOrderNotFound, the same as an unknown id. Anyone holding
// both values can read the order.
func (s *OrderService) FindOrder(ctx context.Context, id, email, lang string) (*OrderDetail, error) {
	id = strings.TrimSpace(id)
	email = auth.NormalizeEmail(email)
	if id == "" || email == "" {
		return nil, ErrOrderNotFound
	}

	o, err := s.queries.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	stored := auth.NormalizeEmail(o.CustomerEmail)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(email)) != 1 {
		return nil, ErrOrderNotFound
	}
	return s.detail(ctx, o, lang)
}

// UpdateOrderStatus moves an order to status. Transitions outside the
// lifecycle table fail with ErrInvalidTransition unless upd.Force is set;
// forced transitions are logged as warnings. Delivered and cancelled orders
// never leave their status, forced or not. Setting the current status again
// is a no-op. Concurrent updates are last-write-wins.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string, upd StatusUpdate) (store.Order, error) {
	next, ok := model.ParseOrderStatus(strings.TrimSpace(status))
	if !ok {
		return store.Order{}, ErrInvalidStatus
	}

	var before, after store.Order
	forced := false
	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		cur, err := q.GetOrder(ctx, id)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		before, after = cur, cur

		from := model.OrderStatus(cur.Status)
		if from == next {
			return nil
		}
		if !from.CanTransitionTo(next) {
			if !upd.Force || from.IsTerminal() {
				return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, next)
			}
			forced = true
		}

		after, err = q.UpdateOrderStatus(ctx, id, string(next), s.now())
		if err != nil {
			return fmt.Errorf("updating order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Order{}, err
	}

	if before.Status == after.Status {
		return after, nil
	}

	s.invalidate(ctx)

	if forced {
		s.logger.Warn("order status forced outside the lifecycle",
			"category", model.EventCategoryOrder,
			"order_id", id, "from", before.Status, "to", after.Status, "user_id", upd.ActorID)
	} else {
		s.logger.Info("order status updated", "order_id", id, "from", before.Status, "to", after.Status)
	}

	if s.notifier != nil {
		s.notifier.Enqueue(context.WithoutCancel(ctx), after.ID, notify.KindOrderStatus, notify.OrderStatusChanged{
			OrderID:       after.ID,
			CustomerName:  after.CustomerName,
			CustomerEmail: after.CustomerEmail,
			LanguageCode:  after.LanguageCode,
			From:          before.Status,
			To:            after.Status,
		})
	}
	return after, nil
}

// SendMessage appends an immutable message to an order thread. Delivered
// and cancelled orders are closed and reject new messages with
// ErrOrderClosed; their thread stays readable.
func (s *OrderService) SendMessage(ctx context.Context, in MessageInput) (store.OrderMessage, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return store.OrderMessage{}, ErrEmptyMessage
	}
	if !model.IsValidSenderType(in.SenderType) {
		return store.OrderMessage{}, ErrInvalidSender
	}
	if len([]rune(text)) > 5000 {
		verr := NewValidationError()
		verr.Add("message", "validation.max_length")
		return store.OrderMessage{}, verr
	}

	o, err := s.GetOrder(ctx, in.OrderID)
	if err != nil {
		return store.OrderMessage{}, err
	}
	if model.OrderStatus(o.Status).IsTerminal() {
		return store.OrderMessage{}, ErrOrderClosed
	}

	name := strings.TrimSpace(in.SenderName)
	if name == "" {
		name = o.CustomerName
		if in.SenderType == model.SenderAdmin {
			name = StaffSenderName
		}
	}

	msg, err := s.queries.CreateOrderMessage(ctx, store.CreateOrderMessageParams{
		OrderID:    o.ID,
		SenderType: in.SenderType,
		SenderName: name,
		Message:    text,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return store.OrderMessage{}, fmt.Errorf("creating message: %w", err)
	}

	if in.SenderType == model.SenderAdmin && s.notifier != nil {
		s.notifier.Enqueue(context.WithoutCancel(ctx), o.ID, notify.KindOrderMessage, notify.OrderMessage{
			OrderID:       o.ID,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			LanguageCode:  o.LanguageCode,
			SenderName:    name,
			Message:       text,
		})
	}
	return msg, nil
}

// ListMessages returns the thread oldest first. A non-nil since returns
// only newer messages, for polling.
func (s *OrderService) ListMessages(ctx context.Context, orderID string, since *time.Time) ([]store.OrderMessage, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	var after sql.NullTime
	if since != nil {
		after = sql.NullTime{Time: since.UTC(), Valid: true}
	}
	msgs, err := s.queries.ListOrderMessages(ctx, orderID, after)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if msgs == nil {
		msgs = []store.OrderMessage{}
	}
	return msgs, nil
}

// ListOrders returns one page of orders, cached per filter and page.
func (s *OrderService) ListOrders(ctx context.Context, in ListOrdersInput) (*OrderList, error) {
	if in.Status != "" {
		if _, ok := model.ParseOrderStatus(in.Status); !ok {
			return nil, ErrInvalidStatus
		}
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PerPage < 1 {
		in.PerPage = DefaultPerPage
	}
	if in.PerPage > MaxPerPage {
		in.PerPage = MaxPerPage
	}
	search := util.EscapeLike(util.NormalizeSearchTerm(in.Search))

	key := cache.Key(ordersCacheResource, in.Status, search, cache.Int(in.Page), cache.Int(in.PerPage))
	return s.lists.GetOrSet(ctx, key, func() (*OrderList, error) {
		orders, err := s.queries.ListOrders(ctx, store.ListOrdersParams{
			Status: in.Status,
			Search: search,
			Limit:  int64(in.PerPage),
			Offset: int64((in.Page - 1) * in.PerPage),
		})
		if err != nil {
			return nil, fmt.Errorf("listing orders: %w", err)
		}
		total, err := s.queries.CountOrders(ctx, in.Status, search)
		if err != nil {
			return nil, fmt.Errorf("counting orders: %w", err)
		}
		if orders == nil {
			orders = []store.Order{}
		}
		return &OrderList{Orders: orders, Total: total, Page: in.Page, PerPage: in.PerPage}, nil
	})
}

// StatusCounts returns the number of orders per status, including zeros.
func (s *OrderService) StatusCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.queries.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting orders: %w", err)
	}
	counts := make(map[string]int64, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		counts[string(st)] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// DeleteOrder hard-deletes an order with its items and messages. Only
// admins reach this.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	n, err := s.queries.DeleteOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	s.invalidate(ctx)
	s.logger.Info("order deleted", "order_id", id)
	return nil
}

// invalidate drops cached listings. It runs only after a successful write.
func (s *OrderService) invalidate(ctx context.Context) {
	if err := s.lists.Invalidate(context.WithoutCancel(ctx), cache.Prefix(ordersCacheResource)); err != nil {
		s.logger.Error("failed to invalidate order cache", "error", err)
	}
}
