package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ShippingAddress is the destination snapshot stored on an order.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PaymentResult records the external gateway outcome captured when an order
// is marked paid.
type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Email      string `json:"email_address"`
}

// OrderItem is a line item snapshot: product reference, quantity, and the
// catalog price at order time. Immutable after creation.
type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Image     string
	Qty       int
	UnitPrice float64
}

// Order is a row in the orders table. The monetary fields are derived by the
// pricing calculator and stored redundantly for audit.
type Order struct {
	ID            pgtype.UUID
	UserID        pgtype.UUID
	UserName      string
	UserEmail     string
	Shipping      ShippingAddress
	PaymentMethod string
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalPrice    float64
	IsPaid        bool
	PaidAt        *time.Time
	IsDelivered   bool
	DeliveredAt   *time.Time
	Payment       PaymentResult
	CreatedAt     time.Time
	Items         []OrderItem
}

const orderColumns = `o.id, o.user_id, o.address, o.city, o.postal_code, o.country,
	o.payment_method, o.items_price, o.tax_price, o.shipping_price, o.total_price,
	o.is_paid, o.paid_at, o.is_delivered, o.delivered_at,
	o.payment_id, o.payment_status, o.payment_update_time, o.payment_email,
	o.created_at`

// OrderInput carries everything needed to persist a new order.
type OrderInput struct {
	UserID        pgtype.UUID
	Shipping      ShippingAddress
	PaymentMethod string
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalPrice    float64
	Items         []OrderItem
}

// CreateOrder inserts the order and its line items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, in OrderInput) (Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders AS o (user_id, address, city, postal_code, country,
			payment_method, items_price, tax_price, shipping_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		in.UserID, in.Shipping.Address, in.Shipping.City, in.Shipping.PostalCode,
		in.Shipping.Country, in.PaymentMethod, in.ItemsPrice, in.TaxPrice,
		in.ShippingPrice, in.TotalPrice)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}

	for _, it := range in.Items {
		var itemID pgtype.UUID
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, name, image, qty, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			order.ID, it.ProductID, it.Name, it.Image, it.Qty, it.UnitPrice).Scan(&itemID); err != nil {
			return Order{}, err
		}
		it.ID = itemID
		it.OrderID = order.ID
		order.Items = append(order.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return order, nil
}

// GetOrder fetches an order with its line items and the owner's name and
// email populated.
func (s *Store) GetOrder(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`, u.name, u.email
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`, id)
	order, err := scanOrderWithUser(row)
	if err != nil {
		return Order{}, err
	}
	items, err := s.listOrderItems(ctx, order.ID)
	if err != nil {
		return Order{}, err
	}
	order.Items = items
	return order, nil
}

// ListOrdersByUser returns the caller's orders, newest first, items included.
func (s *Store) ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o WHERE o.user_id = $1
		ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachItems(ctx, orders)
}

// ListAllOrders returns every order with owner identity populated, newest
// first.
func (s *Store) ListAllOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`, u.name, u.email
		FROM orders o JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrderWithUser(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachItems(ctx, orders)
}

// MarkOrderPaid flips the paid flag, captures the timestamp, and records the
// gateway result. The flip is idempotent: re-paying an already paid order
// keeps the original timestamp and result.
func (s *Store) MarkOrderPaid(ctx context.Context, id pgtype.UUID, paidAt time.Time, payment PaymentResult) (Order, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders o SET
			is_paid = TRUE,
			paid_at = COALESCE(o.paid_at, $2),
			payment_id = CASE WHEN o.is_paid THEN o.payment_id ELSE $3 END,
			payment_status = CASE WHEN o.is_paid THEN o.payment_status ELSE $4 END,
			payment_update_time = CASE WHEN o.is_paid THEN o.payment_update_time ELSE $5 END,
			payment_email = CASE WHEN o.is_paid THEN o.payment_email ELSE $6 END
		WHERE o.id = $1
		RETURNING `+orderColumns,
		id, paidAt, payment.ID, payment.Status, payment.UpdateTime, payment.Email)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	items, err := s.listOrderItems(ctx, order.ID)
	if err != nil {
		return Order{}, err
	}
	order.Items = items
	return order, nil
}

// MarkOrderDelivered flips the delivered flag idempotently, keeping the first
// timestamp.
func (s *Store) MarkOrderDelivered(ctx context.Context, id pgtype.UUID, deliveredAt time.Time) (Order, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders o SET
			is_delivered = TRUE,
			delivered_at = COALESCE(o.delivered_at, $2)
		WHERE o.id = $1
		RETURNING `+orderColumns,
		id, deliveredAt)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	items, err := s.listOrderItems(ctx, order.ID)
	if err != nil {
		return Order{}, err
	}
	order.Items = items
	return order, nil
}

func (s *Store) listOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, image, qty, unit_price
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Image, &it.Qty, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) attachItems(ctx context.Context, orders []Order) ([]Order, error) {
	for i := range orders {
		items, err := s.listOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	var paymentID, paymentStatus, paymentUpdate, paymentEmail *string
	err := row.Scan(&o.ID, &o.UserID, &o.Shipping.Address, &o.Shipping.City,
		&o.Shipping.PostalCode, &o.Shipping.Country, &o.PaymentMethod,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt,
		&paymentID, &paymentStatus, &paymentUpdate, &paymentEmail,
		&o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Payment = paymentResult(paymentID, paymentStatus, paymentUpdate, paymentEmail)
	return o, nil
}

func scanOrderWithUser(row rowScanner) (Order, error) {
	var o Order
	var paymentID, paymentStatus, paymentUpdate, paymentEmail *string
	err := row.Scan(&o.ID, &o.UserID, &o.Shipping.Address, &o.Shipping.City,
		&o.Shipping.PostalCode, &o.Shipping.Country, &o.PaymentMethod,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt,
		&paymentID, &paymentStatus, &paymentUpdate, &paymentEmail,
		&o.CreatedAt, &o.UserName, &o.UserEmail)
	if err != nil {
		return Order{}, err
	}
	o.Payment = paymentResult(paymentID, paymentStatus, paymentUpdate, paymentEmail)
	return o, nil
}

func paymentResult(id, status, update, email *string) PaymentResult {
	var p PaymentResult
	if id != nil {
		p.ID = *id
	}
	if status != nil {
		p.Status = *status
	}
	if update != nil {
		p.UpdateTime = *update
	}
	if email != nil {
		p.Email = *email
	}
	return p
}
