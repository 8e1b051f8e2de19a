package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/events"
	"github.com/satriajanaka/backend-mart/internal/obs"
	"github.com/satriajanaka/backend-mart/internal/pricing"
	"github.com/satriajanaka/backend-mart/internal/store"
)

type orderStore interface {
	CreateOrder(ctx context.Context, in store.OrderInput) (store.Order, error)
	GetOrder(ctx context.Context, id pgtype.UUID) (store.Order, error)
	ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]store.Order, error)
	ListAllOrders(ctx context.Context) ([]store.Order, error)
	MarkOrderPaid(ctx context.Context, id pgtype.UUID, paidAt time.Time, payment store.PaymentResult) (store.Order, error)
	MarkOrderDelivered(ctx context.Context, id pgtype.UUID, deliveredAt time.Time) (store.Order, error)
}

type catalogProvider interface {
	GetProductsByIDs(ctx context.Context, ids []pgtype.UUID) ([]store.Product, error)
}

// Service owns the order lifecycle: creation with server-side pricing, then
// the paid and delivered flips.
type Service struct {
	orders  orderStore
	catalog catalogProvider
	policy  pricing.Policy
	bus     *events.Bus
	metrics *obs.OrderMetrics
	log     zerolog.Logger
	now     func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Orders  orderStore
	Catalog catalogProvider
	Policy  pricing.Policy
	Bus     *events.Bus
	Metrics *obs.OrderMetrics
	Logger  zerolog.Logger
}

// NewService constructs an order service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Orders == nil {
		return nil, errors.New("order: order store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("order: catalog provider is required")
	}
	return &Service{
		orders:  cfg.Orders,
		catalog: cfg.Catalog,
		policy:  cfg.Policy,
		bus:     cfg.Bus,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		now:     time.Now,
	}, nil
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	s.now = now
}

// ItemInput names a product and a quantity. Prices never come from clients.
type ItemInput struct {
	Product string
	Qty     int
}

// CreateInput carries one order submission.
type CreateInput struct {
	Items         []ItemInput
	Shipping      store.ShippingAddress
	PaymentMethod string
}

// Order is the public order payload.
type Order struct {
	ID              string                `json:"id"`
	User            OrderUser             `json:"user"`
	OrderItems      []Item                `json:"orderItems"`
	ShippingAddress store.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	ItemsPrice      float64               `json:"itemsPrice"`
	TaxPrice        float64               `json:"taxPrice"`
	ShippingPrice   float64               `json:"shippingPrice"`
	TotalPrice      float64               `json:"totalPrice"`
	IsPaid          bool                  `json:"isPaid"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	IsDelivered     bool                  `json:"isDelivered"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	PaymentResult   *store.PaymentResult  `json:"paymentResult,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// OrderUser identifies the order's owner.
type OrderUser struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Item is one order line.
type Item struct {
	Product string  `json:"product"`
	Name    string  `json:"name"`
	Image   string  `json:"image"`
	Qty     int     `json:"qty"`
	Price   float64 `json:"price"`
}

// Create re-prices the cart against the catalog and persists the order.
func (s *Service) Create(ctx context.Context, caller common.Identity, in CreateInput) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, common.BadRequest("No order items")
	}
	uid, err := store.ToUUID(caller.ID)
	if err != nil {
		return Order{}, common.Unauthorized("unauthorized")
	}

	ids := make([]pgtype.UUID, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return Order{}, common.BadRequest("item quantity must be positive")
		}
		pid, err := store.ToUUID(it.Product)
		if err != nil {
			return Order{}, common.BadRequest("invalid product id")
		}
		ids = append(ids, pid)
	}
	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return Order{}, err
	}
	byID := make(map[string]store.Product, len(products))
	for _, p := range products {
		byID[store.UUIDString(p.ID)] = p
	}

	var (
		priced    []pricing.Item
		snapshots []store.OrderItem
	)
	for i, it := range in.Items {
		product, ok := byID[store.UUIDString(ids[i])]
		if !ok {
			return Order{}, common.BadRequest("Product not found: " + it.Product)
		}
		priced = append(priced, pricing.Item{Qty: it.Qty, UnitPrice: product.Price})
		snapshots = append(snapshots, store.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Qty:       it.Qty,
			UnitPrice: product.Price,
		})
	}

	summary := pricing.Compute(priced, s.policy)
	row, err := s.orders.CreateOrder(ctx, store.OrderInput{
		UserID:        uid,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		ItemsPrice:    summary.ItemsPrice,
		TaxPrice:      summary.TaxPrice,
		ShippingPrice: summary.ShippingPrice,
		TotalPrice:    summary.TotalPrice,
		Items:         snapshots,
	})
	if err != nil {
		return Order{}, err
	}
	if s.metrics != nil {
		s.metrics.Created.Inc()
	}
	order := toOrder(row, caller.Name, caller.Email)
	s.emit(ctx, events.TopicOrderCreated, order)
	s.log.Info().
		Str("order_id", order.ID).
		Str("user_id", caller.ID).
		Float64("total", order.TotalPrice).
		Int("items", len(order.OrderItems)).
		Msg("order created")
	return order, nil
}

// Get returns one order. Non-admin callers can only see their own.
func (s *Service) Get(ctx context.Context, caller common.Identity, id string) (Order, error) {
	row, err := s.byID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !caller.Admin && store.UUIDString(row.UserID) != caller.ID {
		return Order{}, common.Forbidden("not authorized to view this order")
	}
	return toOrder(row, row.UserName, row.UserEmail), nil
}

// PaymentInput carries the gateway outcome reported by the client.
type PaymentInput struct {
	ID         string
	Status     string
	UpdateTime string
	Email      string
}

// Pay marks the order paid. Re-paying a paid order is a no-op that returns
// the stored state.
func (s *Service) Pay(ctx context.Context, caller common.Identity, id string, payment PaymentInput) (Order, error) {
	row, err := s.byID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !caller.Admin && store.UUIDString(row.UserID) != caller.ID {
		return Order{}, common.Forbidden("not authorized to pay this order")
	}
	alreadyPaid := row.IsPaid
	updated, err := s.orders.MarkOrderPaid(ctx, row.ID, s.now().UTC(), store.PaymentResult{
		ID:         payment.ID,
		Status:     payment.Status,
		UpdateTime: payment.UpdateTime,
		Email:      payment.Email,
	})
	if err != nil {
		return Order{}, err
	}
	order := toOrder(updated, row.UserName, row.UserEmail)
	if !alreadyPaid {
		if s.metrics != nil {
			s.metrics.Paid.Inc()
		}
		s.emit(ctx, events.TopicOrderPaid, order)
		s.log.Info().Str("order_id", order.ID).Msg("order paid")
	}
	return order, nil
}

// Deliver marks the order delivered. Idempotent like Pay.
func (s *Service) Deliver(ctx context.Context, id string) (Order, error) {
	row, err := s.byID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	alreadyDelivered := row.IsDelivered
	updated, err := s.orders.MarkOrderDelivered(ctx, row.ID, s.now().UTC())
	if err != nil {
		return Order{}, err
	}
	order := toOrder(updated, row.UserName, row.UserEmail)
	if !alreadyDelivered {
		s.emit(ctx, events.TopicOrderDelivered, order)
		s.log.Info().Str("order_id", order.ID).Msg("order delivered")
	}
	return order, nil
}

// ListMine returns the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, caller common.Identity) ([]Order, error) {
	uid, err := store.ToUUID(caller.ID)
	if err != nil {
		return nil, common.Unauthorized("unauthorized")
	}
	rows, err := s.orders.ListOrdersByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, toOrder(row, caller.Name, caller.Email))
	}
	return orders, nil
}

// ListAll returns every order with owner identity, for the admin view.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	rows, err := s.orders.ListAllOrders(ctx)
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, toOrder(row, row.UserName, row.UserEmail))
	}
	return orders, nil
}

func (s *Service) byID(ctx context.Context, id string) (store.Order, error) {
	oid, err := store.ToUUID(id)
	if err != nil {
		return store.Order{}, common.NotFound("Order not found")
	}
	row, err := s.orders.GetOrder(ctx, oid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, common.NotFound("Order not found")
		}
		return store.Order{}, err
	}
	return row, nil
}

func (s *Service) emit(ctx context.Context, topic string, order Order) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, topic, order.ID, order); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Str("order_id", order.ID).Msg("event fan-out failed")
	}
}

func toOrder(row store.Order, userName, userEmail string) Order {
	items := make([]Item, 0, len(row.Items))
	for _, it := range row.Items {
		items = append(items, Item{
			Product: store.UUIDString(it.ProductID),
			Name:    it.Name,
			Image:   it.Image,
			Qty:     it.Qty,
			Price:   it.UnitPrice,
		})
	}
	order := Order{
		ID:              store.UUIDString(row.ID),
		User:            OrderUser{ID: store.UUIDString(row.UserID), Name: userName, Email: userEmail},
		OrderItems:      items,
		ShippingAddress: row.Shipping,
		PaymentMethod:   row.PaymentMethod,
		ItemsPrice:      row.ItemsPrice,
		TaxPrice:        row.TaxPrice,
		ShippingPrice:   row.ShippingPrice,
		TotalPrice:      row.TotalPrice,
		IsPaid:          row.IsPaid,
		PaidAt:          row.PaidAt,
		IsDelivered:     row.IsDelivered,
		DeliveredAt:     row.DeliveredAt,
		CreatedAt:       row.CreatedAt,
	}
	if row.Payment != (store.PaymentResult{}) {
		payment := row.Payment
		order.PaymentResult = &payment
	}
	return order
}
