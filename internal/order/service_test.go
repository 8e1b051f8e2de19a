package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/order"
	"github.com/satriajanaka/backend-mart/internal/pricing"
	"github.com/satriajanaka/backend-mart/internal/store"
)

type fakeOrderStore struct {
	orders map[string]*store.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*store.Order{}}
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, in store.OrderInput) (store.Order, error) {
	o := store.Order{
		ID:            store.NewUUID(),
		UserID:        in.UserID,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		ItemsPrice:    in.ItemsPrice,
		TaxPrice:      in.TaxPrice,
		ShippingPrice: in.ShippingPrice,
		TotalPrice:    in.TotalPrice,
		CreatedAt:     time.Now(),
	}
	for _, it := range in.Items {
		it.ID = store.NewUUID()
		it.OrderID = o.ID
		o.Items = append(o.Items, it)
	}
	stored := o
	f.orders[store.UUIDString(o.ID)] = &stored
	return o, nil
}

func (f *fakeOrderStore) GetOrder(_ context.Context, id pgtype.UUID) (store.Order, error) {
	o, ok := f.orders[store.UUIDString(id)]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	return *o, nil
}

func (f *fakeOrderStore) ListOrdersByUser(_ context.Context, userID pgtype.UUID) ([]store.Order, error) {
	var out []store.Order
	for _, o := range f.orders {
		if store.UUIDEqual(o.UserID, userID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListAllOrders(_ context.Context) ([]store.Order, error) {
	var out []store.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) MarkOrderPaid(_ context.Context, id pgtype.UUID, paidAt time.Time, payment store.PaymentResult) (store.Order, error) {
	o, ok := f.orders[store.UUIDString(id)]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	if !o.IsPaid {
		o.IsPaid = true
		o.PaidAt = &paidAt
		o.Payment = payment
	}
	return *o, nil
}

func (f *fakeOrderStore) MarkOrderDelivered(_ context.Context, id pgtype.UUID, deliveredAt time.Time) (store.Order, error) {
	o, ok := f.orders[store.UUIDString(id)]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	if !o.IsDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &deliveredAt
	}
	return *o, nil
}

type fakeCatalog struct {
	products []store.Product
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []pgtype.UUID) ([]store.Product, error) {
	var out []store.Product
	for _, p := range f.products {
		for _, id := range ids {
			if store.UUIDEqual(p.ID, id) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func newService(t *testing.T, orders *fakeOrderStore, cat *fakeCatalog) *order.Service {
	t.Helper()
	svc, err := order.NewService(order.ServiceConfig{
		Orders:  orders,
		Catalog: cat,
		Policy:  pricing.DefaultPolicy(),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func buyer() common.Identity {
	return common.Identity{ID: store.UUIDString(store.NewUUID()), Name: "John", Email: "john@example.com"}
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{})

	_, err := svc.Create(context.Background(), buyer(), order.CreateInput{})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.HTTPStatus)
	require.Equal(t, "No order items", appErr.Message)
}

func TestCreatePricesFromCatalog(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Headphones", Price: 25.50}
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{products: []store.Product{product}})

	created, err := svc.Create(context.Background(), buyer(), order.CreateInput{
		Items:         []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 1}},
		PaymentMethod: "PayPal",
	})
	require.NoError(t, err)
	require.Equal(t, 25.50, created.ItemsPrice)
	require.Equal(t, 10.0, created.ShippingPrice)
	require.Equal(t, 3.83, created.TaxPrice)
	require.Equal(t, 39.33, created.TotalPrice)
	require.Len(t, created.OrderItems, 1)
	require.Equal(t, "Headphones", created.OrderItems[0].Name)
	require.Equal(t, 25.50, created.OrderItems[0].Price)
	require.False(t, created.IsPaid)
	require.False(t, created.IsDelivered)
}

func TestCreateFreeShippingOverThreshold(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Camera", Price: 60}
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{products: []store.Product{product}})

	created, err := svc.Create(context.Background(), buyer(), order.CreateInput{
		Items: []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 120.0, created.ItemsPrice)
	require.Equal(t, 0.0, created.ShippingPrice)
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{})

	_, err := svc.Create(context.Background(), buyer(), order.CreateInput{
		Items: []order.ItemInput{{Product: store.UUIDString(store.NewUUID()), Qty: 1}},
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.HTTPStatus)
}

func TestPayIsIdempotent(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Mouse", Price: 49.99}
	orders := newFakeOrderStore()
	svc := newService(t, orders, &fakeCatalog{products: []store.Product{product}})

	owner := buyer()
	created, err := svc.Create(context.Background(), owner, order.CreateInput{
		Items: []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 1}},
	})
	require.NoError(t, err)

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return first })
	paid, err := svc.Pay(context.Background(), owner, created.ID, order.PaymentInput{
		ID: "PAY-1", Status: "COMPLETED", Email: "john@example.com",
	})
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, first, paid.PaidAt.UTC())
	require.Equal(t, "PAY-1", paid.PaymentResult.ID)

	svc.WithNow(func() time.Time { return first.Add(time.Hour) })
	again, err := svc.Pay(context.Background(), owner, created.ID, order.PaymentInput{
		ID: "PAY-2", Status: "COMPLETED",
	})
	require.NoError(t, err)
	require.Equal(t, first, again.PaidAt.UTC())
	require.Equal(t, "PAY-1", again.PaymentResult.ID)
}

func TestDeliverIsIdempotent(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Speaker", Price: 29.99}
	orders := newFakeOrderStore()
	svc := newService(t, orders, &fakeCatalog{products: []store.Product{product}})

	created, err := svc.Create(context.Background(), buyer(), order.CreateInput{
		Items: []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 1}},
	})
	require.NoError(t, err)

	first := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return first })
	delivered, err := svc.Deliver(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, delivered.IsDelivered)
	require.Equal(t, first, delivered.DeliveredAt.UTC())

	svc.WithNow(func() time.Time { return first.Add(time.Hour) })
	again, err := svc.Deliver(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, first, again.DeliveredAt.UTC())
}

func TestGetEnforcesOwnership(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Keyboard", Price: 79.99}
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{products: []store.Product{product}})

	owner := buyer()
	created, err := svc.Create(context.Background(), owner, order.CreateInput{
		Items: []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)

	stranger := buyer()
	_, err = svc.Get(context.Background(), stranger, created.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 403, appErr.HTTPStatus)

	admin := common.Identity{ID: store.UUIDString(store.NewUUID()), Admin: true}
	_, err = svc.Get(context.Background(), admin, created.ID)
	require.NoError(t, err)
}

func TestGetMissingOrder(t *testing.T) {
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{})

	_, err := svc.Get(context.Background(), buyer(), store.UUIDString(store.NewUUID()))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 404, appErr.HTTPStatus)
}

func TestListMineFiltersByOwner(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Charger", Price: 15}
	orders := newFakeOrderStore()
	svc := newService(t, orders, &fakeCatalog{products: []store.Product{product}})

	owner := buyer()
	other := buyer()
	for _, id := range []common.Identity{owner, owner, other} {
		_, err := svc.Create(context.Background(), id, order.CreateInput{
			Items: []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 1}},
		})
		require.NoError(t, err)
	}

	mine, err := svc.ListMine(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
}
