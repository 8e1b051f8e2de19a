package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/order"
	"github.com/satriajanaka/backend-mart/internal/store"
)

func TestCreateHandler(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Headphones", Price: 25.50}
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{products: []store.Product{product}})
	handler := &order.Handler{Service: svc}

	body := `{
		"orderItems": [{"product": "` + store.UUIDString(product.ID) + `", "qty": 1}],
		"shippingAddress": {"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US"},
		"paymentMethod": "PayPal"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req = req.WithContext(common.WithIdentity(req.Context(), buyer()))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, 39.33, created.TotalPrice)
	require.Equal(t, "1 Main St", created.ShippingAddress.Address)
	require.Equal(t, "PayPal", created.PaymentMethod)
}

func TestCreateHandlerEmptyCart(t *testing.T) {
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{})
	handler := &order.Handler{Service: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"orderItems": []}`))
	req = req.WithContext(common.WithIdentity(req.Context(), buyer()))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "No order items", body.Message)
}

func TestCreateHandlerRequiresAuth(t *testing.T) {
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{})
	handler := &order.Handler{Service: svc}

	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPayHandlerReadsGatewayShape(t *testing.T) {
	product := store.Product{ID: store.NewUUID(), Name: "Mouse", Price: 49.99}
	svc := newService(t, newFakeOrderStore(), &fakeCatalog{products: []store.Product{product}})
	handler := &order.Handler{Service: svc}

	owner := buyer()
	created, err := svc.Create(context.Background(), owner, order.CreateInput{
		Items: []order.ItemInput{{Product: store.UUIDString(product.ID), Qty: 1}},
	})
	require.NoError(t, err)

	body := `{
		"id": "PAYID-123",
		"status": "COMPLETED",
		"update_time": "2026-03-01T09:00:00Z",
		"payer": {"email_address": "payer@example.com"}
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+created.ID+"/pay", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", created.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	req = req.WithContext(common.WithIdentity(req.Context(), owner))
	rec := httptest.NewRecorder()
	handler.Pay(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var paid order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	require.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaymentResult)
	require.Equal(t, "PAYID-123", paid.PaymentResult.ID)
	require.Equal(t, "payer@example.com", paid.PaymentResult.Email)
}
