package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/store"
)

// Handler exposes HTTP handlers for order endpoints.
type Handler struct {
	Service *Service
}

type itemRequest struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
}

type createRequest struct {
	OrderItems      []itemRequest         `json:"orderItems"`
	ShippingAddress store.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
}

type payRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// Create handles POST /api/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	items := make([]ItemInput, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, ItemInput{Product: it.Product, Qty: it.Qty})
	}
	order, err := h.Service.Create(r.Context(), caller, CreateInput{
		Items:         items,
		Shipping:      req.ShippingAddress,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, order)
}

// ListMine handles GET /api/orders/myorders.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	orders, err := h.Service.ListMine(r.Context(), caller)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	order, err := h.Service.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, order)
}

// Pay handles PUT /api/orders/{id}/pay.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	order, err := h.Service.Pay(r.Context(), caller, chi.URLParam(r, "id"), PaymentInput{
		ID:         req.ID,
		Status:     req.Status,
		UpdateTime: req.UpdateTime,
		Email:      req.Payer.EmailAddress,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, order)
}

// Deliver handles PUT /api/orders/{id}/deliver.
func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.Deliver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, order)
}

// ListAll handles GET /api/orders (admin).
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListAll(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, orders)
}
