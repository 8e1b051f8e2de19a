package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/satriajanaka/backend-mart/internal/common"
)

// Handler exposes HTTP handlers for product and category endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type productCreateRequest struct {
	Name         string  `json:"name" validate:"required"`
	Image        string  `json:"image"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"gte=0"`
	CountInStock int     `json:"countInStock" validate:"gte=0"`
}

type productUpdateRequest struct {
	Name         *string  `json:"name"`
	Image        *string  `json:"image"`
	Brand        *string  `json:"brand"`
	Category     *string  `json:"category"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	CountInStock *int     `json:"countInStock" validate:"omitempty,gte=0"`
}

type categoryCreateRequest struct {
	Name string `json:"name" validate:"required"`
}

// List handles GET /api/products. It honours the storefront's keyword and
// pageNumber query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	page := common.ParsePageNumber(r)
	result, err := h.Service.List(r.Context(), keyword, page)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, result)
}

// Get handles GET /api/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	var req productCreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	product, err := h.Service.Create(r.Context(), userID, CreateInput{
		Name:         req.Name,
		Image:        req.Image,
		Brand:        req.Brand,
		Category:     req.Category,
		Description:  req.Description,
		Price:        req.Price,
		CountInStock: req.CountInStock,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}. Absent fields are left as stored;
// present fields apply even when zero.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req productUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	product, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), Patch{
		Name:         req.Name,
		Image:        req.Image,
		Brand:        req.Brand,
		Category:     req.Category,
		Description:  req.Description,
		Price:        req.Price,
		CountInStock: req.CountInStock,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}

// Categories handles GET /api/category.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.Categories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, categories)
}

// AddCategory handles POST /api/category/addcategory.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryCreateRequest
	if !h.decode(w, r, &req) {
		return
	}
	category, err := h.Service.AddCategory(r.Context(), req.Name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, category)
}

// DeleteCategory handles DELETE /api/category/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "category removed"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "invalid request payload")
			return false
		}
	}
	return true
}
