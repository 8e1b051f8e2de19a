package reviews

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/satriajanaka/backend-mart/internal/common"
)

// Handler exposes the review submission endpoint.
type Handler struct {
	Service *Service
}

type createRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create handles POST /api/products/{id}/reviews.
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
	err := h.Service.Add(r.Context(), chi.URLParam(r, "id"), caller, Input{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]string{"message": "Review added"})
}
