package user

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/satriajanaka/backend-mart/internal/common"
)

// Handler exposes HTTP handlers for account endpoints.
type Handler struct {
	Service        *Service
	Validate       *validator.Validate
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

type adminUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" validate:"omitempty,email"`
	IsAdmin *bool   `json:"isAdmin"`
}

type authedUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

// Register handles POST /api/users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setAuthCookie(w, result)
	common.JSON(w, http.StatusCreated, toAuthed(result))
}

// Login handles POST /api/users/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setAuthCookie(w, result)
	common.JSON(w, http.StatusOK, toAuthed(result))
}

// Logout handles POST /api/users/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	common.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Profile handles GET /api/users/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	user, err := h.Service.Profile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
		return
	}
	var req profileUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), userID, ProfilePatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, user)
}

// List handles GET /api/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	users, total, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"users": users,
		"page":  page,
		"pages": common.PageCount(total, perPage),
		"total": total,
	})
}

// Get handles GET /api/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.Service.AdminUpdate(r.Context(), chi.URLParam(r, "id"), AdminPatch{
		Name:    req.Name,
		Email:   req.Email,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "user removed"})
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

func (h *Handler) setAuthCookie(w http.ResponseWriter, result LoginResult) {
	if h.CookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    result.Token,
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  result.Expiry,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	if h.CookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}

func toAuthed(result LoginResult) authedUser {
	return authedUser{
		ID:      result.User.ID,
		Name:    result.User.Name,
		Email:   result.User.Email,
		IsAdmin: result.User.IsAdmin,
		Token:   result.Token,
	}
}
