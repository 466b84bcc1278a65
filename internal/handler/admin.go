package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adyanews/adyanews/internal/service"
)

// AdminHandler exposes the dashboard's user management and statistics
// endpoints. Every route is behind RequireAuth + RequireAdmin.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HandleListUsers returns every account, sanitized.
//
// HTTP: GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleUserStats returns account totals, the 30-day signup series, and
// top interests.
//
// HTTP: GET /api/admin/stats/users
func (h *AdminHandler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.UserStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleContentStats returns saved-article totals, per-category counts,
// and top tags.
//
// HTTP: GET /api/admin/stats/content
func (h *AdminHandler) HandleContentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.ContentStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleUpdateUser applies a partial account update. Passwords cannot be
// changed through this route.
//
// HTTP: PUT /api/admin/users/{userId}
func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       *string `json:"name"`
		Email      *string `json:"email"`
		IsVerified *bool   `json:"isVerified"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.admin.UpdateUser(r.Context(), chi.URLParam(r, "userId"), service.AdminUserUpdate{
		Name:       req.Name,
		Email:      req.Email,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// HandleDeleteUser removes an account and its saved articles.
//
// HTTP: DELETE /api/admin/users/{userId}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), chi.URLParam(r, "userId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// HandleSetRole grants or revokes the admin role.
//
// HTTP: PATCH /api/admin/users/{userId}/role
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.admin.SetRole(r.Context(), chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}
