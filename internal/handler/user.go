package handler

import (
	"log/slog"
	"net/http"

	"github.com/adyanews/adyanews/internal/auth"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/service"
)

// UserHandler exposes the authenticated user's profile operations.
type UserHandler struct {
	users  *service.UserService
	feeds  *service.FeedService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, feeds *service.FeedService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, feeds: feeds, logger: logger}
}

// requireUserID extracts the authenticated userID; on a protected route
// this only fails if the middleware is miswired.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return "", false
	}
	return userID, true
}

// HandleGetProfile returns the user's profile.
//
// HTTP: GET /api/user/profile (protected)
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// HandleUpdateProfile applies a partial profile update.
//
// HTTP: PUT /api/user/profile (protected)
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name          *string              `json:"name"`
		Email         *string              `json:"email"`
		Language      *string              `json:"language"`
		Interests     []string             `json:"interests"`
		Notifications *model.Notifications `json:"notifications"`
		PhoneNumber   *string              `json:"phoneNumber"`
		Address       *string              `json:"address"`
		ProfilePhoto  *string              `json:"profilePhoto"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Name:          req.Name,
		Email:         req.Email,
		Language:      req.Language,
		Interests:     req.Interests,
		Notifications: req.Notifications,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		ProfilePhoto:  req.ProfilePhoto,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// HandleUpdateLanguage sets the preferred news language.
//
// HTTP: PUT /api/user/language (protected)
func (h *UserHandler) HandleUpdateLanguage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateLanguage(r.Context(), userID, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// HandleUpdateInterests replaces the interest list.
//
// HTTP: PUT /api/user/interests (protected)
func (h *UserHandler) HandleUpdateInterests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Interests []string `json:"interests"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateInterests(r.Context(), userID, req.Interests)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// HandleDeleteAccount removes the account, its saved articles, and any
// in-memory feed session.
//
// HTTP: DELETE /api/user (protected)
func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	h.feeds.DropSession(userID)
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
