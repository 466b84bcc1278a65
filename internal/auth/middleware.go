package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so
// no other package can read or shadow the values we store.
type contextKey string

const userIDKey contextKey = "userID"

// ExtractToken pulls the bearer credential from a request: the
// Authorization header is checked first, then the legacy "token" cookie.
// Returns "" when neither is present. How the token arrived is a
// transport concern only; validation treats both identically.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return ""
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth enforces authentication on protected routes. It validates
// the bearer token and stores the userID in the request context. Every
// decode failure (absent, malformed, bad signature, expired) maps
// uniformly to 401 so a probing client learns nothing.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				unauthorized(w, "no token provided")
				return
			}

			userID, err := tokens.Validate(token)
			if err != nil {
				unauthorized(w, "valid authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is the compound guard layered after RequireAuth: the user
// must still exist (401 otherwise) and hold the admin role (403 otherwise).
func RequireAdmin(users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				unauthorized(w, "valid authentication required")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				unauthorized(w, "unauthorized access")
				return
			}

			if user.Role != model.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "forbidden", "admin privileges required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the given userID. Test helper.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusUnauthorized, "unauthorized", message)
}

// writeAuthError emits the same JSON error shape the handler layer uses,
// with the content type set so clients parsing by type handle it.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
