package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
)

// fakeUsers backs RequireAdmin with a single fixed user.
type fakeUsers struct {
	user *model.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUsers) Create(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, apperror.NotFound("user", email)
}
func (f *fakeUsers) GetByVerificationCode(ctx context.Context, code string, now time.Time) (*model.User, error) {
	return nil, apperror.NotFound("user", code)
}
func (f *fakeUsers) GetByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return nil, apperror.NotFound("user", token)
}
func (f *fakeUsers) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return nil, apperror.NotFound("user", "github")
}
func (f *fakeUsers) Update(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUsers) Delete(ctx context.Context, id string) error        { return nil }
func (f *fakeUsers) List(ctx context.Context) ([]model.User, error)     { return nil, nil }

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	return body
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingTokenIsJSONUnauthorized(t *testing.T) {
	guard := RequireAuth(newTestTokenService(t))(okHandler())

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body["error"] != "unauthorized" {
		t.Errorf(`body["error"] = %q, want "unauthorized"`, body["error"])
	}
}

func TestRequireAuth_ValidTokenPasses(t *testing.T) {
	tokens := newTestTokenService(t)
	token, err := tokens.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var gotUserID string
	guard := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID in context = %q, want user-1", gotUserID)
	}
}

func TestRequireAdmin_NonAdminIsJSONForbidden(t *testing.T) {
	users := &fakeUsers{user: &model.User{ID: "user-1", Role: model.RoleUser}}
	guard := RequireAdmin(users)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body["error"] != "forbidden" {
		t.Errorf(`body["error"] = %q, want "forbidden"`, body["error"])
	}
}

func TestRequireAdmin_MissingUserIsJSONUnauthorized(t *testing.T) {
	guard := RequireAdmin(&fakeUsers{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithUserID(req.Context(), "ghost"))
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	decodeErrorBody(t, rec)
}

func TestRequireAdmin_AdminPasses(t *testing.T) {
	users := &fakeUsers{user: &model.User{ID: "admin-1", Role: model.RoleAdmin}}
	guard := RequireAdmin(users)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithUserID(req.Context(), "admin-1"))
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
