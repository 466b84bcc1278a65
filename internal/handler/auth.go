package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/adyanews/adyanews/internal/auth"
	"github.com/adyanews/adyanews/internal/service"
)

// AuthHandler exposes signup, login, verification, and the
// password-reset flow, plus GitHub OAuth as an alternative sign-in.
type AuthHandler struct {
	auths     *service.AuthService
	github    *auth.GitHubProvider // nil when OAuth is not configured
	clientURL string
	logger    *slog.Logger
}

func NewAuthHandler(auths *service.AuthService, github *auth.GitHubProvider, clientURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auths: auths, github: github, clientURL: clientURL, logger: logger}
}

// setSessionCookie stores the JWT in the legacy cookie transport.
// HttpOnly keeps it away from scripts; SPA clients that prefer the
// bearer header get the token in the response body too.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeAuthError handles the one auth error that needs extra payload:
// an unverified account, where the client must know which email to show
// on the verification screen.
func writeAuthError(w http.ResponseWriter, err error) {
	var verr *service.VerificationRequiredError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":             "verification_required",
			"message":           "please verify your email address",
			"needsVerification": true,
			"email":             verr.Email,
		})
		return
	}
	writeError(w, err)
}

// HandleSignup registers a new account.
//
// HTTP: POST /api/auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.auths.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "verification code sent",
		"user":    user.Sanitized(),
		"token":   token,
	})
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user.Sanitized(),
		"token": token,
	})
}

// HandleLogout clears the session cookie. The JWT itself stays valid
// until expiry; without the cookie the browser can no longer send it.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleVerifyEmail consumes a six-digit verification code.
//
// HTTP: POST /api/auth/verify-email
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auths.VerifyEmail(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "email verified",
		"user":    user.Sanitized(),
	})
}

// HandleResendVerification mails a fresh code to an unverified account.
//
// HTTP: POST /api/auth/resend-verification
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auths.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

// HandleForgotPassword starts the password-reset flow.
//
// HTTP: POST /api/auth/forgot-password
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auths.ForgotPassword(r.Context(), req.Email); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset link sent"})
}

// HandleResetPassword consumes a reset token from the emailed link.
//
// HTTP: POST /api/auth/reset-password/{token}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auths.ResetPassword(r.Context(), token, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successful"})
}

// HandleCheckAuth returns the authenticated user's current account
// state. The SPA calls this on load to restore the session.
//
// HTTP: GET /api/auth/check-auth (protected)
func (h *AuthHandler) HandleCheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.auths.CheckAuth(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization
// page. The random state cookie is verified on callback (CSRF check).
//
// HTTP: GET /api/auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "oauth_disabled", Message: "GitHub sign-in is not configured"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify state, exchange
// the code, upsert the account, set the session cookie, and bounce back
// to the app.
//
// HTTP: GET /api/auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "oauth_disabled", Message: "GitHub sign-in is not configured"})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.clientURL+"/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing_code", Message: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "authentication failed"})
		return
	}

	_, token, err := h.auths.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth callback: login failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "authentication failed"})
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, h.clientURL, http.StatusSeeOther)
}
