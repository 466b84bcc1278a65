// Package service holds the business logic between HTTP handlers and
// the repositories. Services validate input, enforce the rules of the
// domain, and decide which failures are fatal to a request and which
// merely get logged.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/auth"
	"github.com/adyanews/adyanews/internal/mail"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

const (
	verificationTTL = 24 * time.Hour
	resetTokenTTL   = 1 * time.Hour
)

// VerificationRequiredError signals that the account exists and the
// password was correct, but the email is not yet verified. A fresh
// verification code has already been issued and mailed when this is
// returned.
type VerificationRequiredError struct {
	Email string
}

func (e *VerificationRequiredError) Error() string {
	return "email verification required"
}

// Unwrap maps the error to the forbidden kind for transport-layer
// status mapping.
func (e *VerificationRequiredError) Unwrap() error {
	return apperror.ErrForbidden
}

// AuthService implements signup, login, email verification, and the
// password-reset flow.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    mail.Mailer
	clientURL string
	logger    *slog.Logger

	// now is swapped out in tests to pin code/token expiry windows.
	now func() time.Time
}

// NewAuthService wires an AuthService. clientURL is the browser app's
// base URL, used to build password-reset links.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer mail.Mailer,
	clientURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		clientURL: clientURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Signup registers a new, unverified account and emails a six-digit
// verification code. The session token is issued immediately so the
// client can poll check-auth, but protected resources stay closed until
// the email is verified.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*model.User, string, error) {
	if email == "" {
		return nil, "", apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, "", apperror.ValidationFailed("password", "password is required")
	}
	if name == "" {
		return nil, "", apperror.ValidationFailed("name", "name is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, "", apperror.ValidationFailed("password", err.Error())
	}

	code, err := verificationCode()
	if err != nil {
		return nil, "", fmt.Errorf("generating verification code: %w", err)
	}

	user := &model.User{
		Email:               email,
		PasswordHash:        hash,
		Name:                name,
		VerificationCode:    code,
		VerificationExpires: s.now().Add(verificationTTL),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}

	if err := s.sendVerificationMail(user); err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed up", "userID", user.ID)
	return user, token, nil
}

// Login authenticates an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller. An unverified account
// never yields a token: a fresh verification code is minted and mailed,
// and VerificationRequiredError is returned regardless of how recently
// the previous code was issued.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", apperror.Unauthorized("invalid credentials")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, "", apperror.Unauthorized("invalid credentials")
	}

	if !user.IsVerified {
		if err := s.reissueVerification(ctx, user); err != nil {
			return nil, "", err
		}
		return nil, "", &VerificationRequiredError{Email: user.Email}
	}

	user.LastLogin = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}

	s.logger.Info("user logged in", "userID", user.ID)
	return user, token, nil
}

// VerifyEmail consumes a six-digit verification code. The code is
// single-use: a successful verification clears it, so a second attempt
// with the same code fails. The welcome mail is best-effort.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*model.User, error) {
	user, err := s.users.GetByVerificationCode(ctx, code, s.now())
	if err != nil {
		return nil, apperror.InvalidOrExpired("verification code")
	}

	user.IsVerified = true
	user.VerificationCode = ""
	user.VerificationExpires = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if subject, body, err := mail.WelcomeMessage(user.Name); err == nil {
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			s.logger.Warn("welcome mail failed", "userID", user.ID, "error", err)
		}
	}

	s.logger.Info("email verified", "userID", user.ID)
	return user, nil
}

// ResendVerification mints and mails a fresh code for an unverified
// account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperror.ValidationFailed("email", "account is already verified")
	}
	return s.reissueVerification(ctx, user)
}

// ForgotPassword starts the reset flow. An unverified account is pushed
// back into the verification flow instead: there is no point resetting
// a password the user cannot log in with anyway.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if !user.IsVerified {
		if err := s.reissueVerification(ctx, user); err != nil {
			return err
		}
		return &VerificationRequiredError{Email: user.Email}
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}
	user.ResetToken = hex.EncodeToString(raw)
	user.ResetTokenExpires = s.now().Add(resetTokenTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/#/reset-password/%s", s.clientURL, user.ResetToken)
	subject, body, err := mail.ResetMessage(user.Name, link)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		return apperror.Upstream("mail", err)
	}

	s.logger.Info("password reset requested", "userID", user.ID)
	return nil
}

// ResetPassword consumes a reset token and replaces the password. The
// token is single-use. The confirmation mail is best-effort.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetByResetToken(ctx, token, s.now())
	if err != nil {
		return apperror.InvalidOrExpired("reset token")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetTokenExpires = time.Time{}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if subject, body, err := mail.ResetDoneMessage(user.Name); err == nil {
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			s.logger.Warn("reset confirmation mail failed", "userID", user.ID, "error", err)
		}
	}

	s.logger.Info("password reset", "userID", user.ID)
	return nil
}

// CheckAuth resolves a validated token's userID to the current account
// state.
func (s *AuthService) CheckAuth(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// LoginWithGitHub upserts an account from a GitHub profile and issues a
// session token. OAuth accounts are verified from the start; GitHub has
// already confirmed the email.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, string, error) {
	user, err := s.users.GetByGitHubID(ctx, gh.ID)
	switch {
	case err == nil:
		user.Name = displayName(gh)
		user.ProfilePhoto = gh.AvatarURL
		user.LastLogin = s.now()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, "", err
		}
	case errors.Is(err, apperror.ErrNotFound):
		email := gh.Email
		if email == "" {
			// GitHub hides the address when the user opts out; the
			// noreply alias keeps the email column unique and non-empty.
			email = fmt.Sprintf("%s@users.noreply.github.com", gh.Login)
		}
		user = &model.User{
			Email:        email,
			Name:         displayName(gh),
			ProfilePhoto: gh.AvatarURL,
			GitHubID:     gh.ID,
			IsVerified:   true,
			LastLogin:    s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", err
		}
	default:
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}

	s.logger.Info("user logged in via GitHub", "userID", user.ID)
	return user, token, nil
}

func displayName(gh *auth.GitHubUser) string {
	if gh.Name != "" {
		return gh.Name
	}
	return gh.Login
}

// reissueVerification mints a fresh code, persists it, and mails it.
// The mail is load-bearing here: without it the user is stuck, so a
// send failure is fatal to the request.
func (s *AuthService) reissueVerification(ctx context.Context, user *model.User) error {
	code, err := verificationCode()
	if err != nil {
		return fmt.Errorf("generating verification code: %w", err)
	}
	user.VerificationCode = code
	user.VerificationExpires = s.now().Add(verificationTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.sendVerificationMail(user)
}

func (s *AuthService) sendVerificationMail(user *model.User) error {
	subject, body, err := mail.VerificationMessage(user.Name, user.VerificationCode)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		return apperror.Upstream("mail", err)
	}
	return nil
}

// verificationCode returns a random six-digit code, 100000 to 999999.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
