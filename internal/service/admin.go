package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

// signupWindow is how far back the per-day signup series reaches.
const signupWindow = 30 * 24 * time.Hour

// AdminService backs the admin dashboard: user management and
// aggregate statistics.
type AdminService struct {
	users  repository.UserRepository
	stats  repository.StatsRepository
	logger *slog.Logger

	now func() time.Time
}

func NewAdminService(users repository.UserRepository, stats repository.StatsRepository, logger *slog.Logger) *AdminService {
	return &AdminService{users: users, stats: stats, logger: logger, now: time.Now}
}

// ListUsers returns every account, sanitized. Password hashes and
// pending codes never leave the service layer.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]model.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].Sanitized())
	}
	return views, nil
}

// UserStats aggregates account counts and the signup series for the
// last 30 days.
func (s *AdminService) UserStats(ctx context.Context) (*repository.UserStats, error) {
	return s.stats.UserStats(ctx, s.now().Add(-signupWindow))
}

// ContentStats aggregates saved-article counts across all users.
func (s *AdminService) ContentStats(ctx context.Context) (*repository.ContentStats, error) {
	return s.stats.ContentStats(ctx)
}

// AdminUserUpdate carries the account fields an admin may change.
// Passwords are deliberately absent: resets go through the user-facing
// flow so the owner is always notified.
type AdminUserUpdate struct {
	Name       *string
	Email      *string
	IsVerified *bool
}

// UpdateUser applies a partial account update on behalf of an admin.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, upd AdminUserUpdate) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.IsVerified != nil {
		user.IsVerified = *upd.IsVerified
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("admin updated user", "userID", userID)
	return user, nil
}

// DeleteUser removes an account and its saved articles.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("admin deleted user", "userID", userID)
	return nil
}

// SetRole grants or revokes the admin role.
func (s *AdminService) SetRole(ctx context.Context, userID, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, apperror.ValidationFailed("role", "invalid role")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("admin changed role", "userID", userID, "role", role)
	return user, nil
}
