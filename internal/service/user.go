package service

import (
	"context"
	"log/slog"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

// UserService manages profile data for the authenticated user.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// ProfileUpdate carries the optional profile fields of an update
// request. Nil pointers mean "leave unchanged".
type ProfileUpdate struct {
	Name          *string
	Email         *string
	Language      *string
	Interests     []string
	Notifications *model.Notifications
	PhoneNumber   *string
	Address       *string
	ProfilePhoto  *string
}

// GetProfile returns the user's full profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies a partial update. Only the fields present in the
// request change; everything else is preserved.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
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
	if upd.Language != nil {
		user.Language = *upd.Language
	}
	if upd.Interests != nil {
		user.Interests = upd.Interests
	}
	if upd.Notifications != nil {
		user.Notifications = *upd.Notifications
	}
	if upd.PhoneNumber != nil {
		user.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Address != nil {
		user.Address = *upd.Address
	}
	if upd.ProfilePhoto != nil {
		user.ProfilePhoto = *upd.ProfilePhoto
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLanguage sets the preferred news language and marks the choice
// as made, which dismisses the onboarding prompt.
func (s *UserService) UpdateLanguage(ctx context.Context, userID, language string) (*model.User, error) {
	if language == "" {
		return nil, apperror.ValidationFailed("language", "language is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Language = language
	user.HasSelectedLanguage = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateInterests replaces the interest list. The list must be
// non-empty; duplicates are dropped while preserving first-seen order.
func (s *UserService) UpdateInterests(ctx context.Context, userID string, interests []string) (*model.User, error) {
	if len(interests) == 0 {
		return nil, apperror.ValidationFailed("interests", "at least one interest is required")
	}

	seen := make(map[string]struct{}, len(interests))
	deduped := make([]string, 0, len(interests))
	for _, in := range interests {
		if _, dup := seen[in]; dup || in == "" {
			continue
		}
		seen[in] = struct{}{}
		deduped = append(deduped, in)
	}
	if len(deduped) == 0 {
		return nil, apperror.ValidationFailed("interests", "at least one interest is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Interests = deduped
	user.HasSelectedInterests = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and every saved article in one
// transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deleted", "userID", userID)
	return nil
}
