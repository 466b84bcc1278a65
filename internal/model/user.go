// Package model defines the data structures used throughout the application.
package model

import "time"

// Notifications holds a user's notification preference flags.
type Notifications struct {
	Email      bool `json:"email"`
	Push       bool `json:"push"`
	Newsletter bool `json:"newsletter"`
}

// DefaultNotifications matches the defaults applied at signup.
func DefaultNotifications() Notifications {
	return Notifications{Email: true, Push: true, Newsletter: false}
}

// User represents a registered account with its news preferences.
//
// PasswordHash and the verification/reset fields are internal state and are
// never serialized to a client; Sanitized() produces the outward view.
//
// GitHubID is non-zero only for accounts created through the OAuth sign-in
// path; those accounts are verified from the start since GitHub already
// confirmed the email.
type User struct {
	ID                   string
	Email                string
	PasswordHash         string
	Name                 string
	ProfilePhoto         string
	Language             string // ISO code, default "en"
	HasSelectedLanguage  bool
	Interests            []string
	HasSelectedInterests bool
	PhoneNumber          string
	Address              string
	LastLogin            time.Time
	IsVerified           bool
	VerificationCode     string
	VerificationExpires  time.Time
	ResetToken           string
	ResetTokenExpires    time.Time
	Role                 string // "user" or "admin"
	Notifications        Notifications
	GitHubID             int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is an assignable role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// UserView is the sanitized representation returned to clients.
// No password hash, no verification code, no reset token.
type UserView struct {
	ID                   string        `json:"id"`
	Email                string        `json:"email"`
	Name                 string        `json:"name"`
	ProfilePhoto         string        `json:"profilePhoto,omitempty"`
	Language             string        `json:"language"`
	HasSelectedLanguage  bool          `json:"hasSelectedLanguage"`
	Interests            []string      `json:"interests"`
	HasSelectedInterests bool          `json:"hasSelectedInterests"`
	PhoneNumber          string        `json:"phoneNumber,omitempty"`
	Address              string        `json:"address,omitempty"`
	LastLogin            time.Time     `json:"lastLogin"`
	IsVerified           bool          `json:"isVerified"`
	Role                 string        `json:"role"`
	Notifications        Notifications `json:"notifications"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Sanitized strips the secret-bearing fields for client consumption.
func (u *User) Sanitized() UserView {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserView{
		ID:                   u.ID,
		Email:                u.Email,
		Name:                 u.Name,
		ProfilePhoto:         u.ProfilePhoto,
		Language:             u.Language,
		HasSelectedLanguage:  u.HasSelectedLanguage,
		Interests:            interests,
		HasSelectedInterests: u.HasSelectedInterests,
		PhoneNumber:          u.PhoneNumber,
		Address:              u.Address,
		LastLogin:            u.LastLogin,
		IsVerified:           u.IsVerified,
		Role:                 u.Role,
		Notifications:        u.Notifications,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}
