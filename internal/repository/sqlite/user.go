package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository on the shared connection.
type UserStore struct {
	db *DB
}

// Users returns the user accounts store.
func (db *DB) Users() *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, password_hash, name, profile_photo, language,
	has_selected_language, interests, has_selected_interests, phone_number,
	address, last_login, is_verified, verification_code, verification_expires,
	reset_token, reset_token_expires, role, notify_email, notify_push,
	notify_newsletter, github_id, created_at, updated_at`

// Create inserts a new user. The unique index on email serializes
// concurrent signups; the loser gets a duplicate error rather than a
// corrupted row.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.LastLogin.IsZero() {
		user.LastLogin = now
	}
	if user.Language == "" {
		user.Language = "en"
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	interests, err := json.Marshal(nonNil(user.Interests))
	if err != nil {
		return fmt.Errorf("sqlite: encoding interests: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.ProfilePhoto,
		user.Language,
		user.HasSelectedLanguage,
		string(interests),
		user.HasSelectedInterests,
		user.PhoneNumber,
		user.Address,
		user.LastLogin,
		user.IsVerified,
		user.VerificationCode,
		nullTime(user.VerificationExpires),
		user.ResetToken,
		nullTime(user.ResetTokenExpires),
		user.Role,
		user.Notifications.Email,
		user.Notifications.Push,
		user.Notifications.Newsletter,
		nullInt64(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("user already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by exact email. The comparison is
// byte-exact; no case folding is applied.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

// GetByVerificationCode finds the user holding an unexpired verification
// code. Expiry is enforced in the query so an expired code behaves exactly
// like an absent one.
func (s *UserStore) GetByVerificationCode(ctx context.Context, code string, now time.Time) (*model.User, error) {
	if code == "" {
		return nil, apperror.NotFound("user", "")
	}
	return s.getUser(ctx,
		`WHERE verification_code = ? AND verification_expires > ?`, code, now)
}

// GetByResetToken finds the user holding an unexpired reset token.
func (s *UserStore) GetByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	if token == "" {
		return nil, apperror.NotFound("user", "")
	}
	return s.getUser(ctx,
		`WHERE reset_token = ? AND reset_token_expires > ?`, token, now)
}

// GetByGitHubID retrieves a user by their GitHub account id.
func (s *UserStore) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return s.getUser(ctx, `WHERE github_id = ?`, githubID)
}

func (s *UserStore) getUser(ctx context.Context, where string, args ...any) (*model.User, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, args...)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(args[0]))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return u, nil
}

// Update persists every mutable field of the user row.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	interests, err := json.Marshal(nonNil(user.Interests))
	if err != nil {
		return fmt.Errorf("sqlite: encoding interests: %w", err)
	}

	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE users SET
			email = ?, password_hash = ?, name = ?, profile_photo = ?,
			language = ?, has_selected_language = ?, interests = ?,
			has_selected_interests = ?, phone_number = ?, address = ?,
			last_login = ?, is_verified = ?, verification_code = ?,
			verification_expires = ?, reset_token = ?, reset_token_expires = ?,
			role = ?, notify_email = ?, notify_push = ?, notify_newsletter = ?,
			github_id = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.ProfilePhoto,
		user.Language,
		user.HasSelectedLanguage,
		string(interests),
		user.HasSelectedInterests,
		user.PhoneNumber,
		user.Address,
		user.LastLogin,
		user.IsVerified,
		user.VerificationCode,
		nullTime(user.VerificationExpires),
		user.ResetToken,
		nullTime(user.ResetTokenExpires),
		user.Role,
		user.Notifications.Email,
		user.Notifications.Push,
		user.Notifications.Newsletter,
		nullInt64(user.GitHubID),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("email already in use")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes the user and all their saved articles in one transaction,
// so a crash cannot leave orphaned bookmarks behind.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM saved_articles WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting saved articles for user %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user delete: %w", err)
	}
	return nil
}

// List returns every user, newest first. Admin-panel use only.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u                  model.User
		interests          string
		verificationExpiry sql.NullTime
		resetExpiry        sql.NullTime
		githubID           sql.NullInt64
	)

	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.ProfilePhoto,
		&u.Language,
		&u.HasSelectedLanguage,
		&interests,
		&u.HasSelectedInterests,
		&u.PhoneNumber,
		&u.Address,
		&u.LastLogin,
		&u.IsVerified,
		&u.VerificationCode,
		&verificationExpiry,
		&u.ResetToken,
		&resetExpiry,
		&u.Role,
		&u.Notifications.Email,
		&u.Notifications.Push,
		&u.Notifications.Newsletter,
		&githubID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(interests), &u.Interests); err != nil {
		return nil, fmt.Errorf("decoding interests: %w", err)
	}
	if verificationExpiry.Valid {
		u.VerificationExpires = verificationExpiry.Time
	}
	if resetExpiry.Valid {
		u.ResetTokenExpires = resetExpiry.Time
	}
	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}

	return &u, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
