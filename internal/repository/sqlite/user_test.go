package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser(email string) *model.User {
	return &model.User{
		Email:         email,
		PasswordHash:  "$2a$04$notarealhash",
		Name:          "Test User",
		Interests:     []string{"technology", "science"},
		Notifications: model.DefaultNotifications(),
	}
}

func TestUserCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	u := testUser("alice@example.com")
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatal("Create did not stamp timestamps")
	}
	if u.Language != "en" {
		t.Fatalf("default language = %q, want en", u.Language)
	}
	if u.Role != model.RoleUser {
		t.Fatalf("default role = %q, want user", u.Role)
	}

	got, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "alice@example.com" || got.Name != "Test User" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if len(got.Interests) != 2 || got.Interests[0] != "technology" {
		t.Fatalf("interests = %v, want [technology science]", got.Interests)
	}
	if !got.Notifications.Email || !got.Notifications.Push || got.Notifications.Newsletter {
		t.Fatalf("notifications = %+v, want defaults", got.Notifications)
	}

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("GetByEmail returned id %s, want %s", byEmail.ID, u.ID)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	if err := users.Create(ctx, testUser("dup@example.com")); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	err := users.Create(ctx, testUser("dup@example.com"))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Create error = %v, want ErrConflict", err)
	}
}

func TestUserGetNotFound(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	if _, err := users.GetByID(ctx, "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
	if _, err := users.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByEmail error = %v, want ErrNotFound", err)
	}
}

func TestGetByVerificationCode(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()
	now := time.Now().UTC()

	u := testUser("verify@example.com")
	u.VerificationCode = "482913"
	u.VerificationExpires = now.Add(24 * time.Hour)
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := users.GetByVerificationCode(ctx, "482913", now)
	if err != nil {
		t.Fatalf("GetByVerificationCode: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("got user %s, want %s", got.ID, u.ID)
	}

	// The same code is invisible once its expiry has passed.
	if _, err := users.GetByVerificationCode(ctx, "482913", now.Add(25*time.Hour)); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expired code error = %v, want ErrNotFound", err)
	}

	if _, err := users.GetByVerificationCode(ctx, "999999", now); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("wrong code error = %v, want ErrNotFound", err)
	}

	// An empty code must never match the rows that store "".
	if _, err := users.GetByVerificationCode(ctx, "", now); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("empty code error = %v, want ErrNotFound", err)
	}
}

func TestGetByResetToken(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()
	now := time.Now().UTC()

	u := testUser("reset@example.com")
	u.ResetToken = "a1b2c3d4e5f60718293a4b5c6d7e8f9001122334"
	u.ResetTokenExpires = now.Add(time.Hour)
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := users.GetByResetToken(ctx, u.ResetToken, now)
	if err != nil {
		t.Fatalf("GetByResetToken: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("got user %s, want %s", got.ID, u.ID)
	}

	if _, err := users.GetByResetToken(ctx, u.ResetToken, now.Add(2*time.Hour)); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expired token error = %v, want ErrNotFound", err)
	}
	if _, err := users.GetByResetToken(ctx, "", now); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("empty token error = %v, want ErrNotFound", err)
	}
}

func TestGetByGitHubID(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	u := testUser("gh@example.com")
	u.GitHubID = 12345
	u.IsVerified = true
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := users.GetByGitHubID(ctx, 12345)
	if err != nil {
		t.Fatalf("GetByGitHubID: %v", err)
	}
	if got.ID != u.ID || !got.IsVerified {
		t.Fatalf("got %+v, want verified user %s", got, u.ID)
	}

	if _, err := users.GetByGitHubID(ctx, 99999); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("unknown github id error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	u := testUser("before@example.com")
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u.Name = "Renamed"
	u.Email = "after@example.com"
	u.Language = "fr"
	u.HasSelectedLanguage = true
	u.Interests = []string{"sports"}
	if err := users.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Name != "Renamed" || got.Email != "after@example.com" || got.Language != "fr" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if len(got.Interests) != 1 || got.Interests[0] != "sports" {
		t.Fatalf("interests = %v, want [sports]", got.Interests)
	}
}

func TestUserUpdateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	if err := users.Create(ctx, testUser("taken@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	u := testUser("free@example.com")
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u.Email = "taken@example.com"
	if err := users.Update(ctx, u); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Update error = %v, want ErrConflict", err)
	}
}

func TestUserUpdateMissing(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()

	ghost := testUser("ghost@example.com")
	ghost.ID = "no-such-id"
	if err := users.Update(context.Background(), ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update error = %v, want ErrNotFound", err)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	saved := db.SavedArticles()
	ctx := context.Background()

	u := testUser("doomed@example.com")
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	art := &model.SavedArticle{
		UserID:      u.ID,
		ArticleID:   "ext-1",
		Title:       "Kept article",
		PublishDate: time.Now().UTC(),
	}
	if err := saved.Create(ctx, art); err != nil {
		t.Fatalf("Create saved article: %v", err)
	}

	if err := users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := users.GetByID(ctx, u.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	remaining, err := saved.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("saved articles survived the account delete: %v", remaining)
	}

	if err := users.Delete(ctx, u.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestUserList(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	for _, email := range []string{"one@example.com", "two@example.com", "three@example.com"} {
		if err := users.Create(ctx, testUser(email)); err != nil {
			t.Fatalf("Create %s: %v", email, err)
		}
		time.Sleep(2 * time.Millisecond) // distinct created_at for ordering
	}

	list, err := users.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List returned %d users, want 3", len(list))
	}
	if list[0].Email != "three@example.com" || list[2].Email != "one@example.com" {
		t.Fatalf("List not newest-first: %s, %s, %s", list[0].Email, list[1].Email, list[2].Email)
	}
}
