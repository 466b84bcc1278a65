package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
)

func createUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	u := testUser(email)
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return u
}

func bookmark(userID, articleID string) *model.SavedArticle {
	return &model.SavedArticle{
		UserID:      userID,
		ArticleID:   articleID,
		Title:       "Article " + articleID,
		Source:      "Example Times",
		PublishDate: time.Now().UTC(),
		Description: "short description",
		Tags:        []string{"go"},
		Author:      "Jane Doe",
		ReadTime:    "3 min read",
		Category:    "technology",
	}
}

func TestSavedArticleDefaults(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	u := createUser(t, db, "reader@example.com")

	art := &model.SavedArticle{
		UserID:      u.ID,
		ArticleID:   "ext-1",
		Title:       "Bare minimum",
		PublishDate: time.Now().UTC(),
	}
	if err := saved.Create(ctx, art); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if art.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	got, err := saved.Get(ctx, u.ID, "ext-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Author != "Unknown" {
		t.Fatalf("author = %q, want Unknown", got.Author)
	}
	if got.ReadTime != "5 min read" {
		t.Fatalf("readTime = %q, want 5 min read", got.ReadTime)
	}
	if got.Category != model.DefaultCategory {
		t.Fatalf("category = %q, want %s", got.Category, model.DefaultCategory)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Fatalf("tags = %#v, want empty non-nil slice", got.Tags)
	}
}

func TestSavedArticleDuplicate(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	if err := saved.Create(ctx, bookmark(alice.ID, "ext-1")); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if err := saved.Create(ctx, bookmark(alice.ID, "ext-1")); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate Create error = %v, want ErrConflict", err)
	}

	// A different user may save the same external article.
	if err := saved.Create(ctx, bookmark(bob.ID, "ext-1")); err != nil {
		t.Fatalf("Create for second user: %v", err)
	}
}

func TestSavedArticleListByUser(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	for _, id := range []string{"ext-1", "ext-2", "ext-3"} {
		if err := saved.Create(ctx, bookmark(alice.ID, id)); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if err := saved.Create(ctx, bookmark(bob.ID, "ext-9")); err != nil {
		t.Fatalf("Create for bob: %v", err)
	}

	list, err := saved.ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListByUser returned %d articles, want 3", len(list))
	}
	if list[0].ArticleID != "ext-3" || list[2].ArticleID != "ext-1" {
		t.Fatalf("not newest-first: %s, %s, %s", list[0].ArticleID, list[1].ArticleID, list[2].ArticleID)
	}

	empty, err := saved.ListByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListByUser for unknown user: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", empty)
	}
}

func TestSavedArticleUpdate(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	u := createUser(t, db, "reader@example.com")

	art := bookmark(u.ID, "ext-1")
	if err := saved.Create(ctx, art); err != nil {
		t.Fatalf("Create: %v", err)
	}

	art.IsRead = true
	art.Category = "science"
	art.Tags = []string{"space", "research"}
	if err := saved.Update(ctx, art); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := saved.Get(ctx, u.ID, "ext-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsRead || got.Category != "science" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "space" {
		t.Fatalf("tags = %v, want [space research]", got.Tags)
	}

	ghost := bookmark(u.ID, "no-such-article")
	if err := saved.Update(ctx, ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update missing error = %v, want ErrNotFound", err)
	}
}

func TestSavedArticleDelete(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	u := createUser(t, db, "reader@example.com")

	if err := saved.Create(ctx, bookmark(u.ID, "ext-1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := saved.Delete(ctx, u.ID, "ext-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := saved.Get(ctx, u.ID, "ext-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := saved.Delete(ctx, u.ID, "ext-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestUserStatsAggregates(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	ctx := context.Background()

	verified := testUser("v@example.com")
	verified.IsVerified = true
	verified.Interests = []string{"technology", "sports"}
	verified.HasSelectedInterests = true
	if err := users.Create(ctx, verified); err != nil {
		t.Fatalf("Create: %v", err)
	}

	plain := testUser("p@example.com")
	plain.Interests = []string{"technology"}
	if err := users.Create(ctx, plain); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stats, err := db.UserStats(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Fatalf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.VerifiedUsers != 1 {
		t.Fatalf("VerifiedUsers = %d, want 1", stats.VerifiedUsers)
	}
	if stats.UsersWithInterests != 1 {
		t.Fatalf("UsersWithInterests = %d, want 1", stats.UsersWithInterests)
	}
	if len(stats.UsersByDate) != 1 || stats.UsersByDate[0].Count != 2 {
		t.Fatalf("UsersByDate = %v, want one day with 2 signups", stats.UsersByDate)
	}
	if len(stats.TopInterests) == 0 || stats.TopInterests[0].Name != "technology" || stats.TopInterests[0].Count != 2 {
		t.Fatalf("TopInterests = %v, want technology first with count 2", stats.TopInterests)
	}
}

func TestContentStatsAggregates(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	u := createUser(t, db, "reader@example.com")

	a := bookmark(u.ID, "ext-1")
	a.Category = "technology"
	a.Tags = []string{"go", "backend"}
	b := bookmark(u.ID, "ext-2")
	b.Category = "technology"
	b.Tags = []string{"go"}
	c := bookmark(u.ID, "ext-3")
	c.Category = "sports"
	c.Tags = nil
	for _, art := range []*model.SavedArticle{a, b, c} {
		if err := saved.Create(ctx, art); err != nil {
			t.Fatalf("Create %s: %v", art.ArticleID, err)
		}
	}

	stats, err := db.ContentStats(ctx)
	if err != nil {
		t.Fatalf("ContentStats: %v", err)
	}
	if stats.TotalSavedArticles != 3 {
		t.Fatalf("TotalSavedArticles = %d, want 3", stats.TotalSavedArticles)
	}
	if len(stats.ArticlesByCategory) != 2 || stats.ArticlesByCategory[0].Name != "technology" || stats.ArticlesByCategory[0].Count != 2 {
		t.Fatalf("ArticlesByCategory = %v", stats.ArticlesByCategory)
	}
	if len(stats.TopTags) == 0 || stats.TopTags[0].Name != "go" || stats.TopTags[0].Count != 2 {
		t.Fatalf("TopTags = %v, want go first with count 2", stats.TopTags)
	}
}

func TestArticleMetadataPerUser(t *testing.T) {
	db := newTestDB(t)
	saved := db.SavedArticles()
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	mine := bookmark(alice.ID, "ext-1")
	mine.Category = "science"
	mine.Tags = []string{"space"}
	theirs := bookmark(bob.ID, "ext-2")
	theirs.Category = "business"
	theirs.Tags = []string{"markets"}
	for _, art := range []*model.SavedArticle{mine, theirs} {
		if err := saved.Create(ctx, art); err != nil {
			t.Fatalf("Create %s: %v", art.ArticleID, err)
		}
	}

	meta, err := db.ArticleMetadata(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ArticleMetadata: %v", err)
	}
	if len(meta.Categories) != 1 || meta.Categories[0].Name != "science" {
		t.Fatalf("Categories = %v, want only science", meta.Categories)
	}
	if len(meta.Tags) != 1 || meta.Tags[0].Name != "space" {
		t.Fatalf("Tags = %v, want only space", meta.Tags)
	}
}
