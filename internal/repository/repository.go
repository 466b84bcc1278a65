// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"
	"time"

	"github.com/adyanews/adyanews/internal/model"
)

// UserRepository is the persistence surface for user accounts.
//
// Create must enforce the unique-email constraint and return a conflict
// error when the email is already registered; concurrent signups with the
// same email are serialized by the store and the loser sees the conflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByVerificationCode matches only a code whose expiry is after now.
	GetByVerificationCode(ctx context.Context, code string, now time.Time) (*model.User, error)
	// GetByResetToken matches only a token whose expiry is after now.
	GetByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user and all their saved articles in one transaction.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
}

// SavedArticleRepository is the persistence surface for bookmarks.
type SavedArticleRepository interface {
	// Create enforces the (userID, articleID) uniqueness constraint.
	Create(ctx context.Context, article *model.SavedArticle) error
	// Get looks up one bookmark by its owner and external article id.
	Get(ctx context.Context, userID, articleID string) (*model.SavedArticle, error)
	// ListByUser returns the user's bookmarks, most recently saved first.
	ListByUser(ctx context.Context, userID string) ([]model.SavedArticle, error)
	Update(ctx context.Context, article *model.SavedArticle) error
	Delete(ctx context.Context, userID, articleID string) error
}

// CountByKey is a (key, count) aggregation row, e.g. a category or tag
// with the number of articles carrying it.
type CountByKey struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserStats is the admin dashboard aggregate over the users table.
type UserStats struct {
	TotalUsers         int          `json:"totalUsers"`
	VerifiedUsers      int          `json:"verifiedUsers"`
	UsersWithInterests int          `json:"usersWithInterests"`
	UsersByDate        []CountByKey `json:"usersByDate"` // per-day signups, last 30 days
	TopInterests       []CountByKey `json:"topInterests"`
}

// ContentStats is the admin dashboard aggregate over saved articles.
type ContentStats struct {
	TotalSavedArticles int          `json:"totalSavedArticles"`
	ArticlesByCategory []CountByKey `json:"articlesByCategory"`
	TopTags            []CountByKey `json:"topTags"`
}

// StatsRepository exposes the aggregate-count queries for the admin panel.
type StatsRepository interface {
	UserStats(ctx context.Context, since time.Time) (*UserStats, error)
	ContentStats(ctx context.Context) (*ContentStats, error)
}

// ArticleMetadata summarizes one user's categories and tags in use.
type ArticleMetadata struct {
	Categories []CountByKey `json:"categories"`
	Tags       []CountByKey `json:"tags"`
}

// MetadataRepository answers the per-user category/tag breakdown.
type MetadataRepository interface {
	ArticleMetadata(ctx context.Context, userID string) (*ArticleMetadata, error)
}
