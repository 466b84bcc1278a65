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

// compile-time check that *SavedArticleStore implements repository.SavedArticleRepository
var _ repository.SavedArticleRepository = (*SavedArticleStore)(nil)

// SavedArticleStore implements repository.SavedArticleRepository on the
// shared connection.
type SavedArticleStore struct {
	db *DB
}

// SavedArticles returns the bookmarks store.
func (db *DB) SavedArticles() *SavedArticleStore {
	return &SavedArticleStore{db: db}
}

const savedArticleColumns = `id, user_id, article_id, title, source,
	publish_date, description, content, image, tags, author, read_time,
	is_read, category, created_at, updated_at`

// Create inserts a bookmark. The UNIQUE(user_id, article_id) index rejects
// a second save of the same article for the same user.
func (s *SavedArticleStore) Create(ctx context.Context, article *model.SavedArticle) error {
	article.ID = xid.New().String()
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Author == "" {
		article.Author = "Unknown"
	}
	if article.ReadTime == "" {
		article.ReadTime = "5 min read"
	}
	if article.Category == "" {
		article.Category = model.DefaultCategory
	}

	tags, err := json.Marshal(nonNil(article.Tags))
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	article.Tags = nonNil(article.Tags)

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO saved_articles (`+savedArticleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID,
		article.UserID,
		article.ArticleID,
		article.Title,
		article.Source,
		article.PublishDate,
		article.Description,
		article.Content,
		article.Image,
		string(tags),
		article.Author,
		article.ReadTime,
		article.IsRead,
		article.Category,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("article already saved")
		}
		return fmt.Errorf("sqlite: inserting saved article (articleID=%s): %w", article.ArticleID, err)
	}

	return nil
}

// Get looks up a single bookmark by owner and external article id.
func (s *SavedArticleStore) Get(ctx context.Context, userID, articleID string) (*model.SavedArticle, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+savedArticleColumns+` FROM saved_articles
		 WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	)

	a, err := scanSavedArticle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("saved article", articleID)
		}
		return nil, fmt.Errorf("sqlite: getting saved article %s: %w", articleID, err)
	}
	return a, nil
}

// ListByUser returns the user's bookmarks, most recently saved first.
func (s *SavedArticleStore) ListByUser(ctx context.Context, userID string) ([]model.SavedArticle, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+savedArticleColumns+` FROM saved_articles
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing saved articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.SavedArticle, 0)
	for rows.Next() {
		a, err := scanSavedArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning saved article row: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating saved articles: %w", err)
	}

	return articles, nil
}

// Update persists the mutable annotation fields (read flag, category, tags).
func (s *SavedArticleStore) Update(ctx context.Context, article *model.SavedArticle) error {
	article.UpdatedAt = time.Now()

	tags, err := json.Marshal(nonNil(article.Tags))
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE saved_articles
		 SET tags = ?, is_read = ?, category = ?, updated_at = ?
		 WHERE user_id = ? AND article_id = ?`,
		string(tags),
		article.IsRead,
		article.Category,
		article.UpdatedAt,
		article.UserID,
		article.ArticleID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating saved article %s: %w", article.ArticleID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("saved article", article.ArticleID)
	}

	return nil
}

// Delete removes one bookmark.
func (s *SavedArticleStore) Delete(ctx context.Context, userID, articleID string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM saved_articles WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting saved article %s: %w", articleID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("saved article", articleID)
	}

	return nil
}

func scanSavedArticle(s scanner) (*model.SavedArticle, error) {
	var (
		a    model.SavedArticle
		tags string
	)

	err := s.Scan(
		&a.ID,
		&a.UserID,
		&a.ArticleID,
		&a.Title,
		&a.Source,
		&a.PublishDate,
		&a.Description,
		&a.Content,
		&a.Image,
		&tags,
		&a.Author,
		&a.ReadTime,
		&a.IsRead,
		&a.Category,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}

	return &a, nil
}
