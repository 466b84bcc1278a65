package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/adyanews/adyanews/internal/repository"
)

// compile-time checks for the admin-panel aggregation interfaces
var (
	_ repository.StatsRepository    = (*DB)(nil)
	_ repository.MetadataRepository = (*DB)(nil)
)

// UserStats aggregates user counts for the admin dashboard: totals,
// per-day signups since `since`, and the ten most common interests.
// Interests are stored as JSON arrays, unnested with json_each.
func (db *DB) UserStats(ctx context.Context, since time.Time) (*repository.UserStats, error) {
	stats := &repository.UserStats{
		UsersByDate:  []repository.CountByKey{},
		TopInterests: []repository.CountByKey{},
	}

	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_verified), 0),
		       COALESCE(SUM(has_selected_interests), 0)
		FROM users`,
	).Scan(&stats.TotalUsers, &stats.VerifiedUsers, &stats.UsersWithInterests)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting users: %w", err)
	}

	stats.UsersByDate, err = db.countByKey(ctx, `
		SELECT strftime('%Y-%m-%d', created_at) AS day, COUNT(*)
		FROM users
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting signups by date: %w", err)
	}

	stats.TopInterests, err = db.countByKey(ctx, `
		SELECT je.value, COUNT(*) AS n
		FROM users, json_each(users.interests) AS je
		GROUP BY je.value
		ORDER BY n DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting interests: %w", err)
	}

	return stats, nil
}

// ContentStats aggregates saved-article counts: total, per-category
// breakdown, and the twenty most used tags.
func (db *DB) ContentStats(ctx context.Context) (*repository.ContentStats, error) {
	stats := &repository.ContentStats{
		ArticlesByCategory: []repository.CountByKey{},
		TopTags:            []repository.CountByKey{},
	}

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_articles`,
	).Scan(&stats.TotalSavedArticles)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting saved articles: %w", err)
	}

	stats.ArticlesByCategory, err = db.countByKey(ctx, `
		SELECT category, COUNT(*) AS n
		FROM saved_articles
		GROUP BY category
		ORDER BY n DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting categories: %w", err)
	}

	stats.TopTags, err = db.countByKey(ctx, `
		SELECT je.value, COUNT(*) AS n
		FROM saved_articles, json_each(saved_articles.tags) AS je
		GROUP BY je.value
		ORDER BY n DESC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting tags: %w", err)
	}

	return stats, nil
}

// ArticleMetadata returns one user's categories and tags in use, with
// counts, most used first.
func (db *DB) ArticleMetadata(ctx context.Context, userID string) (*repository.ArticleMetadata, error) {
	meta := &repository.ArticleMetadata{
		Categories: []repository.CountByKey{},
		Tags:       []repository.CountByKey{},
	}

	var err error
	meta.Categories, err = db.countByKey(ctx, `
		SELECT category, COUNT(*) AS n
		FROM saved_articles
		WHERE user_id = ?
		GROUP BY category
		ORDER BY n DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting user categories: %w", err)
	}

	meta.Tags, err = db.countByKey(ctx, `
		SELECT je.value, COUNT(*) AS n
		FROM saved_articles, json_each(saved_articles.tags) AS je
		WHERE saved_articles.user_id = ?
		GROUP BY je.value
		ORDER BY n DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting user tags: %w", err)
	}

	return meta, nil
}

func (db *DB) countByKey(ctx context.Context, query string, args ...any) ([]repository.CountByKey, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []repository.CountByKey{}
	for rows.Next() {
		var c repository.CountByKey
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
