package service

import (
	"context"
	"log/slog"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

// Summarizer is the LLM collaborator. Its failures never block saving,
// reading, or browsing; callers degrade to empty results.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (model.Summary, error)
	Recommend(ctx context.Context, articles []string, target string) ([]int, error)
}

// ArticleService manages the user's saved articles and their
// tags/categories/read-state annotations.
type ArticleService struct {
	saved      repository.SavedArticleRepository
	meta       repository.MetadataRepository
	summarizer Summarizer
	logger     *slog.Logger
}

func NewArticleService(
	saved repository.SavedArticleRepository,
	meta repository.MetadataRepository,
	summarizer Summarizer,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{saved: saved, meta: meta, summarizer: summarizer, logger: logger}
}

// GetSaved lists the user's saved articles, most recently saved first.
func (s *ArticleService) GetSaved(ctx context.Context, userID string) ([]model.SavedArticle, error) {
	return s.saved.ListByUser(ctx, userID)
}

// Save persists a fetched article for the user. Saving the same
// external article twice fails with a duplicate error and changes
// nothing. The repository fills author/read-time/category defaults.
func (s *ArticleService) Save(ctx context.Context, userID string, article model.Article, tags []string, category string) (*model.SavedArticle, error) {
	if article.ExternalID == "" {
		return nil, apperror.ValidationFailed("id", "article id is required")
	}
	if article.Title == "" {
		return nil, apperror.ValidationFailed("title", "article title is required")
	}
	if category != "" && !model.ValidCategory(category) {
		return nil, apperror.ValidationFailed("category", "unknown category")
	}

	rec := &model.SavedArticle{
		UserID:      userID,
		ArticleID:   article.ExternalID,
		Title:       article.Title,
		Source:      article.Source,
		PublishDate: article.PublishDate,
		Description: article.Description,
		Content:     article.Content,
		Image:       article.Image,
		Tags:        tags,
		Author:      article.Author,
		Category:    category,
	}
	if err := s.saved.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("article saved", "userID", userID, "articleID", rec.ArticleID)
	return rec, nil
}

// Unsave removes a saved article by its external ID.
func (s *ArticleService) Unsave(ctx context.Context, userID, articleID string) error {
	if err := s.saved.Delete(ctx, userID, articleID); err != nil {
		return err
	}
	s.logger.Info("article unsaved", "userID", userID, "articleID", articleID)
	return nil
}

// ToggleRead flips the read flag and returns the new value. The local
// state changes only after the store confirms.
func (s *ArticleService) ToggleRead(ctx context.Context, userID, articleID string) (*model.SavedArticle, error) {
	rec, err := s.saved.Get(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	rec.IsRead = !rec.IsRead
	if err := s.saved.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateCategory reassigns a saved article to another category.
func (s *ArticleService) UpdateCategory(ctx context.Context, userID, articleID, category string) (*model.SavedArticle, error) {
	if category == "" {
		return nil, apperror.ValidationFailed("category", "category is required")
	}
	if !model.ValidCategory(category) {
		return nil, apperror.ValidationFailed("category", "unknown category")
	}

	rec, err := s.saved.Get(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	rec.Category = category
	if err := s.saved.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateTags replaces a saved article's tag list. An empty slice clears
// the tags; a nil slice is rejected as a malformed request.
func (s *ArticleService) UpdateTags(ctx context.Context, userID, articleID string, tags []string) (*model.SavedArticle, error) {
	if tags == nil {
		return nil, apperror.ValidationFailed("tags", "tags must be an array")
	}

	rec, err := s.saved.Get(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	rec.Tags = tags
	if err := s.saved.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Metadata returns the user's categories and tags in use, with counts.
func (s *ArticleService) Metadata(ctx context.Context, userID string) (*repository.ArticleMetadata, error) {
	return s.meta.ArticleMetadata(ctx, userID)
}

// Summarize produces an LLM summary of article text. A collaborator
// failure degrades to an empty summary instead of blocking the reader.
func (s *ArticleService) Summarize(ctx context.Context, text string) (model.Summary, error) {
	if text == "" {
		return model.EmptySummary(), apperror.ValidationFailed("text", "text is required")
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		s.logger.Warn("summarization failed, degrading to empty summary", "error", err)
		return model.EmptySummary(), nil
	}
	return summary, nil
}

// Recommend returns the indices of the articles most similar to target.
// Degrades to an empty list on collaborator failure.
func (s *ArticleService) Recommend(ctx context.Context, articles []string, target string) ([]int, error) {
	if target == "" {
		return nil, apperror.ValidationFailed("target", "target article is required")
	}

	indices, err := s.summarizer.Recommend(ctx, articles, target)
	if err != nil {
		s.logger.Warn("recommendation failed, degrading to empty list", "error", err)
		return []int{}, nil
	}
	return indices, nil
}
