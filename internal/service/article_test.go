package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/repository"
)

type fakeSavedRepo struct {
	records map[string]*model.SavedArticle // keyed by userID+"/"+articleID
	seq     int
}

func newFakeSavedRepo() *fakeSavedRepo {
	return &fakeSavedRepo{records: map[string]*model.SavedArticle{}}
}

func savedKey(userID, articleID string) string { return userID + "/" + articleID }

func (r *fakeSavedRepo) Create(ctx context.Context, a *model.SavedArticle) error {
	key := savedKey(a.UserID, a.ArticleID)
	if _, exists := r.records[key]; exists {
		return apperror.Duplicate("article already saved")
	}
	r.seq++
	a.ID = fmt.Sprintf("saved-%d", r.seq)
	if a.Author == "" {
		a.Author = "Unknown"
	}
	if a.ReadTime == "" {
		a.ReadTime = "5 min read"
	}
	if a.Category == "" {
		a.Category = model.DefaultCategory
	}
	cp := *a
	r.records[key] = &cp
	return nil
}

func (r *fakeSavedRepo) Get(ctx context.Context, userID, articleID string) (*model.SavedArticle, error) {
	if a, ok := r.records[savedKey(userID, articleID)]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, apperror.NotFound("saved article", articleID)
}

func (r *fakeSavedRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedArticle, error) {
	var out []model.SavedArticle
	for _, a := range r.records {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeSavedRepo) Update(ctx context.Context, a *model.SavedArticle) error {
	key := savedKey(a.UserID, a.ArticleID)
	if _, ok := r.records[key]; !ok {
		return apperror.NotFound("saved article", a.ArticleID)
	}
	cp := *a
	r.records[key] = &cp
	return nil
}

func (r *fakeSavedRepo) Delete(ctx context.Context, userID, articleID string) error {
	key := savedKey(userID, articleID)
	if _, ok := r.records[key]; !ok {
		return apperror.NotFound("saved article", articleID)
	}
	delete(r.records, key)
	return nil
}

type fakeMeta struct{}

func (fakeMeta) ArticleMetadata(ctx context.Context, userID string) (*repository.ArticleMetadata, error) {
	return &repository.ArticleMetadata{
		Categories: []repository.CountByKey{{Name: "technology", Count: 2}},
		Tags:       []repository.CountByKey{{Name: "go", Count: 1}},
	}, nil
}

type fakeSummarizer struct {
	summary model.Summary
	indices []int
	err     error
}

func (s *fakeSummarizer) Summarize(ctx context.Context, text string) (model.Summary, error) {
	return s.summary, s.err
}

func (s *fakeSummarizer) Recommend(ctx context.Context, articles []string, target string) ([]int, error) {
	return s.indices, s.err
}

func newArticleService(summarizer Summarizer) (*ArticleService, *fakeSavedRepo) {
	repo := newFakeSavedRepo()
	return NewArticleService(repo, fakeMeta{}, summarizer, discardLogger()), repo
}

func TestArticleSave_DefaultsAndDuplicate(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{})
	article := model.Article{ExternalID: "a-1", Title: "Go news", Source: "Example"}

	rec, err := svc.Save(context.Background(), "user-1", article, nil, "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.Category != "general" {
		t.Errorf("default Category = %q, want %q", rec.Category, "general")
	}
	if rec.Author != "Unknown" {
		t.Errorf("default Author = %q, want %q", rec.Author, "Unknown")
	}

	_, err = svc.Save(context.Background(), "user-1", article, nil, "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Save() error = %v, want ErrConflict", err)
	}

	// A different user may save the same external article.
	if _, err := svc.Save(context.Background(), "user-2", article, nil, ""); err != nil {
		t.Errorf("Save() by another user error = %v", err)
	}
}

func TestArticleSave_RejectsUnknownCategory(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{})
	article := model.Article{ExternalID: "a-1", Title: "Go news"}

	_, err := svc.Save(context.Background(), "user-1", article, nil, "astrology")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Save() with bad category error = %v, want ErrValidation", err)
	}
}

func TestToggleRead_FlipsAndPersists(t *testing.T) {
	svc, repo := newArticleService(&fakeSummarizer{})
	article := model.Article{ExternalID: "a-1", Title: "Go news"}
	if _, err := svc.Save(context.Background(), "user-1", article, nil, ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := svc.ToggleRead(context.Background(), "user-1", "a-1")
	if err != nil {
		t.Fatalf("ToggleRead() error = %v", err)
	}
	if !rec.IsRead {
		t.Error("first toggle should mark read")
	}
	stored, _ := repo.Get(context.Background(), "user-1", "a-1")
	if !stored.IsRead {
		t.Error("toggle not persisted")
	}

	rec, err = svc.ToggleRead(context.Background(), "user-1", "a-1")
	if err != nil {
		t.Fatalf("second ToggleRead() error = %v", err)
	}
	if rec.IsRead {
		t.Error("second toggle should mark unread")
	}
}

func TestUpdateCategoryAndTags(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{})
	article := model.Article{ExternalID: "a-1", Title: "Go news"}
	if _, err := svc.Save(context.Background(), "user-1", article, nil, ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := svc.UpdateCategory(context.Background(), "user-1", "a-1", "technology")
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if rec.Category != "technology" {
		t.Errorf("Category = %q", rec.Category)
	}

	if _, err := svc.UpdateCategory(context.Background(), "user-1", "a-1", "nonsense"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateCategory(nonsense) error = %v, want ErrValidation", err)
	}

	rec, err = svc.UpdateTags(context.Background(), "user-1", "a-1", []string{"go", "release"})
	if err != nil {
		t.Fatalf("UpdateTags() error = %v", err)
	}
	if len(rec.Tags) != 2 {
		t.Errorf("Tags = %v", rec.Tags)
	}

	// Empty slice clears tags; nil is malformed.
	if _, err := svc.UpdateTags(context.Background(), "user-1", "a-1", []string{}); err != nil {
		t.Errorf("UpdateTags(empty) error = %v", err)
	}
	if _, err := svc.UpdateTags(context.Background(), "user-1", "a-1", nil); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateTags(nil) error = %v, want ErrValidation", err)
	}
}

func TestUnsave_NotFound(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{})

	err := svc.Unsave(context.Background(), "user-1", "never-saved")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Unsave() error = %v, want ErrNotFound", err)
	}
}

func TestSummarize_DegradesOnCollaboratorFailure(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{err: errors.New("rate limited")})

	summary, err := svc.Summarize(context.Background(), "some article text")
	if err != nil {
		t.Fatalf("Summarize() error = %v, want nil (degrade)", err)
	}
	if summary.Sentiment != "neutral" || len(summary.KeyPoints) != 0 {
		t.Errorf("degraded summary = %+v, want empty neutral", summary)
	}
}

func TestSummarize_EmptyTextRejected(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{})

	_, err := svc.Summarize(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Summarize(\"\") error = %v, want ErrValidation", err)
	}
}

func TestRecommend_DegradesOnCollaboratorFailure(t *testing.T) {
	svc, _ := newArticleService(&fakeSummarizer{err: errors.New("rate limited")})

	indices, err := svc.Recommend(context.Background(), []string{"a", "b"}, "target")
	if err != nil {
		t.Fatalf("Recommend() error = %v, want nil (degrade)", err)
	}
	if len(indices) != 0 {
		t.Errorf("degraded indices = %v, want empty", indices)
	}
}
