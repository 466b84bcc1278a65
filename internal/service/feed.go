package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/adyanews/adyanews/internal/feed"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/news"
	"github.com/adyanews/adyanews/internal/repository"
)

// FeedService exposes two views of the news source: a stateless search
// used by the plain news endpoints, and per-user feed sessions backed by
// feed.Pager for incremental, deduplicated loading with the saved/read
// overlay applied.
//
// Sessions live in memory; a restart simply starts feeds from page 1
// again, which costs nothing but a refetch.
type FeedService struct {
	source feed.Source
	items  *ArticleService
	users  repository.UserRepository
	logger *slog.Logger

	mu     sync.Mutex
	pagers map[string]*feedSession
}

type feedSession struct {
	pager *feed.Pager
	lang  string
}

// FeedState is the client-visible snapshot of a feed session.
type FeedState struct {
	Articles []model.Article `json:"articles"`
	Status   feed.Status     `json:"status"`
	Error    string          `json:"error,omitempty"`
	Page     int             `json:"page"`
}

func NewFeedService(source feed.Source, items *ArticleService, users repository.UserRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		source: source,
		items:  items,
		users:  users,
		logger: logger,
		pagers: map[string]*feedSession{},
	}
}

// Search is the stateless one-shot search. lang is the provider
// language code; anonymous callers get English.
func (s *FeedService) Search(ctx context.Context, filters feed.Filters, lang string, page, pageSize int) ([]model.Article, error) {
	if pageSize < 1 {
		pageSize = feed.DefaultPageSize
	}
	return feed.Fetch(ctx, s.source, filters, lang, page, pageSize)
}

// SearchForUser resolves the user's preferred language before searching.
func (s *FeedService) SearchForUser(ctx context.Context, userID string, filters feed.Filters, page, pageSize int) ([]model.Article, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, filters, news.LanguageCode(user.Language), page, pageSize)
}

// session returns the user's pager, creating it on first use and
// recreating it when the user's language preference changed since.
func (s *FeedService) session(ctx context.Context, userID string) (*feed.Pager, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	lang := news.LanguageCode(user.Language)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.pagers[userID]; ok && sess.lang == lang {
		return sess.pager, nil
	}

	pager := feed.New(s.source, &userSavedStore{items: s.items, userID: userID}, lang)
	s.pagers[userID] = &feedSession{pager: pager, lang: lang}
	return pager, nil
}

// SetFilters applies the filter values to the user's feed session. Any
// changed value resets accumulation per the pager's rules.
func (s *FeedService) SetFilters(ctx context.Context, userID string, filters feed.Filters) error {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return err
	}
	pager.SetQuery(filters.Query)
	pager.SetTopic(filters.Topic)
	pager.SetCategory(filters.Category)
	pager.SetSource(filters.Source)
	return nil
}

// Refresh loads the first page of the current filters and re-applies the
// saved overlay from storage.
func (s *FeedService) Refresh(ctx context.Context, userID string) (*FeedState, error) {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.items.GetSaved(ctx, userID)
	if err != nil {
		return nil, err
	}
	pager.OverlaySaved(saved)

	if err := pager.LoadFirst(ctx); err != nil {
		return s.state(pager), err
	}
	return s.state(pager), nil
}

// LoadMore advances the feed when the viewport signal warrants it.
// Returns whether a fetch was issued.
func (s *FeedService) LoadMore(ctx context.Context, userID string, visibleIndex int) (*FeedState, bool, error) {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	triggered, err := pager.LoadMoreIfNearEnd(ctx, visibleIndex)
	return s.state(pager), triggered, err
}

// RetryFeed refetches the page whose fetch last failed.
func (s *FeedService) RetryFeed(ctx context.Context, userID string) (*FeedState, error) {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := pager.Retry(ctx); err != nil {
		return s.state(pager), err
	}
	return s.state(pager), nil
}

// State returns the current feed snapshot without fetching.
func (s *FeedService) State(ctx context.Context, userID string) (*FeedState, error) {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.state(pager), nil
}

// SaveToFeed saves an article through the session so the overlay flips
// in the same step, after storage confirms.
func (s *FeedService) SaveToFeed(ctx context.Context, userID string, article model.Article) (*model.SavedArticle, error) {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pager.SaveArticle(ctx, article)
}

// UnsaveFromFeed removes a saved article through the session.
func (s *FeedService) UnsaveFromFeed(ctx context.Context, userID, articleID string) error {
	pager, err := s.session(ctx, userID)
	if err != nil {
		return err
	}
	return pager.UnsaveArticle(ctx, articleID)
}

// DropSession discards a user's in-memory feed, e.g. on logout or
// account deletion.
func (s *FeedService) DropSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pagers, userID)
}

func (s *FeedService) state(pager *feed.Pager) *FeedState {
	status, err := pager.Status()
	state := &FeedState{
		Articles: pager.Articles(),
		Status:   status,
		Page:     pager.Page(),
	}
	if err != nil {
		state.Error = err.Error()
	}
	return state
}

// userSavedStore adapts ArticleService to the pager's SavedStore,
// pinning the user ID.
type userSavedStore struct {
	items  *ArticleService
	userID string
}

func (u *userSavedStore) Save(ctx context.Context, article model.Article) (*model.SavedArticle, error) {
	return u.items.Save(ctx, u.userID, article, nil, "")
}

func (u *userSavedStore) Unsave(ctx context.Context, externalID string) error {
	return u.items.Unsave(ctx, u.userID, externalID)
}
