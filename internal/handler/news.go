package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adyanews/adyanews/internal/feed"
	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/news"
	"github.com/adyanews/adyanews/internal/service"
)

// NewsHandler exposes the one-shot news search plus the stateful
// per-user feed session endpoints.
type NewsHandler struct {
	feeds  *service.FeedService
	logger *slog.Logger
}

func NewNewsHandler(feeds *service.FeedService, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{feeds: feeds, logger: logger}
}

func filtersFromQuery(r *http.Request) feed.Filters {
	q := r.URL.Query()
	return feed.Filters{
		Query:    q.Get("q"),
		Topic:    q.Get("topic"),
		Category: q.Get("category"),
		Source:   q.Get("source"),
	}
}

func intQuery(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// HandleGetNews searches news in the user's preferred language.
//
// HTTP: GET /api/news?q=&topic=&category=&source=&page=&pageSize= (protected)
func (h *NewsHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	articles, err := h.feeds.SearchForUser(r.Context(), userID, filtersFromQuery(r),
		intQuery(r, "page", 1), intQuery(r, "pageSize", feed.DefaultPageSize))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleGetPublicNews is the anonymous search used by the landing page.
// Always English.
//
// HTTP: GET /api/public/news
func (h *NewsHandler) HandleGetPublicNews(w http.ResponseWriter, r *http.Request) {
	articles, err := h.feeds.Search(r.Context(), filtersFromQuery(r), news.LanguageCode("en"),
		intQuery(r, "page", 1), intQuery(r, "pageSize", feed.DefaultPageSize))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleGetFeed returns the current feed snapshot without fetching.
//
// HTTP: GET /api/feed (protected)
func (h *NewsHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	state, err := h.feeds.State(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleSetFilters updates the feed's filter key. A changed value
// resets accumulation; the client follows up with a refresh.
//
// HTTP: PUT /api/feed/filters (protected)
func (h *NewsHandler) HandleSetFilters(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req feed.Filters
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.feeds.SetFilters(r.Context(), userID, req); err != nil {
		writeError(w, err)
		return
	}

	state, err := h.feeds.State(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleRefreshFeed loads the first page for the current filters.
// A failed load still returns the feed state so the client can show the
// retry affordance with whatever is preserved.
//
// HTTP: POST /api/feed/refresh (protected)
func (h *NewsHandler) HandleRefreshFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	state, err := h.feeds.Refresh(r.Context(), userID)
	if err != nil && state == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleLoadMore advances the feed on the viewport signal.
//
// HTTP: POST /api/feed/load-more {"visibleIndex": n} (protected)
func (h *NewsHandler) HandleLoadMore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		VisibleIndex int `json:"visibleIndex"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	state, triggered, err := h.feeds.LoadMore(r.Context(), userID, req.VisibleIndex)
	if err != nil && state == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"triggered": triggered,
		"feed":      state,
	})
}

// HandleRetryFeed refetches the failed page.
//
// HTTP: POST /api/feed/retry (protected)
func (h *NewsHandler) HandleRetryFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	state, err := h.feeds.RetryFeed(r.Context(), userID)
	if err != nil && state == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleSaveToFeed saves an article through the feed session so the
// overlay flips in the same confirmed step.
//
// HTTP: POST /api/feed/save (protected)
func (h *NewsHandler) HandleSaveToFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req model.Article
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.feeds.SaveToFeed(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleUnsaveFromFeed removes a saved article through the feed session.
//
// HTTP: DELETE /api/feed/save/{articleId} (protected)
func (h *NewsHandler) HandleUnsaveFromFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	articleID := chi.URLParam(r, "articleId")
	if err := h.feeds.UnsaveFromFeed(r.Context(), userID, articleID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "article removed from saved items"})
}
