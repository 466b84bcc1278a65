package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adyanews/adyanews/internal/model"
	"github.com/adyanews/adyanews/internal/service"
)

// ArticleHandler exposes saved-article CRUD, annotations, and the LLM
// summarize/recommend endpoints.
type ArticleHandler struct {
	articles *service.ArticleService
	logger   *slog.Logger
}

func NewArticleHandler(articles *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, logger: logger}
}

// HandleGetSaved lists the user's saved articles, newest first.
//
// HTTP: GET /api/articles/saved (protected)
func (h *ArticleHandler) HandleGetSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	articles, err := h.articles.GetSaved(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleSave persists a fetched article.
//
// HTTP: POST /api/articles/save (protected)
func (h *ArticleHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		model.Article
		Tags     []string `json:"tags"`
		Category string   `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.articles.Save(r.Context(), userID, req.Article, req.Tags, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleUnsave removes a saved article.
//
// HTTP: DELETE /api/articles/{articleId} (protected)
func (h *ArticleHandler) HandleUnsave(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	articleID := chi.URLParam(r, "articleId")
	if err := h.articles.Unsave(r.Context(), userID, articleID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "article removed from saved items"})
}

// HandleToggleRead flips the read flag.
//
// HTTP: PATCH /api/articles/{articleId}/read (protected)
func (h *ArticleHandler) HandleToggleRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	articleID := chi.URLParam(r, "articleId")
	rec, err := h.articles.ToggleRead(r.Context(), userID, articleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articleId": articleID,
		"isRead":    rec.IsRead,
	})
}

// HandleUpdateCategory reassigns a saved article's category.
//
// HTTP: PATCH /api/articles/{articleId}/category (protected)
func (h *ArticleHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	articleID := chi.URLParam(r, "articleId")
	rec, err := h.articles.UpdateCategory(r.Context(), userID, articleID, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articleId": articleID,
		"category":  rec.Category,
	})
}

// HandleUpdateTags replaces a saved article's tags.
//
// HTTP: PATCH /api/articles/{articleId}/tags (protected)
func (h *ArticleHandler) HandleUpdateTags(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	articleID := chi.URLParam(r, "articleId")
	rec, err := h.articles.UpdateTags(r.Context(), userID, articleID, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articleId": articleID,
		"tags":      rec.Tags,
	})
}

// HandleMetadata returns the user's categories and tags in use.
//
// HTTP: GET /api/articles/metadata (protected)
func (h *ArticleHandler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	meta, err := h.articles.Metadata(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// HandleSummarize produces an LLM summary of article text. Collaborator
// failures degrade to an empty summary inside the service; only
// validation errors surface here.
//
// HTTP: POST /api/articles/summarize (protected)
func (h *ArticleHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.articles.Summarize(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleRecommend returns indices of articles similar to the target.
//
// HTTP: POST /api/articles/recommend (protected)
func (h *ArticleHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req struct {
		Articles []string `json:"articles"`
		Target   string   `json:"target"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	indices, err := h.articles.Recommend(r.Context(), req.Articles, req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indices": indices})
}
