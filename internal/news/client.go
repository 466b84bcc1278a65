// Package news is the client for the upstream article-search API
// (Event Registry). It normalizes the provider's response into
// model.Article values the rest of the app can rely on: every returned
// article has a title, body, image URL, and author, with placeholders
// substituted where the provider left a field empty.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
)

// DefaultBaseURL is the production article-search endpoint.
const DefaultBaseURL = "https://eventregistry.org/api/v1/article/getArticles"

const (
	requestTimeout   = 15 * time.Second
	placeholderImage = "https://via.placeholder.com/640x360?text=No+Image+Available"
	descriptionLen   = 160
)

// Client searches the upstream news API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client. baseURL may be empty to use DefaultBaseURL;
// tests point it at a local httptest server.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// apiResponse mirrors the provider's getArticles envelope.
type apiResponse struct {
	Articles struct {
		Results []apiArticle `json:"results"`
	} `json:"articles"`
	Error string `json:"error"`
}

type apiArticle struct {
	URI    string `json:"uri"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
	Date   string `json:"date"`
	Image  string `json:"image"`
	Source struct {
		Title string `json:"title"`
	} `json:"source"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Search fetches one page of articles matching keywords in the given
// provider language code (e.g. "eng", "spa"). Articles missing a title
// or body are dropped rather than passed along half-empty. The result
// holds at most pageSize articles, fewer when the upstream runs dry.
func (c *Client) Search(ctx context.Context, keywords, lang string, page, pageSize int) ([]model.Article, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 9
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("keyword", keywords)
	params.Set("lang", lang)
	params.Set("articlesSortBy", "date")
	params.Set("articlesPage", strconv.Itoa(page))
	// Ask for a few extra so dropped incomplete articles don't leave the
	// page short.
	params.Set("articlesCount", strconv.Itoa(pageSize+5))
	params.Set("dataType", "news,pr")
	params.Set("resultType", "articles")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Upstream("news API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream("news API", fmt.Errorf("status %d", resp.StatusCode))
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperror.Upstream("news API", fmt.Errorf("decoding response: %w", err))
	}
	if body.Error != "" {
		return nil, apperror.Upstream("news API", fmt.Errorf("provider error: %s", body.Error))
	}

	articles := make([]model.Article, 0, pageSize)
	for _, a := range body.Articles.Results {
		if a.Title == "" || a.Body == "" {
			continue
		}
		articles = append(articles, normalize(a))
		if len(articles) == pageSize {
			break
		}
	}
	return articles, nil
}

// normalize converts a provider article to the app's view model,
// substituting placeholders for empty fields.
func normalize(a apiArticle) model.Article {
	art := model.Article{
		ExternalID:  a.URI,
		Title:       a.Title,
		URL:         a.URL,
		PublishDate: parseDate(a.Date),
		Source:      a.Source.Title,
		Image:       a.Image,
		Content:     a.Body,
		Author:      "Unknown",
	}

	if art.ExternalID == "" {
		art.ExternalID = fmt.Sprintf("article-%d", time.Now().UnixNano())
	}
	if art.URL == "" {
		art.URL = "#"
	}
	if art.Source == "" {
		art.Source = "Unknown Source"
	}
	if art.Image == "" {
		art.Image = placeholderImage
	}
	if len(a.Authors) > 0 && a.Authors[0].Name != "" {
		art.Author = a.Authors[0].Name
	}

	desc := a.Body
	if len(desc) > descriptionLen {
		desc = desc[:descriptionLen] + "..."
	}
	art.Description = desc

	return art
}

// parseDate handles the provider's YYYY-MM-DD date field. An absent or
// malformed value gets the fetch time so date sorting stays stable.
func parseDate(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Now().UTC()
}
