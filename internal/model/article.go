package model

import "time"

// Article categories a saved article can be filed under.
// Kept as a fixed enum so the saved-articles UI can build stable filters.
var Categories = []string{
	"general", "business", "technology", "health",
	"science", "entertainment", "sports", "other",
}

const DefaultCategory = "general"

// ValidCategory reports whether c is one of the allowed categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Article is the feed view-model for an externally sourced news item.
// ExternalID is the upstream source's opaque identifier; it is the key
// used for deduplication and for matching the saved/read overlay.
type Article struct {
	ExternalID  string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishDate time.Time `json:"publishDate"`
	Source      string    `json:"source"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Saved       bool      `json:"saved"`
	Read        bool      `json:"read"`
}

// SavedArticle is a user's bookmark of an external article plus local
// annotations. (UserID, ArticleID) is unique; an article cannot be saved
// twice by the same user.
type SavedArticle struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ArticleID   string    `json:"articleId"` // external id from the news source
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishDate time.Time `json:"publishDate"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	Image       string    `json:"image,omitempty"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	ReadTime    string    `json:"readTime"`
	IsRead      bool      `json:"isRead"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the LLM-generated digest of an article body.
type Summary struct {
	KeyPoints    []string `json:"key_points"`
	MainTakeaway string   `json:"main_takeaway"`
	Sentiment    string   `json:"sentiment"`
}

// EmptySummary is the degraded placeholder used when summarization fails.
func EmptySummary() Summary {
	return Summary{KeyPoints: []string{}, MainTakeaway: "", Sentiment: "neutral"}
}
