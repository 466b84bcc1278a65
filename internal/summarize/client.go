// Package summarize talks to an OpenAI-compatible chat-completions API
// (Groq in production) to produce article summaries and similarity
// recommendations.
//
// The model is asked to answer in JSON but is not guaranteed to comply:
// answers arrive bare, wrapped in markdown fences, or with prose around
// them. Parsing is therefore forgiving, and a parse failure degrades to
// an empty result instead of an error. Only transport and API failures
// surface as errors.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/adyanews/adyanews/internal/apperror"
	"github.com/adyanews/adyanews/internal/model"
)

// DefaultBaseURL is the production chat-completions endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

const (
	summaryModel   = "llama3-8b-8192"
	recommendModel = "mixtral-8x7b-32768"
	requestTimeout = 30 * time.Second
)

// Client calls the chat-completions API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client. baseURL may be empty to use DefaultBaseURL.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const summaryPrompt = `Given the following news article, do the following:
1. Summarize it in 3-5 key points.
2. Provide a main takeaway sentence.
3. Classify the overall sentiment as positive, negative, or neutral.

Respond in JSON with keys: key_points (array), main_takeaway (string), sentiment (string).

Article:
%s`

// Summarize produces key points, a takeaway, and a sentiment label for
// the given article text. An unparseable model answer yields
// model.EmptySummary() without an error.
func (c *Client) Summarize(ctx context.Context, text string) (model.Summary, error) {
	content, err := c.complete(ctx, chatRequest{
		Model:       summaryModel,
		Messages:    []chatMessage{{Role: "user", Content: fmt.Sprintf(summaryPrompt, text)}},
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		return model.EmptySummary(), err
	}

	var summary model.Summary
	if err := json.Unmarshal([]byte(extractJSON(content)), &summary); err != nil {
		return model.EmptySummary(), nil
	}
	if summary.KeyPoints == nil {
		summary.KeyPoints = []string{}
	}
	if summary.Sentiment == "" {
		summary.Sentiment = "neutral"
	}
	return summary, nil
}

const recommendPrompt = `Given the following list of articles and a target article, return the indices (0-based) of the 3 articles most similar in content to the target article. Respond as a JSON array of indices.

Target Article:
%s

Articles:
%s`

// Recommend returns the indices of the three articles most similar to
// target. An unparseable model answer yields an empty slice without an
// error.
func (c *Client) Recommend(ctx context.Context, articles []string, target string) ([]int, error) {
	var list strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&list, "[%d]: %s\n", i, a)
	}

	content, err := c.complete(ctx, chatRequest{
		Model:       recommendModel,
		Messages:    []chatMessage{{Role: "user", Content: fmt.Sprintf(recommendPrompt, target, list.String())}},
		Temperature: 0.3,
		MaxTokens:   128,
	})
	if err != nil {
		return nil, err
	}

	var indices []int
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &indices); err != nil {
		return []int{}, nil
	}
	return indices, nil
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("summarize: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("summarize: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", apperror.Upstream("summarization API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperror.Upstream("summarization API", fmt.Errorf("status %d", resp.StatusCode))
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperror.Upstream("summarization API", fmt.Errorf("decoding response: %w", err))
	}
	if len(body.Choices) == 0 {
		return "", apperror.Upstream("summarization API", fmt.Errorf("empty choices"))
	}
	return body.Choices[0].Message.Content, nil
}

var (
	fencedJSON = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	bareObject = regexp.MustCompile(`(?s)\{.*\}`)
	bareArray  = regexp.MustCompile(`(?s)\[.*\]`)
)

// extractJSON pulls a JSON object out of a model answer that may wrap
// it in markdown fences or surrounding prose.
func extractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareObject.FindString(raw); m != "" {
		return m
	}
	return raw
}

func extractJSONArray(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareArray.FindString(raw); m != "" {
		return m
	}
	return raw
}
