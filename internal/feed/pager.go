// Package feed drives incremental loading of a remote article feed.
//
// A Pager accumulates pages fetched under a (query, topic, category,
// source) filter key, deduplicates by external article ID, and overlays
// the user's saved/read state onto the otherwise-stateless remote
// results. Changing any filter resets the accumulation; a stale in-flight
// fetch can never overwrite state produced by a newer one.
//
// Each Pager belongs to a single user feed. Operations are safe for
// concurrent use, but the concurrency model is "last request wins":
// issuing a new fetch supersedes any in-flight one.
package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/adyanews/adyanews/internal/model"
)

// Source is the remote article search collaborator.
type Source interface {
	Search(ctx context.Context, keywords, lang string, page, pageSize int) ([]model.Article, error)
}

// SavedStore confirms save/unsave mutations against durable storage.
// The pager applies overlay changes only after the store has confirmed,
// never optimistically.
type SavedStore interface {
	Save(ctx context.Context, article model.Article) (*model.SavedArticle, error)
	Unsave(ctx context.Context, externalID string) error
}

// Status is the fetch state of the feed.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

const (
	// DefaultPageSize is the number of articles per fetched page.
	DefaultPageSize = 9

	// maxPages caps accumulation regardless of scroll behavior.
	maxPages = 25

	// The initial load of a fresh filter gets a few transparent
	// attempts; later pages fail fast and wait for explicit retry.
	initialLoadAttempts = 3
	retryBackoff        = 3 * time.Second
)

// Filters is the feed's current filter key. All non-empty terms are
// joined into one composite search string.
type Filters struct {
	Query    string
	Topic    string
	Category string
	Source   string
}

// composite joins the non-empty filter terms. An all-empty filter
// searches for "latest" so a fresh feed is never a no-op query.
func (f Filters) composite() string {
	terms := make([]string, 0, 4)
	for _, t := range []string{f.Query, f.Topic, f.Category, f.Source} {
		if s := strings.TrimSpace(t); s != "" {
			terms = append(terms, s)
		}
	}
	if len(terms) == 0 {
		return "latest"
	}
	return strings.Join(terms, " ")
}

// Pager is the feed state machine for one user.
type Pager struct {
	source   Source
	saved    SavedStore
	lang     string
	pageSize int

	// sleep is swapped out in tests so retry backoff doesn't wall-block.
	sleep func(time.Duration)

	mu        sync.Mutex
	filters   Filters
	page      int
	status    Status
	err       error
	articles  []model.Article
	savedList []model.SavedArticle

	// epoch increments whenever a fetch is issued or a filter changes;
	// an in-flight fetch that finishes under an older epoch discards
	// its result.
	epoch  uint64
	cancel context.CancelFunc
}

// New creates a Pager fetching in the given provider language code.
func New(source Source, saved SavedStore, lang string) *Pager {
	return &Pager{
		source:   source,
		saved:    saved,
		lang:     lang,
		pageSize: DefaultPageSize,
		sleep:    time.Sleep,
		status:   StatusIdle,
		page:     1,
	}
}

// SetQuery updates the free-text term. A changed value atomically clears
// the accumulated list and resets the page counter before the next fetch.
func (p *Pager) SetQuery(text string) {
	p.setFilter(func(f *Filters) bool {
		if f.Query == text {
			return false
		}
		f.Query = text
		return true
	})
}

// SetTopic updates the topic filter, resetting accumulation on change.
func (p *Pager) SetTopic(topic string) {
	p.setFilter(func(f *Filters) bool {
		if f.Topic == topic {
			return false
		}
		f.Topic = topic
		return true
	})
}

// SetCategory updates the category filter, resetting accumulation on change.
func (p *Pager) SetCategory(category string) {
	p.setFilter(func(f *Filters) bool {
		if f.Category == category {
			return false
		}
		f.Category = category
		return true
	})
}

// SetSource updates the source filter, resetting accumulation on change.
func (p *Pager) SetSource(source string) {
	p.setFilter(func(f *Filters) bool {
		if f.Source == source {
			return false
		}
		f.Source = source
		return true
	})
}

func (p *Pager) setFilter(apply func(*Filters) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !apply(&p.filters) {
		return
	}
	p.cancelInflight()
	p.epoch++
	p.articles = nil
	p.page = 1
	p.status = StatusIdle
	p.err = nil
}

// LoadFirst fetches the first page for the current filters, replacing
// whatever was accumulated. Up to three attempts are made transparently
// with a fixed backoff; after the last failure the pager settles into
// StatusFailed with an empty list.
//
// A canceled load (ctx canceled, or superseded by a newer fetch or
// filter change) is not an error: the pager leaves existing state
// untouched and clears the busy flag.
func (p *Pager) LoadFirst(ctx context.Context) error {
	p.mu.Lock()
	p.cancelInflight()
	ctx, p.cancel = context.WithCancel(ctx)
	p.epoch++
	epoch := p.epoch
	p.page = 1
	p.status = StatusLoading
	filters := p.filters
	p.mu.Unlock()

	var (
		articles []model.Article
		err      error
	)
	for attempt := 1; attempt <= initialLoadAttempts; attempt++ {
		articles, err = p.fetch(ctx, filters, 1)
		if err == nil || ctx.Err() != nil {
			break
		}
		if attempt < initialLoadAttempts {
			p.sleep(retryBackoff)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		return nil
	}
	canceled := ctx.Err() != nil
	p.cancelInflight() // the fetch settled; release its context
	if canceled {
		p.status = StatusSucceeded
		return nil
	}
	if err != nil {
		p.status = StatusFailed
		p.err = err
		p.articles = nil
		return err
	}

	p.articles = articles
	p.status = StatusSucceeded
	p.err = nil
	p.applyOverlayLocked()
	return nil
}

// LoadMoreIfNearEnd is the scroll trigger: when the second-to-last
// accumulated item has become visible, the feed has succeeded, the
// current page looks fully populated, and the page ceiling has not been
// reached, it advances the page counter and fetches the next page.
//
// Returns true when a fetch was issued. A failed later page surfaces the
// error but preserves the accumulated list; no automatic retry happens,
// the caller decides via Retry.
func (p *Pager) LoadMoreIfNearEnd(ctx context.Context, visibleIndex int) (bool, error) {
	p.mu.Lock()
	if p.status != StatusSucceeded ||
		visibleIndex < len(p.articles)-2 ||
		len(p.articles) < p.pageSize*p.page ||
		p.page >= maxPages {
		p.mu.Unlock()
		return false, nil
	}

	p.cancelInflight()
	ctx, p.cancel = context.WithCancel(ctx)
	p.epoch++
	epoch := p.epoch
	p.page++
	page := p.page
	p.status = StatusLoading
	filters := p.filters
	p.mu.Unlock()

	articles, err := p.fetch(ctx, filters, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		return true, nil
	}
	canceled := ctx.Err() != nil
	p.cancelInflight()
	if canceled {
		p.status = StatusSucceeded
		return true, nil
	}
	if err != nil {
		p.status = StatusFailed
		p.err = err
		return true, err
	}

	p.appendLocked(articles)
	p.status = StatusSucceeded
	p.err = nil
	p.applyOverlayLocked()
	return true, nil
}

// Retry refetches the current page after a failure, appending the result
// without clearing what is already accumulated.
func (p *Pager) Retry(ctx context.Context) error {
	p.mu.Lock()
	if p.status != StatusFailed {
		p.mu.Unlock()
		return nil
	}
	p.cancelInflight()
	ctx, p.cancel = context.WithCancel(ctx)
	p.epoch++
	epoch := p.epoch
	page := p.page
	filters := p.filters
	p.status = StatusLoading
	p.mu.Unlock()

	articles, err := p.fetch(ctx, filters, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		return nil
	}
	canceled := ctx.Err() != nil
	p.cancelInflight()
	if canceled {
		p.status = StatusSucceeded
		return nil
	}
	if err != nil {
		p.status = StatusFailed
		p.err = err
		return err
	}

	if page == 1 {
		p.articles = articles
	} else {
		p.appendLocked(articles)
	}
	p.status = StatusSucceeded
	p.err = nil
	p.applyOverlayLocked()
	return nil
}

func (p *Pager) fetch(ctx context.Context, filters Filters, page int) ([]model.Article, error) {
	return Fetch(ctx, p.source, filters, p.lang, page, p.pageSize)
}

// Fetch runs one search against the source. When a composite query
// returns nothing, it retries once with the free-text term alone: the
// source AND-combines all terms, so an over-specified query often
// misses articles the user would still want.
func Fetch(ctx context.Context, source Source, filters Filters, lang string, page, pageSize int) ([]model.Article, error) {
	composite := filters.composite()

	articles, err := source.Search(ctx, composite, lang, page, pageSize)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 && filters.Query != "" && composite != filters.Query {
		return source.Search(ctx, filters.Query, lang, page, pageSize)
	}
	return articles, nil
}

// appendLocked adds incoming articles whose external ID is not yet
// accumulated, in source order. Accumulated articles are never reordered.
func (p *Pager) appendLocked(incoming []model.Article) {
	seen := make(map[string]struct{}, len(p.articles))
	for _, a := range p.articles {
		seen[a.ExternalID] = struct{}{}
	}
	for _, a := range incoming {
		if _, dup := seen[a.ExternalID]; dup {
			continue
		}
		seen[a.ExternalID] = struct{}{}
		p.articles = append(p.articles, a)
	}
}

// OverlaySaved replaces the authoritative saved list and re-marks every
// accumulated article. Idempotent: re-applying the same list changes
// nothing.
func (p *Pager) OverlaySaved(savedList []model.SavedArticle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.savedList = append([]model.SavedArticle(nil), savedList...)
	p.applyOverlayLocked()
}

func (p *Pager) applyOverlayLocked() {
	saved := make(map[string]*model.SavedArticle, len(p.savedList))
	for i := range p.savedList {
		saved[p.savedList[i].ArticleID] = &p.savedList[i]
	}
	for i := range p.articles {
		if rec, ok := saved[p.articles[i].ExternalID]; ok {
			p.articles[i].Saved = true
			p.articles[i].Read = rec.IsRead
		} else {
			p.articles[i].Saved = false
			p.articles[i].Read = false
		}
	}
}

// SaveArticle persists the article through the store and, only after
// confirmation, adds the returned record to the saved list and flips the
// overlay on the matching accumulated article. A duplicate save leaves
// all state unchanged and returns the store's error.
func (p *Pager) SaveArticle(ctx context.Context, article model.Article) (*model.SavedArticle, error) {
	rec, err := p.saved.Save(ctx, article)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.savedList = append(p.savedList, *rec)
	p.applyOverlayLocked()
	return rec, nil
}

// UnsaveArticle removes the saved record through the store and, only
// after confirmation, drops it from the saved list and clears the
// overlay.
func (p *Pager) UnsaveArticle(ctx context.Context, externalID string) error {
	if err := p.saved.Unsave(ctx, externalID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.savedList[:0]
	for _, rec := range p.savedList {
		if rec.ArticleID != externalID {
			kept = append(kept, rec)
		}
	}
	p.savedList = kept
	p.applyOverlayLocked()
	return nil
}

// cancelInflight must be called with p.mu held.
func (p *Pager) cancelInflight() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Articles returns a copy of the accumulated list in fetch order.
func (p *Pager) Articles() []model.Article {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Article(nil), p.articles...)
}

// SavedArticles returns a copy of the current saved list.
func (p *Pager) SavedArticles() []model.SavedArticle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.SavedArticle(nil), p.savedList...)
}

// Status returns the fetch status and, when failed, the preserved error.
func (p *Pager) Status() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.err
}

// Page returns the current page counter.
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}
