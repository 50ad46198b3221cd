// Package feed imports the public GitHub event stream of a
// configured user into the local database. Imports are
// idempotent: the event id is the primary key and re-inserting a
// known id is a no-op.
package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"focuswatch/internal/db"
)

const defaultBaseURL = "https://api.github.com"

// Store is the subset of the database the importer writes to.
type Store interface {
	InsertEvents(ctx context.Context, events []db.Event) (int, error)
}

// Client fetches and stores public GitHub events.
type Client struct {
	store    Store
	user     string
	token    string
	baseURL  string
	pageSize int
	maxPages int
	http     *http.Client
}

// Options configures a feed client.
type Options struct {
	User     string
	Token    string // optional, raises the rate limit
	BaseURL  string // overridden in tests
	PageSize int
	MaxPages int
}

// New creates a feed client writing to store.
func New(store Store, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 30
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 3
	}
	return &Client{
		store:    store,
		user:     opts.User,
		token:    opts.Token,
		baseURL:  baseURL,
		pageSize: pageSize,
		maxPages: maxPages,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchEvents retrieves one page of the user's public events.
func (c *Client) FetchEvents(
	ctx context.Context, page int,
) ([]db.Event, error) {
	url := fmt.Sprintf(
		"%s/users/%s/events/public?per_page=%d&page=%d",
		c.baseURL, c.user, c.pageSize, page,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching events page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"fetching events page %d: status %s", page, resp.Status,
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading events page %d: %w", page, err)
	}
	return parseEvents(body)
}

// parseEvents extracts events from a GitHub events API response.
// Entries without an id are skipped; a malformed document is an
// error.
func parseEvents(body []byte) ([]db.Event, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON in events response")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("events response is not an array")
	}

	var events []db.Event
	root.ForEach(func(_, ev gjson.Result) bool {
		id := ev.Get("id").Str
		if id == "" {
			return true
		}
		created, err := time.Parse(
			time.RFC3339, ev.Get("created_at").Str,
		)
		if err != nil {
			created = time.Now()
		}
		events = append(events, db.Event{
			ID:        id,
			Type:      ev.Get("type").Str,
			Repo:      ev.Get("repo.name").Str,
			CreatedAt: created,
			Payload:   []byte(ev.Raw),
		})
		return true
	})
	return events, nil
}

// Import fetches up to maxPages pages and stores them. It stops
// early when a whole page is already known (the feed is newest
// first, so everything older is known too). Returns the number
// of newly stored events.
func (c *Client) Import(ctx context.Context) (int, error) {
	total := 0
	for page := 1; page <= c.maxPages; page++ {
		events, err := c.FetchEvents(ctx, page)
		if err != nil {
			return total, err
		}
		if len(events) == 0 {
			break
		}

		inserted, err := c.store.InsertEvents(ctx, events)
		if err != nil {
			return total, fmt.Errorf("storing events: %w", err)
		}
		total += inserted

		if inserted == 0 {
			break
		}
		if len(events) < c.pageSize {
			break
		}
	}
	return total, nil
}

// Loop imports on a fixed interval until ctx is cancelled. A
// failed round is logged and skipped; the next tick retries.
// This runs independently of the sampling loop and shares
// nothing with it but the store.
func (c *Client) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Import(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("feed: %v", err)
				}
				continue
			}
			if n > 0 {
				log.Printf("feed: imported %d new event(s)", n)
			}
		}
	}
}
