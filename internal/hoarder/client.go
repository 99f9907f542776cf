// Package hoarder pulls bookmarks from the Hoarder bookmarking service.
package hoarder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const bookmarkPath = "/api/v1/bookmarks"

// timestampLayout is the layout we emit. Hoarder itself is not
// consistent about fractional-second precision, so decoding accepts
// any RFC 3339 timestamp.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp decodes Hoarder's fractional-second UTC format.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("invalid hoarder timestamp %q: %w", raw, err)
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(timestampLayout))
}

// Bookmark is one saved link plus its crawled content.
type Bookmark struct {
	ID        string    `json:"id"`
	CreatedAt Timestamp `json:"createdAt"`
	Content   Content   `json:"content"`
}

// Content carries what Hoarder's crawler captured for the bookmark.
// CrawledAt is nil until the crawl has finished.
type Content struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	HTMLContent *string    `json:"htmlContent"`
	CrawledAt   *Timestamp `json:"crawledAt"`
}

// Client talks to the Hoarder bookmark API.
type Client struct {
	rootURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(rootURL, apiKey string) *Client {
	return &Client{
		rootURL:    strings.TrimSuffix(rootURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ListPage fetches one page of bookmarks. An empty cursor fetches the
// first page; the returned cursor is empty on the last page.
func (c *Client) ListPage(cursor string) ([]Bookmark, string, error) {
	endpoint := c.rootURL + bookmarkPath
	if cursor != "" {
		endpoint += "?cursor=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("bookmark request returned status %d", resp.StatusCode)
	}

	var page struct {
		Bookmarks  []Bookmark `json:"bookmarks"`
		NextCursor *string    `json:"nextCursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("failed to decode bookmark page: %w", err)
	}

	next := ""
	if page.NextCursor != nil {
		next = *page.NextCursor
	}
	return page.Bookmarks, next, nil
}

// Bookmarks returns an iterator over bookmarks newer than since, newest
// first, fetching pages on demand. A max of 0 means unbounded. Each call
// restarts pagination from the first page.
func (c *Client) Bookmarks(since time.Time, max int) *BookmarkIterator {
	return &BookmarkIterator{client: c, since: since, max: max}
}

// BookmarkIterator walks the cursor-paginated bookmark listing. Use like
// a bufio.Scanner: for it.Next() { it.Bookmark() } followed by it.Err().
type BookmarkIterator struct {
	client   *Client
	since    time.Time
	max      int
	yielded  int
	page     []Bookmark
	idx      int
	cursor   string
	started  bool
	done     bool
	err      error
	current  Bookmark
}

func (it *BookmarkIterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.max > 0 && it.yielded >= it.max {
		it.done = true
		return false
	}

	for {
		if it.idx < len(it.page) {
			bookmark := it.page[it.idx]
			it.idx++
			// The listing is newest first, so the first bookmark at
			// or before the watermark ends the walk.
			if !bookmark.CreatedAt.After(it.since) {
				it.done = true
				return false
			}
			it.current = bookmark
			it.yielded++
			return true
		}

		if it.started && it.cursor == "" {
			it.done = true
			return false
		}

		page, next, err := it.client.ListPage(it.cursor)
		if err != nil {
			it.err = err
			return false
		}
		it.started = true
		it.page = page
		it.idx = 0
		it.cursor = next

		if len(page) == 0 && next == "" {
			it.done = true
			return false
		}
	}
}

func (it *BookmarkIterator) Bookmark() Bookmark {
	return it.current
}

func (it *BookmarkIterator) Err() error {
	return it.err
}
