package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Episode is one narrated bookmark. The id is the bookmark id from the
// source service and never changes once the row exists.
type Episode struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Text        string         `db:"text" json:"text"`
	Authors     pq.StringArray `db:"authors" json:"authors"`
	URL         string         `db:"url" json:"url"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	CrawledAt   time.Time      `db:"crawled_at" json:"crawled_at"`
	TTSJobID    *string        `db:"tts_job_id" json:"tts_job_id"`
	MP3         *string        `db:"mp3" json:"mp3"`
}

// AuthorLine joins the authors for reading aloud: "a", "a and b",
// "a, b, and c". Empty when no authors are known.
func (e Episode) AuthorLine() string {
	authors := []string(e.Authors)
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", and " + authors[len(authors)-1]
	}
}
