package feed

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"bookmark-podcaster/internal/models"
)

// GetBaseURL resolves the public base URL for enclosure links, preferring
// the BASE_URL env var over whatever host the request came in on.
func GetBaseURL(r *http.Request) string {
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		return strings.TrimSuffix(baseURL, "/")
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders the podcast feed. episodes must be feed-eligible
// (mp3 set) and ordered oldest first; only the newest maxEpisodes make it
// into the feed.
func GenerateRSS(episodes []models.Episode, baseURL string, maxEpisodes int) (string, error) {
	if maxEpisodes > 0 && len(episodes) > maxEpisodes {
		episodes = episodes[len(episodes)-maxEpisodes:]
	}

	now := time.Now()
	p := podcast.New(
		"Hoarder Articles",
		baseURL+"/feed",
		"Hoarder Articles",
		&now, &now,
	)
	p.Language = "en"
	p.IAuthor = "Hoarder"
	p.AddImage(baseURL + "/cover.png")

	for _, episode := range episodes {
		pubDate := episode.CreatedAt
		item := podcast.Item{
			GUID:        episode.ID,
			Title:       Sanitize(episode.Title),
			Description: Sanitize(episode.URL + "<br>" + episode.Description),
			Link:        Sanitize(episode.URL),
			PubDate:     &pubDate,
			IAuthor:     Sanitize(episode.AuthorLine()),
		}
		item.AddEnclosure(baseURL+"/audio/"+filepath.Base(*episode.MP3), podcast.MP3, 0)
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	return p.String(), nil
}

// Sanitize makes third-party text safe for XML embedding: NUL bytes are
// dropped and other control characters besides tab, newline and carriage
// return become spaces.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0:
			return -1
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7f:
			return ' '
		default:
			return r
		}
	}, s)
}
