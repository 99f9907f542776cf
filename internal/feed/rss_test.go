package feed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bookmark-podcaster/internal/models"
)

func publishedEpisode(id string, createdAt time.Time) models.Episode {
	mp3 := id + ".mp3"
	jobID := "job-" + id
	return models.Episode{
		ID:          id,
		Title:       "Title " + id,
		Description: "Description " + id,
		URL:         "https://example.org/" + id,
		CreatedAt:   createdAt,
		CrawledAt:   createdAt.Add(time.Minute),
		TTSJobID:    &jobID,
		MP3:         &mp3,
	}
}

func TestGenerateRSSRendersEnclosures(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	episodes := []models.Episode{
		publishedEpisode("b1", base),
		publishedEpisode("b2", base.Add(time.Hour)),
	}

	rss, err := GenerateRSS(episodes, "https://pod.example.com", 50)
	assert.NoError(t, err)

	assert.Contains(t, rss, "<title>Hoarder Articles</title>")
	assert.Contains(t, rss, "https://pod.example.com/cover.png")
	assert.Contains(t, rss, `url="https://pod.example.com/audio/b1.mp3"`)
	assert.Contains(t, rss, `url="https://pod.example.com/audio/b2.mp3"`)
	assert.Contains(t, rss, `type="audio/mpeg"`)
	assert.Less(t, strings.Index(rss, "Title b1"), strings.Index(rss, "Title b2"), "feed must keep oldest-first order")
}

func TestGenerateRSSTruncatesToTheNewest(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var episodes []models.Episode
	for i := 0; i < 5; i++ {
		episodes = append(episodes, publishedEpisode(fmt.Sprintf("b%d", i), base.Add(time.Duration(i)*time.Hour)))
	}

	rss, err := GenerateRSS(episodes, "https://pod.example.com", 2)
	assert.NoError(t, err)

	assert.NotContains(t, rss, "Title b2")
	assert.Contains(t, rss, "Title b3")
	assert.Contains(t, rss, "Title b4")
}

func TestGenerateRSSSanitizesText(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	episode := publishedEpisode("b1", base)
	episode.Title = "bad\x00title\x01here"

	rss, err := GenerateRSS([]models.Episode{episode}, "https://pod.example.com", 50)
	assert.NoError(t, err)

	assert.Contains(t, rss, "badtitle here")
}

func TestGenerateRSSEmptyFeedIsValid(t *testing.T) {
	rss, err := GenerateRSS(nil, "https://pod.example.com", 50)
	assert.NoError(t, err)
	assert.Contains(t, rss, "<rss")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ab c", Sanitize("a\x00b\x02c"))
	assert.Equal(t, "tab\tand\nnewline\rkept", Sanitize("tab\tand\nnewline\rkept"))
	assert.Equal(t, "plain text unchanged", Sanitize("plain text unchanged"))
}
