package poller

import (
	"fmt"

	"bookmark-podcaster/internal/models"
)

// NarrationText assembles the text sent to the TTS service: the title, a
// by-line when authors are known, then the article body.
func NarrationText(episode models.Episode) string {
	byLine := ""
	if line := episode.AuthorLine(); line != "" {
		byLine = "Written By " + line
	}
	return fmt.Sprintf("%s\n%s\n\n%s", episode.Title, byLine, episode.Text)
}
