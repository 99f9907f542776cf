package handlers

import (
	"log"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"bookmark-podcaster/internal/feed"
)

// GetRSSFeed renders the podcast feed. An empty feed is valid output.
func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.store.EpisodesWithAudio()
	if err != nil {
		log.Printf("Error getting episodes: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(episodes, feed.GetBaseURL(r), h.feedMaxEpisodes)
	if err != nil {
		log.Printf("Error generating RSS: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}

// ServeAudioFile serves a stored narration by file name.
func (h *Handlers) ServeAudioFile(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(mux.Vars(r)["filename"])
	http.ServeFile(w, r, filepath.Join(h.audioStoragePath, filename))
}
