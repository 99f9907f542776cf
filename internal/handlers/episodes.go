package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"bookmark-podcaster/pkg/tasks"
)

// ListEpisodes returns all episodes, newest first.
func (h *Handlers) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.store.AllEpisodes(true)
	if err != nil {
		log.Printf("Error listing episodes: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, episodes)
}

// ListTTSWaiting returns the episodes still waiting for narration.
func (h *Handlers) ListTTSWaiting(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.store.PendingNarration(1000)
	if err != nil {
		log.Printf("Error listing waiting episodes: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, episodes)
}

// DeleteEpisode removes an episode row.
func (h *Handlers) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Printf("Deleting episode %s", id)

	deleted, err := h.store.DeleteEpisode(id)
	if err != nil {
		log.Printf("Error deleting episode %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return
	}
	w.Write([]byte("OK"))
}

// ResetEpisodeTTS discards an episode's narration so it gets resubmitted,
// and triggers an immediate poll.
func (h *Handlers) ResetEpisodeTTS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Printf("Requesting new TTS run for episode %s", id)

	episode, err := h.store.GetEpisode(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading episode %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if episode.MP3 != nil {
		mp3Path := filepath.Join(h.audioStoragePath, filepath.Base(*episode.MP3))
		if err := os.Remove(mp3Path); err != nil && !os.IsNotExist(err) {
			log.Printf("Error removing mp3 %s: %v", mp3Path, err)
		}
	}

	if err := h.store.ResetTTS(id); err != nil {
		log.Printf("Error resetting tts state for episode %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.enqueuePoll()
	w.Write([]byte("OK"))
}

// ForcePoll triggers an immediate reconciliation tick.
func (h *Handlers) ForcePoll(w http.ResponseWriter, r *http.Request) {
	h.enqueuePoll()
	w.Write([]byte("OK"))
}

func (h *Handlers) enqueuePoll() {
	task, err := tasks.NewPollBookmarksTask()
	if err != nil {
		log.Printf("Failed to create poll task: %v", err)
		return
	}
	if _, err := h.asynqClient.Enqueue(task); err != nil {
		log.Printf("Failed to enqueue poll task: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
