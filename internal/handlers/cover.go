package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed cover.png
var coverArt []byte

// ServeCoverArt serves the channel artwork the feed points at.
func (h *Handlers) ServeCoverArt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(coverArt)
}
