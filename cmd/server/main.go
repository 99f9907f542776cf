package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"bookmark-podcaster/internal/config"
	"bookmark-podcaster/internal/db"
	"bookmark-podcaster/internal/handlers"
	"bookmark-podcaster/internal/middleware"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	store, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
	defer store.Close()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	h := handlers.New(store, client, cfg.MP3StoragePath, cfg.FeedMaxEpisodes)
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(1), 5)

	r := mux.NewRouter()
	r.HandleFunc("/episodes", h.ListEpisodes).Methods(http.MethodGet)
	r.HandleFunc("/episodes/tts_waiting", h.ListTTSWaiting).Methods(http.MethodGet)
	r.Handle("/episodes/force_update", limiter.Middleware(http.HandlerFunc(h.ForcePoll))).Methods(http.MethodGet)
	r.Handle("/episodes/tts/{id}", limiter.Middleware(http.HandlerFunc(h.ResetEpisodeTTS))).Methods(http.MethodDelete)
	r.Handle("/episodes/{id}", limiter.Middleware(http.HandlerFunc(h.DeleteEpisode))).Methods(http.MethodDelete)

	for _, path := range []string{"/feed", "/feed.xml", "/feed.rss", "/rss", "/atom", "/episodes/feed"} {
		r.HandleFunc(path, h.GetRSSFeed).Methods(http.MethodGet)
	}
	r.HandleFunc("/audio/{filename}", h.ServeAudioFile).Methods(http.MethodGet)
	r.HandleFunc("/cover.png", h.ServeCoverArt).Methods(http.MethodGet)

	log.Printf("Starting server on :%s (commit: %s)", cfg.Port, CommitSHA)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
