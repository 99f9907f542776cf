package main

import (
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"bookmark-podcaster/internal/archive"
	"bookmark-podcaster/internal/config"
	"bookmark-podcaster/internal/db"
	"bookmark-podcaster/internal/extract"
	"bookmark-podcaster/internal/hoarder"
	"bookmark-podcaster/internal/poller"
	"bookmark-podcaster/internal/tts"
	"bookmark-podcaster/internal/worker"
	"bookmark-podcaster/pkg/tasks"
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

	ttsClient, err := tts.NewClient(cfg.TTSRootURL, cfg.MP3StoragePath)
	if err != nil {
		log.Fatalf("could not set up tts client: %v", err)
	}

	hoarderClient := hoarder.NewClient(cfg.HoarderRootURL, cfg.HoarderAPIKey)

	p := poller.New(
		store,
		poller.NewHoarderSource(hoarderClient),
		ttsClient,
		archive.NewClient(""),
		extract.New(),
		cfg,
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			// One tick at a time; overlapping ticks would race on the
			// episode store's read-modify-write cycles.
			Concurrency: 1,
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(p)
	mux.HandleFunc(tasks.TypePollBookmarks, taskHandler.HandlePollBookmarksTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
