package main

import (
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"bookmark-podcaster/internal/config"
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

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{},
	)

	task, err := tasks.NewPollBookmarksTask()
	if err != nil {
		log.Fatalf("could not create task: %v", err)
	}

	entry := fmt.Sprintf("@every %dm", int(cfg.PollInterval.Minutes()))
	if _, err := scheduler.Register(entry, task); err != nil {
		log.Fatalf("could not register task: %v", err)
	}

	log.Printf("Scheduler starting, polling %s (commit: %s)", entry, CommitSHA)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
