package handlers

import (
	"bookmark-podcaster/internal/db"
	"bookmark-podcaster/pkg/tasks"
)

type Handlers struct {
	store            *db.Store
	asynqClient      tasks.TaskEnqueuer
	audioStoragePath string
	feedMaxEpisodes  int
}

func New(store *db.Store, asynqClient tasks.TaskEnqueuer, audioStoragePath string, feedMaxEpisodes int) *Handlers {
	return &Handlers{
		store:            store,
		asynqClient:      asynqClient,
		audioStoragePath: audioStoragePath,
		feedMaxEpisodes:  feedMaxEpisodes,
	}
}
