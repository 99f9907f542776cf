package tasks

import (
	"github.com/hibiken/asynq"
)

const (
	TypePollBookmarks = "bookmarks:poll"
)

// NewPollBookmarksTask triggers one reconciliation tick. The worker runs
// these with concurrency 1, so scheduled and forced polls never overlap.
func NewPollBookmarksTask() (*asynq.Task, error) {
	return asynq.NewTask(TypePollBookmarks, nil), nil
}
