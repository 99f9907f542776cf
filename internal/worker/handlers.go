package worker

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
)

// Reconciler runs one poll tick. Implemented by *poller.Poller.
type Reconciler interface {
	Poll() error
}

type TaskHandler struct {
	poller Reconciler
}

func NewTaskHandler(p Reconciler) *TaskHandler {
	return &TaskHandler{poller: p}
}

func (h *TaskHandler) HandlePollBookmarksTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting bookmark poll")
	if err := h.poller.Poll(); err != nil {
		log.Printf("Poll failed: %v", err)
		return err
	}
	log.Println("Finished bookmark poll")
	return nil
}
