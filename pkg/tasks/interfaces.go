package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer is the slice of asynq.Client the HTTP handlers need to
// trigger a poll, kept as an interface so tests can record what was
// enqueued.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
