package models

import "time"

type TaskState string

const (
	TaskPending TaskState = "PENDING"
	TaskStarted TaskState = "STARTED"
	TaskRetry   TaskState = "RETRY"
	TaskSuccess TaskState = "SUCCESS"
	TaskFailure TaskState = "FAILURE"
)

type TaskResult struct {
	ID        string     `json:"task_id"`
	Name      string     `json:"task_name"`
	State     TaskState  `json:"status"`
	Args      []string   `json:"args,omitempty"`
	Retries   int        `json:"retries"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"date_created"`
	DoneAt    *time.Time `json:"date_done,omitempty"`
}

func (r *TaskResult) Ready() bool {
	return r.State == TaskSuccess || r.State == TaskFailure
}
