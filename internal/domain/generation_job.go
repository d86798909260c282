package domain

import "time"

type GenerationJobStatus string

const (
	JobQueued    GenerationJobStatus = "queued"
	JobRunning   GenerationJobStatus = "running"
	JobSucceeded GenerationJobStatus = "succeeded"
	JobFailed    GenerationJobStatus = "failed"
)

// GenerationJob 一次自动排班任务，由 api 投递到消息队列，由 worker 执行
type GenerationJob struct {
	ID             string              `json:"id"`
	WardID         int64               `json:"wardID"`
	Year           int                 `json:"year"`
	Month          int                 `json:"month"`
	Seed           *int64              `json:"seed,omitempty"`
	TimeoutSeconds int                 `json:"timeoutSeconds,omitempty"`
	RequestedBy    int64               `json:"requestedBy"`
	Status         GenerationJobStatus `json:"status"`
	Score          *float64            `json:"score,omitempty"`
	SnapshotID     *int64              `json:"snapshotID,omitempty"`
	Error          string              `json:"error,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}
