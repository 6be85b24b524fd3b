package queue

import (
	encjson "encoding/json"
	"time"
)

// State 任务状态, waiting -> active -> completed/failed,
// 停滞的 active 任务经 RecoverStalled 回到 waiting 或终态 failed
type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

type Priority int

const (
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// Job 队列任务。队列只是暂态的工作跟踪结构, 不是 system of record
type Job struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Payload      encjson.RawMessage `json:"payload"`
	State        State              `json:"state"`
	Priority     Priority           `json:"priority"`
	Attempts     int                `json:"attempts"` // 已开始的执行次数
	MaxAttempts  int                `json:"max_attempts"`
	TimeoutMs    int64              `json:"timeout_ms"`
	Result       encjson.RawMessage `json:"result,omitempty"`
	FailedReason string             `json:"failed_reason,omitempty"`
	CreatedAt    int64              `json:"created_at"`    // unix 毫秒
	ProcessedAt  int64              `json:"processed_at"`  // 最近一次开始执行时间
	FinishedAt   int64              `json:"finished_at"`   // 进入终态时间
}

// Timeout 单个任务的执行时限
func (j *Job) Timeout() time.Duration {
	return time.Duration(j.TimeoutMs) * time.Millisecond
}

// Terminal 是否终态
func (j *Job) Terminal() bool {
	return j.State == StateCompleted || j.State == StateFailed
}

// Counts 队列各状态任务数
type Counts struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Total     int64 `json:"total"`
}
