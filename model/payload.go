package model

import "github.com/to404hanga/online_judge_evaluator/pkg/judge0"

const (
	JobTypeExecuteCode = "execute-code"

	JobTypeRunCode    = "run-code"
	JobTypeSubmitCode = "submit-code"
)

// JudgePayload 判题任务载荷。SubmissionID 为弱引用:
// 真实提交指向已存在的提交记录, 试运行仅携带临时 RunID, 不落库
type JudgePayload struct {
	Requests     []judge0.ExecutionRequest `json:"requests"`
	SubmissionID uint64                    `json:"submission_id,omitempty"`
	RunID        string                    `json:"run_id,omitempty"`
	ProblemID    uint64                    `json:"problem_id"`
	UserID       uint64                    `json:"user_id"`
	IsRunCode    bool                      `json:"is_run_code"`
}
