package event

import json "github.com/bytedance/sonic"

const SubmissionJudgedTopic = "submission_judged_topic"

// SubmissionJudgedEvent 真实提交进入终态后发布, 供排名/统计等下游服务消费
type SubmissionJudgedEvent struct {
	SubmissionID    uint64  `json:"submission_id"`
	ProblemID       uint64  `json:"problem_id"`
	UserID          uint64  `json:"user_id"`
	Status          string  `json:"status"`
	TestCasesPassed int     `json:"test_cases_passed"`
	TestCasesTotal  int     `json:"test_cases_total"`
	Runtime         float64 `json:"runtime"`
	Memory          int     `json:"memory"`
	JudgedAt        int64   `json:"judged_at"` // unix 毫秒
}

func (e *SubmissionJudgedEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
