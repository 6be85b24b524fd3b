package model

// Verdict 一次判题的聚合结论, 由结果聚合器产出
type Verdict struct {
	Status          SubmissionStatus `json:"status"`
	TestCasesPassed int              `json:"test_cases_passed"`
	Runtime         float64          `json:"runtime"` // 通过用例中的最大耗时, 秒
	Memory          int              `json:"memory"`  // 通过用例中的最大内存, KB
	ErrorMessage    string           `json:"error_message,omitempty"`
}
