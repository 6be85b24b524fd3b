package model

import "time"

// SubmissionStatus 提交状态, queued/processing 为非终态
type SubmissionStatus string

const (
	SubmissionStatusQueued     SubmissionStatus = "queued"
	SubmissionStatusProcessing SubmissionStatus = "processing"
	SubmissionStatusAccepted   SubmissionStatus = "accepted"
	SubmissionStatusWrong      SubmissionStatus = "wrong"
	SubmissionStatusError      SubmissionStatus = "error"
)

// Terminal 是否终态, 终态后提交记录不再变更
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case SubmissionStatusAccepted, SubmissionStatusWrong, SubmissionStatusError:
		return true
	}
	return false
}

type Submission struct {
	ID              uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint64           `gorm:"not null;index:idx_user_problem" json:"user_id"`
	ProblemID       uint64           `gorm:"not null;index:idx_user_problem" json:"problem_id"`
	Code            string           `gorm:"type:text;not null" json:"code"`
	Language        Language         `gorm:"type:varchar(16);not null" json:"language"`
	Status          SubmissionStatus `gorm:"type:varchar(16);not null;default:queued" json:"status"`
	TestCasesPassed int              `gorm:"not null;default:0" json:"test_cases_passed"`
	TestCasesTotal  int              `gorm:"not null;default:0" json:"test_cases_total"` // 创建时固定, 之后不再变更
	Runtime         float64          `gorm:"not null;default:0" json:"runtime"`          // 秒
	Memory          int              `gorm:"not null;default:0" json:"memory"`           // KB
	ErrorMessage    string           `gorm:"type:text" json:"error_message,omitempty"`
	JobID           string           `gorm:"type:varchar(64);index" json:"job_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type SubmitCodeParam struct {
	CommonParam `json:"-"`

	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required,supported_language"`
	ProblemID uint64 `json:"problem_id" binding:"required"`
}

type SubmitCodeResponse struct {
	SubmissionID uint64           `json:"submission_id"`
	JobID        string           `json:"job_id"`
	Status       SubmissionStatus `json:"status"`
}

type RunCodeParam struct {
	CommonParam `json:"-"`

	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required,supported_language"`
	ProblemID uint64 `json:"problem_id" binding:"required"`
}

type RunCodeResponse struct {
	JobID  string           `json:"job_id"`
	Status SubmissionStatus `json:"status"`
}

type GetSubmissionParam struct {
	CommonParam `json:"-"`

	SubmissionID uint64 `form:"submission_id" binding:"required"`
}

type GetSubmissionResponse struct {
	Submission Submission `json:"submission"`
}

type GetJobStatusParam struct {
	CommonParam `json:"-"`

	JobID string `form:"job_id" binding:"required"`
}

type GetJobStatusResponse struct {
	JobID        string `json:"job_id"`
	State        string `json:"state"`
	IsRunCode    bool   `json:"is_run_code"`
	Result       any    `json:"result,omitempty"`
	FailedReason string `json:"failed_reason,omitempty"`
}

type GetQueueHealthParam struct {
	CommonParam `json:"-"`
}

type QueueSystemInfo struct {
	ConcurrentWorkers int `json:"concurrent_workers"`
	MaxJobsPerSecond  int `json:"max_jobs_per_second"`
	TimeoutPerJobMs   int `json:"timeout_per_job_ms"`
}

type GetQueueHealthResponse struct {
	Waiting   int64           `json:"waiting"`
	Active    int64           `json:"active"`
	Completed int64           `json:"completed"`
	Failed    int64           `json:"failed"`
	Total     int64           `json:"total"`
	System    QueueSystemInfo `json:"system"`
	Timestamp time.Time       `json:"timestamp"`
}

type ExportSubmissionDataParam struct {
	CommonParam `json:"-"`

	ProblemID uint64 `form:"problem_id" binding:"required"`
	Format    string `form:"format" binding:"required,oneof=csv xlsx"`
}

// TestCaseReport 试运行的单条测试用例报告, 仅随任务结果返回, 不落库
type TestCaseReport struct {
	TestCase       int    `json:"testCase"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Status         string `json:"status"`
	StatusID       int    `json:"statusId"`
	Runtime        float64 `json:"runtime"`
	Memory         int    `json:"memory"`
	Error          string `json:"error,omitempty"`
	CompileOutput  string `json:"compileOutput,omitempty"`
	Passed         bool   `json:"passed"`
}

// RunCodeResult 试运行任务的结果值, 由状态接口透传给客户端
type RunCodeResult struct {
	Success          bool             `json:"success"`
	JobType          string           `json:"job_type"`
	Status           SubmissionStatus `json:"status"`
	TestCasesPassed  int              `json:"test_cases_passed"`
	TotalTestCases   int              `json:"total_test_cases"`
	Runtime          float64          `json:"runtime"`
	Memory           int              `json:"memory"`
	ProcessedResults []TestCaseReport `json:"processed_results"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
}

// SubmitCodeResult 真实提交任务的结果值
type SubmitCodeResult struct {
	Success          bool             `json:"success"`
	JobType          string           `json:"job_type"`
	SubmissionID     uint64           `json:"submission_id"`
	Status           SubmissionStatus `json:"status"`
	TestCasesPassed  int              `json:"test_cases_passed"`
	TotalTestCases   int              `json:"total_test_cases"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
}
