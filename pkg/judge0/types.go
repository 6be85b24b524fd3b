package judge0

import "strconv"

// Judge0 状态码, 1/2 为非终态
const (
	StatusInQueue          = 1
	StatusProcessing       = 2
	StatusAccepted         = 3
	StatusWrongAnswer      = 4
	StatusTimeLimitExceed  = 5
	StatusCompilationError = 6
	StatusRuntimeError     = 7
	StatusInternalError    = 13
	StatusExecFormatError  = 14
)

var statusDescriptions = map[int]string{
	StatusInQueue:          "In Queue",
	StatusProcessing:       "Processing",
	StatusAccepted:         "Accepted",
	StatusWrongAnswer:      "Wrong Answer",
	StatusTimeLimitExceed:  "Time Limit Exceeded",
	StatusCompilationError: "Compilation Error",
	StatusRuntimeError:     "Runtime Error",
	StatusInternalError:    "Internal Error",
	StatusExecFormatError:  "Exec Format Error",
}

// StatusDescription 返回状态码的可读描述
func StatusDescription(statusID int) string {
	if desc, ok := statusDescriptions[statusID]; ok {
		return desc
	}
	return "Unknown Status (" + strconv.Itoa(statusID) + ")"
}

// ExecutionRequest 单个测试用例的执行请求
type ExecutionRequest struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// TestCaseOutcome 单个测试用例的判题结果
type TestCaseOutcome struct {
	Token         string `json:"token"`
	StatusID      int    `json:"status_id"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Time          string `json:"time"` // 秒, Judge0 返回十进制字符串
	Memory        int    `json:"memory"` // KB
}

// Terminal 判题是否已进入终态
func (o TestCaseOutcome) Terminal() bool {
	return o.StatusID > StatusProcessing
}

// TimeSeconds 解析执行耗时, 解析失败按 0 处理
func (o TestCaseOutcome) TimeSeconds() float64 {
	if o.Time == "" {
		return 0
	}
	t, err := strconv.ParseFloat(o.Time, 64)
	if err != nil {
		return 0
	}
	return t
}

type batchSubmitRequest struct {
	Submissions []ExecutionRequest `json:"submissions"`
}

type batchSubmitItem struct {
	Token string `json:"token"`
}

type batchStatusResponse struct {
	Submissions []TestCaseOutcome `json:"submissions"`
}
