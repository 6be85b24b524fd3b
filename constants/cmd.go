package constants

const (
	SubmitCodePath     = "/SubmitCode"     // 提交代码, 异步判题
	RunCodePath        = "/RunCode"        // 试运行代码, 仅执行可见测试用例
	GetSubmissionPath  = "/GetSubmission"  // 获取提交记录
	GetJobStatusPath   = "/GetJobStatus"   // 查询判题任务状态
	GetQueueHealthPath = "/GetQueueHealth" // 查询判题队列健康状态
)

const (
	ExportSubmissionDataPath = "/ExportSubmissionData" // 导出题目提交记录
)

const (
	LoginPath      = "/Login"      // 用户登录
	CreateUserPath = "/CreateUser" // 创建用户
)
