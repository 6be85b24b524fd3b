package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"gorm.io/gorm"

	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/judge0"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
)

type SubmissionService interface {
	// SubmitCode 真实提交: 落库一条 queued 提交记录并入队普通优先级判题任务
	SubmitCode(ctx context.Context, param *model.SubmitCodeParam) (*model.SubmitCodeResponse, error)
	// RunCode 试运行: 仅入队高优先级任务, 不落库, 只使用可见测试用例
	RunCode(ctx context.Context, param *model.RunCodeParam) (*model.RunCodeResponse, error)
	// GetSubmission 按 id 查询提交记录, 非本人且非管理员视为不存在
	GetSubmission(ctx context.Context, param *model.GetSubmissionParam) (*model.GetSubmissionResponse, error)
	// GetJobStatus 查询队列任务状态, 终态任务附带结果值或失败原因
	GetJobStatus(ctx context.Context, param *model.GetJobStatusParam) (*model.GetJobStatusResponse, error)
	// GetQueueHealth 队列健康快照
	GetQueueHealth(ctx context.Context, param *model.GetQueueHealthParam) (*model.GetQueueHealthResponse, error)

	// MarkProcessing 将 queued 的提交置为 processing
	MarkProcessing(ctx context.Context, submissionID uint64) error
	// ApplyVerdict 写入终态判题结论, 已是终态的记录不再变更
	ApplyVerdict(ctx context.Context, submissionID uint64, verdict model.Verdict) error
	// MarkSystemError 判题流程失败时将提交置为 error 终态
	MarkSystemError(ctx context.Context, submissionID uint64, message string) error
	// MarkStuckSubmissionsError 将超过 deadline 仍未终态的提交置为 error, 返回处理数量
	MarkStuckSubmissionsError(ctx context.Context, deadline time.Time) (int64, error)
}

type SubmissionServiceImpl struct {
	db         *gorm.DB
	q          *queue.Queue
	problemSvc ProblemService
	workers    int
	log        logger.Logger
}

var _ SubmissionService = (*SubmissionServiceImpl)(nil)

func NewSubmissionService(db *gorm.DB, q *queue.Queue, problemSvc ProblemService, workers int, log logger.Logger) SubmissionService {
	return &SubmissionServiceImpl{
		db:         db,
		q:          q,
		problemSvc: problemSvc,
		workers:    workers,
		log:        log,
	}
}

func (s *SubmissionServiceImpl) SubmitCode(ctx context.Context, param *model.SubmitCodeParam) (*model.SubmitCodeResponse, error) {
	languageID, testCases, err := s.prepare(ctx, param.Language, param.ProblemID, true)
	if err != nil {
		return nil, err
	}

	submission := &model.Submission{
		UserID:         param.Operator,
		ProblemID:      param.ProblemID,
		Code:           param.Code,
		Language:       model.Language(param.Language),
		Status:         model.SubmissionStatusQueued,
		TestCasesTotal: len(testCases),
	}
	if err = s.db.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, fmt.Errorf("SubmitCode failed at create submission: %w", err)
	}

	payload := &model.JudgePayload{
		Requests:     buildExecutionRequests(param.Code, languageID, testCases),
		SubmissionID: submission.ID,
		ProblemID:    param.ProblemID,
		UserID:       param.Operator,
		IsRunCode:    false,
	}
	job, err := s.q.Enqueue(ctx, model.JobTypeExecuteCode, payload, queue.Options{Priority: queue.PriorityNormal})
	if err != nil {
		return nil, fmt.Errorf("SubmitCode failed at enqueue: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", submission.ID).
		UpdateColumn("job_id", job.ID).Error
	if err != nil {
		// 任务已入队, 回填失败只影响按任务 id 反查, 不阻断提交
		s.log.WarnContext(ctx, "backfill job id failed",
			logger.Uint64("submission_id", submission.ID),
			logger.String("job_id", job.ID),
			logger.Error(err),
		)
	}

	s.log.InfoContext(ctx, "submission accepted",
		logger.Uint64("submission_id", submission.ID),
		logger.String("job_id", job.ID),
		logger.String("language", param.Language),
		logger.Int("test_cases", len(testCases)),
	)
	return &model.SubmitCodeResponse{
		SubmissionID: submission.ID,
		JobID:        job.ID,
		Status:       model.SubmissionStatusQueued,
	}, nil
}

func (s *SubmissionServiceImpl) RunCode(ctx context.Context, param *model.RunCodeParam) (*model.RunCodeResponse, error) {
	languageID, testCases, err := s.prepare(ctx, param.Language, param.ProblemID, false)
	if err != nil {
		return nil, err
	}

	payload := &model.JudgePayload{
		Requests:  buildExecutionRequests(param.Code, languageID, testCases),
		RunID:     fmt.Sprintf("run-%d-%d", param.Operator, time.Now().UnixMilli()),
		ProblemID: param.ProblemID,
		UserID:    param.Operator,
		IsRunCode: true,
	}
	job, err := s.q.Enqueue(ctx, model.JobTypeExecuteCode, payload, queue.Options{Priority: queue.PriorityHigh})
	if err != nil {
		return nil, fmt.Errorf("RunCode failed at enqueue: %w", err)
	}

	s.log.InfoContext(ctx, "run code accepted",
		logger.String("job_id", job.ID),
		logger.String("language", param.Language),
		logger.Int("test_cases", len(testCases)),
	)
	return &model.RunCodeResponse{
		JobID:  job.ID,
		Status: model.SubmissionStatusQueued,
	}, nil
}

// prepare 校验语言、题目与测试用例, 返回 Judge0 语言 id 与测试用例集
func (s *SubmissionServiceImpl) prepare(ctx context.Context, language string, problemID uint64, includeHidden bool) (int, []model.TestCase, error) {
	languageID, ok := model.Language(language).Judge0ID()
	if !ok {
		return 0, nil, ErrUnsupportedLanguage
	}
	if _, err := s.problemSvc.GetProblemByID(ctx, problemID); err != nil {
		return 0, nil, err
	}
	testCases, err := s.problemSvc.GetTestCases(ctx, problemID, includeHidden)
	if err != nil {
		return 0, nil, err
	}
	// 零用例任务一旦入队必然产出空判题, 在入口直接拒绝
	if len(testCases) == 0 {
		return 0, nil, ErrNoTestCases
	}
	return languageID, testCases, nil
}

func buildExecutionRequests(code string, languageID int, testCases []model.TestCase) []judge0.ExecutionRequest {
	requests := make([]judge0.ExecutionRequest, 0, len(testCases))
	for _, tc := range testCases {
		requests = append(requests, judge0.ExecutionRequest{
			SourceCode:     code,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
	}
	return requests
}

func (s *SubmissionServiceImpl) GetSubmission(ctx context.Context, param *model.GetSubmissionParam) (*model.GetSubmissionResponse, error) {
	var submission model.Submission
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", param.SubmissionID).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSubmission failed at find submission: %w", err)
	}
	// 他人的提交对普通用户视为不存在, 避免泄露提交 id 的存在性
	if submission.UserID != param.Operator && param.Role != model.RoleAdmin {
		return nil, ErrSubmissionNotFound
	}
	return &model.GetSubmissionResponse{Submission: submission}, nil
}

func (s *SubmissionServiceImpl) GetJobStatus(ctx context.Context, param *model.GetJobStatusParam) (*model.GetJobStatusResponse, error) {
	job, err := s.q.Job(ctx, param.JobID)
	if err != nil {
		return nil, err
	}

	var payload model.JudgePayload
	if err = json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("GetJobStatus failed at unmarshal payload: %w", err)
	}
	if payload.UserID != param.Operator && param.Role != model.RoleAdmin {
		return nil, ErrJobAccessDenied
	}

	resp := &model.GetJobStatusResponse{
		JobID:     job.ID,
		State:     string(job.State),
		IsRunCode: payload.IsRunCode,
	}
	switch job.State {
	case queue.StateCompleted:
		if payload.IsRunCode {
			var result model.RunCodeResult
			if err = json.Unmarshal(job.Result, &result); err != nil {
				return nil, fmt.Errorf("GetJobStatus failed at unmarshal run result: %w", err)
			}
			resp.Result = result
		} else {
			var result model.SubmitCodeResult
			if err = json.Unmarshal(job.Result, &result); err != nil {
				return nil, fmt.Errorf("GetJobStatus failed at unmarshal submit result: %w", err)
			}
			resp.Result = result
		}
	case queue.StateFailed:
		resp.FailedReason = job.FailedReason
	}
	return resp, nil
}

func (s *SubmissionServiceImpl) GetQueueHealth(ctx context.Context, _ *model.GetQueueHealthParam) (*model.GetQueueHealthResponse, error) {
	counts, err := s.q.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetQueueHealth failed at queue counts: %w", err)
	}
	cfg := s.q.Config()
	return &model.GetQueueHealthResponse{
		Waiting:   counts.Waiting,
		Active:    counts.Active,
		Completed: counts.Completed,
		Failed:    counts.Failed,
		Total:     counts.Total,
		System: model.QueueSystemInfo{
			ConcurrentWorkers: s.workers,
			MaxJobsPerSecond:  cfg.MaxJobsPerSecond,
			TimeoutPerJobMs:   int(cfg.JobTimeout.Milliseconds()),
		},
		Timestamp: time.Now(),
	}, nil
}

func (s *SubmissionServiceImpl) MarkProcessing(ctx context.Context, submissionID uint64) error {
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND status = ?", submissionID, model.SubmissionStatusQueued).
		Update("status", model.SubmissionStatusProcessing).Error
	if err != nil {
		return fmt.Errorf("MarkProcessing failed at update status: %w", err)
	}
	return nil
}

func (s *SubmissionServiceImpl) ApplyVerdict(ctx context.Context, submissionID uint64, verdict model.Verdict) error {
	// 终态不可变: 重试或停滞恢复再次写入时, 条件更新命中 0 行即自然幂等
	res := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND status IN ?", submissionID,
			[]model.SubmissionStatus{model.SubmissionStatusQueued, model.SubmissionStatusProcessing}).
		Updates(map[string]any{
			"status":            verdict.Status,
			"test_cases_passed": verdict.TestCasesPassed,
			"runtime":           verdict.Runtime,
			"memory":            verdict.Memory,
			"error_message":     verdict.ErrorMessage,
		})
	if res.Error != nil {
		return fmt.Errorf("ApplyVerdict failed at update submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.WarnContext(ctx, "verdict skipped, submission already terminal",
			logger.Uint64("submission_id", submissionID),
			logger.String("status", string(verdict.Status)),
		)
	}
	return nil
}

func (s *SubmissionServiceImpl) MarkSystemError(ctx context.Context, submissionID uint64, message string) error {
	return s.ApplyVerdict(ctx, submissionID, model.Verdict{
		Status:       model.SubmissionStatusError,
		ErrorMessage: "System error: " + message,
	})
}

func (s *SubmissionServiceImpl) MarkStuckSubmissionsError(ctx context.Context, deadline time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("status IN ? AND updated_at < ?",
			[]model.SubmissionStatus{model.SubmissionStatusQueued, model.SubmissionStatusProcessing}, deadline).
		Updates(map[string]any{
			"status":        model.SubmissionStatusError,
			"error_message": "System error: submission stuck in non-terminal state",
		})
	if res.Error != nil {
		return 0, fmt.Errorf("MarkStuckSubmissionsError failed at update submissions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
