package recovery

import (
	"context"
	"time"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/service"
)

// StuckSubmissionJanitor 兜底: 任务数据被保留策略清理等极端情况下,
// 提交记录可能永远停在 queued/processing, 超过时限统一落 error 终态。
type StuckSubmissionJanitor struct {
	submissionSvc service.SubmissionService
	log           logger.Logger
	stuckAfter    time.Duration
}

func NewStuckSubmissionJanitor(submissionSvc service.SubmissionService, log logger.Logger, stuckAfter time.Duration) *StuckSubmissionJanitor {
	return &StuckSubmissionJanitor{
		submissionSvc: submissionSvc,
		log:           log,
		stuckAfter:    stuckAfter,
	}
}

func (j *StuckSubmissionJanitor) RunCleanup(ctx context.Context) error {
	affected, err := j.submissionSvc.MarkStuckSubmissionsError(ctx, time.Now().Add(-j.stuckAfter))
	if err != nil {
		return err
	}
	if affected > 0 {
		j.log.InfoContext(ctx, "stuck submissions marked as error", logger.Int64("count", affected))
	}
	return nil
}
