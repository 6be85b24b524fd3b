package recovery

import (
	"context"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
)

// StalledJobRecoverer 定期巡检停滞的 active 任务。
// worker 崩溃或退出时手头任务会留在 active 集合里, 靠这个任务收回。
type StalledJobRecoverer struct {
	q   *queue.Queue
	log logger.Logger
}

func NewStalledJobRecoverer(q *queue.Queue, log logger.Logger) *StalledJobRecoverer {
	return &StalledJobRecoverer{
		q:   q,
		log: log,
	}
}

func (r *StalledJobRecoverer) RunRecovery(ctx context.Context) error {
	recovered, err := r.q.RecoverStalled(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		r.log.InfoContext(ctx, "stalled jobs recovered", logger.Int("count", recovered))
	}
	return nil
}
