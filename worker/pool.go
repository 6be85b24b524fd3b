package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	json "github.com/bytedance/sonic"

	"github.com/to404hanga/online_judge_evaluator/event"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/judge0"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
)

// JudgeClient 外部判题服务, submit-then-poll
type JudgeClient interface {
	SubmitBatch(ctx context.Context, requests []judge0.ExecutionRequest) ([]string, error)
	WaitForOutcomes(ctx context.Context, tokens []string) ([]judge0.TestCaseOutcome, error)
}

// SubmissionStore 提交记录的状态流转, 真实提交专用
type SubmissionStore interface {
	MarkProcessing(ctx context.Context, submissionID uint64) error
	ApplyVerdict(ctx context.Context, submissionID uint64, verdict model.Verdict) error
	MarkSystemError(ctx context.Context, submissionID uint64, message string) error
}

// SolvedProblemStore 用户已通过题目集合
type SolvedProblemStore interface {
	AddSolvedProblem(ctx context.Context, userID, problemID uint64) error
}

// Pool 判题工作池。每个 worker 独立循环 Fetch -> 判题 -> 落结论,
// 单个任务的失败或 panic 不影响其他 worker。
type Pool struct {
	q           *queue.Queue
	judge       JudgeClient
	submissions SubmissionStore
	solved      SolvedProblemStore
	producer    event.Producer
	concurrency int
	log         logger.Logger
	wg          sync.WaitGroup
}

func NewPool(q *queue.Queue, judge JudgeClient, submissions SubmissionStore, solved SolvedProblemStore, producer event.Producer, concurrency int, log logger.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Pool{
		q:           q,
		judge:       judge,
		submissions: submissions,
		solved:      solved,
		producer:    producer,
		concurrency: concurrency,
		log:         log,
	}
}

// Start 启动全部 worker, ctx 取消后各 worker 处理完手头任务退出
func (p *Pool) Start(ctx context.Context) {
	p.log.Info("worker pool starting", logger.Int("concurrency", p.concurrency))
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait 阻塞直到全部 worker 退出
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()
	log := p.log
	for {
		job, err := p.q.Fetch(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Info("worker exiting", logger.Int("worker_id", workerID))
			return
		}
		if err != nil {
			log.Error("fetch job failed", logger.Int("worker_id", workerID), logger.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		p.process(ctx, workerID, job)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job *queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "job processing panicked",
				logger.Int("worker_id", workerID),
				logger.String("job_id", job.ID),
				logger.String("panic", fmt.Sprintf("%v", r)),
			)
			if _, err := p.q.Fail(ctx, job, fmt.Sprintf("panic: %v", r)); err != nil {
				p.log.ErrorContext(ctx, "fail job after panic failed", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}()

	var payload model.JudgePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.systemFailure(ctx, job, nil, fmt.Errorf("unmarshal payload: %w", err))
		return
	}

	started := time.Now()
	// 判题阶段受任务时限约束, 落结论与队列记账用外层 ctx, 避免超时任务无法收尾
	jobCtx, cancel := context.WithTimeout(ctx, job.Timeout())
	defer cancel()

	if !payload.IsRunCode {
		if err := p.submissions.MarkProcessing(jobCtx, payload.SubmissionID); err != nil {
			p.systemFailure(ctx, job, &payload, err)
			return
		}
	}

	tokens, err := p.judge.SubmitBatch(jobCtx, payload.Requests)
	if err != nil {
		p.systemFailure(ctx, job, &payload, err)
		return
	}
	outcomes, err := p.judge.WaitForOutcomes(jobCtx, tokens)
	if err != nil {
		p.systemFailure(ctx, job, &payload, err)
		return
	}

	verdict := Aggregate(outcomes)
	elapsed := time.Since(started).Milliseconds()

	if payload.IsRunCode {
		p.completeRunCode(ctx, job, &payload, verdict, outcomes, elapsed)
		return
	}
	p.completeSubmitCode(ctx, job, &payload, verdict, elapsed)
}

func (p *Pool) completeRunCode(ctx context.Context, job *queue.Job, payload *model.JudgePayload, verdict model.Verdict, outcomes []judge0.TestCaseOutcome, elapsed int64) {
	result := &model.RunCodeResult{
		Success:          true,
		JobType:          model.JobTypeRunCode,
		Status:           verdict.Status,
		TestCasesPassed:  verdict.TestCasesPassed,
		TotalTestCases:   len(outcomes),
		Runtime:          verdict.Runtime,
		Memory:           verdict.Memory,
		ProcessedResults: BuildTestCaseReports(payload.Requests, outcomes),
		ProcessingTimeMs: elapsed,
	}
	if err := p.q.Complete(ctx, job, result); err != nil {
		p.log.ErrorContext(ctx, "complete run code job failed",
			logger.String("job_id", job.ID),
			logger.Error(err),
		)
		return
	}
	p.log.InfoContext(ctx, "run code judged",
		logger.String("job_id", job.ID),
		logger.String("status", string(verdict.Status)),
		logger.Int("passed", verdict.TestCasesPassed),
		logger.Int64("elapsed_ms", elapsed),
	)
}

func (p *Pool) completeSubmitCode(ctx context.Context, job *queue.Job, payload *model.JudgePayload, verdict model.Verdict, elapsed int64) {
	// 结论已经产出, 落库失败走重试; 条件更新保证重复写入幂等
	if err := p.submissions.ApplyVerdict(ctx, payload.SubmissionID, verdict); err != nil {
		p.systemFailure(ctx, job, payload, err)
		return
	}

	if verdict.Status == model.SubmissionStatusAccepted {
		if err := p.solved.AddSolvedProblem(ctx, payload.UserID, payload.ProblemID); err != nil {
			// 已通过集合是派生数据, 失败不回滚判题结论
			p.log.WarnContext(ctx, "add solved problem failed",
				logger.Uint64("user_id", payload.UserID),
				logger.Uint64("problem_id", payload.ProblemID),
				logger.Error(err),
			)
		}
	}
	p.publishJudged(ctx, payload, verdict)

	result := &model.SubmitCodeResult{
		Success:          true,
		JobType:          model.JobTypeSubmitCode,
		SubmissionID:     payload.SubmissionID,
		Status:           verdict.Status,
		TestCasesPassed:  verdict.TestCasesPassed,
		TotalTestCases:   len(payload.Requests),
		ProcessingTimeMs: elapsed,
	}
	if err := p.q.Complete(ctx, job, result); err != nil {
		p.log.ErrorContext(ctx, "complete submit code job failed",
			logger.String("job_id", job.ID),
			logger.Error(err),
		)
		return
	}
	p.log.InfoContext(ctx, "submission judged",
		logger.Uint64("submission_id", payload.SubmissionID),
		logger.String("job_id", job.ID),
		logger.String("status", string(verdict.Status)),
		logger.Int("passed", verdict.TestCasesPassed),
		logger.Int64("elapsed_ms", elapsed),
	)
}

func (p *Pool) publishJudged(ctx context.Context, payload *model.JudgePayload, verdict model.Verdict) {
	evt := &event.SubmissionJudgedEvent{
		SubmissionID:    payload.SubmissionID,
		ProblemID:       payload.ProblemID,
		UserID:          payload.UserID,
		Status:          string(verdict.Status),
		TestCasesPassed: verdict.TestCasesPassed,
		TestCasesTotal:  len(payload.Requests),
		Runtime:         verdict.Runtime,
		Memory:          verdict.Memory,
		JudgedAt:        time.Now().UnixMilli(),
	}
	data, err := evt.Marshal()
	if err != nil {
		p.log.ErrorContext(ctx, "marshal judged event failed",
			logger.Uint64("submission_id", payload.SubmissionID),
			logger.Error(err),
		)
		return
	}
	_, _, err = p.producer.Produce(ctx, &sarama.ProducerMessage{
		Topic: event.SubmissionJudgedTopic,
		Key:   sarama.StringEncoder(strconv.FormatUint(payload.ProblemID, 10)),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		// 事件流是尽力而为, 失败不影响判题结论
		p.log.WarnContext(ctx, "publish judged event failed",
			logger.Uint64("submission_id", payload.SubmissionID),
			logger.Error(err),
		)
	}
}

// systemFailure 处理判题流程自身的失败。尝试次数未耗尽时任务重试,
// 否则任务进入终态 failed, 真实提交同时落 error 终态。
// 已产出的判题结论永远不会走到这里被重试。
func (p *Pool) systemFailure(ctx context.Context, job *queue.Job, payload *model.JudgePayload, cause error) {
	retried, err := p.q.Fail(ctx, job, cause.Error())
	if err != nil {
		p.log.ErrorContext(ctx, "fail job failed",
			logger.String("job_id", job.ID),
			logger.Error(err),
		)
		return
	}
	if retried || payload == nil || payload.IsRunCode {
		return
	}
	if err = p.submissions.MarkSystemError(ctx, payload.SubmissionID, cause.Error()); err != nil {
		p.log.ErrorContext(ctx, "mark system error failed",
			logger.Uint64("submission_id", payload.SubmissionID),
			logger.Error(err),
		)
	}
}
