package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

var ErrJobNotFound = errors.New("job not found")

const fetchBlockInterval = time.Second

// Config 队列配置
type Config struct {
	Name             string
	MaxAttempts      int           // 含首次执行的总尝试次数
	JobTimeout       time.Duration // 单任务执行时限
	MaxJobsPerSecond int           // 全局任务启动速率, 保护共享的外部判题服务
	KeepCompleted    int           // 保留的已完成任务数
	KeepFailed       int           // 保留的已失败任务数
	StallTimeout     time.Duration // active 超过该时长视为停滞
	RetentionTTL     time.Duration // 任务数据的兜底过期时间
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.MaxJobsPerSecond <= 0 {
		c.MaxJobsPerSecond = 20
	}
	if c.KeepCompleted <= 0 {
		c.KeepCompleted = 50
	}
	if c.KeepFailed <= 0 {
		c.KeepFailed = 10
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = c.JobTimeout + 15*time.Second
	}
	if c.RetentionTTL <= 0 {
		c.RetentionTTL = 24 * time.Hour
	}
	return c
}

// Queue 基于 Redis 的优先级任务队列。
// 任务 id 在入队时分配且全局唯一; waiting -> active 每次尝试至多发生一次;
// 重试沿用同一任务 id 并递增尝试计数。
type Queue struct {
	rdb redis.Cmdable
	cfg Config
	log logger.Logger
}

func NewQueue(rdb redis.Cmdable, log logger.Logger, cfg Config) *Queue {
	return &Queue{
		rdb: rdb,
		cfg: cfg.withDefaults(),
		log: log,
	}
}

// Options 入队选项
type Options struct {
	Priority Priority
}

func (q *Queue) Config() Config {
	return q.cfg
}

// Enqueue 创建任务并放入等待队列
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any, opts Options) (*Job, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("Enqueue failed at marshal payload: %w", err)
	}

	job := &Job{
		ID:          uuid.NewString(),
		Type:        jobType,
		Payload:     rawPayload,
		State:       StateWaiting,
		Priority:    opts.Priority,
		MaxAttempts: q.cfg.MaxAttempts,
		TimeoutMs:   q.cfg.JobTimeout.Milliseconds(),
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err = q.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("Enqueue failed at save job: %w", err)
	}
	if err = q.rdb.LPush(ctx, q.waitKey(job.Priority), job.ID).Err(); err != nil {
		return nil, fmt.Errorf("Enqueue failed at push wait list: %w", err)
	}

	q.log.InfoContext(ctx, "job enqueued",
		logger.String("job_id", job.ID),
		logger.String("type", jobType),
		logger.Int("priority", int(opts.Priority)),
	)
	return job, nil
}

// Fetch 阻塞获取下一个任务并置为 active。高优先级队列先于普通队列被消费。
// 出队后需先通过全局准入限速, 避免聚合流量压垮外部判题服务。
func (q *Queue) Fetch(ctx context.Context) (*Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values, err := q.rdb.BRPop(ctx, fetchBlockInterval, q.waitKey(PriorityHigh), q.waitKey(PriorityNormal)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("Fetch failed at pop wait list: %w", err)
		}
		listKey, jobID := values[0], values[1]

		if err = q.acquireRateSlot(ctx); err != nil {
			// 出队后尚未进入 active 集合, 归还原队列避免任务丢失
			if pushErr := q.rdb.RPush(context.WithoutCancel(ctx), listKey, jobID).Err(); pushErr != nil {
				q.log.ErrorContext(ctx, "requeue job after rate slot failure failed",
					logger.String("job_id", jobID),
					logger.Error(pushErr),
				)
			}
			return nil, err
		}

		job, err := q.Job(ctx, jobID)
		if errors.Is(err, ErrJobNotFound) {
			// 任务数据已被保留策略清理, 跳过
			q.log.WarnContext(ctx, "job data missing, skipped", logger.String("job_id", jobID))
			continue
		}
		if err != nil {
			return nil, err
		}

		job.State = StateActive
		job.Attempts++
		job.ProcessedAt = time.Now().UnixMilli()
		if err = q.saveJob(ctx, job); err != nil {
			return nil, fmt.Errorf("Fetch failed at save job: %w", err)
		}
		if err = q.rdb.ZAdd(ctx, q.activeKey(), redis.Z{Score: float64(job.ProcessedAt), Member: job.ID}).Err(); err != nil {
			return nil, fmt.Errorf("Fetch failed at mark active: %w", err)
		}
		return job, nil
	}
}

// Complete 将任务置为 completed 并记录结果值
func (q *Queue) Complete(ctx context.Context, job *Job, result any) error {
	rawResult, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("Complete failed at marshal result: %w", err)
	}

	job.State = StateCompleted
	job.Result = rawResult
	job.FinishedAt = time.Now().UnixMilli()
	if err = q.saveJob(ctx, job); err != nil {
		return fmt.Errorf("Complete failed at save job: %w", err)
	}
	if err = q.rdb.ZRem(ctx, q.activeKey(), job.ID).Err(); err != nil {
		return fmt.Errorf("Complete failed at remove active: %w", err)
	}
	if err = q.appendHistory(ctx, q.completedKey(), job.ID, q.cfg.KeepCompleted); err != nil {
		return fmt.Errorf("Complete failed at append history: %w", err)
	}
	return nil
}

// Fail 记录一次失败。尝试次数未耗尽时任务以同一 id 回到等待队列,
// 否则进入终态 failed。返回任务是否被重试。
func (q *Queue) Fail(ctx context.Context, job *Job, reason string) (bool, error) {
	if err := q.rdb.ZRem(ctx, q.activeKey(), job.ID).Err(); err != nil {
		return false, fmt.Errorf("Fail failed at remove active: %w", err)
	}

	job.FailedReason = reason
	if job.Attempts < job.MaxAttempts {
		job.State = StateWaiting
		if err := q.saveJob(ctx, job); err != nil {
			return false, fmt.Errorf("Fail failed at save job: %w", err)
		}
		if err := q.rdb.LPush(ctx, q.waitKey(job.Priority), job.ID).Err(); err != nil {
			return false, fmt.Errorf("Fail failed at requeue: %w", err)
		}
		q.log.WarnContext(ctx, "job retried",
			logger.String("job_id", job.ID),
			logger.Int("attempts", job.Attempts),
			logger.String("reason", reason),
		)
		return true, nil
	}

	job.State = StateFailed
	job.FinishedAt = time.Now().UnixMilli()
	if err := q.saveJob(ctx, job); err != nil {
		return false, fmt.Errorf("Fail failed at save job: %w", err)
	}
	if err := q.appendHistory(ctx, q.failedKey(), job.ID, q.cfg.KeepFailed); err != nil {
		return false, fmt.Errorf("Fail failed at append history: %w", err)
	}
	q.log.ErrorContext(ctx, "job failed permanently",
		logger.String("job_id", job.ID),
		logger.Int("attempts", job.Attempts),
		logger.String("reason", reason),
	)
	return false, nil
}

// Job 按 id 查询任务
func (q *Queue) Job(ctx context.Context, id string) (*Job, error) {
	raw, err := q.rdb.Get(ctx, q.jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Job failed at get job: %w", err)
	}
	var job Job
	if err = json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("Job failed at unmarshal job: %w", err)
	}
	return &job, nil
}

// Counts 返回各状态的任务数
func (q *Queue) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	for _, key := range []string{q.waitKey(PriorityHigh), q.waitKey(PriorityNormal)} {
		n, err := q.rdb.LLen(ctx, key).Result()
		if err != nil {
			return Counts{}, fmt.Errorf("Counts failed at llen %s: %w", key, err)
		}
		counts.Waiting += n
	}
	active, err := q.rdb.ZCard(ctx, q.activeKey()).Result()
	if err != nil {
		return Counts{}, fmt.Errorf("Counts failed at zcard active: %w", err)
	}
	counts.Active = active
	completed, err := q.rdb.LLen(ctx, q.completedKey()).Result()
	if err != nil {
		return Counts{}, fmt.Errorf("Counts failed at llen completed: %w", err)
	}
	counts.Completed = completed
	failed, err := q.rdb.LLen(ctx, q.failedKey()).Result()
	if err != nil {
		return Counts{}, fmt.Errorf("Counts failed at llen failed: %w", err)
	}
	counts.Failed = failed
	counts.Total = counts.Waiting + counts.Active + counts.Completed + counts.Failed
	return counts, nil
}

// RecoverStalled 将停滞的 active 任务重新入队或按策略置为失败, 返回处理数量
func (q *Queue) RecoverStalled(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-q.cfg.StallTimeout).UnixMilli()
	ids, err := q.rdb.ZRangeByScore(ctx, q.activeKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("RecoverStalled failed at range active: %w", err)
	}

	recovered := 0
	for _, id := range ids {
		if err = q.rdb.ZRem(ctx, q.activeKey(), id).Err(); err != nil {
			return recovered, fmt.Errorf("RecoverStalled failed at remove active: %w", err)
		}
		job, err := q.Job(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			continue
		}
		if err != nil {
			return recovered, err
		}
		if job.State != StateActive {
			continue
		}

		q.log.WarnContext(ctx, "stalled job detected",
			logger.String("job_id", job.ID),
			logger.Int("attempts", job.Attempts),
		)
		if _, err = q.Fail(ctx, job, "job stalled"); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

func (q *Queue) saveJob(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.Set(ctx, q.jobKey(job.ID), raw, q.cfg.RetentionTTL).Err()
}

// appendHistory 维护有界的历史列表, 被挤出的任务数据一并删除
func (q *Queue) appendHistory(ctx context.Context, key, jobID string, keep int) error {
	if err := q.rdb.LPush(ctx, key, jobID).Err(); err != nil {
		return err
	}
	for {
		length, err := q.rdb.LLen(ctx, key).Result()
		if err != nil {
			return err
		}
		if length <= int64(keep) {
			return nil
		}
		evicted, err := q.rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if err = q.rdb.Del(ctx, q.jobKey(evicted)).Err(); err != nil {
			return err
		}
	}
}

// acquireRateSlot 全局每秒任务启动数准入, 独立于按身份的请求限流
func (q *Queue) acquireRateSlot(ctx context.Context) error {
	for {
		now := time.Now()
		key := fmt.Sprintf("%s:limiter:%d", q.prefix(), now.Unix())
		count, err := q.rdb.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("acquireRateSlot failed at incr: %w", err)
		}
		if count == 1 {
			if err = q.rdb.Expire(ctx, key, 2*time.Second).Err(); err != nil {
				return fmt.Errorf("acquireRateSlot failed at expire: %w", err)
			}
		}
		if count <= int64(q.cfg.MaxJobsPerSecond) {
			return nil
		}

		wait := time.Until(now.Truncate(time.Second).Add(time.Second))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (q *Queue) prefix() string {
	return "queue:" + q.cfg.Name
}

func (q *Queue) jobKey(id string) string {
	return q.prefix() + ":job:" + id
}

func (q *Queue) waitKey(p Priority) string {
	if p == PriorityHigh {
		return q.prefix() + ":wait:high"
	}
	return q.prefix() + ":wait:normal"
}

func (q *Queue) activeKey() string {
	return q.prefix() + ":active"
}

func (q *Queue) completedKey() string {
	return q.prefix() + ":completed"
}

func (q *Queue) failedKey() string {
	return q.prefix() + ":failed"
}
