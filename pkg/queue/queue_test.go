package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

type testPayload struct {
	Value string `json:"value"`
}

func newTestQueue(t *testing.T, cfg Config) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg.Name = "test"
	return NewQueue(rdb, logger.NewZapLogger(zap.NewNop()), cfg)
}

func TestEnqueueAndGetJob(t *testing.T) {
	q := newTestQueue(t, Config{})
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "a"}, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StateWaiting, job.State)
	assert.Equal(t, 0, job.Attempts)
	assert.Equal(t, 2, job.MaxAttempts)

	got, err := q.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, StateWaiting, got.State)
}

func TestJobNotFound(t *testing.T) {
	q := newTestQueue(t, Config{})
	_, err := q.Job(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestFetchHighPriorityFirst(t *testing.T) {
	q := newTestQueue(t, Config{})
	ctx := context.Background()

	normal, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "normal"}, Options{Priority: PriorityNormal})
	require.NoError(t, err)
	high, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "high"}, Options{Priority: PriorityHigh})
	require.NoError(t, err)

	first, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, high.ID, first.ID)
	assert.Equal(t, StateActive, first.State)
	assert.Equal(t, 1, first.Attempts)

	second, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, normal.ID, second.ID)
}

func TestCompleteStoresResult(t *testing.T) {
	q := newTestQueue(t, Config{})
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "a"}, Options{})
	require.NoError(t, err)
	job, err := q.Fetch(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Complete(ctx, job, testPayload{Value: "done"}))

	got, err := q.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, got.State)
	assert.JSONEq(t, `{"value":"done"}`, string(got.Result))

	counts, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Waiting)
	assert.Equal(t, int64(0), counts.Active)
	assert.Equal(t, int64(1), counts.Completed)
	assert.Equal(t, int64(1), counts.Total)
}

func TestFailRetriesThenFailsPermanently(t *testing.T) {
	q := newTestQueue(t, Config{MaxAttempts: 2})
	ctx := context.Background()

	enqueued, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "a"}, Options{})
	require.NoError(t, err)

	job, err := q.Fetch(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, job.Attempts)

	retried, err := q.Fail(ctx, job, "judge0 unreachable")
	require.NoError(t, err)
	assert.True(t, retried)

	// 重试沿用同一任务 id
	job, err = q.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, enqueued.ID, job.ID)
	assert.Equal(t, 2, job.Attempts)

	retried, err = q.Fail(ctx, job, "judge0 unreachable")
	require.NoError(t, err)
	assert.False(t, retried)

	got, err := q.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, "judge0 unreachable", got.FailedReason)

	counts, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Failed)
}

func TestCompletedHistoryIsBounded(t *testing.T) {
	q := newTestQueue(t, Config{KeepCompleted: 2})
	ctx := context.Background()

	var jobIDs []string
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "a"}, Options{})
		require.NoError(t, err)
		job, err := q.Fetch(ctx)
		require.NoError(t, err)
		require.NoError(t, q.Complete(ctx, job, testPayload{Value: "done"}))
		jobIDs = append(jobIDs, job.ID)
	}

	counts, err := q.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Completed)

	// 最旧的任务连同数据一起被清理
	_, err = q.Job(ctx, jobIDs[0])
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = q.Job(ctx, jobIDs[2])
	assert.NoError(t, err)
}

func TestRecoverStalled(t *testing.T) {
	q := newTestQueue(t, Config{MaxAttempts: 2, StallTimeout: time.Millisecond})
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "a"}, Options{})
	require.NoError(t, err)
	job, err := q.Fetch(ctx)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	recovered, err := q.RecoverStalled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	// 尝试次数未耗尽, 任务回到等待队列
	got, err := q.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateWaiting, got.State)

	refetched, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, refetched.ID)
	assert.Equal(t, 2, refetched.Attempts)
}

func TestFetchRequeuesJobWhenRateSlotUnavailable(t *testing.T) {
	q := newTestQueue(t, Config{MaxJobsPerSecond: 1})
	ctx := context.Background()

	enqueued, err := q.Enqueue(ctx, "execute-code", testPayload{Value: "a"}, Options{})
	require.NoError(t, err)

	// 占满当前秒与下一秒的准入额度, 令限速等待被上下文超时打断
	now := time.Now().Unix()
	for _, sec := range []int64{now, now + 1} {
		require.NoError(t, q.rdb.Set(ctx, fmt.Sprintf("%s:limiter:%d", q.prefix(), sec), 1, 0).Err())
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = q.Fetch(fetchCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// 任务被归还到等待队列而非丢失
	ids, err := q.rdb.LRange(ctx, q.waitKey(PriorityNormal), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{enqueued.ID}, ids)

	got, err := q.Job(ctx, enqueued.ID)
	require.NoError(t, err)
	assert.Equal(t, StateWaiting, got.State)
	assert.Equal(t, 0, got.Attempts)
}
