package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/to404hanga/online_judge_evaluator/event"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/judge0"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
)

type fakeJudge struct {
	mu        sync.Mutex
	outcomes  []judge0.TestCaseOutcome
	submitErr error
	waitErr   error
	calls     int
}

func (f *fakeJudge) SubmitBatch(_ context.Context, requests []judge0.ExecutionRequest) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	tokens := make([]string, len(requests))
	for i := range tokens {
		tokens[i] = "token"
	}
	return tokens, nil
}

func (f *fakeJudge) WaitForOutcomes(_ context.Context, tokens []string) ([]judge0.TestCaseOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return f.outcomes, nil
}

type fakeSubmissionStore struct {
	mu           sync.Mutex
	processing   []uint64
	verdicts     map[uint64]model.Verdict
	systemErrors map[uint64]string
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{
		verdicts:     make(map[uint64]model.Verdict),
		systemErrors: make(map[uint64]string),
	}
}

func (f *fakeSubmissionStore) MarkProcessing(_ context.Context, submissionID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processing = append(f.processing, submissionID)
	return nil
}

func (f *fakeSubmissionStore) ApplyVerdict(_ context.Context, submissionID uint64, verdict model.Verdict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verdicts[submissionID] = verdict
	return nil
}

func (f *fakeSubmissionStore) MarkSystemError(_ context.Context, submissionID uint64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemErrors[submissionID] = message
	return nil
}

func (f *fakeSubmissionStore) verdict(submissionID uint64) (model.Verdict, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.verdicts[submissionID]
	return v, ok
}

func (f *fakeSubmissionStore) verdictCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verdicts)
}

func (f *fakeSubmissionStore) markedProcessing(submissionID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.processing {
		if id == submissionID {
			return true
		}
	}
	return false
}

func (f *fakeSubmissionStore) processingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processing)
}

func (f *fakeSubmissionStore) systemError(submissionID uint64) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.systemErrors[submissionID]
	return msg, ok
}

type fakeSolvedStore struct {
	mu    sync.Mutex
	pairs map[[2]uint64]bool
}

func newFakeSolvedStore() *fakeSolvedStore {
	return &fakeSolvedStore{pairs: make(map[[2]uint64]bool)}
}

func (f *fakeSolvedStore) AddSolvedProblem(_ context.Context, userID, problemID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs[[2]uint64{userID, problemID}] = true
	return nil
}

func (f *fakeSolvedStore) solved(userID, problemID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[[2]uint64{userID, problemID}]
}

type fakeProducer struct {
	mu   sync.Mutex
	msgs []*sarama.ProducerMessage
}

func (f *fakeProducer) Produce(_ context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return 0, int64(len(f.msgs)), nil
}

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeProducer) message(i int) *sarama.ProducerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[i]
}

type poolFixture struct {
	q           *queue.Queue
	judge       *fakeJudge
	submissions *fakeSubmissionStore
	solved      *fakeSolvedStore
	producer    *fakeProducer
	pool        *Pool
}

func newPoolFixture(t *testing.T, judge *fakeJudge) *poolFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewZapLogger(zap.NewNop())
	q := queue.NewQueue(rdb, log, queue.Config{Name: "test", MaxAttempts: 2})
	submissions := newFakeSubmissionStore()
	solved := newFakeSolvedStore()
	producer := &fakeProducer{}
	return &poolFixture{
		q:           q,
		judge:       judge,
		submissions: submissions,
		solved:      solved,
		producer:    producer,
		pool:        NewPool(q, judge, submissions, solved, producer, 1, log),
	}
}

func (fx *poolFixture) enqueue(t *testing.T, payload *model.JudgePayload, priority queue.Priority) *queue.Job {
	t.Helper()
	job, err := fx.q.Enqueue(context.Background(), model.JobTypeExecuteCode, payload, queue.Options{Priority: priority})
	require.NoError(t, err)
	return job
}

func (fx *poolFixture) waitTerminal(t *testing.T, jobID string) *queue.Job {
	t.Helper()
	var got *queue.Job
	require.Eventually(t, func() bool {
		job, err := fx.q.Job(context.Background(), jobID)
		if err != nil {
			return false
		}
		if !job.Terminal() {
			return false
		}
		got = job
		return true
	}, 5*time.Second, 20*time.Millisecond)
	return got
}

func runPool(t *testing.T, fx *poolFixture) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	fx.pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		fx.pool.Wait()
	})
}

func submitPayload() *model.JudgePayload {
	return &model.JudgePayload{
		Requests: []judge0.ExecutionRequest{
			{SourceCode: "code", LanguageID: 54, Stdin: "1 2", ExpectedOutput: "3"},
			{SourceCode: "code", LanguageID: 54, Stdin: "4 5", ExpectedOutput: "9"},
		},
		SubmissionID: 42,
		ProblemID:    7,
		UserID:       11,
	}
}

func TestPoolSubmitCodeAccepted(t *testing.T) {
	judge := &fakeJudge{outcomes: []judge0.TestCaseOutcome{
		{StatusID: judge0.StatusAccepted, Time: "0.010", Memory: 256},
		{StatusID: judge0.StatusAccepted, Time: "0.020", Memory: 512},
	}}
	fx := newPoolFixture(t, judge)
	job := fx.enqueue(t, submitPayload(), queue.PriorityNormal)
	runPool(t, fx)

	got := fx.waitTerminal(t, job.ID)
	assert.Equal(t, queue.StateCompleted, got.State)

	var result model.SubmitCodeResult
	require.NoError(t, json.Unmarshal(got.Result, &result))
	assert.True(t, result.Success)
	assert.Equal(t, uint64(42), result.SubmissionID)
	assert.Equal(t, model.SubmissionStatusAccepted, result.Status)
	assert.Equal(t, 2, result.TestCasesPassed)
	assert.Equal(t, 2, result.TotalTestCases)

	verdict, ok := fx.submissions.verdict(42)
	require.True(t, ok)
	assert.Equal(t, model.SubmissionStatusAccepted, verdict.Status)
	assert.Equal(t, 0.020, verdict.Runtime)
	assert.Equal(t, 512, verdict.Memory)
	assert.True(t, fx.submissions.markedProcessing(42))

	assert.True(t, fx.solved.solved(11, 7))

	require.Equal(t, 1, fx.producer.count())
	msg := fx.producer.message(0)
	assert.Equal(t, event.SubmissionJudgedTopic, msg.Topic)
	raw, err := msg.Value.Encode()
	require.NoError(t, err)
	var evt event.SubmissionJudgedEvent
	require.NoError(t, json.Unmarshal(raw, &evt))
	assert.Equal(t, uint64(42), evt.SubmissionID)
	assert.Equal(t, string(model.SubmissionStatusAccepted), evt.Status)
}

func TestPoolSubmitCodeWrongAnswerSkipsSolvedSet(t *testing.T) {
	judge := &fakeJudge{outcomes: []judge0.TestCaseOutcome{
		{StatusID: judge0.StatusAccepted, Time: "0.010", Memory: 256},
		{StatusID: judge0.StatusWrongAnswer},
	}}
	fx := newPoolFixture(t, judge)
	job := fx.enqueue(t, submitPayload(), queue.PriorityNormal)
	runPool(t, fx)

	got := fx.waitTerminal(t, job.ID)
	assert.Equal(t, queue.StateCompleted, got.State)

	verdict, ok := fx.submissions.verdict(42)
	require.True(t, ok)
	assert.Equal(t, model.SubmissionStatusWrong, verdict.Status)
	assert.Equal(t, 1, verdict.TestCasesPassed)

	assert.False(t, fx.solved.solved(11, 7))
	// 终态事件照常发布
	assert.Equal(t, 1, fx.producer.count())
}

func TestPoolRunCodeDoesNotTouchStore(t *testing.T) {
	judge := &fakeJudge{outcomes: []judge0.TestCaseOutcome{
		{StatusID: judge0.StatusAccepted, Stdout: "3", Time: "0.010", Memory: 256},
		{StatusID: judge0.StatusWrongAnswer, Stdout: "8"},
	}}
	fx := newPoolFixture(t, judge)
	payload := submitPayload()
	payload.SubmissionID = 0
	payload.RunID = "run-11-1"
	payload.IsRunCode = true
	job := fx.enqueue(t, payload, queue.PriorityHigh)
	runPool(t, fx)

	got := fx.waitTerminal(t, job.ID)
	assert.Equal(t, queue.StateCompleted, got.State)

	var result model.RunCodeResult
	require.NoError(t, json.Unmarshal(got.Result, &result))
	assert.True(t, result.Success)
	assert.Equal(t, model.JobTypeRunCode, result.JobType)
	assert.Equal(t, model.SubmissionStatusWrong, result.Status)
	assert.Equal(t, 1, result.TestCasesPassed)
	require.Len(t, result.ProcessedResults, 2)
	assert.Equal(t, "1 2", result.ProcessedResults[0].Input)
	assert.True(t, result.ProcessedResults[0].Passed)
	assert.False(t, result.ProcessedResults[1].Passed)

	assert.Zero(t, fx.submissions.processingCount())
	assert.Zero(t, fx.submissions.verdictCount())
	assert.Zero(t, fx.producer.count())
}

func TestPoolSystemFailureRetriesThenMarksError(t *testing.T) {
	judge := &fakeJudge{waitErr: errors.New("judge0 unavailable")}
	fx := newPoolFixture(t, judge)
	job := fx.enqueue(t, submitPayload(), queue.PriorityNormal)
	runPool(t, fx)

	got := fx.waitTerminal(t, job.ID)
	assert.Equal(t, queue.StateFailed, got.State)
	assert.Equal(t, 2, got.Attempts)
	assert.Contains(t, got.FailedReason, "judge0 unavailable")

	msg, ok := fx.submissions.systemError(42)
	require.True(t, ok)
	assert.Contains(t, msg, "judge0 unavailable")
	// 判题从未产出结论, 不应写入任何 verdict
	assert.Zero(t, fx.submissions.verdictCount())
	assert.Zero(t, fx.producer.count())
}

func TestPoolJudgingTimeoutIsSystemFailure(t *testing.T) {
	judge := &fakeJudge{waitErr: judge0.ErrJudgingTimeout}
	fx := newPoolFixture(t, judge)
	job := fx.enqueue(t, submitPayload(), queue.PriorityNormal)
	runPool(t, fx)

	got := fx.waitTerminal(t, job.ID)
	assert.Equal(t, queue.StateFailed, got.State)
	assert.Contains(t, got.FailedReason, "judging timed out")
}
