package judge0

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string, pollInterval, maxWait time.Duration) *Client {
	t.Helper()
	return NewClient(logger.NewZapLogger(zap.NewNop()), nil, baseURL, "test-key", "test-host", pollInterval, maxWait)
}

func TestSubmitBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "false", r.URL.Query().Get("base64_encoded"))
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "test-host", r.Header.Get("x-rapidapi-host"))
		fmt.Fprint(w, `[{"token":"tok-1"},{"token":"tok-2"}]`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, time.Second, time.Minute)
	tokens, err := client.SubmitBatch(context.Background(), []ExecutionRequest{
		{SourceCode: "print(1)", LanguageID: 71, Stdin: "1", ExpectedOutput: "1"},
		{SourceCode: "print(1)", LanguageID: 71, Stdin: "2", ExpectedOutput: "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1", "tok-2"}, tokens)
}

func TestSubmitBatchPartialResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"token":"tok-1"}]`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, time.Second, time.Minute)
	_, err := client.SubmitBatch(context.Background(), []ExecutionRequest{
		{SourceCode: "a", LanguageID: 54},
		{SourceCode: "b", LanguageID: 54},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 tokens")
}

func TestWaitForOutcomesPollsUntilTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1,tok-2", r.URL.Query().Get("tokens"))
		assert.Equal(t, "*", r.URL.Query().Get("fields"))
		if calls.Add(1) < 3 {
			fmt.Fprint(w, `{"submissions":[{"token":"tok-1","status_id":3,"time":"0.01","memory":100},{"token":"tok-2","status_id":2}]}`)
			return
		}
		fmt.Fprint(w, `{"submissions":[{"token":"tok-1","status_id":3,"time":"0.01","memory":100},{"token":"tok-2","status_id":4,"stdout":"2"}]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, time.Millisecond, time.Minute)
	outcomes, err := client.WaitForOutcomes(context.Background(), []string{"tok-1", "tok-2"})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusAccepted, outcomes[0].StatusID)
	assert.Equal(t, StatusWrongAnswer, outcomes[1].StatusID)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForOutcomesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"submissions":[{"token":"tok-1","status_id":1}]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 5*time.Millisecond, time.Millisecond)
	_, err := client.WaitForOutcomes(context.Background(), []string{"tok-1"})
	require.ErrorIs(t, err, ErrJudgingTimeout)
}

func TestWaitForOutcomesPartialResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"submissions":[{"token":"tok-1","status_id":3}]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, time.Millisecond, time.Minute)
	_, err := client.WaitForOutcomes(context.Background(), []string{"tok-1", "tok-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 outcomes")
}

func TestTimeSeconds(t *testing.T) {
	assert.Equal(t, 0.042, TestCaseOutcome{Time: "0.042"}.TimeSeconds())
	assert.Equal(t, 0.0, TestCaseOutcome{Time: ""}.TimeSeconds())
	assert.Equal(t, 0.0, TestCaseOutcome{Time: "n/a"}.TimeSeconds())
}

func TestStatusDescription(t *testing.T) {
	assert.Equal(t, "Accepted", StatusDescription(StatusAccepted))
	assert.Equal(t, "Wrong Answer", StatusDescription(StatusWrongAnswer))
	assert.Equal(t, "Unknown Status (42)", StatusDescription(42))
}
