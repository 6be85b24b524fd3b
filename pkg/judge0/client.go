package judge0

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

// ErrJudgingTimeout 等待判题终态超时, 与队列侧的任务超时区分开
var ErrJudgingTimeout = errors.New("judging timed out before all test cases reached a terminal status")

// Client Judge0 批量判题客户端, submit-then-poll 协议
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	apiHost      string
	pollInterval time.Duration
	maxWait      time.Duration
	log          logger.Logger
}

func NewClient(log logger.Logger, httpClient *http.Client, baseURL, apiKey, apiHost string, pollInterval, maxWait time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		apiHost:      apiHost,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		log:          log,
	}
}

// SubmitBatch 批量提交测试用例, 返回与请求顺序对齐的 token 列表
func (c *Client) SubmitBatch(ctx context.Context, requests []ExecutionRequest) ([]string, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("SubmitBatch failed at validate requests: empty batch")
	}

	body, err := json.Marshal(batchSubmitRequest{Submissions: requests})
	if err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at marshal request: %w", err)
	}

	reqURL := c.baseURL + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	var items []batchSubmitItem
	if err = c.do(req, &items); err != nil {
		return nil, fmt.Errorf("SubmitBatch failed at call judge0: %w", err)
	}

	// token 数量与请求数量不一致视为客户端错误, 禁止静默截断
	if len(items) != len(requests) {
		return nil, fmt.Errorf("SubmitBatch failed at check response: expected %d tokens, got %d", len(requests), len(items))
	}
	tokens := make([]string, 0, len(items))
	for i, item := range items {
		if item.Token == "" {
			return nil, fmt.Errorf("SubmitBatch failed at check response: empty token at index %d", i)
		}
		tokens = append(tokens, item.Token)
	}
	return tokens, nil
}

// WaitForOutcomes 以固定间隔轮询全量 token, 直到所有测试用例进入终态。
// 轮询时长受 maxWait 约束, 超出返回 ErrJudgingTimeout。
func (c *Client) WaitForOutcomes(ctx context.Context, tokens []string) ([]TestCaseOutcome, error) {
	deadline := time.Now().Add(c.maxWait)
	for {
		outcomes, err := c.batchStatus(ctx, tokens)
		if err != nil {
			return nil, err
		}

		terminal := true
		for _, outcome := range outcomes {
			if !outcome.Terminal() {
				terminal = false
				break
			}
		}
		if terminal {
			return outcomes, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrJudgingTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) batchStatus(ctx context.Context, tokens []string) ([]TestCaseOutcome, error) {
	query := url.Values{}
	query.Set("tokens", strings.Join(tokens, ","))
	query.Set("base64_encoded", "false")
	query.Set("fields", "*")

	reqURL := c.baseURL + "/submissions/batch?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("batchStatus failed at build request: %w", err)
	}
	c.setAuthHeaders(req)

	var resp batchStatusResponse
	if err = c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("batchStatus failed at call judge0: %w", err)
	}
	if len(resp.Submissions) != len(tokens) {
		return nil, fmt.Errorf("batchStatus failed at check response: expected %d outcomes, got %d", len(tokens), len(resp.Submissions))
	}
	return resp.Submissions, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected http status %d: %s", resp.StatusCode, string(body))
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response body: %w", err)
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-rapidapi-key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("x-rapidapi-host", c.apiHost)
	}
}
