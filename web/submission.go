package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/gintool"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
	"github.com/to404hanga/online_judge_evaluator/pkg/ratelimit"
	"github.com/to404hanga/online_judge_evaluator/service"
	"github.com/to404hanga/online_judge_evaluator/web/middleware"
)

type SubmissionHandler struct {
	submissionSvc service.SubmissionService
	rateLimit     *middleware.RateLimitMiddlewareBuilder
	log           logger.Logger
}

var _ Handler = (*SubmissionHandler)(nil)

func NewSubmissionHandler(submissionSvc service.SubmissionService, rateLimit *middleware.RateLimitMiddlewareBuilder, log logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissionSvc: submissionSvc,
		rateLimit:     rateLimit,
		log:           log,
	}
}

func (h *SubmissionHandler) Register(r *gin.Engine) {
	// 执行类接口限流独立于全局限流, 管理员不占用执行配额
	r.POST(constants.SubmitCodePath, h.rateLimit.Limit(ratelimit.BucketSubmit, true), gintool.WrapHandler(h.SubmitCode, h.log))
	r.POST(constants.RunCodePath, h.rateLimit.Limit(ratelimit.BucketRun, true), gintool.WrapHandler(h.RunCode, h.log))
	r.GET(constants.GetSubmissionPath, gintool.WrapHandler(h.GetSubmission, h.log))
	r.GET(constants.GetJobStatusPath, gintool.WrapHandler(h.GetJobStatus, h.log))
	r.GET(constants.GetQueueHealthPath, gintool.WrapWithoutBodyHandler(h.GetQueueHealth, h.log))
}

// SubmitCode 接收真实提交, 入队后立即返回 202, 判题结果通过状态接口查询
func (h *SubmissionHandler) SubmitCode(c *gin.Context, param *model.SubmitCodeParam) {
	start := time.Now()
	code := http.StatusAccepted
	reason := ""
	defer func() {
		submitCodeRequestsTotal.WithLabelValues(strconv.Itoa(code), reason).Inc()
		submitCodeDurationSeconds.WithLabelValues(strconv.Itoa(code), reason).Observe(time.Since(start).Seconds())
	}()

	ctx := logger.ContextWithFields(c.Request.Context(),
		logger.Uint64("problem_id", param.ProblemID),
		logger.String("language", param.Language))

	resp, err := h.submissionSvc.SubmitCode(ctx, param)
	if err != nil {
		code, reason = h.submitErrorStatus(err)
		gintool.GinStatusResponse(c, code, &gintool.Response{
			Code:    code,
			Message: fmt.Sprintf("SubmitCode failed: %s", err.Error()),
		})
		h.log.ErrorContext(ctx, "SubmitCode failed", logger.Error(err))
		return
	}

	gintool.GinStatusResponse(c, http.StatusAccepted, &gintool.Response{
		Code:    http.StatusAccepted,
		Message: "submission queued",
		Data:    resp,
	})
}

// RunCode 试运行, 仅执行可见测试用例, 不产生提交记录
func (h *SubmissionHandler) RunCode(c *gin.Context, param *model.RunCodeParam) {
	start := time.Now()
	code := http.StatusAccepted
	reason := ""
	defer func() {
		runCodeRequestsTotal.WithLabelValues(strconv.Itoa(code), reason).Inc()
		runCodeDurationSeconds.WithLabelValues(strconv.Itoa(code), reason).Observe(time.Since(start).Seconds())
	}()

	ctx := logger.ContextWithFields(c.Request.Context(),
		logger.Uint64("problem_id", param.ProblemID),
		logger.String("language", param.Language))

	resp, err := h.submissionSvc.RunCode(ctx, param)
	if err != nil {
		code, reason = h.submitErrorStatus(err)
		gintool.GinStatusResponse(c, code, &gintool.Response{
			Code:    code,
			Message: fmt.Sprintf("RunCode failed: %s", err.Error()),
		})
		h.log.ErrorContext(ctx, "RunCode failed", logger.Error(err))
		return
	}

	gintool.GinStatusResponse(c, http.StatusAccepted, &gintool.Response{
		Code:    http.StatusAccepted,
		Message: "run queued",
		Data:    resp,
	})
}

func (h *SubmissionHandler) submitErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnsupportedLanguage):
		return http.StatusBadRequest, "unsupported_language"
	case errors.Is(err, service.ErrNoTestCases):
		return http.StatusBadRequest, "no_test_cases"
	case errors.Is(err, service.ErrProblemNotFound):
		return http.StatusNotFound, "problem_not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context, param *model.GetSubmissionParam) {
	ctx := logger.ContextWithFields(c.Request.Context(),
		logger.Uint64("submission_id", param.SubmissionID))

	resp, err := h.submissionSvc.GetSubmission(ctx, param)
	if errors.Is(err, service.ErrSubmissionNotFound) {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusNotFound,
			Message: fmt.Sprintf("Submission %d not found", param.SubmissionID),
		})
		return
	}
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "GetSubmission failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

func (h *SubmissionHandler) GetJobStatus(c *gin.Context, param *model.GetJobStatusParam) {
	ctx := logger.ContextWithFields(c.Request.Context(),
		logger.String("job_id", param.JobID))

	resp, err := h.submissionSvc.GetJobStatus(ctx, param)
	switch {
	case errors.Is(err, queue.ErrJobNotFound):
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusNotFound,
			Message: fmt.Sprintf("Job %s not found", param.JobID),
		})
		return
	case errors.Is(err, service.ErrJobAccessDenied):
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusForbidden,
			Message: "job belongs to another user",
		})
		return
	case err != nil:
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "GetJobStatus failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

func (h *SubmissionHandler) GetQueueHealth(c *gin.Context, param *model.GetQueueHealthParam) {
	ctx := c.Request.Context()

	resp, err := h.submissionSvc.GetQueueHealth(ctx, param)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "GetQueueHealth failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}
