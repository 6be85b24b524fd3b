package gintool

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/web/jwt"
)

func newWrapEngine(claims *jwt.UserClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	if claims != nil {
		engine.Use(func(c *gin.Context) {
			c.Set(constants.ContextUserClaimsKey, *claims)
		})
	}
	return engine
}

func testLogger() logger.Logger {
	return logger.NewZapLogger(zap.NewNop())
}

func TestWrapWithoutBodyHandlerInjectsOperator(t *testing.T) {
	claims := &jwt.UserClaims{UserId: 7, Role: model.RoleAdmin}
	engine := newWrapEngine(claims)

	var got *model.GetQueueHealthParam
	engine.GET("/info", WrapWithoutBodyHandler(func(c *gin.Context, p *model.GetQueueHealthParam) {
		got = p
		c.Status(http.StatusOK)
	}, testLogger()))

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, got)
	assert.Equal(t, uint64(7), got.Operator)
	assert.Equal(t, model.RoleAdmin, got.Role)
}

func TestWrapHandlerGetWithoutQuery(t *testing.T) {
	claims := &jwt.UserClaims{UserId: 3, Role: model.RoleUser}
	engine := newWrapEngine(claims)

	var got *model.GetQueueHealthParam
	engine.GET("/info", WrapHandler(func(c *gin.Context, p *model.GetQueueHealthParam) {
		got = p
		c.Status(http.StatusOK)
	}, testLogger()))

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, got)
	assert.Equal(t, uint64(3), got.Operator)
}

func TestWrapHandlerEmptyBodyPost(t *testing.T) {
	claims := &jwt.UserClaims{UserId: 3, Role: model.RoleUser}
	engine := newWrapEngine(claims)

	var got *model.GetQueueHealthParam
	engine.POST("/noop", WrapHandler(func(c *gin.Context, p *model.GetQueueHealthParam) {
		got = p
		c.Status(http.StatusOK)
	}, testLogger()))

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/noop", strings.NewReader("")))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, got)
	assert.Equal(t, uint64(3), got.Operator)
}

func TestWrapHandlerMissingClaims(t *testing.T) {
	engine := newWrapEngine(nil)

	called := false
	engine.GET("/info", WrapHandler(func(c *gin.Context, p *model.GetQueueHealthParam) {
		called = true
	}, testLogger()))

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/info", nil))

	assert.False(t, called)
	assert.Contains(t, recorder.Body.String(), "user claims not found")
}
