package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/ratelimit"
	ojjwt "github.com/to404hanga/online_judge_evaluator/web/jwt"
)

func newTestEngine(t *testing.T, bucket ratelimit.Bucket, exemptAdmin bool, claims *ojjwt.UserClaims) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	builder := NewRateLimitMiddlewareBuilder(
		ratelimit.NewLimiter(rdb),
		logger.NewZapLogger(zap.NewNop()),
	)

	engine := gin.New()
	if claims != nil {
		engine.Use(func(ctx *gin.Context) {
			ctx.Set(constants.ContextUserClaimsKey, *claims)
		})
	}
	engine.POST("/run", builder.Limit(bucket, exemptAdmin), func(ctx *gin.Context) {
		ctx.Status(http.StatusAccepted)
	})
	return engine
}

func doPost(engine *gin.Engine) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestLimitAllowsWithinBucket(t *testing.T) {
	bucket := ratelimit.Bucket{Name: "test", Limit: 2, Window: time.Minute}
	engine := newTestEngine(t, bucket, false, nil)

	assert.Equal(t, http.StatusAccepted, doPost(engine).Code)
	assert.Equal(t, http.StatusAccepted, doPost(engine).Code)
}

func TestLimitRejectsOverBucket(t *testing.T) {
	bucket := ratelimit.Bucket{Name: "test", Limit: 1, Window: time.Minute}
	engine := newTestEngine(t, bucket, false, nil)

	assert.Equal(t, http.StatusAccepted, doPost(engine).Code)

	recorder := doPost(engine)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body, "retry_after")
	assert.Contains(t, body, "limit")
	assert.Contains(t, body, "remaining")
	assert.Contains(t, body, "reset_time")
}

func TestLimitCountsPerUser(t *testing.T) {
	bucket := ratelimit.Bucket{Name: "test", Limit: 1, Window: time.Minute}
	claims := &ojjwt.UserClaims{UserId: 7, Role: model.RoleUser}
	engine := newTestEngine(t, bucket, false, claims)

	assert.Equal(t, http.StatusAccepted, doPost(engine).Code)
	assert.Equal(t, http.StatusTooManyRequests, doPost(engine).Code)
}

func TestLimitExemptsAdmin(t *testing.T) {
	bucket := ratelimit.Bucket{Name: "test", Limit: 1, Window: time.Minute}
	claims := &ojjwt.UserClaims{UserId: 1, Role: model.RoleAdmin}
	engine := newTestEngine(t, bucket, true, claims)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusAccepted, doPost(engine).Code)
	}
}

func TestLimitAdminNotExemptWhenDisabled(t *testing.T) {
	bucket := ratelimit.Bucket{Name: "test", Limit: 1, Window: time.Minute}
	claims := &ojjwt.UserClaims{UserId: 1, Role: model.RoleAdmin}
	engine := newTestEngine(t, bucket, false, claims)

	assert.Equal(t, http.StatusAccepted, doPost(engine).Code)
	assert.Equal(t, http.StatusTooManyRequests, doPost(engine).Code)
}
