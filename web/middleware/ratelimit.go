package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/ratelimit"
	ojjwt "github.com/to404hanga/online_judge_evaluator/web/jwt"
)

type RateLimitMiddlewareBuilder struct {
	limiter *ratelimit.Limiter
	log     logger.Logger
}

func NewRateLimitMiddlewareBuilder(limiter *ratelimit.Limiter, log logger.Logger) *RateLimitMiddlewareBuilder {
	return &RateLimitMiddlewareBuilder{
		limiter: limiter,
		log:     log,
	}
}

// Limit 按桶限流。已登录用户按用户 id 计数, 否则按来源地址计数;
// exemptAdmin 为 true 时管理员不占用执行配额。
// 拒绝是终态, 客户端需按 retry_after 等待后重新提交。
func (b *RateLimitMiddlewareBuilder) Limit(bucket ratelimit.Bucket, exemptAdmin bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		identity := ctx.ClientIP()
		if uc, err := ojjwt.UserClaimsFromContext(ctx); err == nil {
			if exemptAdmin && uc.Role == model.RoleAdmin {
				ctx.Next()
				return
			}
			identity = strconv.FormatUint(uc.UserId, 10)
		}

		res, err := b.limiter.Allow(ctx, bucket, identity)
		if err != nil {
			// 限流器故障时放行, 避免 Redis 抖动阻断全部流量
			b.log.WarnContext(ctx, "rate limiter unavailable, request allowed",
				logger.String("bucket", bucket.Name),
				logger.Error(err),
			)
			ctx.Next()
			return
		}
		if !res.Allowed {
			retryAfter := int64(res.RetryAfter.Round(time.Second).Seconds())
			if retryAfter <= 0 {
				retryAfter = 1
			}
			ctx.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       bucket.Name + " limit exceeded",
				"message":     "Too many requests, please wait and retry",
				"retry_after": retryAfter,
				"limit":       res.Limit,
				"remaining":   res.Remaining,
				"reset_time":  res.ResetAt.UTC().Format(time.RFC3339),
			})
			return
		}

		ctx.Next()
	}
}
