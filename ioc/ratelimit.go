package ioc

import (
	"github.com/redis/go-redis/v9"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/ratelimit"
	"github.com/to404hanga/online_judge_evaluator/web/middleware"
)

func InitRateLimiter(rdb redis.Cmdable) *ratelimit.Limiter {
	return ratelimit.NewLimiter(rdb)
}

func InitRateLimitMiddlewareBuilder(limiter *ratelimit.Limiter, l logger.Logger) *middleware.RateLimitMiddlewareBuilder {
	return middleware.NewRateLimitMiddlewareBuilder(limiter, l)
}
