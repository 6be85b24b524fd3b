package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bucket 固定窗口限流桶
type Bucket struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// 预置限流桶。submit 桶与判题工作池吞吐对齐 (5 worker x 约 3 次/分钟)
var (
	BucketGeneral = Bucket{Name: "general", Limit: 100, Window: 15 * time.Minute}
	BucketAuth    = Bucket{Name: "auth", Limit: 5, Window: 15 * time.Minute}
	BucketRun     = Bucket{Name: "run", Limit: 10, Window: time.Minute}
	BucketSubmit  = Bucket{Name: "submit", Limit: 15, Window: time.Minute}
)

// Result 单次限流判定结果, 拒绝时 RetryAfter 为正
type Result struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
	ResetAt    time.Time
}

// incrScript 原子地自增计数并在窗口首个请求时设置过期
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// Limiter 基于 Redis 固定窗口计数的限流器, 窗口从该身份的首个请求开始计时
type Limiter struct {
	rdb redis.Cmdable
}

func NewLimiter(rdb redis.Cmdable) *Limiter {
	return &Limiter{rdb: rdb}
}

// Allow 判定 identity 在 bucket 内的本次请求是否放行
func (l *Limiter) Allow(ctx context.Context, bucket Bucket, identity string) (Result, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", bucket.Name, identity)

	raw, err := incrScript.Run(ctx, l.rdb, []string{key}, bucket.Window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("Allow failed at run script: %w", err)
	}
	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return Result{}, fmt.Errorf("Allow failed at parse script result: unexpected reply %v", raw)
	}
	count, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)

	ttl := time.Duration(ttlMs) * time.Millisecond
	if ttlMs < 0 {
		ttl = bucket.Window
	}
	resetAt := time.Now().Add(ttl)

	if count > bucket.Limit {
		return Result{
			Allowed:    false,
			Limit:      bucket.Limit,
			Remaining:  0,
			RetryAfter: ttl,
			ResetAt:    resetAt,
		}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     bucket.Limit,
		Remaining: bucket.Limit - count,
		ResetAt:   resetAt,
	}, nil
}
