package ioc

import (
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
)

func InitQueue(rdb redis.Cmdable, l logger.Logger) *queue.Queue {
	var cfg config.QueueConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal queue config failed: %v", err)
	}
	if cfg.Name == "" {
		cfg.Name = "code-execution"
	}

	return queue.NewQueue(rdb, l, queue.Config{
		Name:             cfg.Name,
		MaxAttempts:      cfg.MaxAttempts,
		JobTimeout:       time.Duration(cfg.JobTimeout) * time.Millisecond,
		MaxJobsPerSecond: cfg.MaxJobsPerSecond,
		KeepCompleted:    cfg.KeepCompleted,
		KeepFailed:       cfg.KeepFailed,
		StallTimeout:     time.Duration(cfg.StallTimeout) * time.Millisecond,
		RetentionTTL:     time.Duration(cfg.RetentionTTL) * time.Minute,
	})
}
