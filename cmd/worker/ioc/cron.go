package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"

	workerconfig "github.com/to404hanga/online_judge_evaluator/cmd/worker/config"
	"github.com/to404hanga/online_judge_evaluator/job"
	"github.com/to404hanga/online_judge_evaluator/job/recovery"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
	"github.com/to404hanga/online_judge_evaluator/service"
)

func InitScheduler(l logger.Logger, q *queue.Queue, submissionSvc service.SubmissionService) *job.CronScheduler {
	scheduler := job.NewCronScheduler(l)

	scheduler.AddJob(InitStalledJobRecoverer(q, l))
	scheduler.AddJob(InitStuckSubmissionJanitor(submissionSvc, l))

	return scheduler
}

func InitStalledJobRecoverer(q *queue.Queue, l logger.Logger) *job.JobConfig {
	var cfg workerconfig.StalledJobRecovererConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal stalled job recoverer config failed: %v", err)
	}

	r := recovery.NewStalledJobRecoverer(q, l)
	return &job.JobConfig{
		Name:        "停滞任务恢复",
		CronExpr:    cfg.CronExpr,
		JobFunc:     r.RunRecovery,
		Description: "将停滞的 active 任务重新入队或置为失败",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
}

func InitStuckSubmissionJanitor(submissionSvc service.SubmissionService, l logger.Logger) *job.JobConfig {
	var cfg workerconfig.StuckSubmissionJanitorConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal stuck submission janitor config failed: %v", err)
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = 30
	}

	j := recovery.NewStuckSubmissionJanitor(submissionSvc, l, time.Duration(cfg.StuckAfter)*time.Minute)
	return &job.JobConfig{
		Name:        "滞留提交清理",
		CronExpr:    cfg.CronExpr,
		JobFunc:     j.RunCleanup,
		Description: "将长期停留在非终态的提交记录置为 error",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
}
