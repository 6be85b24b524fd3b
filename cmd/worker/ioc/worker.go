package ioc

import (
	"log"

	"github.com/spf13/viper"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/event"
	"github.com/to404hanga/online_judge_evaluator/pkg/judge0"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
	"github.com/to404hanga/online_judge_evaluator/service"
	"github.com/to404hanga/online_judge_evaluator/worker"
)

func InitWorkerPool(q *queue.Queue, judgeClient *judge0.Client, submissionSvc service.SubmissionService, userSvc service.UserService, producer event.Producer, l logger.Logger) *worker.Pool {
	var cfg config.WorkerConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal worker config failed: %v", err)
	}
	return worker.NewPool(q, judgeClient, submissionSvc, userSvc, producer, cfg.Concurrency, l)
}
