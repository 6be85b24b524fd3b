package ioc

import (
	"log"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/pkg/queue"
	"github.com/to404hanga/online_judge_evaluator/service"
)

func InitSubmissionService(db *gorm.DB, q *queue.Queue, problemSvc service.ProblemService, l logger.Logger) service.SubmissionService {
	var cfg config.WorkerConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal worker config failed: %v", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return service.NewSubmissionService(db, q, problemSvc, cfg.Concurrency, l)
}
