package ioc

import (
	"log"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/pkg/judge0"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

func InitJudge0Client(l logger.Logger) *judge0.Client {
	var cfg config.Judge0Config
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal judge0 config failed: %v", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1000
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 25000
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	return judge0.NewClient(l, httpClient,
		cfg.BaseURL,
		cfg.APIKey,
		cfg.APIHost,
		time.Duration(cfg.PollInterval)*time.Millisecond,
		time.Duration(cfg.MaxWait)*time.Millisecond,
	)
}
