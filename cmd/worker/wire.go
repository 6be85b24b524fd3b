//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/online_judge_evaluator/cmd/worker/ioc"
	commonioc "github.com/to404hanga/online_judge_evaluator/ioc"
	"github.com/to404hanga/online_judge_evaluator/service"
)

func BuildDependency() *ioc.App {
	wire.Build(
		commonioc.InitLogger,
		commonioc.InitDB,
		commonioc.InitRedis,
		commonioc.InitKafka,
		commonioc.InitProducer,
		commonioc.InitQueue,
		commonioc.InitJudge0Client,

		service.NewProblemService,
		service.NewUserService,
		commonioc.InitSubmissionService,

		ioc.InitWorkerPool,
		ioc.InitScheduler,
		ioc.NewApp,
	)
	return &ioc.App{}
}
