//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/online_judge_evaluator/cmd/controller/ioc"
	commonioc "github.com/to404hanga/online_judge_evaluator/ioc"
	"github.com/to404hanga/online_judge_evaluator/service"
	"github.com/to404hanga/online_judge_evaluator/service/exporter/factory"
	"github.com/to404hanga/online_judge_evaluator/web"
)

func BuildDependency() *web.GinServer {
	wire.Build(
		commonioc.InitLogger,
		commonioc.InitDB,
		commonioc.InitRedis,
		commonioc.InitJWTHandler,
		commonioc.InitQueue,
		commonioc.InitRateLimiter,
		commonioc.InitRateLimitMiddlewareBuilder,

		service.NewProblemService,
		service.NewUserService,
		commonioc.InitSubmissionService,
		factory.NewExporterFactory,

		web.NewSubmissionHandler,
		web.NewUserHandler,
		web.NewExportHandler,
		web.NewHealthHandler,

		ioc.InitGinServer,
	)
	return &web.GinServer{}
}
