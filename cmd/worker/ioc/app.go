package ioc

import (
	"context"

	"github.com/to404hanga/online_judge_evaluator/job"
	"github.com/to404hanga/online_judge_evaluator/worker"
)

// App 判题 worker 进程: 工作池 + 定时任务调度器
type App struct {
	pool      *worker.Pool
	scheduler *job.CronScheduler
}

func NewApp(pool *worker.Pool, scheduler *job.CronScheduler) *App {
	return &App{
		pool:      pool,
		scheduler: scheduler,
	}
}

func (a *App) Start(ctx context.Context) error {
	a.pool.Start(ctx)
	return a.scheduler.Start()
}

// Stop 停止调度器并等待工作池清空手头任务
func (a *App) Stop() {
	a.scheduler.Stop()
	a.pool.Wait()
}
