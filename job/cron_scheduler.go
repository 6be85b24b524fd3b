package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

// JobFunc 定时任务执行函数
type JobFunc func(ctx context.Context) error

// JobConfig 定时任务配置
type JobConfig struct {
	Name        string
	CronExpr    string
	JobFunc     JobFunc
	Description string
	Enabled     bool
	Timeout     time.Duration
}

// JobStatus 任务运行统计
type JobStatus struct {
	Name         string        `json:"name"`
	CronExpr     string        `json:"cron_expr"`
	Description  string        `json:"description"`
	Enabled      bool          `json:"enabled"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	RunCount     int64         `json:"run_count"`
	ErrorCount   int64         `json:"error_count"`
}

// CronScheduler 定时任务调度器, 秒级 cron 表达式
type CronScheduler struct {
	cron     *cron.Cron
	jobs     map[string]*JobConfig
	statuses map[string]*JobStatus
	log      logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
}

func NewCronScheduler(log logger.Logger) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:     cron.New(cron.WithSeconds()),
		jobs:     make(map[string]*JobConfig),
		statuses: make(map[string]*JobStatus),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// AddJob 注册任务, 需在 Start 之前调用
func (s *CronScheduler) AddJob(config *JobConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if config.Name == "" {
		return fmt.Errorf("job name cannot be empty")
	}
	if config.CronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	if config.JobFunc == nil {
		return fmt.Errorf("job function cannot be nil")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	s.jobs[config.Name] = config
	s.statuses[config.Name] = &JobStatus{
		Name:        config.Name,
		CronExpr:    config.CronExpr,
		Description: config.Description,
		Enabled:     config.Enabled,
	}

	s.log.Info("job added",
		logger.String("name", config.Name),
		logger.String("cron_expr", config.CronExpr),
		logger.Bool("enabled", config.Enabled),
	)
	return nil
}

// Start 调度全部启用的任务
func (s *CronScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, job := range s.jobs {
		if !job.Enabled {
			continue
		}
		if _, err := s.cron.AddFunc(job.CronExpr, s.wrapJobFunc(name, job)); err != nil {
			return fmt.Errorf("add job %s to cron failed: %w", name, err)
		}
	}

	s.cron.Start()
	s.log.Info("cron scheduler started")
	return nil
}

// Stop 停止调度, 已在执行的任务通过上下文取消
func (s *CronScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Stop()
	s.cancel()
	s.log.Info("cron scheduler stopped")
}

func (s *CronScheduler) wrapJobFunc(name string, job *JobConfig) func() {
	return func() {
		startTime := time.Now()

		s.mu.Lock()
		status := s.statuses[name]
		status.LastRun = &startTime
		status.RunCount++
		s.mu.Unlock()

		s.log.Info("job started", logger.String("name", name))

		ctx, cancel := context.WithTimeout(s.ctx, job.Timeout)
		defer cancel()
		err := job.JobFunc(ctx)
		duration := time.Since(startTime)

		s.mu.Lock()
		status.LastDuration = duration
		if err != nil {
			status.ErrorCount++
			status.LastError = err.Error()
		} else {
			status.LastError = ""
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Error("job failed",
				logger.String("name", name),
				logger.Duration("duration", duration),
				logger.Error(err),
			)
			return
		}
		s.log.Info("job completed",
			logger.String("name", name),
			logger.Duration("duration", duration),
		)
	}
}

// JobStatuses 返回全部任务的运行统计副本
func (s *CronScheduler) JobStatuses() map[string]*JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*JobStatus, len(s.statuses))
	for name, status := range s.statuses {
		statusCopy := *status
		result[name] = &statusCopy
	}
	return result
}
