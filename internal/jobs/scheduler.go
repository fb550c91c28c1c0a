package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// rollupTimeout 单次汇总任务的最长执行时间
const rollupTimeout = 10 * time.Minute

// Rollup 按天汇总学习时长
type Rollup interface {
	RollupYesterday(ctx context.Context) (int, error)
}

// Scheduler 后台定时任务，时间统一按 UTC
type Scheduler struct {
	scheduler  *gocron.Scheduler
	rollup     Rollup
	rollupCron string
}

func New(rollup Rollup, rollupCron string) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// 上一次还没跑完时跳过本次
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		rollup:     rollup,
		rollupCron: rollupCron,
	}
}

// Start 注册任务并异步运行，cron 表达式非法时返回错误
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.rollupCron).Tag("study-rollup").Do(s.RunRollup); err != nil {
		return fmt.Errorf("schedule rollup %q: %w", s.rollupCron, err)
	}
	s.scheduler.StartAsync()
	logger.Log.Info("Scheduler started", zap.String("rollup_cron", s.rollupCron))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs 已注册的任务数
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// RunRollup 汇总前一天的学习时长
func (s *Scheduler) RunRollup() {
	ctx, cancel := context.WithTimeout(context.Background(), rollupTimeout)
	defer cancel()

	start := time.Now()
	users, err := s.rollup.RollupYesterday(ctx)
	if err != nil {
		logger.Log.Error("study rollup failed", zap.Error(err))
		return
	}
	logger.Log.Info("study rollup finished",
		zap.Int("users", users),
		zap.Duration("elapsed", time.Since(start)))
}
