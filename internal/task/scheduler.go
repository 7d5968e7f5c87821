package task

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/fast-note-graph-service/pkg/logger"
	"github.com/haierkeys/fast-note-graph-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Schedule() string              // 执行周期，标准 cron 表达式或 @every 1h
	IsStartupRun() bool            // 是否立即执行一次
}

// Scheduler 任务调度器
// 周期执行交给 cron，同一任务上一轮未结束时跳过本轮
type Scheduler struct {
	logger *zap.Logger
	cron   *cron.Cron
	tasks  []Task
	sc     *safe_close.SafeClose
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler 创建任务调度器
func NewScheduler(zl *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	cl := cronLogger{l: zl.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: zl,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		tasks:  make([]Task, 0),
		sc:     sc,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask 添加任务，周期表达式无效时返回错误
func (s *Scheduler) AddTask(task Task) error {
	if _, err := s.cron.AddFunc(task.Schedule(), func() { s.run(task, false) }); err != nil {
		return fmt.Errorf("task %s: invalid schedule %q: %w", task.Name(), task.Schedule(), err)
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Start 启动所有任务，收到关闭信号后停止调度并等待运行中的任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		// 如果任务需要立即执行
		if task.IsStartupRun() {
			go s.run(task, true)
		}
	}
	s.cron.Start()

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		s.cancel()
		<-s.cron.Stop().Done()
		s.logger.Info("tasks stopped", zap.Int("count", len(s.tasks)))
	})
}

func (s *Scheduler) run(task Task, startup bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String(logger.FieldTask, task.Name()),
				zap.Bool("startupRun", startup),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	start := time.Now()
	if err := task.Run(s.ctx); err != nil {
		s.logger.Error("task running error",
			zap.String(logger.FieldTask, task.Name()),
			zap.Bool("startupRun", startup),
			zap.Error(err))
		return
	}
	s.logger.Info("task done",
		zap.String(logger.FieldTask, task.Name()),
		zap.Bool("startupRun", startup),
		zap.Duration(logger.FieldDuration, time.Since(start)))
}

// cronLogger 将 cron 日志接入 zap
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
