package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQueryThreshold SQL 执行超过该时长记为慢查询
const slowQueryThreshold = 200 * time.Millisecond

// gormLogger 将 gorm 日志写入 zap
type gormLogger struct {
	zl    *zap.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(zl *zap.Logger, level logger.LogLevel) *gormLogger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &gormLogger{
		zl:    zl.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level: level,
		slow:  slowQueryThreshold,
	}
}

// LogMode returns a copy at the given level
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.level = level
	return &nl
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.zl.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.zl.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.zl.Error(fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed and slow statements, and every statement at Info level.
// Record-not-found is a normal miss and is not logged as an error.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.zl.Error("sql failed",
			zap.Error(err),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.String("sql", sql))
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		sql, rows := fc()
		l.zl.Warn("slow sql",
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", l.slow),
			zap.Int64("rows", rows),
			zap.String("sql", sql))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.zl.Debug("sql",
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.String("sql", sql))
	}
}

var _ logger.Interface = (*gormLogger)(nil)
