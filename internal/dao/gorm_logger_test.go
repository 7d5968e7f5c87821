package dao

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newGormLogger(zap.New(core), logger.Warn)
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	// fast and successful: nothing at Warn level
	l.Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 0, logs.Len())

	// a miss is not an error
	l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(ctx, time.Now(), stmt, errors.New("database is locked"))
	assert.Equal(t, 1, logs.FilterMessage("sql failed").Len())

	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow sql").Len())

	l.LogMode(logger.Info).Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 1, logs.FilterMessage("sql").Len())

	logs.TakeAll()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), stmt, errors.New("ignored"))
	assert.Equal(t, 0, logs.Len())
}
