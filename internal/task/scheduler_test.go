package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/service"
	"github.com/haierkeys/fast-note-graph-service/pkg/safe_close"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	schedule string
	startup  bool
	runs     atomic.Int32
	panics   bool
	lastCtx  atomic.Value
}

func (t *countingTask) Name() string       { return "counting" }
func (t *countingTask) Schedule() string   { return t.schedule }
func (t *countingTask) IsStartupRun() bool { return t.startup }

func (t *countingTask) Run(ctx context.Context) error {
	t.lastCtx.Store(ctx)
	t.runs.Add(1)
	if t.panics {
		panic("boom")
	}
	return nil
}

func TestScheduler_StartupRunAndStop(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	task := &countingTask{schedule: "@every 1h", startup: true}
	require.NoError(t, s.AddTask(task))
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())

	ctx := task.lastCtx.Load().(context.Context)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestScheduler_LoopRun(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	task := &countingTask{schedule: "@every 1s"}
	require.NoError(t, s.AddTask(task))
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func TestScheduler_PanicRecovered(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	task := &countingTask{schedule: "@every 1h", startup: true, panics: true}
	require.NoError(t, s.AddTask(task))
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(zap.NewNop(), safe_close.NewSafeClose())
	assert.Error(t, s.AddTask(&countingTask{schedule: "every now and then"}))
	assert.Error(t, s.AddTask(&countingTask{schedule: ""}))
}

// auditOnly implements only the Audit part of GraphService
type auditOnly struct {
	service.GraphService
	removed int64
	err     error
	calls   atomic.Int32
}

func (a *auditOnly) Audit(context.Context) (int64, error) {
	a.calls.Add(1)
	return a.removed, a.err
}

func TestGraphAuditTask(t *testing.T) {
	assert.Nil(t, NewGraphAuditTask(&auditOnly{}, "", zap.NewNop()))

	graph := &auditOnly{removed: 3}
	task := NewGraphAuditTask(graph, "@every 6h", zap.NewNop())
	require.NotNil(t, task)
	assert.Equal(t, "@every 6h", task.Schedule())
	assert.True(t, task.IsStartupRun())
	assert.NoError(t, task.Run(context.Background()))
	assert.Equal(t, int32(1), graph.calls.Load())

	failing := &auditOnly{err: errors.New("db down")}
	task = NewGraphAuditTask(failing, "@every 6h", zap.NewNop())
	assert.Error(t, task.Run(context.Background()))
}

func TestRegistryHasGraphAudit(t *testing.T) {
	assert.NotEmpty(t, GetFactories())
}
