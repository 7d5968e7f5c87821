package task

import (
	"context"

	"github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/service"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"

	"go.uber.org/zap"
)

// GraphAuditTask 定期清理端点缺失或跨用户的链接
// 正常写入路径不会产生这类链接，这里兜底处理旧版本数据和手工修改
type GraphAuditTask struct {
	graph    service.GraphService
	schedule string
	logger   *zap.Logger
}

// Name 返回任务名称
func (t *GraphAuditTask) Name() string {
	return "GraphAudit"
}

// Schedule 返回执行周期
func (t *GraphAuditTask) Schedule() string {
	return t.schedule
}

// IsStartupRun 是否立即执行一次
func (t *GraphAuditTask) IsStartupRun() bool {
	return true
}

// Run 执行检查
func (t *GraphAuditTask) Run(ctx context.Context) error {
	removed, err := t.graph.Audit(ctx)
	if err != nil {
		return err
	}
	t.logger.Info("task log",
		zap.String(logger.FieldTask, t.Name()),
		zap.Int64("removed", removed))
	return nil
}

// NewGraphAuditTask 创建图谱检查任务，未配置周期时返回 nil
func NewGraphAuditTask(graph service.GraphService, schedule string, zl *zap.Logger) *GraphAuditTask {
	if schedule == "" {
		return nil
	}
	return &GraphAuditTask{graph: graph, schedule: schedule, logger: zl}
}

// init 自动注册图谱检查任务
func init() {
	Register(func(appContainer *app.App) (Task, error) {
		t := NewGraphAuditTask(appContainer.GraphService, appContainer.Config().App.GraphAuditSchedule, appContainer.Logger())
		if t == nil {
			return nil, nil
		}
		return t, nil
	})
}
