package api_router

import (
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/app"
	pkgapp "github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/code"
	"github.com/haierkeys/fast-note-graph-service/pkg/writequeue"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string       `json:"status"`   // "healthy" 或 "unhealthy"
	Version      string       `json:"version"`  // 服务版本号
	Uptime       float64      `json:"uptime"`   // 运行时间（秒）
	Database     string       `json:"database"` // "connected" 或 "error"
	NumGoroutine int          `json:"numGoroutine"`
	Process      *ProcessInfo `json:"process,omitempty"`
	// WriteLanes 按笔记串行写入的通道状态
	WriteLanes *writequeue.Metrics `json:"writeLanes,omitempty"`
}

// ProcessInfo 进程资源占用
type ProcessInfo struct {
	PID             int32   `json:"pid"`
	CPUPercent      float64 `json:"cpuPercent"`
	MemoryPercent   float32 `json:"memoryPercent"`
	RSS             uint64  `json:"rss"`
	HostMemoryUsed  float64 `json:"hostMemoryUsedPercent"`
	WorkerPoolQueue int     `json:"workerPoolQueue"`
}

// Check 健康检查接口，包括数据库连接与进程资源
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:       "healthy",
		Version:      h.App.Version().Version,
		Uptime:       time.Since(h.App.StartTime).Seconds(),
		Database:     "connected",
		NumGoroutine: runtime.NumGoroutine(),
		Process:      h.processInfo(),
	}

	// 关闭过程中写通道不再接受写入
	if lanes := h.App.WriteQueueManager(); lanes != nil {
		m := lanes.GetMetrics()
		response.WriteLanes = &m
		if m.IsClosed {
			response.Status = "unhealthy"
			pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(response))
			return
		}
	}

	// 检查数据库连接
	if err := h.App.DB.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
		h.logError(c.Request.Context(), "HealthHandler.Check", err)
		response.Status = "unhealthy"
		response.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(response))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}

// processInfo 采集失败时返回 nil
func (h *HealthHandler) processInfo() *ProcessInfo {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	info := &ProcessInfo{PID: p.Pid}
	info.CPUPercent, _ = p.CPUPercent()
	info.MemoryPercent, _ = p.MemoryPercent()
	if m, err := p.MemoryInfo(); err == nil && m != nil {
		info.RSS = m.RSS
	}
	if vMem, err := mem.VirtualMemory(); err == nil {
		info.HostMemoryUsed = vMem.UsedPercent
	}
	if pool := h.App.WorkerPool(); pool != nil {
		info.WorkerPoolQueue = pool.GetMetrics().QueuedCount
	}
	return info
}
