// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/internal/service"
	pkgapp "github.com/haierkeys/fast-note-graph-service/pkg/app"
	"github.com/haierkeys/fast-note-graph-service/pkg/limiter"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"
	"github.com/haierkeys/fast-note-graph-service/pkg/tracer"
	"github.com/haierkeys/fast-note-graph-service/pkg/util"
	"github.com/haierkeys/fast-note-graph-service/pkg/workerpool"
	"github.com/haierkeys/fast-note-graph-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	App      AppSettings    `yaml:"app"`
	Security SecurityConfig `yaml:"security"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Limiter  LimiterConfig  `yaml:"limiter"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，默认为 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址，为空时不启动（/metrics /debug/vars /pprof）
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"fast-note-graph-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"365d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型：sqlite（纯 Go）、sqlite3（cgo）、mysql、postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time" default:"true"`
	// Replicas 只读副本地址（mysql/postgres）
	Replicas []string `yaml:"replicas"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m（分钟）、1h（小时），默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期，支持格式：10m（分钟）、1h（小时），默认 10m
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// IsReturnSussess 是否返回成功信息
	IsReturnSussess bool `yaml:"is-return-sussess" default:"false"`

	// SuggestLimit 标题联想默认数量
	SuggestLimit int `yaml:"suggest-limit" default:"10"`
	// ReindexConcurrency 重建图谱并发数
	ReindexConcurrency int `yaml:"reindex-concurrency" default:"4"`
	// ReindexTimeout 单个用户重建图谱超时
	ReindexTimeout string `yaml:"reindex-timeout" default:"10m"`
	// GraphAuditSchedule 图谱完整性检查周期（cron 表达式，为空时不执行）
	GraphAuditSchedule string `yaml:"graph-audit-schedule" default:"@every 6h"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
	// AgentHostPort jaeger agent 地址，为空时只生成追踪 ID
	AgentHostPort string `yaml:"agent-host-port"`
	// SamplerParam 采样比例
	SamplerParam float64 `yaml:"sampler-param" default:"1"`
}

// LimiterConfig 接口限流配置
type LimiterConfig struct {
	Enabled bool          `yaml:"enabled" default:"true"`
	Rules   []LimiterRule `yaml:"rules"`
}

// LimiterRule 单条限流规则
type LimiterRule struct {
	// Key 路由路径
	Key string `yaml:"key"`
	// FillInterval 令牌放入间隔，支持格式：1s、1m
	FillInterval string `yaml:"fill-interval" default:"1s"`
	Capacity     int64  `yaml:"capacity" default:"10"`
	Quantum      int64  `yaml:"quantum" default:"10"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetDatabaseConfig 获取 DAO 层数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Name:            c.Database.Name,
		Charset:         c.Database.Charset,
		ParseTime:       c.Database.ParseTime,
		Replicas:        c.Database.Replicas,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		RunMode:         c.Server.RunMode,
	}
}

// GetServiceConfig 获取 Service 层配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	reindexTimeout, _ := util.ParseDuration(c.App.ReindexTimeout)
	return &service.ServiceConfig{
		App: service.AppServiceConfig{
			SuggestLimit:       c.App.SuggestLimit,
			ReindexConcurrency: c.App.ReindexConcurrency,
			ReindexTimeout:     reindexTimeout,
		},
	}
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetTracerConfig 获取 jaeger 配置
func (c *AppConfig) GetTracerConfig() tracer.Config {
	return tracer.Config{
		ServiceName:   Name,
		AgentHostPort: c.Tracer.AgentHostPort,
		SamplerParam:  c.Tracer.SamplerParam,
	}
}

// GetPaginationConfig 获取分页配置
func (c *AppConfig) GetPaginationConfig() pkgapp.PaginationConfig {
	return pkgapp.PaginationConfig{
		DefaultPageSize: c.App.DefaultPageSize,
		MaxPageSize:     c.App.MaxPageSize,
	}
}

// GetLimiterRules 获取限流规则，间隔无法解析的规则会被跳过
func (c *AppConfig) GetLimiterRules() []limiter.BucketRule {
	rules := make([]limiter.BucketRule, 0, len(c.Limiter.Rules))
	for _, r := range c.Limiter.Rules {
		interval, err := util.ParseDuration(r.FillInterval)
		if err != nil || interval <= 0 || r.Key == "" {
			continue
		}
		rules = append(rules, limiter.BucketRule{
			Key:          r.Key,
			FillInterval: interval,
			Capacity:     r.Capacity,
			Quantum:      r.Quantum,
		})
	}
	return rules
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 365 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}
