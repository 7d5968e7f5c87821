package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	internalApp "github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/dao"
	"github.com/haierkeys/fast-note-graph-service/pkg/fileurl"
	"github.com/haierkeys/fast-note-graph-service/pkg/logger"
	"github.com/haierkeys/fast-note-graph-service/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger bootstrap stage logger
// bootstrapLogger 启动阶段日志器
// Used to record logs during the startup process before the main logger is initialized
// 用于在主日志器初始化之前记录启动过程中的日志
var bootstrapLogger *zap.Logger

func init() {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Set log level based on DEBUG environment variable
	// 根据 DEBUG 环境变量设置日志级别
	level := zapcore.InfoLevel
	if os.Getenv("DEBUG") != "" {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)
	bootstrapLogger = zap.New(core, zap.AddCaller())
}

// defaultSecretPlaceholder 默认配置中的密钥占位符，首次写出配置时替换为随机串
const defaultSecretPlaceholder = "fast-note-graph-Auth-Token"

// resolveConfigPath 查找配置文件，都不存在时写出默认配置
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	for _, candidate := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if fileurl.IsExist(candidate) {
			return candidate, nil
		}
	}

	path = "config/config.yaml"
	bootstrapLogger.Warn("config file not found, creating default config", zap.String("path", path))

	content := strings.Replace(configDefault, defaultSecretPlaceholder, util.GetRandomString(32), 1)
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrap(err, "config file auto create writing error")
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", path))
	return path, nil
}

// openApp 加载配置并创建 App Container，供一次性子命令使用
// 返回的 closer 负责优雅关闭
func openApp(configPath string) (*internalApp.App, func(), error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, realpath, err := internalApp.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	lg.Debug("config loaded", zap.String("path", realpath))

	if err := ensureDirs(cfg); err != nil {
		return nil, nil, err
	}

	db, err := dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), lg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}

	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			lg.Error("failed to shutdown app container", zap.Error(err))
		}
		_ = lg.Sync()
	}
	return a, closer, nil
}

// ensureDirs 创建日志与数据库所在目录
func ensureDirs(cfg *internalApp.AppConfig) error {
	dirs := []string{fileDir(cfg.Log.File)}
	if strings.HasPrefix(cfg.Database.Type, "sqlite") {
		dirs = append(dirs, fileDir(cfg.Database.Path))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func fileDir(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}

// DefaultShutdownTimeout default shutdown timeout duration
// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second
