// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/model"
	"github.com/haierkeys/fast-note-graph-service/pkg/fileurl"
	"github.com/haierkeys/fast-note-graph-service/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	sqlite3 "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DatabaseConfig 数据库配置（DAO 层使用的注入配置）
type DatabaseConfig struct {
	// Type sqlite (pure Go), sqlite3 (cgo), mysql or postgres
	Type     string
	Path     string
	UserName string
	Password string
	Host     string
	Name     string
	Charset  string
	// ParseTime 是否解析时间（mysql）
	ParseTime bool
	// Replicas 只读副本，格式与主库相同（mysql/postgres 为 host:port）
	Replicas        []string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	RunMode         string
}

// IsSQLite reports whether cfg selects one of the SQLite drivers
func (c DatabaseConfig) IsSQLite() bool {
	return c.Type == "sqlite" || c.Type == "sqlite3"
}

// Dao 数据访问对象，持有数据库连接并提供事务上下文
type Dao struct {
	db     *gorm.DB
	config *DatabaseConfig
	logger *zap.Logger
}

// DaoOption Dao 配置选项
type DaoOption func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(cfg *DatabaseConfig) DaoOption {
	return func(d *Dao) {
		d.config = cfg
	}
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) DaoOption {
	return func(d *Dao) {
		d.logger = l
	}
}

// New 创建 Dao 实例
func New(db *gorm.DB, opts ...DaoOption) *Dao {
	d := &Dao{db: db}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.config == nil {
		d.config = &DatabaseConfig{Type: db.Dialector.Name()}
	}
	return d
}

// DB returns the root connection, outside of any transaction
func (d *Dao) DB() *gorm.DB {
	return d.db
}

type txCtxKey struct{}

// Transaction runs fn inside one transaction. Calls nested in fn's ctx join
// the outer transaction instead of opening a new one.
// Transaction 在事务中执行 fn，fn 内的仓储调用共享同一事务
func (d *Dao) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txCtxKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or a session on the root connection
func (d *Dao) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return d.db.WithContext(ctx)
}

// inTx reports whether ctx carries a transaction opened by Transaction
func (d *Dao) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey{}).(*gorm.DB)
	return ok
}

// isSQLite SQLite has no row locks; write transactions serialize at BEGIN IMMEDIATE instead
func (d *Dao) isSQLite() bool {
	return d.db.Dialector.Name() == "sqlite"
}

// AutoMigrate 迁移所有数据表
func (d *Dao) AutoMigrate(ctx context.Context) error {
	return model.AutoMigrate(d.conn(ctx), "")
}

// Close 关闭数据库连接
func (d *Dao) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB failed")
	}
	return sqlDB.Close()
}

// NewDBEngineWithConfig 根据注入的配置创建数据库连接
func NewDBEngineWithConfig(c DatabaseConfig, zl *zap.Logger) (*gorm.DB, error) {
	dialector, err := newDialector(c, c.Host)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if c.RunMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(zl, logLevel),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database failed", c.Type)
	}

	if len(c.Replicas) > 0 && !c.IsSQLite() {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, host := range c.Replicas {
			rd, err := newDialector(c, host)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, rd)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, errors.Wrap(err, "register read replicas failed")
		}
		if zl != nil {
			zl.Info("database read replicas registered", zap.Int("count", len(replicas)))
		}
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if d, err := util.ParseDuration(c.ConnMaxLifetime); err == nil && d > 0 {
		sqlDB.SetConnMaxLifetime(d)
	} else {
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	if d, err := util.ParseDuration(c.ConnMaxIdleTime); err == nil && d > 0 {
		sqlDB.SetConnMaxIdleTime(d)
	}

	if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil && zl != nil {
		zl.Warn("gorm tracing plugin not installed", zap.Error(err))
	}

	return db, nil
}

func newDialector(c DatabaseConfig, host string) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			host,
			c.Name,
			c.Charset,
			c.ParseTime,
		)), nil
	case "postgres":
		h, port, err := net.SplitHostPort(host)
		if err != nil {
			h, port = host, "5432"
		}
		return postgres.Open(fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=Local",
			h, port, c.UserName, c.Password, c.Name,
		)), nil
	case "sqlite":
		if err := ensureDir(c.Path); err != nil {
			return nil, err
		}
		return sqlite.Open(c.Path + sqliteParams(c.Path, "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate")), nil
	case "sqlite3":
		if err := ensureDir(c.Path); err != nil {
			return nil, err
		}
		return sqlite3.Open(c.Path + sqliteParams(c.Path, "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", c.Type)
}

func sqliteParams(path, params string) string {
	if strings.Contains(path, "?") {
		return "&" + params
	}
	return "?" + params
}

func ensureDir(path string) error {
	if path == "" {
		return errors.New("sqlite database path is empty")
	}
	if fileurl.IsExist(path) {
		return nil
	}
	return errors.Wrap(fileurl.CreatePath(path, os.ModePerm), "create database directory failed")
}
