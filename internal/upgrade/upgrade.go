// Package upgrade 数据库结构迁移与按版本执行的数据升级
package upgrade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/fast-note-graph-service/internal/dao"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(ctx context.Context, tx *gorm.DB, logger *zap.Logger) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	version    string
	migrations []Migration
}

// NewMigrationManager 创建升级管理器
// version 为当前运行的程序版本，高于它的升级脚本不会执行
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, version string) *MigrationManager {
	return &MigrationManager{
		db:      db,
		logger:  logger,
		version: normalize(version),
		migrations: []Migration{
			// 在这里注册所有的升级脚本
			&LinkBackfillMigrate{},
			&LinkRepairMigrate{},
		},
	}
}

// Run 执行升级
func (m *MigrationManager) Run(ctx context.Context) error {
	m.logger.Info("Migration started", zap.String("runningVersion", m.version))

	if err := dao.New(m.db).AutoMigrate(ctx); err != nil {
		return fmt.Errorf("failed to dao db auto migrate: %w", err)
	}

	// 确保 schema_version 表存在
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// 获取已应用的数据库版本
	appliedVersions, err := m.getAppliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied versions: %w", err)
	}

	migrations := append([]Migration(nil), m.migrations...)
	sort.SliceStable(migrations, func(i, j int) bool {
		return semver.Compare(normalize(migrations[i].Version()), normalize(migrations[j].Version())) < 0
	})

	// 执行所有未执行的升级
	executed := 0
	for _, migration := range migrations {
		scriptVersion := normalize(migration.Version())

		if semver.IsValid(m.version) && semver.Compare(scriptVersion, m.version) > 0 {
			m.logger.Info("skip migration newer than running version",
				zap.String("scriptVersion", scriptVersion),
				zap.String("runningVersion", m.version))
			continue
		}

		// 检查是否已应用
		if appliedVersions[scriptVersion] {
			continue
		}

		m.logger.Info("applying migration",
			zap.String("scriptVersion", scriptVersion),
			zap.String("desc", migration.Description()))

		// 在事务中执行升级
		if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 执行升级脚本
			if err := migration.Up(ctx, tx, m.logger); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			// 记录版本
			record := &SchemaVersion{
				Version:     scriptVersion,
				Description: migration.Description(),
				AppliedAt:   time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to record version: %w", err)
			}

			return nil
		}); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", scriptVersion, err)
		}

		m.logger.Info("migration applied successfully", zap.String("scriptVersion", scriptVersion))
		executed++
	}

	if executed == 0 {
		m.logger.Info("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", executed))
	}

	return nil
}

// getAppliedVersions 获取已应用的数据库版本
func (m *MigrationManager) getAppliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []SchemaVersion
	err := m.db.WithContext(ctx).Find(&versions).Error
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[normalize(v.Version)] = true
	}
	return applied, nil
}

// normalize 补全 semver 需要的 "v" 前缀
func normalize(version string) string {
	version = strings.TrimSpace(version)
	if version != "" && !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}

// Execute 执行升级(便捷方法)
func Execute(ctx context.Context, db *gorm.DB, logger *zap.Logger, version string) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if logger == nil {
		return fmt.Errorf("logger not initialized")
	}

	return NewMigrationManager(db, logger, version).Run(ctx)
}
