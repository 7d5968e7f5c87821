package model

import (
	"gorm.io/gorm"
)

// titleCollation byte-exact collation for note titles on MySQL.
// MySQL 默认排序规则不区分大小写与重音，标题唯一索引与 [[title]] 解析需要逐字节比较
const titleCollation = "utf8mb4_bin"

// AutoMigrate migrates the table named by key, or every table when key is empty
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Note":
		if err := db.AutoMigrate(&Note{}); err != nil {
			return err
		}
		return migrateTitleCollation(db)
	case "NoteLink":
		return db.AutoMigrate(&NoteLink{})
	case "":
		if err := db.AutoMigrate(&Note{}, &NoteLink{}); err != nil {
			return err
		}
		return migrateTitleCollation(db)
	}
	return nil
}

// titleCollationSQL 返回将 note.title 改为二进制排序规则的语句，无需调整的方言返回空串
// sqlite 与 postgres 默认即按字节比较
func titleCollationSQL(dialect string) string {
	if dialect != "mysql" {
		return ""
	}
	return "ALTER TABLE " + TableNameNote + " MODIFY title varchar(255) CHARACTER SET utf8mb4 COLLATE " + titleCollation + " NOT NULL"
}

func migrateTitleCollation(db *gorm.DB) error {
	stmt := titleCollationSQL(db.Dialector.Name())
	if stmt == "" {
		return nil
	}

	// 已是目标排序规则时跳过，避免每次启动重建表
	var current string
	err := db.Raw(
		"SELECT COLLATION_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?",
		TableNameNote, "title",
	).Scan(&current).Error
	if err != nil {
		return err
	}
	if current == titleCollation {
		return nil
	}
	return db.Exec(stmt).Error
}
