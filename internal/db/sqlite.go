package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// InitDB 打开数据库并初始化表结构
// dbPath 为 ":memory:" 时单连接运行 (内存库每个连接相互独立)
func InitDB(dbPath string) (*sql.DB, error) {
	log.Info().Str("path", dbPath).Msg("open host database")

	dsn := dbPath
	if !strings.HasPrefix(dbPath, ":memory:") {
		dsn = dbPath + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func initTables(db *sql.DB) error {
	sqls := []string{
		// 已安装插件 (由插件目录扫描同步)
		`CREATE TABLE IF NOT EXISTS plugin_infos (
			identifier TEXT PRIMARY KEY,
			dir TEXT,
			name TEXT,
			version TEXT,
			active INTEGER DEFAULT 0,
			updated_at INTEGER
		);`,

		// 通用配置表, 更新元数据的持久化副本也存这里
		`CREATE TABLE IF NOT EXISTS sys_options (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at INTEGER
		);`,
	}

	for _, sqlStmt := range sqls {
		if _, err := db.Exec(sqlStmt); err != nil {
			return fmt.Errorf("init table failed: %w\nSQL: %s", err, sqlStmt)
		}
	}
	return nil
}

// CloseDB 关闭数据库连接
func CloseDB(db *sql.DB) error {
	log.Info().Msg("closing host database")
	return db.Close()
}
