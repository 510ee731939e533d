package main

import (
	"database/sql"
	"fmt"

	"plugin-endpoints/internal/db"
	"plugin-endpoints/internal/host/filehost"
	"plugin-endpoints/internal/manager"
	"plugin-endpoints/pkg/config"
	"plugin-endpoints/pkg/storage"

	"github.com/rs/zerolog/log"
)

// app 按配置组装的全部组件
type app struct {
	cfg      *config.EndpointConfig
	db       *sql.DB
	host     *filehost.FileHost
	store    storage.Provider
	archives *manager.ArchiveManager
	resolver *manager.PluginManager
	updater  *manager.UpdateManager
}

func newApp(cfg *config.EndpointConfig) (*app, error) {
	// 1. 初始化数据库
	database, err := db.InitDB(cfg.Host.DBPath)
	if err != nil {
		return nil, err
	}

	// 2. 宿主适配器
	fh := filehost.New(database, filehost.Options{
		PluginsDir:    cfg.Host.PluginsDir,
		UpdateFeedURL: cfg.Host.UpdateFeedURL,
		UpdateTTL:     cfg.Host.UpdateTTL,
		AdminPrefix:   cfg.Host.AdminPrefix,
		HTTPTimeout:   cfg.Host.HTTPTimeout,
	})

	// 3. 归档存储
	store, err := newStore(cfg.Archive)
	if err != nil {
		db.CloseDB(database)
		return nil, fmt.Errorf("init storage failed: %w", err)
	}
	localDir := ""
	if cfg.Archive.Store == "local" {
		localDir = cfg.Archive.OutputDir
	}

	// 4. 业务 Manager
	return &app{
		cfg:   cfg,
		db:    database,
		host:  fh,
		store: store,
		archives: manager.NewArchiveManager(store, manager.ArchiveOptions{
			Retention:    cfg.Archive.Retention,
			LocalDir:     localDir,
			MinFreeBytes: cfg.Archive.MinFreeBytes,
		}),
		resolver: manager.NewPluginManager(fh, cfg.Resolver.Match, cfg.Resolver.Strict),
		updater:  manager.NewUpdateManager(fh, fh, fh),
	}, nil
}

func newStore(cfg config.ArchiveConfig) (storage.Provider, error) {
	if cfg.Store == "minio" {
		log.Info().Str("endpoint", cfg.Minio.Endpoint).Str("bucket", cfg.Minio.Bucket).Msg("using minio storage")
		return storage.NewMinioProvider(cfg.Minio.Endpoint, cfg.Minio.AK, cfg.Minio.SK, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	}
	log.Info().Str("dir", cfg.OutputDir).Msg("using local storage")
	return storage.NewLocalProvider(cfg.OutputDir, cfg.BaseURL)
}

func (a *app) Close() {
	if err := db.CloseDB(a.db); err != nil {
		log.Error().Err(err).Msg("close database")
	}
}
