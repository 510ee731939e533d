package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"plugin-endpoints/internal/api"
	"plugin-endpoints/internal/scheduler"
	"plugin-endpoints/internal/telemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the download endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg

	cleanup, err := telemetry.Init(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 启动时先同步一次插件目录
	if err := a.host.Sync(ctx); err != nil {
		log.Warn().Err(err).Msg("initial plugin sync failed")
	}

	sweeper := scheduler.NewSweeper()
	if err := sweeper.Start(cfg.Archive.SweepSchedule, a.archives.Sweep); err != nil {
		return err
	}
	defer sweeper.Stop()

	handler := api.NewServerHandler(a.resolver, a.updater, a.archives, api.HandlerOptions{
		AuthCode:          cfg.Auth.Code,
		PluginsDir:        cfg.Host.PluginsDir,
		LegacyStatusCodes: cfg.Compat.LegacyStatusCodes,
	})
	if cfg.Auth.Code == "" {
		log.Warn().Msg("auth.code is empty, every download request will be rejected")
	}

	staticDir := ""
	if cfg.Archive.Store == "local" {
		staticDir = cfg.Archive.OutputDir
	}
	router := api.NewRouter(handler, api.RouterOptions{
		APIRoot:      cfg.Server.APIRoot,
		DownloadPath: cfg.Server.DownloadPath(),
		IsAdmin:      a.host.IsAdminRequest,
		StaticDir:    staticDir,
		RateLimit:    cfg.Server.RateLimit,
		Tracing:      cfg.Telemetry.OTLPEndpoint != "",
		ServiceName:  serviceName,
	})

	log.Info().Str("path", cfg.Server.DownloadPath()).Msg("download endpoint registered")
	return api.NewServer(cfg.Server.Port, router).Run(ctx, 10*time.Second)
}
