package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sitebuilder/internal/editor"
	"sitebuilder/internal/metrics"
	"sitebuilder/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var devLogin bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withBackend(ctx, func(ctx context.Context, b backend) error {
				cfg := b.cfg
				logger := newLogger()
				if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
					addr = cfg.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
					basePath = cfg.Server.BasePath
				}
				secret := strings.TrimSpace(viper.GetString("jwt-secret"))
				if secret == "" {
					secret = cfg.Server.JWTSecret
				}
				if secret == "" {
					return fmt.Errorf("SITEBUILDER_JWT_SECRET or server.jwt_secret is required for bearer auth")
				}

				var reg *prom.Registry
				var rec metrics.Recorder = metrics.NoopRecorder{}
				if cfg.Metrics.Enabled {
					reg = prom.NewRegistry()
					reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
					rec = metrics.NewPrometheusRecorder(reg)
				}
				e := b.engine
				e.Exporter.Metrics = rec

				sessions := editor.NewManager(e.Registry, e.Palette, editor.Options{
					Strict:       cfg.Editor.StrictTypes,
					HistoryLimit: cfg.Editor.HistoryLimit,
					Metrics:      rec,
				})
				authCfg := server.AuthConfig{
					JWTSecret: secret,
					TokenTTL:  cfg.TokenTTLDuration(),
					DevLogin:  devLogin || cfg.Server.DevLogin,
					Logger:    logger,
				}
				srvCfg := server.Config{
					Engine:   e,
					Sessions: sessions,
					BasePath: basePath,
					Auth:     authCfg,
					Events:   b.events,
					Metrics:  reg,
					Logger:   logger,
				}
				if b.repo != nil {
					srvCfg.Auth.Keys = b.repo
					server.StartWebhooks(ctx, b.repo, cfg.Events.Webhooks, logger)
				} else if len(cfg.Events.Webhooks) > 0 {
					logger.Warn("webhooks need the sqlite storage driver; skipping", "count", len(cfg.Events.Webhooks))
				}
				server.StartSessionSweeper(ctx, sessions, cfg.SessionIdleDuration(), logger)

				handler, err := server.New(srvCfg)
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				if authCfg.DevLogin {
					logger.Warn("dev login enabled; anyone can mint tokens", "path", basePath+"/auth/dev/login")
				}
				fmt.Printf("Serving Sitebuilder API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&devLogin, "dev-login", false, "expose POST /auth/dev/login (never in production)")
	return cmd
}
