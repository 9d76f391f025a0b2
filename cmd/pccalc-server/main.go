package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/rallypc/pccalc/internal/alerts"
	"github.com/rallypc/pccalc/internal/api"
	"github.com/rallypc/pccalc/internal/auth"
	"github.com/rallypc/pccalc/internal/config"
	"github.com/rallypc/pccalc/internal/metrics"
	"github.com/rallypc/pccalc/internal/probe"
	"github.com/rallypc/pccalc/internal/runner"
	"github.com/rallypc/pccalc/internal/source"
	"github.com/rallypc/pccalc/internal/store"
	"github.com/rallypc/pccalc/internal/ws"
	"github.com/rallypc/pccalc/pkg/timing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("pccalc-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.SlogLevel())

	slog.Info("config loaded",
		"event", cfg.Event.Name,
		"source", cfg.Source.Type,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"refresh_interval", cfg.Source.RefreshInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, err := source.New(cfg.Source)
	if err != nil {
		slog.Error("failed to build source", "err", err)
		os.Exit(1)
	}

	// Serve the last saved report until the first run finishes.
	st := store.New(cfg.Store.Path)
	if cached, ok, err := st.Load(); err != nil {
		slog.Warn("ignoring unreadable saved report", "path", cfg.Store.Path, "err", err)
	} else if ok {
		slog.Info("loaded saved report", "path", cfg.Store.Path, "calculated_at", cached.CalculatedAt)
	}

	rec := metrics.New()
	alertEngine := alerts.New(cfg.Event.Name, cfg.Alerts)
	health := probe.New()
	if latest, ok := st.Latest(); ok {
		health.Update(latest)
	}
	hub := ws.New(st.Latest, cfg.Server.BroadcastInterval)

	run := runner.New(src, st, runner.Options{
		Interval: cfg.Source.RefreshInterval,
		Targets:  cfg.Event.TargetTable(),
		Order:    cfg.Event.Order(),
		Observer: rec,
	})
	run.OnReport(alertEngine.Evaluate)
	run.OnReport(health.Update)
	run.OnReport(func(*timing.Report) { hub.Publish() })

	guard := auth.NewGuard(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key())
	if cfg.Server.Auth.Mode == auth.ModeAPIKey && !guard.Enabled() {
		slog.Warn("auth mode is apikey but no key is set; requests are not checked",
			"key_env", cfg.Server.Auth.KeyEnv)
	}

	// gRPC health service guarded by the API key interceptor.
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(guard.UnaryInterceptor()))
	health.Register(grpcSrv)
	lis, err := probe.Listen(cfg.Server.GRPCPort)
	if err != nil {
		slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("gRPC health service listening", "port", cfg.Server.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "err", err)
		}
	}()

	go hub.Run(ctx)
	go run.Run(ctx)

	if cfg.Source.Type == "dir" && cfg.Source.Watch {
		go func() {
			err := source.WatchDir(ctx, cfg.Source.Dir, cfg.Source.WatchDebounce, func() {
				slog.Info("csv directory changed, recomputing", "dir", cfg.Source.Dir)
				run.Trigger()
			})
			if err != nil {
				slog.Error("csv directory watcher stopped", "err", err)
			}
		}()
	}

	go func() {
		activeSource := cfg.Source
		err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			level.Set(updated.SlogLevel())
			run.SetTargets(updated.Event.TargetTable())
			run.SetOrder(updated.Event.Order())
			if updated.Source != activeSource {
				if s, err := source.New(updated.Source); err == nil {
					run.SetSource(s)
					activeSource = updated.Source
				} else {
					slog.Error("config reload: keeping previous source", "err", err)
				}
			}
			slog.Info("config hot-reloaded, recomputing", "targets", len(updated.Event.Targets))
			run.Trigger()
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", guard.Middleware(api.New(api.Deps{
		Store:    st,
		Computer: run,
		Alerts:   alertEngine,
		Event:    cfg.Event.Name,
	})))
	httpMux.Handle("/ws/stream", guard.Middleware(hub))
	httpMux.Handle("/metrics", rec)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("pccalc-server shutting down")
	health.Shutdown()
	grpcSrv.GracefulStop()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}
