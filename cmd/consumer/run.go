package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/widget-consumer/internal/app"
	"github.com/imrishuroy/widget-consumer/internal/config"
	"github.com/imrishuroy/widget-consumer/internal/consumer"
	"github.com/imrishuroy/widget-consumer/internal/handlers"
	"github.com/imrishuroy/widget-consumer/internal/logger"
	"github.com/imrishuroy/widget-consumer/internal/metrics"
)

func runConsumer(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.LoadConfig(dir, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	base, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()
	log := logger.ForRun(base, uuid.NewString(), cfg.SourceName())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Warn("failed to close connections", zap.Error(err))
		}
	}()

	processor, err := deps.Processor(ctx, cfg.SourceName(), log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	loop := consumer.NewLoop(deps.Source(), processor, cfg.Consumer, log, recorder)

	var summary metrics.Summary
	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})

	g.Go(func() error {
		defer close(loopDone)
		var runErr error
		summary, runErr = loop.Run(gctx)
		return runErr
	})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           handlers.NewRouter(log, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-loopDone:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.Info("consumer finished", zap.Object("summary", summary))

	if cfg.Metrics.CloudWatchNamespace != "" {
		// the run context may already be cancelled
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		reporter := metrics.NewCloudWatchReporter(deps.AWS.CloudWatch, cfg.Metrics.CloudWatchNamespace)
		if perr := reporter.Publish(pubCtx, cfg.SourceName(), summary); perr != nil {
			log.Warn("failed to publish run summary", zap.Error(perr))
		}
	}

	if errors.Is(err, context.Canceled) {
		log.Info("consumer interrupted")
		return nil
	}
	return err
}
