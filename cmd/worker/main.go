package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/app"
	"github.com/imrishuroy/widget-consumer/internal/config"
	"github.com/imrishuroy/widget-consumer/internal/logger"
	"github.com/imrishuroy/widget-consumer/internal/metrics"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".", nil)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	base, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = base.Sync() }()
	l := logger.ForRun(base, uuid.NewString(), sourceName)

	deps, err := app.Connect(ctx, cfg)
	if err != nil {
		l.Fatal("failed to connect", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	processor, err := deps.Processor(ctx, sourceName, l)
	if err != nil {
		l.Fatal("failed to build processor", zap.Error(err))
	}
	h := NewHandler(processor, l, nil)
	if cfg.Metrics.CloudWatchNamespace != "" {
		h.WithReporter(metrics.NewCloudWatchReporter(deps.AWS.CloudWatch, cfg.Metrics.CloudWatchNamespace))
	}

	// If RUN_LOCAL=true, process a single simulated SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"create","owner":"local","widgetId":"local-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: testBody}},
		}
		resp, err := h.Handle(ctx, event)
		if err != nil {
			l.Fatal("local handler error", zap.Error(err))
		}
		l.Info("local event handled", zap.Int("failures", len(resp.BatchItemFailures)))
		return
	}

	lambda.Start(h.Handle)
}
