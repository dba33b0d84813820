package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/aws"
	"github.com/imrishuroy/widget-consumer/internal/config"
	"github.com/imrishuroy/widget-consumer/internal/handlers"
	"github.com/imrishuroy/widget-consumer/internal/logger"
)

func setupRouter(l *zap.Logger, cfg handlers.HandlerConfig) *gin.Engine {
	r := handlers.NewRouter(l, nil)
	handlers.RegisterWidgetRequestRoutes(r, cfg)
	return r
}

func main() {
	cfg, err := config.LoadConfig(".", nil)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Source.QueueURL == "" {
		log.Fatalf("SOURCE_QUEUE_URL is required")
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWS)
	if err != nil {
		l.Fatal("failed to init aws clients", zap.Error(err))
	}

	r := setupRouter(l, handlers.HandlerConfig{
		SQSClient: clients.SQS,
		QueueURL:  cfg.Source.QueueURL,
		Logger:    l,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		l.Info("running local server", zap.String("addr", cfg.API.Addr))
		if err := r.Run(cfg.API.Addr); err != nil {
			l.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
