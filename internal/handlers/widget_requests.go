package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/aws"
	"github.com/imrishuroy/widget-consumer/internal/validation"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// HandlerConfig groups dependencies for the widget request handler.
type HandlerConfig struct {
	SQSClient aws.SQSAPI
	QueueURL  string
	Logger    *zap.Logger
}

// RegisterWidgetRequestRoutes registers POST /widget-requests, which validates
// a request document and enqueues it for the consumer.
func RegisterWidgetRequestRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)

	r.POST("/widget-requests", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.WidgetRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		// the consumer keeps unknown fields on create, so forward the document as sent
		var doc map[string]any
		if raw, ok := c.Get(gin.BodyBytesKey); ok {
			if b, ok := raw.([]byte); ok {
				_ = json.Unmarshal(b, &doc)
			}
		}
		if doc == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}

		requestID := req.RequestID
		if requestID == "" {
			requestID = c.GetHeader("Idempotency-Key")
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		doc["requestId"] = requestID

		body, err := json.Marshal(doc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encode_failed", "detail": err.Error()})
			return
		}

		key := widgets.NewKey(req.Owner, req.WidgetID)
		attrs := map[string]string{
			"request_id":     requestID,
			"operation":      req.Type,
			"widget_key":     key.String(),
			"correlation_id": c.GetHeader("X-Request-Id"),
		}

		messageID, err := publisher.Send(ctx, string(body), attrs)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		cfg.Logger.Info("widget request enqueued",
			zap.String("request_id", requestID),
			zap.String("operation", req.Type),
			zap.String("widget_key", key.String()),
			zap.String("message_id", messageID),
		)
		c.JSON(http.StatusAccepted, gin.H{
			"request_id": requestID,
			"message_id": messageID,
			"widget_key": key.String(),
		})
	})
}
