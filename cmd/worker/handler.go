package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/consumer"
	"github.com/imrishuroy/widget-consumer/internal/metrics"
)

const sourceName = "lambda"

// Handler applies SQS event batches delivered by Lambda.
type Handler struct {
	processor consumer.Handler
	logger    *zap.Logger
	recorder  *metrics.Recorder
	reporter  *metrics.CloudWatchReporter
}

// NewHandler creates a Handler. recorder may be nil.
func NewHandler(processor consumer.Handler, logger *zap.Logger, recorder *metrics.Recorder) *Handler {
	return &Handler{processor: processor, logger: logger, recorder: recorder}
}

// WithReporter publishes each batch summary through r.
func (h *Handler) WithReporter(r *metrics.CloudWatchReporter) *Handler {
	h.reporter = r
	return h
}

// Handle processes every record of the batch in order. Records the processor
// does not want acknowledged are reported as batch item failures, so Lambda
// deletes the rest and SQS redelivers only those.
func (h *Handler) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	var summary metrics.Summary

	h.logger.Info("received SQS batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := ctx.Err(); err != nil {
			// unprocessed records go back to the queue
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
			continue
		}

		start := time.Now()
		d := h.processor.Process(ctx, rec.MessageId, []byte(rec.Body))
		summary.Requests++
		consumer.CountOutcome(&summary, d.Outcome)
		h.recorder.ObserveRequest(d.Operation, string(d.Outcome), time.Since(start))

		if !d.Ack {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}

	h.logger.Info("SQS batch done",
		zap.Int("requests", summary.Requests),
		zap.Int("redelivered", len(resp.BatchItemFailures)),
	)

	if h.reporter != nil {
		if err := h.reporter.Publish(ctx, sourceName, summary); err != nil {
			h.logger.Warn("failed to publish batch summary", zap.Error(err))
		}
	}
	return resp, nil
}
