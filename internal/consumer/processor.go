// Package consumer drains widget requests from a source and applies them.
package consumer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/deadletter"
	"github.com/imrishuroy/widget-consumer/internal/reconcile"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// Outcome is the final state of one handled request.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeDropped      Outcome = "dropped"
	OutcomeFailed       Outcome = "failed"
	OutcomeDeadLettered Outcome = "dead_lettered"
)

// Disposition tells the caller what to do with a source entry.
type Disposition struct {
	// Ack is true when the entry must be removed from the source.
	Ack       bool
	Outcome   Outcome
	Operation string
	Err       error
}

// Ledger guards against applying a redelivered request twice.
type Ledger interface {
	Begin(ctx context.Context, requestID, widgetKey, operation string) (bool, error)
	MarkDone(ctx context.Context, requestID, outcome string) error
	MarkFailed(ctx context.Context, requestID, note string) error
}

// Processor turns one request body into a Disposition.
type Processor struct {
	parser     *widgets.Parser
	reconciler *reconcile.Reconciler
	policy     deadletter.Policy
	sink       deadletter.Sink
	ledger     Ledger
	sourceName string
	logger     *zap.Logger
	nowFunc    func() time.Time
}

// ProcessorOption configures optional Processor collaborators.
type ProcessorOption func(*Processor)

// WithDeadLetter sets the failure policy to dead-letter into sink.
func WithDeadLetter(sink deadletter.Sink) ProcessorOption {
	return func(p *Processor) {
		p.policy = deadletter.PolicyDeadLetter
		p.sink = sink
	}
}

// WithLedger enables the processed-request ledger.
func WithLedger(l Ledger) ProcessorOption {
	return func(p *Processor) { p.ledger = l }
}

// NewProcessor creates a Processor with the drop failure policy unless
// WithDeadLetter is given.
func NewProcessor(reconciler *reconcile.Reconciler, sourceName string, logger *zap.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		parser:     widgets.NewParser(),
		reconciler: reconciler,
		policy:     deadletter.PolicyDrop,
		sourceName: sourceName,
		logger:     logger,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process parses and applies body, the content of source entry id.
func (p *Processor) Process(ctx context.Context, id string, body []byte) Disposition {
	log := p.logger.With(zap.String("request", id))

	req, err := p.parser.Parse(body)
	if err != nil {
		log.Warn("malformed widget request", zap.Error(err))
		return p.dispose(ctx, log, id, "", body, deadletter.ReasonMalformed, err)
	}

	op := string(req.Op())
	key := req.Key().String()
	requestID := req.RequestID()
	if requestID == "" {
		requestID = id
	}
	log = log.With(zap.String("operation", op), zap.String("widget_key", key))

	if p.ledger != nil {
		claimed, err := p.ledger.Begin(ctx, requestID, key, op)
		switch {
		case err != nil:
			log.Warn("ledger unavailable, applying without duplicate check", zap.Error(err))
		case !claimed:
			log.Info("request already applied, skipping redelivery", zap.String("request_id", requestID))
			return Disposition{Ack: true, Outcome: OutcomeDuplicate, Operation: op}
		}
	}

	res := p.reconciler.Apply(ctx, req)
	p.finishLedger(ctx, log, requestID, res)

	switch res.Outcome {
	case reconcile.OutcomeApplied:
		return Disposition{Ack: true, Outcome: OutcomeApplied, Operation: op}
	case reconcile.OutcomeSkipped:
		return Disposition{Ack: true, Outcome: OutcomeSkipped, Operation: op}
	}
	return p.dispose(ctx, log, id, op, body, deadletter.ReasonSinkFailure, res.Err)
}

func (p *Processor) finishLedger(ctx context.Context, log *zap.Logger, requestID string, res reconcile.Result) {
	if p.ledger == nil {
		return
	}
	var err error
	if res.Outcome == reconcile.OutcomeFailed {
		err = p.ledger.MarkFailed(ctx, requestID, errString(res.Err))
	} else {
		err = p.ledger.MarkDone(ctx, requestID, string(res.Outcome))
	}
	if err != nil {
		log.Warn("failed to update ledger", zap.Error(err))
	}
}

// dispose applies the failure policy to a request that cannot be applied.
func (p *Processor) dispose(ctx context.Context, log *zap.Logger, id, op string, body []byte, reason string, cause error) Disposition {
	failed := OutcomeFailed
	if errors.Is(cause, widgets.ErrMalformedRequest) {
		failed = OutcomeDropped
	}

	if p.policy != deadletter.PolicyDeadLetter || p.sink == nil {
		log.Warn("dropping request", zap.String("reason", reason))
		return Disposition{Ack: true, Outcome: failed, Operation: op, Err: cause}
	}

	entry := deadletter.Entry{
		RequestID: id,
		Source:    p.sourceName,
		Reason:    reason,
		Error:     errString(cause),
		Body:      string(body),
		FailedAt:  p.nowFunc().UTC(),
	}
	if err := p.sink.Send(ctx, entry); err != nil {
		// keep the entry in the source so a later poll retries it
		log.Error("failed to dead-letter request", zap.String("reason", reason), zap.Error(err))
		return Disposition{Ack: false, Outcome: OutcomeFailed, Operation: op, Err: errors.Join(cause, err)}
	}

	log.Info("request dead-lettered", zap.String("reason", reason))
	return Disposition{Ack: true, Outcome: OutcomeDeadLettered, Operation: op, Err: cause}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
