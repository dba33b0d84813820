package consumer

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/metrics"
	"github.com/imrishuroy/widget-consumer/internal/source"
)

// Config holds the loop timings.
type Config struct {
	// IdleLimit is the number of consecutive empty polls after which Run returns.
	IdleLimit int `mapstructure:"idle_limit" default:"10"`
	// PollInterval is the pause between cycles.
	PollInterval time.Duration `mapstructure:"poll_interval" default:"1s"`
}

// Handler processes one request body.
type Handler interface {
	Process(ctx context.Context, id string, body []byte) Disposition
}

// Loop polls a source and hands every pending request to a Handler, one at a time.
type Loop struct {
	source   source.Source
	handler  Handler
	cfg      Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewLoop creates a Loop. recorder may be nil.
func NewLoop(src source.Source, handler Handler, cfg Config, logger *zap.Logger, recorder *metrics.Recorder) *Loop {
	if cfg.IdleLimit <= 0 {
		cfg.IdleLimit = 10
	}
	return &Loop{
		source:   src,
		handler:  handler,
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		sleep:    sleepContext,
	}
}

// Run drains the source until IdleLimit consecutive polls found nothing, and
// returns nil then. When ctx is cancelled it stops between requests and
// returns ctx.Err() with the summary so far.
func (l *Loop) Run(ctx context.Context) (metrics.Summary, error) {
	var (
		summary metrics.Summary
		idle    int
		prev    []string
	)

	l.logger.Info("consumer started",
		zap.Int("idle_limit", l.cfg.IdleLimit),
		zap.Duration("poll_interval", l.cfg.PollInterval),
	)

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Cycles++

		ids, err := l.source.Poll(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			summary.PollErrors++
			l.recorder.ObservePoll(metrics.PollError)
			l.logger.Error("failed to poll source", zap.Error(err))
			ids = nil
		}

		if len(ids) == 0 {
			if err == nil {
				l.recorder.ObservePoll(metrics.PollEmpty)
			}
			idle++
			summary.IdleCycles++
			if idle >= l.cfg.IdleLimit {
				l.logger.Info("no requests left, stopping", zap.Int("idle_cycles", idle))
				return summary, nil
			}
		} else {
			idle = 0
			l.recorder.ObservePoll(metrics.PollNonEmpty)
			if !slices.Equal(ids, prev) {
				l.logger.Info("pending requests", zap.Strings("ids", ids))
			}
			if err := l.drain(ctx, ids, &summary); err != nil {
				return summary, err
			}
		}
		prev = ids

		if err := l.sleep(ctx, l.cfg.PollInterval); err != nil {
			return summary, err
		}
	}
}

// drain handles ids in order through a work queue owned by the loop, so the
// poll result is never mutated.
func (l *Loop) drain(ctx context.Context, ids []string, summary *metrics.Summary) error {
	queue := slices.Clone(ids)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := queue[0]
		queue = queue[1:]
		l.handle(ctx, id, summary)
	}
	return nil
}

func (l *Loop) handle(ctx context.Context, id string, summary *metrics.Summary) {
	log := l.logger.With(zap.String("request", id))

	body, err := l.source.Fetch(ctx, id)
	if errors.Is(err, source.ErrNotFound) {
		log.Debug("request already consumed")
		return
	}
	if err != nil {
		log.Error("failed to fetch request", zap.Error(err))
		return
	}

	start := time.Now()
	d := l.handler.Process(ctx, id, body)
	summary.Requests++
	CountOutcome(summary, d.Outcome)
	l.recorder.ObserveRequest(d.Operation, string(d.Outcome), time.Since(start))

	if !d.Ack {
		return
	}
	err = l.source.Ack(ctx, id)
	l.recorder.ObserveAck(err)
	if err != nil {
		summary.AckErrors++
		log.Error("failed to acknowledge request", zap.Error(err))
	}
}

// CountOutcome adds o to the matching Summary counter.
func CountOutcome(s *metrics.Summary, o Outcome) {
	switch o {
	case OutcomeApplied:
		s.Applied++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeDropped:
		s.Dropped++
	case OutcomeFailed:
		s.Failed++
	case OutcomeDeadLettered:
		s.DeadLettered++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
