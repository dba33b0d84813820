// Package reconcile applies parsed widget requests to the record and index stores.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/records"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// ErrNoRecordStore is returned for updates when no record store is configured.
var ErrNoRecordStore = errors.New("update requires a record store")

// Outcome is what applying a request did to the stores.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means there was nothing to change, such as an update for a
	// record that does not exist.
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result reports how a request was applied.
type Result struct {
	Outcome Outcome
	Key     widgets.Key
	// Err joins every sink failure when Outcome is OutcomeFailed.
	Err error
}

// Reconciler applies requests. Either store may be nil when not configured.
type Reconciler struct {
	records records.Store
	index   records.IndexStore
	logger  *zap.Logger
}

// New creates a Reconciler.
func New(store records.Store, index records.IndexStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{records: store, index: index, logger: logger}
}

// Apply applies req. It never returns early on a sink failure: every
// configured sink is attempted and the failures are joined into Result.Err.
func (r *Reconciler) Apply(ctx context.Context, req widgets.Request) Result {
	key := req.Key()
	log := r.logger.With(
		zap.String("operation", string(req.Op())),
		zap.String("widget_key", key.String()),
	)

	switch req := req.(type) {
	case *widgets.Create:
		return r.create(ctx, log, req)
	case *widgets.Update:
		return r.update(ctx, log, req)
	case *widgets.Delete:
		return r.delete(ctx, log, req)
	default:
		return Result{Outcome: OutcomeFailed, Key: key, Err: fmt.Errorf("unsupported request %T", req)}
	}
}

func (r *Reconciler) create(ctx context.Context, log *zap.Logger, req *widgets.Create) Result {
	key := req.Key()
	rec := req.Record()

	var errs []error
	if r.records != nil {
		if err := r.records.Put(ctx, key, rec); err != nil {
			log.Error("failed to write widget record", zap.Error(err))
			errs = append(errs, err)
		} else {
			log.Info("widget record written")
		}
	}
	if r.index != nil {
		if err := r.index.Upsert(ctx, key, rec); err != nil {
			log.Error("failed to update widget index", zap.Error(err))
			errs = append(errs, err)
		} else {
			log.Info("widget index updated")
		}
	}

	if len(errs) > 0 {
		return Result{Outcome: OutcomeFailed, Key: key, Err: errors.Join(errs...)}
	}
	return Result{Outcome: OutcomeApplied, Key: key}
}

func (r *Reconciler) update(ctx context.Context, log *zap.Logger, req *widgets.Update) Result {
	key := req.Key()
	if r.records == nil {
		log.Error("cannot apply update", zap.Error(ErrNoRecordStore))
		return Result{Outcome: OutcomeFailed, Key: key, Err: ErrNoRecordStore}
	}

	rec, err := r.records.Get(ctx, key)
	if errors.Is(err, records.ErrNotFound) {
		log.Warn("widget record not found, nothing to update")
		return Result{Outcome: OutcomeSkipped, Key: key}
	}
	if err != nil {
		log.Error("failed to read widget record", zap.Error(err))
		return Result{Outcome: OutcomeFailed, Key: key, Err: err}
	}

	rec.Merge(req)
	if err := r.records.Put(ctx, key, rec); err != nil {
		log.Error("failed to write updated widget record", zap.Error(err))
		return Result{Outcome: OutcomeFailed, Key: key, Err: err}
	}

	log.Info("widget record updated")
	return Result{Outcome: OutcomeApplied, Key: key}
}

func (r *Reconciler) delete(ctx context.Context, log *zap.Logger, req *widgets.Delete) Result {
	key := req.Key()
	if r.records == nil {
		log.Warn("no record store configured, delete skipped")
		return Result{Outcome: OutcomeSkipped, Key: key}
	}

	if err := r.records.Delete(ctx, key); err != nil {
		log.Error("failed to delete widget record", zap.Error(err))
		return Result{Outcome: OutcomeFailed, Key: key, Err: err}
	}

	log.Info("widget record deleted")
	return Result{Outcome: OutcomeApplied, Key: key}
}
