package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/imrishuroy/widget-consumer/internal/metrics"
	"github.com/imrishuroy/widget-consumer/internal/reconcile"
	"github.com/imrishuroy/widget-consumer/internal/records/recordstest"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLoop(src *memSource, store *recordstest.Store, logger *zap.Logger) *Loop {
	p := NewProcessor(reconcile.New(store, nil, logger), src.Name(), logger)
	return NewLoop(src, p, Config{IdleLimit: 10}, logger, nil)
}

func TestRun_ProcessesInSortedOrder(t *testing.T) {
	src := newMemSource(map[string]string{
		"b": `{"type":"create","owner":"o","widgetId":"2"}`,
		"a": `{"type":"create","owner":"o","widgetId":"1"}`,
		"c": `{"type":"create","owner":"o","widgetId":"3"}`,
	})
	store := recordstest.NewStore()

	summary, err := newTestLoop(src, store, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, src.fetched)
	assert.Equal(t, []string{"a", "b", "c"}, src.acked)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 3, summary.Applied)
	assert.Equal(t, 3, summary.Requests)
}

func TestRun_StopsAfterIdleLimit(t *testing.T) {
	src := newMemSource(nil)

	summary, err := newTestLoop(src, recordstest.NewStore(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, src.polls)
	assert.Equal(t, 10, summary.IdleCycles)
	assert.Equal(t, 10, summary.Cycles)
}

func TestRun_NonEmptyPollResetsIdleCounter(t *testing.T) {
	src := newMemSource(nil)
	src.onPoll = func(n int) {
		if n == 9 {
			src.add("late", `{"type":"delete","owner":"o","widgetId":"1"}`)
		}
	}

	summary, err := newTestLoop(src, recordstest.NewStore(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	// 8 idle, 1 busy, then 10 idle
	assert.Equal(t, 19, src.polls)
	assert.Equal(t, 18, summary.IdleCycles)
	assert.Equal(t, []string{"late"}, src.acked)
}

func TestRun_PollErrorCountsAsIdle(t *testing.T) {
	src := newMemSource(nil)
	for i := 1; i <= 10; i++ {
		src.pollErrs[i] = errors.New("network down")
	}
	core, logs := observer.New(zapcore.ErrorLevel)

	summary, err := newTestLoop(src, recordstest.NewStore(), zap.New(core)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.PollErrors)
	assert.Equal(t, 10, summary.IdleCycles)
	assert.Equal(t, 10, logs.FilterMessage("failed to poll source").Len())
}

func TestRun_MalformedIsDroppedAndAcked(t *testing.T) {
	src := newMemSource(map[string]string{"bad": `{"type":"upsert","owner":"o","widgetId":"1"}`})
	store := recordstest.NewStore()

	summary, err := newTestLoop(src, store, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bad"}, src.acked)
	assert.Equal(t, 1, summary.Dropped)
	assert.Zero(t, store.Puts)
	assert.Zero(t, store.Deletes)
}

func TestRun_UpdateMissingRecordIsAcked(t *testing.T) {
	src := newMemSource(map[string]string{"u": `{"type":"update","owner":"o","widgetId":"9","description":"d"}`})

	summary, err := newTestLoop(src, recordstest.NewStore(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u"}, src.acked)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRun_FetchNotFoundIsSkipped(t *testing.T) {
	src := newMemSource(map[string]string{"gone": `{}`})
	src.vanishing["gone"] = true
	src.onPoll = func(n int) {
		if n == 2 {
			delete(src.entries, "gone")
		}
	}

	summary, err := newTestLoop(src, recordstest.NewStore(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, src.acked)
	assert.Zero(t, summary.Requests)
}

func TestRun_LogsBatchOnlyWhenChanged(t *testing.T) {
	// the delete is applied but never leaves the source, so every poll repeats it
	src := newMemSource(map[string]string{"stuck": `{"type":"delete","owner":"o","widgetId":"1"}`})
	src.ackErr = errors.New("denied")
	src.onPoll = func(n int) {
		if n == 4 {
			delete(src.entries, "stuck")
		}
	}
	core, logs := observer.New(zapcore.InfoLevel)

	summary, err := newTestLoop(src, recordstest.NewStore(), zap.New(core)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("pending requests").Len())
	assert.Equal(t, 3, summary.AckErrors)
}

func TestRun_CancelReturnsPartialSummary(t *testing.T) {
	src := newMemSource(map[string]string{
		"a": `{"type":"create","owner":"o","widgetId":"1"}`,
		"b": `{"type":"create","owner":"o","widgetId":"2"}`,
	})
	store := recordstest.NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	logger := zap.NewNop()
	p := NewProcessor(reconcile.New(store, nil, logger), src.Name(), logger)
	h := handlerFunc(func(ctx context.Context, id string, body []byte) Disposition {
		d := p.Process(ctx, id, body)
		cancel()
		return d
	})
	loop := NewLoop(src, h, Config{IdleLimit: 10}, logger, nil)

	summary, err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Requests)
	assert.Equal(t, []string{"a"}, src.acked)
}

func TestRun_CancelDuringSleep(t *testing.T) {
	src := newMemSource(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	loop := NewLoop(src, handlerFunc(nil), Config{IdleLimit: 10, PollInterval: time.Hour}, zap.NewNop(), nil)
	summary, err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, summary.Cycles)
}

func TestRun_RecordsMetrics(t *testing.T) {
	src := newMemSource(map[string]string{"a": `{"type":"create","owner":"o","widgetId":"1"}`})
	rec := metrics.NewRecorder(prometheus.NewRegistry())
	logger := zap.NewNop()
	p := NewProcessor(reconcile.New(recordstest.NewStore(), nil, logger), src.Name(), logger)

	_, err := NewLoop(src, p, Config{IdleLimit: 2}, logger, rec).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Polls.WithLabelValues(metrics.PollNonEmpty)))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.Polls.WithLabelValues(metrics.PollEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Requests.WithLabelValues(string(widgets.OpCreate), string(OutcomeApplied))))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Acks.WithLabelValues("ok")))
}

type handlerFunc func(ctx context.Context, id string, body []byte) Disposition

func (f handlerFunc) Process(ctx context.Context, id string, body []byte) Disposition {
	return f(ctx, id, body)
}
