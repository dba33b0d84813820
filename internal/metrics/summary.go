package metrics

import "go.uber.org/zap/zapcore"

// Summary counts what one consumer run did.
type Summary struct {
	Cycles       int
	IdleCycles   int
	PollErrors   int
	Requests     int
	Applied      int
	Skipped      int
	Duplicates   int
	Dropped      int
	Failed       int
	DeadLettered int
	AckErrors    int
}

// MarshalLogObject lets the summary be logged with zap.Object.
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("cycles", s.Cycles)
	enc.AddInt("idle_cycles", s.IdleCycles)
	enc.AddInt("poll_errors", s.PollErrors)
	enc.AddInt("requests", s.Requests)
	enc.AddInt("applied", s.Applied)
	enc.AddInt("skipped", s.Skipped)
	enc.AddInt("duplicates", s.Duplicates)
	enc.AddInt("dropped", s.Dropped)
	enc.AddInt("failed", s.Failed)
	enc.AddInt("dead_lettered", s.DeadLettered)
	enc.AddInt("ack_errors", s.AckErrors)
	return nil
}
