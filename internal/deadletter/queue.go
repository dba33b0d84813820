package deadletter

import (
	"context"
	"fmt"

	"github.com/imrishuroy/widget-consumer/internal/aws"
)

// QueueSink publishes entries to an SQS dead-letter queue.
type QueueSink struct {
	pub *aws.Publisher
}

// NewQueueSink creates a sink over an SQS publisher.
func NewQueueSink(pub *aws.Publisher) *QueueSink {
	return &QueueSink{pub: pub}
}

func (s *QueueSink) Send(ctx context.Context, entry Entry) error {
	data, err := entry.Marshal()
	if err != nil {
		return fmt.Errorf("marshal dead-letter entry: %w", err)
	}
	_, err = s.pub.Send(ctx, string(data), map[string]string{
		"reason":     entry.Reason,
		"request_id": entry.RequestID,
		"source":     entry.Source,
	})
	if err != nil {
		return fmt.Errorf("dead-letter %s: %w", entry.RequestID, err)
	}
	return nil
}
