package source

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/imrishuroy/widget-consumer/internal/aws"
)

// QueueConfig holds the SQS receive settings.
type QueueConfig struct {
	// WaitSeconds is the long-poll wait per receive.
	WaitSeconds int32 `mapstructure:"wait_seconds" default:"1"`
	// VisibilityTimeout hides a received message from other receives until it
	// is deleted or the timeout expires.
	VisibilityTimeout int32 `mapstructure:"visibility_timeout" default:"30"`
}

// QueueSource receives requests from an SQS queue, one message per poll.
// Received messages are held until acked so Fetch and Ack can find the body
// and receipt handle by message id.
type QueueSource struct {
	client   aws.SQSAPI
	queueURL string
	cfg      QueueConfig
	pending  map[string]sqstypes.Message
}

// NewQueueSource creates a source over queueURL.
func NewQueueSource(client aws.SQSAPI, queueURL string, cfg QueueConfig) *QueueSource {
	return &QueueSource{
		client:   client,
		queueURL: queueURL,
		cfg:      cfg,
		pending:  map[string]sqstypes.Message{},
	}
}

func (s *QueueSource) Name() string { return "queue" }

// Poll waits up to WaitSeconds for a message and returns its id.
func (s *QueueSource) Poll(ctx context.Context) ([]string, error) {
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &s.queueURL,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     s.cfg.WaitSeconds,
		VisibilityTimeout:   s.cfg.VisibilityTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	ids := make([]string, 0, len(out.Messages))
	for _, msg := range out.Messages {
		id := sdkaws.ToString(msg.MessageId)
		if id == "" {
			continue
		}
		s.pending[id] = msg
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *QueueSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	msg, ok := s.pending[id]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", id, ErrNotFound)
	}
	return []byte(sdkaws.ToString(msg.Body)), nil
}

// Ack deletes the message. The local copy is released even when the delete
// fails; SQS redelivers it after the visibility timeout.
func (s *QueueSource) Ack(ctx context.Context, id string) error {
	msg, ok := s.pending[id]
	if !ok {
		return fmt.Errorf("ack %s: %w", id, ErrNotFound)
	}
	delete(s.pending, id)

	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &s.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	return nil
}
