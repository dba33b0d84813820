package deadletter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultSubjectPrefix is the subject root of dead-lettered requests; the
// reason is appended, e.g. "widgets.dlq.malformed".
const DefaultSubjectPrefix = "widgets.dlq"

// StreamName is the JetStream stream capturing DefaultSubjectPrefix.
const StreamName = "WIDGETS_DLQ"

// publisher is the part of jetstream.JetStream used by JetStreamSink.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamSink publishes entries to a NATS JetStream stream.
type JetStreamSink struct {
	js     publisher
	prefix string
	conn   *nats.Conn
}

// ConnectJetStream dials url, ensures the dead-letter stream exists and
// returns a sink publishing into it.
func ConnectJetStream(ctx context.Context, url string) (*JetStreamSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("widget-consumer"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{DefaultSubjectPrefix + ".>"},
		MaxAge:    7 * 24 * time.Hour,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	return &JetStreamSink{js: js, prefix: DefaultSubjectPrefix, conn: conn}, nil
}

func (s *JetStreamSink) Send(ctx context.Context, entry Entry) error {
	data, err := entry.Marshal()
	if err != nil {
		return fmt.Errorf("marshal dead-letter entry: %w", err)
	}
	subject := s.prefix + "." + entry.Reason
	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the NATS connection.
func (s *JetStreamSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
