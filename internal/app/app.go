// Package app wires configured clients into the consumer components shared by
// the consumer command and the Lambda worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/aws"
	"github.com/imrishuroy/widget-consumer/internal/config"
	"github.com/imrishuroy/widget-consumer/internal/consumer"
	"github.com/imrishuroy/widget-consumer/internal/deadletter"
	"github.com/imrishuroy/widget-consumer/internal/ledger"
	"github.com/imrishuroy/widget-consumer/internal/reconcile"
	"github.com/imrishuroy/widget-consumer/internal/records"
	"github.com/imrishuroy/widget-consumer/internal/source"
	"github.com/imrishuroy/widget-consumer/internal/storage"
)

// Deps holds the external clients a configuration needs.
type Deps struct {
	cfg     *config.Config
	AWS     *aws.AWSClients
	Storage storage.Client
	Redis   *redis.Client
	closers []func() error
}

// Connect creates the clients cfg refers to. Only Redis is dialled eagerly.
func Connect(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{cfg: cfg}

	clients, err := aws.NewAWSClients(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	d.AWS = clients

	if cfg.Source.Bucket != "" || cfg.Sink.Bucket != "" {
		st, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		d.Storage = st
	}

	if cfg.Sink.RedisURL != "" {
		rc, err := dialRedis(ctx, cfg.Sink.RedisURL)
		if err != nil {
			return nil, err
		}
		d.Redis = rc
		d.closers = append(d.closers, rc.Close)
	}

	return d, nil
}

func dialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Source returns the configured request source.
func (d *Deps) Source() source.Source {
	if d.cfg.Source.QueueURL != "" {
		return source.NewQueueSource(d.AWS.SQS, d.cfg.Source.QueueURL, d.cfg.Source.Queue)
	}
	return source.NewBucketSource(d.Storage, d.cfg.Source.Bucket)
}

// Reconciler returns a reconciler over the configured sinks.
func (d *Deps) Reconciler(logger *zap.Logger) *reconcile.Reconciler {
	var store records.Store
	if d.cfg.Sink.Bucket != "" {
		store = records.NewBucketStore(d.Storage, d.cfg.Sink.Bucket)
	}

	var index records.IndexStore
	switch {
	case d.cfg.Sink.Table != "":
		index = records.NewDynamoIndex(d.AWS.DynamoDB, d.cfg.Sink.Table)
	case d.Redis != nil:
		index = records.NewRedisIndex(d.Redis)
	}

	return reconcile.New(store, index, logger)
}

// Processor returns a processor with the configured failure policy and ledger.
func (d *Deps) Processor(ctx context.Context, sourceName string, logger *zap.Logger) (*consumer.Processor, error) {
	policy, err := deadletter.ParsePolicy(d.cfg.Failure.Policy)
	if err != nil {
		return nil, err
	}

	var opts []consumer.ProcessorOption
	if policy == deadletter.PolicyDeadLetter {
		sink, err := d.deadLetterSink(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, consumer.WithDeadLetter(sink))
	}
	if d.cfg.Ledger.Table != "" {
		opts = append(opts, consumer.WithLedger(ledger.NewStore(d.AWS.DynamoDB, d.cfg.Ledger.Table, d.cfg.Ledger.TTL)))
	}

	return consumer.NewProcessor(d.Reconciler(logger), sourceName, logger, opts...), nil
}

func (d *Deps) deadLetterSink(ctx context.Context) (deadletter.Sink, error) {
	if d.cfg.Failure.NATSURL != "" {
		js, err := deadletter.ConnectJetStream(ctx, d.cfg.Failure.NATSURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, js.Close)
		return js, nil
	}
	if d.cfg.Failure.QueueURL == "" {
		return nil, fmt.Errorf("%w: dead-letter policy without a destination", config.ErrInvalid)
	}
	return deadletter.NewQueueSink(aws.NewPublisher(d.AWS.SQS, d.cfg.Failure.QueueURL)), nil
}

// Close releases every connection opened by Connect or Processor.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	d.closers = nil
	return errors.Join(errs...)
}
