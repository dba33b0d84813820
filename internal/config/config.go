package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/imrishuroy/widget-consumer/internal/aws"
	"github.com/imrishuroy/widget-consumer/internal/consumer"
	"github.com/imrishuroy/widget-consumer/internal/deadletter"
	"github.com/imrishuroy/widget-consumer/internal/handlers"
	"github.com/imrishuroy/widget-consumer/internal/ledger"
	"github.com/imrishuroy/widget-consumer/internal/logger"
	"github.com/imrishuroy/widget-consumer/internal/metrics"
	"github.com/imrishuroy/widget-consumer/internal/source"
	"github.com/imrishuroy/widget-consumer/internal/storage"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for the consumer, the worker and the API.
type Config struct {
	Source   SourceConfig      `mapstructure:"source"`
	Sink     SinkConfig        `mapstructure:"sink"`
	Consumer consumer.Config   `mapstructure:"consumer"`
	Failure  deadletter.Config `mapstructure:"failure"`
	Ledger   ledger.Config     `mapstructure:"ledger"`
	Storage  storage.Config    `mapstructure:"storage"`
	AWS      aws.Config        `mapstructure:"aws"`
	Log      logger.Config     `mapstructure:"log"`
	Metrics  metrics.Config    `mapstructure:"metrics"`
	API      handlers.Config   `mapstructure:"api"`
}

// SourceConfig selects where requests are read from. Exactly one of Bucket
// and QueueURL must be set.
type SourceConfig struct {
	Bucket   string             `mapstructure:"bucket" default:""`
	QueueURL string             `mapstructure:"queue_url" default:""`
	Queue    source.QueueConfig `mapstructure:"queue"`
}

// SinkConfig selects where records are written. At least one sink is required
// and at most one index backend.
type SinkConfig struct {
	// Bucket is the record store bucket.
	Bucket string `mapstructure:"bucket" default:""`
	// Table is the DynamoDB index table.
	Table string `mapstructure:"table" default:""`
	// RedisURL is the Redis index, e.g. redis://localhost:6379/0.
	RedisURL string `mapstructure:"redis_url" default:""`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"read-bucket":    "source.bucket",
	"read-queue":     "source.queue_url",
	"write-bucket":   "sink.bucket",
	"write-table":    "sink.table",
	"index-redis":    "sink.redis_url",
	"failure-policy": "failure.policy",
	"idle-limit":     "consumer.idle_limit",
	"poll-interval":  "consumer.poll_interval",
	"log-level":      "log.level",
	"metrics-addr":   "metrics.addr",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("read-bucket", "", "bucket to read widget requests from")
	fs.String("read-queue", "", "SQS queue URL to read widget requests from")
	fs.String("write-bucket", "", "bucket to write widget records to")
	fs.String("write-table", "", "DynamoDB table to index widgets in")
	fs.String("index-redis", "", "Redis URL to index widgets in")
	fs.String("failure-policy", "", "what to do with unprocessable requests: drop or dead-letter")
	fs.Int("idle-limit", 0, "consecutive empty polls before exiting")
	fs.Duration("poll-interval", 0, "pause between polls")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("metrics-addr", "", "address serving /metrics and /health")
}

// LoadConfig loads configuration from a .env file in path, the environment
// and, when flags is non-nil, the flags registered by RegisterFlags.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// missing .env is fine
	_ = godotenv.Load(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	// SOURCE_QUEUE_URL -> source.queue_url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// bindValues walks the struct and registers every mapstructure key with its
// default tag, so AutomaticEnv can see keys that have no default.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// SourceName is "bucket" or "queue", matching the active source.
func (c *Config) SourceName() string {
	if c.Source.QueueURL != "" {
		return "queue"
	}
	return "bucket"
}

type problems []error

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
}

// Validate checks the consumer configuration. All problems are reported at once.
func (c *Config) Validate() error {
	var errs problems
	fail := errs.add

	switch {
	case c.Source.Bucket == "" && c.Source.QueueURL == "":
		fail("one of source.bucket (--read-bucket) or source.queue_url (--read-queue) is required")
	case c.Source.Bucket != "" && c.Source.QueueURL != "":
		fail("source.bucket and source.queue_url are mutually exclusive")
	}

	if c.Consumer.IdleLimit <= 0 {
		fail("consumer.idle_limit must be positive, got %d", c.Consumer.IdleLimit)
	}
	if c.Consumer.PollInterval < 0 {
		fail("consumer.poll_interval must not be negative, got %s", c.Consumer.PollInterval)
	}

	c.validateSinks(&errs)
	return errors.Join(errs...)
}

// ValidateWorker checks the configuration of the Lambda worker, which is fed
// by SQS events and has no source of its own.
func (c *Config) ValidateWorker() error {
	var errs problems
	c.validateSinks(&errs)
	return errors.Join(errs...)
}

func (c *Config) validateSinks(errs *problems) {
	fail := errs.add

	if c.Sink.Bucket == "" && c.Sink.Table == "" && c.Sink.RedisURL == "" {
		fail("at least one of sink.bucket, sink.table or sink.redis_url is required")
	}
	if c.Sink.Table != "" && c.Sink.RedisURL != "" {
		fail("sink.table and sink.redis_url are mutually exclusive")
	}

	policy, err := deadletter.ParsePolicy(c.Failure.Policy)
	if err != nil {
		fail("%v", err)
	}
	if policy == deadletter.PolicyDeadLetter {
		switch {
		case c.Failure.QueueURL == "" && c.Failure.NATSURL == "":
			fail("failure policy %q needs failure.dead_letter_queue or failure.nats_url", policy)
		case c.Failure.QueueURL != "" && c.Failure.NATSURL != "":
			fail("failure.dead_letter_queue and failure.nats_url are mutually exclusive")
		}
	}
}
