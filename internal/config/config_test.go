package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Consumer.IdleLimit)
	assert.Equal(t, time.Second, cfg.Consumer.PollInterval)
	assert.Equal(t, int32(1), cfg.Source.Queue.WaitSeconds)
	assert.Equal(t, int32(30), cfg.Source.Queue.VisibilityTimeout)
	assert.Equal(t, "drop", cfg.Failure.Policy)
	assert.Equal(t, 48*time.Hour, cfg.Ledger.TTL)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("SOURCE_QUEUE_URL", "https://sqs.local/requests")
	t.Setenv("SINK_TABLE", "widgets")
	t.Setenv("CONSUMER_IDLE_LIMIT", "3")
	t.Setenv("CONSUMER_POLL_INTERVAL", "250ms")
	t.Setenv("FAILURE_DEAD_LETTER_QUEUE", "https://sqs.local/dlq")

	cfg, err := LoadConfig(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://sqs.local/requests", cfg.Source.QueueURL)
	assert.Equal(t, "widgets", cfg.Sink.Table)
	assert.Equal(t, 3, cfg.Consumer.IdleLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Consumer.PollInterval)
	assert.Equal(t, "https://sqs.local/dlq", cfg.Failure.QueueURL)
	assert.Equal(t, "queue", cfg.SourceName())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SINK_BUCKET=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SINK_BUCKET") })

	cfg, err := LoadConfig(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Sink.Bucket)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SOURCE_BUCKET", "env-bucket")
	t.Setenv("CONSUMER_IDLE_LIMIT", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--read-bucket", "flag-bucket",
		"--write-bucket", "records",
		"--failure-policy", "dead-letter",
		"--poll-interval", "5s",
	}))

	cfg, err := LoadConfig(t.TempDir(), fs)
	require.NoError(t, err)

	assert.Equal(t, "flag-bucket", cfg.Source.Bucket)
	assert.Equal(t, "records", cfg.Sink.Bucket)
	assert.Equal(t, "dead-letter", cfg.Failure.Policy)
	assert.Equal(t, 5*time.Second, cfg.Consumer.PollInterval)
	// unset flags leave env values alone
	assert.Equal(t, 7, cfg.Consumer.IdleLimit)
	assert.Equal(t, "bucket", cfg.SourceName())
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Source.Bucket = "requests"
	cfg.Sink.Bucket = "records"
	cfg.Failure.Policy = "drop"
	cfg.Consumer.IdleLimit = 10
	cfg.Consumer.PollInterval = time.Second
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"Valid", func(*Config) {}, true},
		{"NoSource", func(c *Config) { c.Source.Bucket = "" }, false},
		{"BothSources", func(c *Config) { c.Source.QueueURL = "https://sqs.local/q" }, false},
		{"NoSink", func(c *Config) { c.Sink.Bucket = "" }, false},
		{"IndexOnly", func(c *Config) { c.Sink.Bucket = ""; c.Sink.Table = "widgets" }, true},
		{"BothIndexes", func(c *Config) { c.Sink.Table = "widgets"; c.Sink.RedisURL = "redis://localhost:6379" }, false},
		{"UnknownPolicy", func(c *Config) { c.Failure.Policy = "retry" }, false},
		{"DeadLetterWithoutTarget", func(c *Config) { c.Failure.Policy = "dead-letter" }, false},
		{"DeadLetterQueue", func(c *Config) {
			c.Failure.Policy = "dead-letter"
			c.Failure.QueueURL = "https://sqs.local/dlq"
		}, true},
		{"DeadLetterBothTargets", func(c *Config) {
			c.Failure.Policy = "dead-letter"
			c.Failure.QueueURL = "https://sqs.local/dlq"
			c.Failure.NATSURL = "nats://localhost:4222"
		}, false},
		{"ZeroIdleLimit", func(c *Config) { c.Consumer.IdleLimit = 0 }, false},
		{"NegativeInterval", func(c *Config) { c.Consumer.PollInterval = -time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.bucket")
	assert.Contains(t, err.Error(), "sink.bucket")
	assert.Contains(t, err.Error(), "idle_limit")
}

func TestValidateWorker_IgnoresSource(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Bucket = ""
	cfg.Consumer.IdleLimit = 0
	assert.NoError(t, cfg.ValidateWorker())
}
