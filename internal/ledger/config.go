package ledger

import "time"

// Config holds the processed-request ledger settings.
type Config struct {
	// Table is the DynamoDB table; empty disables the ledger.
	Table string `mapstructure:"table" default:""`
	// TTL is how long entries are kept before DynamoDB expires them.
	TTL time.Duration `mapstructure:"ttl" default:"48h"`
}
