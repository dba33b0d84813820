package deadletter

// Config selects the failure policy and its dead-letter destination.
type Config struct {
	Policy string `mapstructure:"policy" default:"drop"`
	// QueueURL is the SQS dead-letter queue.
	QueueURL string `mapstructure:"dead_letter_queue" default:""`
	// NATSURL is the NATS server for the JetStream dead-letter stream.
	NATSURL string `mapstructure:"nats_url" default:""`
}
