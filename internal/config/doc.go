// Package config loads the consumer configuration.
//
// Values come, from lowest to highest precedence, from struct tag defaults,
// a .env file, environment variables and command-line flags. Environment keys
// are the upper-cased section and field joined by an underscore:
//
//	SOURCE_BUCKET=widget-requests
//	SOURCE_QUEUE_URL=https://sqs.us-east-1.amazonaws.com/123456789012/widget-requests
//	SINK_BUCKET=widget-records
//	SINK_TABLE=widgets
//	FAILURE_POLICY=dead-letter
//	CONSUMER_IDLE_LIMIT=10
//
// # Usage
//
//	cfg, err := config.LoadConfig(".", cmd.Flags())
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
