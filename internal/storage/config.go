package storage

// Config holds configuration for the object storage provider.
type Config struct {
	// Endpoint is the host of the storage service (scheme optional).
	Endpoint string `mapstructure:"endpoint" default:"s3.amazonaws.com"`
	// AccessKey is the access key ID; empty falls back to the AWS environment/IAM chain.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:""`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"true"`
	// Region is the location of the buckets (e.g., us-east-1).
	Region string `mapstructure:"region" default:"us-east-1"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
