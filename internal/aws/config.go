package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Config holds the AWS connection settings.
type Config struct {
	// Region is the AWS region for SQS, DynamoDB and CloudWatch.
	Region string `mapstructure:"region" default:"us-east-1"`
	// Endpoint overrides the service endpoint (e.g. http://localhost:4566 for LocalStack).
	Endpoint string `mapstructure:"endpoint" default:""`
}

func LoadAWSConfig(ctx context.Context, cfg Config) (sdkaws.Config, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion // default fallback
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awsCfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsCfg, nil
}
