package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/widget-consumer/internal/aws"
)

// CloudWatchReporter publishes a run Summary as CloudWatch metrics.
type CloudWatchReporter struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewCloudWatchReporter creates a reporter writing into namespace.
func NewCloudWatchReporter(client aws.CloudWatchAPI, namespace string) *CloudWatchReporter {
	return &CloudWatchReporter{client: client, namespace: namespace, nowFunc: time.Now}
}

// Publish sends one datum per summary counter, dimensioned by source.
func (r *CloudWatchReporter) Publish(ctx context.Context, source string, s Summary) error {
	now := r.nowFunc()
	dims := []cwtypes.Dimension{{Name: awsString("Source"), Value: awsString(source)}}

	values := []struct {
		name  string
		value int
	}{
		{"Cycles", s.Cycles},
		{"IdleCycles", s.IdleCycles},
		{"PollErrors", s.PollErrors},
		{"Requests", s.Requests},
		{"Applied", s.Applied},
		{"Skipped", s.Skipped},
		{"Duplicates", s.Duplicates},
		{"Dropped", s.Dropped},
		{"Failed", s.Failed},
		{"DeadLettered", s.DeadLettered},
		{"AckErrors", s.AckErrors},
	}

	data := make([]cwtypes.MetricDatum, 0, len(values))
	for _, v := range values {
		data = append(data, cwtypes.MetricDatum{
			MetricName: awsString(v.name),
			Dimensions: dims,
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      awsFloat(float64(v.value)),
		})
	}

	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &r.namespace,
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func awsString(s string) *string   { return &s }
func awsFloat(f float64) *float64 { return &f }
