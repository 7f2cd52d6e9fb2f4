package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes operational metrics to CloudWatch. A nil Metrics is
// valid and records nothing. Emission is fire-and-forget: a metric that
// fails to publish is logged, never surfaced to the caller.
type Metrics struct {
	client      *cloudwatch.Client
	namespace   string
	environment string
	logger      *zap.Logger
}

// NewMetrics creates a metrics publisher
func NewMetrics(client *cloudwatch.Client, namespace, environment string, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:      client,
		namespace:   namespace,
		environment: environment,
		logger:      logger,
	}
}

// IncrementCounter adds to a count metric
func (m *Metrics) IncrementCounter(ctx context.Context, name string, value float64) {
	m.put(ctx, name, value, types.StandardUnitCount)
}

// RecordDuration records an elapsed time metric in milliseconds
func (m *Metrics) RecordDuration(ctx context.Context, name string, d time.Duration) {
	m.put(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit) {
	if m == nil || m.client == nil {
		return
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: []types.Dimension{
					{
						Name:  aws.String("Environment"),
						Value: aws.String(m.environment),
					},
				},
			},
		},
	})
	if err != nil {
		m.logger.Debug("metric publish failed",
			zap.String("metric", name),
			zap.Error(err),
		)
	}
}
