package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Emitter publishes scoring-run counters to CloudWatch. A nil Emitter, a
// nil client, or an empty namespace all disable emission, so callers can
// treat it as best-effort observability rather than a hard dependency.
type Emitter struct {
	CloudWatch CloudWatchAPI
	Namespace  string
}

// NewEmitter returns an Emitter bound to a metric namespace.
func NewEmitter(client CloudWatchAPI, namespace string) *Emitter {
	return &Emitter{
		CloudWatch: client,
		Namespace:  namespace,
	}
}

// EmitCount publishes a single Count-unit datum. dimensions map directly to
// CloudWatch metric dimensions.
func (e *Emitter) EmitCount(ctx context.Context, name string, value float64, dimensions map[string]string) error {
	if e == nil || e.CloudWatch == nil || e.Namespace == "" {
		return nil
	}

	datum := cwtypes.MetricDatum{
		MetricName: awsString(name),
		Value:      &value,
		Unit:       cwtypes.StandardUnitCount,
	}
	for k, v := range dimensions {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  awsString(k),
			Value: awsString(v),
		})
	}

	_, err := e.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &e.Namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
