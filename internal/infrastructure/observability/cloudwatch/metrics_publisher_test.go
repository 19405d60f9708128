package cloudwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	fail   int
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return nil, errors.New("throttled")
	}
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakeCloudWatch) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func TestMapUnit(t *testing.T) {
	tests := []struct {
		unit     string
		expected types.StandardUnit
	}{
		{"Percent", types.StandardUnitPercent},
		{"%", types.StandardUnitPercent},
		{"Count", types.StandardUnitCount},
		{"ms", types.StandardUnitMilliseconds},
		{"None", types.StandardUnitNone},
		{"custom", types.StandardUnitNone},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapUnit(tt.unit))
		})
	}
}

func TestConvertToDatum(t *testing.T) {
	p := &MetricsPublisher{
		namespace:         "Test/Namespace",
		defaultDimensions: map[string]string{"Environment": "test"},
	}
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	datum := p.convertToDatum(port.ReleaseMetric{
		Name:       "ReleaseConfidence",
		Value:      90.04,
		Unit:       "Percent",
		Repository: "acme/api",
		RiskLevel:  "Medium",
		Timestamp:  at,
	})

	assert.Equal(t, "ReleaseConfidence", *datum.MetricName)
	assert.Equal(t, 90.04, *datum.Value)
	assert.Equal(t, types.StandardUnitPercent, datum.Unit)
	assert.Equal(t, at, *datum.Timestamp)

	dims := make(map[string]string, len(datum.Dimensions))
	for _, d := range datum.Dimensions {
		dims[*d.Name] = *d.Value
	}
	assert.Equal(t, map[string]string{"Environment": "test", "Repository": "acme/api", "RiskLevel": "Medium"}, dims)
}

func TestPublishBatchFlushesWhenBufferFull(t *testing.T) {
	fake := &fakeCloudWatch{}
	p := newMetricsPublisher(fake, MetricsPublisherConfig{Namespace: "RC", BufferSize: 3, FlushInterval: time.Hour}, logger.New("error"))
	defer p.Close(context.Background())

	metrics := []port.ReleaseMetric{{Name: "A"}, {Name: "B"}}
	require.NoError(t, p.PublishBatch(context.Background(), metrics))
	assert.Equal(t, 0, fake.calls())

	require.NoError(t, p.PublishBatch(context.Background(), []port.ReleaseMetric{{Name: "C"}}))
	assert.Equal(t, 1, fake.calls())
	assert.Len(t, fake.inputs[0].MetricData, 3)
	assert.Equal(t, "RC", *fake.inputs[0].Namespace)
}

func TestFlushRetriesTransientErrors(t *testing.T) {
	fake := &fakeCloudWatch{fail: 2}
	p := newMetricsPublisher(fake, MetricsPublisherConfig{Namespace: "RC", FlushInterval: time.Hour}, logger.New("error"))

	require.NoError(t, p.PublishBatch(context.Background(), []port.ReleaseMetric{{Name: "RiskScore", Value: 5.96}}))
	require.NoError(t, p.Close(context.Background()))
	assert.Equal(t, 1, fake.calls())
}

func TestNewMetricsPublisherValidation(t *testing.T) {
	_, err := NewMetricsPublisher(context.Background(), MetricsPublisherConfig{Region: "us-east-1"}, logger.New("error"))
	assert.ErrorContains(t, err, "namespace")

	_, err = NewMetricsPublisher(context.Background(), MetricsPublisherConfig{Namespace: "RC"}, logger.New("error"))
	assert.ErrorContains(t, err, "region")
}
