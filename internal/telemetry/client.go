package telemetry

import "context"

// Client records anonymous usage metrics.
type Client interface {
	AddMetric(ctx context.Context, metric Metric) error
	Close() error
}

// Metric is a single named measurement with optional dimensions.
type Metric struct {
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Dimensions map[string]string `json:"dimensions"`
}

// NoopClient is used when telemetry is disabled.
type NoopClient struct{}

// NewNoopClient creates a new no-op client.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (n *NoopClient) AddMetric(ctx context.Context, metric Metric) error {
	return nil
}

func (n *NoopClient) Close() error {
	return nil
}
