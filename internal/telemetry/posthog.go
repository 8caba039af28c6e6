package telemetry

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
)

var (
	embeddedTelemetryApiKey string // Set by build flags
	namespace               = "Mechctl"
)

// PostHogClient forwards metrics to PostHog keyed by an anonymous machine
// identifier. Telemetry is opt-in through MECHCTL_TELEMETRY_ENABLED.
type PostHogClient struct {
	namespace  string
	client     posthog.Client
	distinctID string
	enabled    bool
}

// New returns the telemetry client, or a no-op client when telemetry is
// disabled or no API key is configured.
func New() Client {
	if !isTelemetryEnabled() {
		return NewNoopClient()
	}
	apiKey := getPostHogAPIKey()
	if apiKey == "" {
		return NewNoopClient()
	}

	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint: getPostHogEndpoint(),
	})
	if err != nil {
		return NewNoopClient()
	}

	return &PostHogClient{
		namespace:  namespace,
		client:     client,
		distinctID: getAnonymousID(),
		enabled:    true,
	}
}

func (c *PostHogClient) AddMetric(_ context.Context, metric Metric) error {
	if c == nil || c.client == nil || !c.enabled {
		return nil
	}

	props := make(map[string]interface{})
	props["metric_name"] = metric.Name
	props["metric_value"] = metric.Value
	for k, v := range metric.Dimensions {
		props[k] = v
	}

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      c.namespace,
		Properties: props,
	})
	return nil
}

func (c *PostHogClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Close()
	return nil
}

func isTelemetryEnabled() bool {
	envVal := os.Getenv("MECHCTL_TELEMETRY_ENABLED")
	return envVal == "true" || envVal == "1"
}

func getPostHogAPIKey() string {
	if key := os.Getenv("MECHCTL_POSTHOG_KEY"); key != "" {
		return key
	}
	return embeddedTelemetryApiKey
}

func getPostHogEndpoint() string {
	if endpoint := os.Getenv("MECHCTL_POSTHOG_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "https://us.i.posthog.com"
}

func getAnonymousID() string {
	id, err := machineid.ID()
	if err != nil {
		hostname, _ := os.Hostname()
		id = fmt.Sprintf("%s-%s-%s", runtime.GOOS, runtime.GOARCH, hostname)
	}

	hash := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%x", hash[:8])
}
