package confluent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		BootstrapServers: []string{"localhost:9092"},
		ClientID:         "test",
		ConsumerGroup:    "test-group",
		Endpoints: map[string]config.Endpoint{
			config.SurfaceFlink: {
				BaseURL: "https://flink.example.com",
				APIKey:  "key",
			},
			config.SurfaceSchemaRegistry: {
				BaseURL: "https://sr.example.com",
			},
		},
	}
}

func TestRestClientMemoizedPerSurface(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig())

	first, err := m.RestClient(config.SurfaceFlink)
	require.NoError(t, err)
	second, err := m.RestClient(config.SurfaceFlink)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated calls reuse the cached client")
}

func TestRestClientUnconfiguredSurfaceFailsFast(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig())

	_, err := m.RestClient(config.SurfaceTelemetry)
	require.ErrorIs(t, err, ErrSurfaceNotConfigured)

	// The failure is not cached either: configuring the surface later works.
	require.NoError(t, m.SetEndpoint(config.SurfaceTelemetry, "https://telemetry.example.com"))
	client, err := m.RestClient(config.SurfaceTelemetry)
	require.NoError(t, err)
	assert.Equal(t, "https://telemetry.example.com", client.BaseURL())
}

func TestSetEndpointInvalidatesOnlyThatSurface(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig())

	flinkBefore, err := m.RestClient(config.SurfaceFlink)
	require.NoError(t, err)
	srBefore, err := m.RestClient(config.SurfaceSchemaRegistry)
	require.NoError(t, err)

	require.NoError(t, m.SetEndpoint(config.SurfaceFlink, "https://flink2.example.com"))

	flinkAfter, err := m.RestClient(config.SurfaceFlink)
	require.NoError(t, err)
	assert.NotSame(t, flinkBefore, flinkAfter, "the rebound surface rebuilds its client")
	assert.Equal(t, "https://flink2.example.com", flinkAfter.BaseURL())

	srAfter, err := m.RestClient(config.SurfaceSchemaRegistry)
	require.NoError(t, err)
	assert.Same(t, srBefore, srAfter, "other surfaces keep their cached clients")
}

func TestSetEndpointRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig())
	assert.Error(t, m.SetEndpoint(config.SurfaceFlink, ""))
}

func TestBrokerClientRequiresBootstrapServers(t *testing.T) {
	t.Parallel()

	m := NewManager(&config.Config{ClientID: "test"})
	_, err := m.BrokerClient()
	assert.ErrorIs(t, err, ErrBrokerNotConfigured)
}

func TestBrokerClientConstructsWithoutIO(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig())
	// No broker is listening; construction alone must still succeed.
	client, err := m.BrokerClient()
	require.NoError(t, err)
	require.NotNil(t, client)

	again, err := m.BrokerClient()
	require.NoError(t, err)
	assert.Same(t, client, again)

	m.DisconnectAll(context.Background())
}

func TestConsumerValidation(t *testing.T) {
	t.Parallel()

	m := NewManager(&config.Config{ClientID: "test", ConsumerGroup: "g"})
	_, err := m.Consumer(ConsumerOptions{Topics: []string{"orders"}})
	assert.ErrorIs(t, err, ErrBrokerNotConfigured)

	m = NewManager(testConfig())
	_, err = m.Consumer(ConsumerOptions{})
	assert.Error(t, err, "at least one topic is required")
}

func TestConsumerIsNotMemoized(t *testing.T) {
	t.Parallel()

	m := NewManager(testConfig())
	opts := ConsumerOptions{SessionID: "s1", Topics: []string{"orders"}}

	first, err := m.Consumer(opts)
	require.NoError(t, err)
	defer first.Close()
	second, err := m.Consumer(opts)
	require.NoError(t, err)
	defer second.Close()

	assert.NotSame(t, first, second, "every call owns a fresh consumer")
}
