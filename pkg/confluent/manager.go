// Package confluent owns every backend connection the tool layer depends on:
// the Kafka broker client and its admin/producer wrappers, per-session
// consumers, and one REST client per independently-addressable API surface.
//
// Every surface sits behind a lazy slot so that nothing connects before a
// tool actually needs it, and any single surface's endpoint can be rebound at
// runtime without disturbing the others.
package confluent

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/confluent/api"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/lazy"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
)

// Manager hides connection setup cost and endpoint plumbing for every backend
// surface behind lazy getters. Safe for concurrent use.
type Manager struct {
	cfg *config.Config

	broker   *lazy.Lazy[*kgo.Client]
	admin    *lazy.AsyncLazy[*kadm.Client]
	producer *lazy.AsyncLazy[*kgo.Client]

	// mu guards endpoints and rest. The lazy slots synchronize themselves.
	mu        sync.Mutex
	endpoints map[string]config.Endpoint
	rest      map[string]*lazy.Lazy[*api.Client]
}

// NewManager creates a connection manager from the startup configuration.
// No connections are opened here.
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		cfg:       cfg,
		endpoints: make(map[string]config.Endpoint, len(cfg.Endpoints)),
		rest:      make(map[string]*lazy.Lazy[*api.Client]),
	}
	for surface, ep := range cfg.Endpoints {
		m.endpoints[surface] = ep
	}

	m.broker = lazy.New(m.buildBrokerClient, func(c *kgo.Client) error {
		c.Close()
		return nil
	})

	// The admin client is a wrapper over the shared broker client. Its
	// destructor releases only the wrapper: closing the parent here would
	// invalidate in-flight disconnects of the other children.
	m.admin = lazy.NewAsync(m.buildAdminClient, nil)

	// The producer is the parent broker client in its producing role; its
	// teardown flushes outstanding records but leaves the parent open.
	m.producer = lazy.NewAsync(m.buildProducerClient, func(ctx context.Context, c *kgo.Client) error {
		return c.Flush(ctx)
	})

	return m
}

// BrokerClient returns the shared broker client, constructing it on first
// call. Construction performs no network I/O; the first produce/fetch or an
// explicit Ping opens connections.
func (m *Manager) BrokerClient() (*kgo.Client, error) {
	return m.broker.Get()
}

// AdminClient returns the admin client, connecting to the broker on first
// call. Concurrent callers during the connect share the same attempt.
func (m *Manager) AdminClient(ctx context.Context) (*kadm.Client, error) {
	return m.admin.Get(ctx)
}

// ProducerClient returns the producing client, connecting to the broker on
// first call.
func (m *Manager) ProducerClient(ctx context.Context) (*kgo.Client, error) {
	return m.producer.Get(ctx)
}

// ConsumerOptions configures a per-call consumer.
type ConsumerOptions struct {
	// SessionID, when set, is appended to the base consumer-group id so each
	// logical session tracks its own offsets.
	SessionID string
	// Topics to consume.
	Topics []string
	// FromBeginning starts at the earliest offset instead of the latest.
	FromBeginning bool
}

// Consumer returns a fresh consumer client. Deliberately not memoized: each
// logical session gets its own consumer-group identity, so callers own the
// returned client and must Close it. Defaults are conservative: latest
// offsets, no auto-commit, no topic auto-creation.
func (m *Manager) Consumer(opts ConsumerOptions) (*kgo.Client, error) {
	if len(m.cfg.BootstrapServers) == 0 {
		return nil, ErrBrokerNotConfigured
	}
	if len(opts.Topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	group := m.cfg.ConsumerGroup
	if opts.SessionID != "" {
		group = group + "-" + opts.SessionID
	}

	offset := kgo.NewOffset().AtEnd()
	if opts.FromBeginning {
		offset = kgo.NewOffset().AtStart()
	}

	kopts := append(m.brokerOpts(),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(opts.Topics...),
		kgo.ConsumeResetOffset(offset),
		kgo.DisableAutoCommit(),
	)
	return kgo.NewClient(kopts...)
}

// RestClient returns the lazily-constructed REST client for a surface,
// failing fast if the surface has no configured base URL.
func (m *Manager) RestClient(surface string) (*api.Client, error) {
	m.mu.Lock()
	slot, ok := m.rest[surface]
	if !ok {
		s := surface
		slot = lazy.New(func() (*api.Client, error) {
			return m.buildRestClient(s)
		}, nil)
		m.rest[surface] = slot
	}
	m.mu.Unlock()

	return slot.Get()
}

// SetEndpoint rebinds one surface's base URL at runtime. Only that surface's
// cached client is invalidated; the next RestClient call rebuilds with the
// new URL. Credentials are preserved unless the surface had none.
func (m *Manager) SetEndpoint(surface, baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}

	m.mu.Lock()
	ep := m.endpoints[surface]
	ep.BaseURL = baseURL
	m.endpoints[surface] = ep
	slot := m.rest[surface]
	m.mu.Unlock()

	if slot != nil {
		if err := slot.Close(); err != nil {
			return fmt.Errorf("failed to invalidate %s client: %w", surface, err)
		}
	}
	logger.Infow("surface endpoint rebound", "surface", surface, "url", baseURL)
	return nil
}

// DisconnectAll tears down every connected surface in a fixed order: admin,
// then producer, then the parent broker client that both wrap. Teardown
// errors are logged and do not block the remaining steps.
func (m *Manager) DisconnectAll(ctx context.Context) {
	if err := m.admin.Close(ctx); err != nil {
		logger.Warnf("admin client teardown failed: %v", err)
	}
	if err := m.producer.Close(ctx); err != nil {
		logger.Warnf("producer client teardown failed: %v", err)
	}
	if err := m.broker.Close(); err != nil {
		logger.Warnf("broker client teardown failed: %v", err)
	}

	m.mu.Lock()
	slots := make([]*lazy.Lazy[*api.Client], 0, len(m.rest))
	for _, slot := range m.rest {
		slots = append(slots, slot)
	}
	m.mu.Unlock()
	for _, slot := range slots {
		_ = slot.Close()
	}
}

func (m *Manager) brokerOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(m.cfg.BootstrapServers...),
		kgo.ClientID(m.cfg.ClientID),
	}
	if m.cfg.SASLUsername != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: m.cfg.SASLUsername,
			Pass: m.cfg.SASLPassword,
		}.AsMechanism()))
	}
	return opts
}

func (m *Manager) buildBrokerClient() (*kgo.Client, error) {
	if len(m.cfg.BootstrapServers) == 0 {
		return nil, ErrBrokerNotConfigured
	}
	return kgo.NewClient(m.brokerOpts()...)
}

func (m *Manager) buildAdminClient(ctx context.Context) (*kadm.Client, error) {
	broker, err := m.BrokerClient()
	if err != nil {
		return nil, err
	}
	if err := broker.Ping(ctx); err != nil {
		return nil, fmt.Errorf("broker connect failed: %w", err)
	}
	return kadm.NewClient(broker), nil
}

func (m *Manager) buildProducerClient(ctx context.Context) (*kgo.Client, error) {
	broker, err := m.BrokerClient()
	if err != nil {
		return nil, err
	}
	if err := broker.Ping(ctx); err != nil {
		return nil, fmt.Errorf("broker connect failed: %w", err)
	}
	return broker, nil
}

func (m *Manager) buildRestClient(surface string) (*api.Client, error) {
	m.mu.Lock()
	ep, ok := m.endpoints[surface]
	m.mu.Unlock()

	if !ok || ep.BaseURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceNotConfigured, surface)
	}
	return api.NewClient(ep.BaseURL, api.Credentials{Key: ep.APIKey, Secret: ep.APISecret})
}
