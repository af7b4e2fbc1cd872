package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/auth"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/telemetry"
	transporterrors "github.com/confluentinc/mcp-confluent-sub000/pkg/transport/errors"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/types"
)

// State is the orchestrator lifecycle state.
type State int

// Orchestrator states.
const (
	StateNotStarted State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

// Orchestrator coordinates the requested transports: it decides whether the
// shared listener is needed, builds the transports, connects them in
// parallel, starts the listener last, and reverses the order on shutdown.
type Orchestrator struct {
	cfg     *config.Config
	handler types.MessageHandler
	gate    *auth.Gate
	health  http.Handler
	metrics *telemetry.Metrics

	// buildTransport is overridable in tests to inject ordering probes.
	buildTransport func(kind types.TransportType, server *Server) (types.Transport, error)

	mu         sync.Mutex
	state      State
	server     *Server
	transports map[types.TransportType]types.Transport
}

// NewOrchestrator creates an orchestrator. health and metrics may be nil;
// they are mounted on the shared listener only when one exists.
func NewOrchestrator(
	cfg *config.Config,
	handler types.MessageHandler,
	gate *auth.Gate,
	health http.Handler,
	metrics *telemetry.Metrics,
) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		handler:    handler,
		gate:       gate,
		health:     health,
		metrics:    metrics,
		transports: make(map[types.TransportType]types.Transport),
	}
	o.buildTransport = o.defaultBuildTransport
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Addr returns the shared listener's bound address, or "" when no session-ful
// transport is running.
func (o *Orchestrator) Addr() string {
	o.mu.Lock()
	srv := o.server
	o.mu.Unlock()
	if srv == nil {
		return ""
	}
	return srv.Addr()
}

// Start brings up the requested transport kinds. If any kind is session-ful
// the shared listener is built first, with the auth gate installed before any
// transport registers routes. All transports connect in parallel; the
// listener begins accepting only after every transport has connected, so the
// routing table is fully populated before external traffic can reach it.
// Any failure triggers an immediate Stop of whatever was partially started,
// and the original error is returned.
func (o *Orchestrator) Start(ctx context.Context, kinds []types.TransportType) error {
	o.mu.Lock()
	if o.state == StateStarting || o.state == StateRunning {
		o.mu.Unlock()
		return transporterrors.ErrAlreadyStarted
	}
	o.state = StateStarting

	sessionful := false
	for _, kind := range kinds {
		if kind.SessionFul() {
			sessionful = true
		}
	}

	if sessionful {
		if o.cfg.HTTPHost == "" || o.cfg.HTTPPort <= 0 {
			o.state = StateStopped
			o.mu.Unlock()
			return transporterrors.ErrListenerNotConfigured
		}
		o.server = NewServer(o.cfg.HTTPHost, o.cfg.HTTPPort, o.gate, o.health, o.metricsHandler())
	}

	for _, kind := range kinds {
		if _, dup := o.transports[kind]; dup {
			continue
		}
		t, err := o.buildTransport(kind, o.server)
		if err != nil {
			o.mu.Unlock()
			o.unwind(ctx, err)
			return err
		}
		o.transports[kind] = t
	}

	transports := make([]types.Transport, 0, len(o.transports))
	for _, t := range o.transports {
		transports = append(transports, t)
	}
	server := o.server
	o.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range transports {
		g.Go(func() error {
			if err := t.Connect(gctx); err != nil {
				return fmt.Errorf("failed to connect %s transport: %w", t.Kind(), err)
			}
			logger.Infof("%s transport connected", t.Kind())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.unwind(ctx, err)
		return err
	}

	// Listener last: routes are registered, now accept traffic.
	if server != nil {
		if err := server.Start(ctx); err != nil {
			o.unwind(ctx, err)
			return err
		}
	}

	o.mu.Lock()
	o.state = StateRunning
	o.mu.Unlock()
	logger.Infof("transports running: %v", kinds)
	return nil
}

// Stop shuts everything down in reverse order: the shared listener first, so
// no new inbound connections arrive, then every transport in parallel.
// Individual disconnect errors are logged but never propagated, so shutdown
// frees as many resources as possible. The transport map and listener
// reference are always cleared, even after partial failures, so a subsequent
// Start is not blocked by stale state.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateStopping || o.state == StateStopped || o.state == StateNotStarted {
		o.mu.Unlock()
		return nil
	}
	o.state = StateStopping
	server := o.server
	transports := make([]types.Transport, 0, len(o.transports))
	for _, t := range o.transports {
		transports = append(transports, t)
	}
	o.mu.Unlock()

	if server != nil {
		if err := server.Stop(ctx); err != nil {
			logger.Warnf("listener shutdown: %v", err)
		}
	}

	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.Disconnect(ctx); err != nil {
				logger.Warnf("failed to disconnect %s transport: %v", t.Kind(), err)
				return
			}
			logger.Infof("%s transport disconnected", t.Kind())
		}()
	}
	wg.Wait()

	o.mu.Lock()
	o.transports = make(map[types.TransportType]types.Transport)
	o.server = nil
	o.state = StateStopped
	o.mu.Unlock()
	return nil
}

// unwind tears down partial startup state after a failed Start. The original
// error is what the caller sees; unwind errors are only logged.
func (o *Orchestrator) unwind(ctx context.Context, cause error) {
	logger.Warnf("start failed, unwinding partial state: %v", cause)
	o.mu.Lock()
	o.state = StateRunning // let Stop run its teardown path
	o.mu.Unlock()
	if err := o.Stop(ctx); err != nil {
		logger.Warnf("unwind stop failed: %v", err)
	}
}

func (o *Orchestrator) defaultBuildTransport(kind types.TransportType, server *Server) (types.Transport, error) {
	switch kind {
	case types.TransportTypeStdio:
		return NewStdioTransport(o.handler), nil
	case types.TransportTypeStreamableHTTP:
		return NewStreamableTransport(server, o.handler, o.metrics), nil
	case types.TransportTypeSSE:
		return NewSSETransport(server, o.handler, o.metrics), nil
	default:
		return nil, transporterrors.ErrUnsupportedTransport
	}
}

func (o *Orchestrator) metricsHandler() http.Handler {
	if o.metrics == nil {
		return nil
	}
	return o.metrics.Handler()
}
