package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/telemetry"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/session"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/types"
)

const (
	// SessionIDHeader carries the session id on the streamable HTTP
	// transport.
	SessionIDHeader = "Mcp-Session-Id"

	// StreamableEndpoint is the single path for the streamable transport.
	StreamableEndpoint = "/mcp"
)

// streamableSession is one client conversation on the streamable transport.
// A per-session mutex serializes message handling, so requests of a single
// session are processed in arrival order.
type streamableSession struct {
	id        string
	createdAt time.Time

	handleMu sync.Mutex

	notifyCh  chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newStreamableSession() *streamableSession {
	return &streamableSession{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		notifyCh:  make(chan []byte, 100),
		closed:    make(chan struct{}),
	}
}

// ID implements session.Session.
func (s *streamableSession) ID() string { return s.id }

// CreatedAt implements session.Session.
func (s *streamableSession) CreatedAt() time.Time { return s.createdAt }

// Close implements session.Session. Idempotent.
func (s *streamableSession) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// StreamableTransport serves the session-ful request/response transport:
// POST creates or continues a session, GET attaches a server-notification
// stream, DELETE tears the session down.
type StreamableTransport struct {
	server   *Server
	handler  types.MessageHandler
	registry *session.Registry
	metrics  *telemetry.Metrics
}

// NewStreamableTransport creates the streamable HTTP transport on the shared
// listener. metrics may be nil.
func NewStreamableTransport(server *Server, handler types.MessageHandler, metrics *telemetry.Metrics) *StreamableTransport {
	return &StreamableTransport{
		server:   server,
		handler:  handler,
		registry: session.NewRegistry(),
		metrics:  metrics,
	}
}

// Kind returns the transport kind.
func (*StreamableTransport) Kind() types.TransportType {
	return types.TransportTypeStreamableHTTP
}

// Connect registers the transport's routes on the shared listener. The
// listener is not accepting yet; the auth gate is already installed.
func (t *StreamableTransport) Connect(_ context.Context) error {
	r := t.server.Router()
	r.Post(StreamableEndpoint, t.handlePost)
	r.Get(StreamableEndpoint, t.handleGet)
	r.Delete(StreamableEndpoint, t.handleDelete)
	return nil
}

// Disconnect drains and closes every session.
func (t *StreamableTransport) Disconnect(_ context.Context) error {
	for _, s := range t.registry.Drain() {
		if err := s.Close(); err != nil {
			logger.Warnf("failed to close session %s: %v", s.ID(), err)
		}
		t.recordClosed()
	}
	return nil
}

// SessionCount returns the number of live sessions.
func (t *StreamableTransport) SessionCount() int {
	return t.registry.Len()
}

// handlePost processes one JSON-RPC message. A request with no session
// header creates a new session and returns its id in the response header;
// a request with a known id continues that session; an unknown id is a
// client error, never an implicit creation.
func (t *StreamableTransport) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var sess *streamableSession
	if id := r.Header.Get(SessionIDHeader); id != "" {
		existing, ok := t.registry.Get(id)
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		sess = existing.(*streamableSession)
	} else {
		sess = newStreamableSession()
		if err := t.registry.Add(sess); err != nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}
		t.recordCreated()
		logger.Debugw("session created", "transport", t.Kind().String(), "session", sess.id)
	}

	w.Header().Set(SessionIDHeader, sess.id)

	sess.handleMu.Lock()
	ctx := session.WithID(r.Context(), sess.id)
	response := t.handler.HandleMessage(ctx, body)
	sess.handleMu.Unlock()

	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		logger.Warnf("failed to write response: %v", err)
	}
}

// handleGet attaches a server-notification event stream to an existing
// session. The registry never creates on GET.
func (t *StreamableTransport) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionIDHeader)
	if id == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}
	existing, ok := t.registry.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	sess := existing.(*streamableSession)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.closed:
			return
		case msg := <-sess.notifyCh:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// handleDelete tears down an existing session. Unknown ids are a client
// error; a removed id stays unknown forever.
func (t *StreamableTransport) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionIDHeader)
	if id == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}

	sess, ok := t.registry.Remove(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if err := sess.Close(); err != nil {
		logger.Warnf("failed to close session %s: %v", id, err)
	}
	t.recordClosed()
	logger.Debugw("session deleted", "transport", t.Kind().String(), "session", id)

	w.WriteHeader(http.StatusNoContent)
}

func (t *StreamableTransport) recordCreated() {
	if t.metrics != nil {
		t.metrics.SessionsCreated.WithLabelValues(t.Kind().String()).Inc()
	}
}

func (t *StreamableTransport) recordClosed() {
	if t.metrics != nil {
		t.metrics.SessionsClosed.WithLabelValues(t.Kind().String()).Inc()
	}
}
