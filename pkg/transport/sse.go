package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/telemetry"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/errors"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/session"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/types"
)

const (
	// SSEEndpoint is the path establishing the held-open event stream.
	SSEEndpoint = "/sse"

	// SSEMessagesEndpoint accepts follow-up messages tagged with a session
	// id via query parameter.
	SSEMessagesEndpoint = "/messages"

	// SSESessionIDParam is the query parameter carrying the session id on
	// the follow-up endpoint.
	SSESessionIDParam = "sessionId"
)

// sseSession is one held-open event-stream connection plus the channel that
// feeds it. Responses to follow-up messages flow down the stream, not back on
// the POST.
type sseSession struct {
	id        string
	createdAt time.Time

	handleMu sync.Mutex

	streamCh  chan string
	closeOnce sync.Once
	closed    chan struct{}
}

func newSSESession() *sseSession {
	return &sseSession{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		streamCh:  make(chan string, 100),
		closed:    make(chan struct{}),
	}
}

// ID implements session.Session.
func (s *sseSession) ID() string { return s.id }

// CreatedAt implements session.Session.
func (s *sseSession) CreatedAt() time.Time { return s.createdAt }

// Close implements session.Session. Idempotent; unblocks the held connection.
func (s *sseSession) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// send queues an SSE frame for the held connection.
func (s *sseSession) send(frame string) error {
	select {
	case <-s.closed:
		return errors.ErrSessionClosed
	case s.streamCh <- frame:
		return nil
	default:
		return errors.ErrStreamFull
	}
}

// SSETransport serves the long-lived streaming transport: GET /sse holds a
// connection open and announces the follow-up endpoint, POST /messages
// forwards messages into the held connection's session.
type SSETransport struct {
	server   *Server
	handler  types.MessageHandler
	registry *session.Registry
	metrics  *telemetry.Metrics
}

// NewSSETransport creates the SSE transport on the shared listener. metrics
// may be nil.
func NewSSETransport(server *Server, handler types.MessageHandler, metrics *telemetry.Metrics) *SSETransport {
	return &SSETransport{
		server:   server,
		handler:  handler,
		registry: session.NewRegistry(),
		metrics:  metrics,
	}
}

// Kind returns the transport kind.
func (*SSETransport) Kind() types.TransportType {
	return types.TransportTypeSSE
}

// Connect registers the transport's routes on the shared listener.
func (t *SSETransport) Connect(_ context.Context) error {
	r := t.server.Router()
	r.Get(SSEEndpoint, t.handleSSE)
	r.Post(SSEMessagesEndpoint, t.handleMessage)
	return nil
}

// Disconnect drains the registry and closes every held connection.
func (t *SSETransport) Disconnect(_ context.Context) error {
	for _, s := range t.registry.Drain() {
		if err := s.Close(); err != nil {
			logger.Warnf("failed to close session %s: %v", s.ID(), err)
		}
		t.recordClosed()
	}
	return nil
}

// SessionCount returns the number of live sessions.
func (t *SSETransport) SessionCount() int {
	return t.registry.Len()
}

// handleSSE establishes the held-open connection, registers the session, and
// streams frames until the client disconnects or the session is closed.
func (t *SSETransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sess := newSSESession()
	if err := t.registry.Add(sess); err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	t.recordCreated()
	logger.Debugw("session created", "transport", t.Kind().String(), "session", sess.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Announce the follow-up endpoint carrying the session id.
	fmt.Fprintf(w, "event: endpoint\ndata: %s?%s=%s\n\n", SSEMessagesEndpoint, SSESessionIDParam, sess.id)
	flusher.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client hung up; the close callback path. removeSession is
			// idempotent against a concurrent Disconnect.
			t.removeSession(sess.id)
			return
		case <-sess.closed:
			return
		case frame := <-sess.streamCh:
			fmt.Fprint(w, frame)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// handleMessage accepts a follow-up message for an existing session and
// forwards the handler's response into the held connection.
func (t *SSETransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(SSESessionIDParam)
	if id == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	existing, ok := t.registry.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	sess := existing.(*sseSession)

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sess.handleMu.Lock()
	ctx := session.WithID(r.Context(), sess.id)
	response := t.handler.HandleMessage(ctx, body)
	sess.handleMu.Unlock()

	if response != nil {
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
			return
		}
		frame := fmt.Sprintf("event: message\ndata: %s\n\n", data)
		if err := sess.send(frame); err != nil {
			logger.Warnf("failed to stream response to session %s: %v", id, err)
			http.Error(w, "session stream unavailable", http.StatusGone)
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// removeSession removes and closes a session exactly once; the explicit
// Disconnect path and the connection-close path both funnel through the
// registry's idempotent Remove.
func (t *SSETransport) removeSession(id string) {
	sess, ok := t.registry.Remove(id)
	if !ok {
		return
	}
	if err := sess.Close(); err != nil {
		logger.Warnf("failed to close session %s: %v", id, err)
	}
	t.recordClosed()
	logger.Debugw("session removed", "transport", t.Kind().String(), "session", id)
}

func (t *SSETransport) recordCreated() {
	if t.metrics != nil {
		t.metrics.SessionsCreated.WithLabelValues(t.Kind().String()).Inc()
	}
}

func (t *SSETransport) recordClosed() {
	if t.metrics != nil {
		t.metrics.SessionsClosed.WithLabelValues(t.Kind().String()).Inc()
	}
}
