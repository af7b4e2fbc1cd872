package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/types"
)

// stdioMaxLineSize bounds a single JSON-RPC message on the pipe.
const stdioMaxLineSize = 4 * 1024 * 1024

// StdioTransport serves MCP over the process's standard streams: one JSON-RPC
// message per line on stdin, one response per line on stdout. There is no
// session concept and exactly one instance per process.
type StdioTransport struct {
	handler types.MessageHandler
	in      io.Reader
	out     io.Writer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewStdioTransport creates a stdio transport reading from the process's
// standard input and writing to its standard output.
func NewStdioTransport(handler types.MessageHandler) *StdioTransport {
	return &StdioTransport{
		handler: handler,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// WithStreams overrides the pipe endpoints. Intended for tests.
func (t *StdioTransport) WithStreams(in io.Reader, out io.Writer) *StdioTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in = in
	t.out = out
	return t
}

// Kind returns the transport kind.
func (*StdioTransport) Kind() types.TransportType {
	return types.TransportTypeStdio
}

// Connect begins reading messages from the pipe.
func (t *StdioTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel
	t.done = make(chan struct{})
	t.started = true

	go t.processMessages(loopCtx)
	return nil
}

// Disconnect stops processing. The read loop also ends on its own when stdin
// reaches EOF (the client hung up).
func (t *StdioTransport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.started = false
	t.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		// A blocked stdin read can't be interrupted; don't hold up shutdown.
	}
	return nil
}

// processMessages reads one JSON-RPC message per line and writes the response
// back, preserving arrival order: the pipe has a single implicit session.
func (t *StdioTransport) processMessages(ctx context.Context) {
	defer close(t.done)

	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), stdioMaxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		msg := make(json.RawMessage, len(line))
		copy(msg, line)

		response := t.handler.HandleMessage(ctx, msg)
		if response == nil {
			// Notification; nothing to write back.
			continue
		}

		data, err := json.Marshal(response)
		if err != nil {
			logger.Errorf("failed to encode response: %v", err)
			continue
		}
		if err := t.write(append(data, '\n')); err != nil {
			logger.Errorf("failed to write response: %v", err)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Warnf("stdio read loop ended: %v", err)
	}
}

func (t *StdioTransport) write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.out.Write(data)
	return err
}
