package transport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a goroutine-safe writer the read loop can write into while the
// test inspects it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStdioRequestResponse(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{}
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n")
	out := &syncBuffer{}

	tr := NewStdioTransport(handler).WithStreams(in, out)
	require.NoError(t, tr.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, tr.Disconnect(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "notifications produce no output line")
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"ok"}`, lines[0])
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"result":"ok"}`, lines[1])
}

func TestStdioConnectIsIdempotent(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{}
	reader, writer := io.Pipe()
	tr := NewStdioTransport(handler).WithStreams(reader, &syncBuffer{})

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Connect(context.Background()), "a second Connect is a no-op")

	_, err := writer.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(handler.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond, "exactly one read loop consumes the pipe")

	require.NoError(t, writer.Close())
	require.NoError(t, tr.Disconnect(context.Background()))
}

func TestStdioDisconnectWithBlockedReader(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	defer writer.Close()
	tr := NewStdioTransport(&fakeHandler{}).WithStreams(reader, &syncBuffer{})
	require.NoError(t, tr.Connect(context.Background()))

	// The read loop is blocked on an empty pipe; Disconnect must not hang
	// past its context.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, tr.Disconnect(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestStdioEmptyLinesSkipped(t *testing.T) {
	t.Parallel()

	handler := &fakeHandler{}
	in := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n\n")
	tr := NewStdioTransport(handler).WithStreams(in, &syncBuffer{})
	require.NoError(t, tr.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, tr.Disconnect(context.Background()))
}
