package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/parchis/game/gateway"
	"github.com/wricardo/parchis/game/protocol"
)

type recordingHandler struct {
	mu           sync.Mutex
	messages     []protocol.Message
	from         []uuid.UUID
	disconnected []uuid.UUID
}

func (r *recordingHandler) HandleMessage(id uuid.UUID, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	r.from = append(r.from, id)
}

func (r *recordingHandler) HandleDisconnect(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected = append(r.disconnected, id)
}

func (r *recordingHandler) snapshot() ([]protocol.Message, []uuid.UUID, []uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Message(nil), r.messages...),
		append([]uuid.UUID(nil), r.from...),
		append([]uuid.UUID(nil), r.disconnected...)
}

type harness struct {
	hub    *gateway.Hub
	h      *recordingHandler
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.Out = io.Discard
	entry := logrus.NewEntry(logger)

	hub := gateway.NewHub(gateway.Options{Logger: entry})
	h := &recordingHandler{}
	hub.Handle(h)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hs := &harness{hub: hub, h: h, addr: ln.Addr().String(), cancel: cancel, done: make(chan error, 1)}
	go func() { hs.done <- NewServer(hub, entry).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-hs.done
	})
	return hs
}

func dial(t *testing.T, hs *harness) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", hs.addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hs.hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	return conn, bufio.NewReader(conn)
}

func readMessage(t *testing.T, conn net.Conn, r *bufio.Reader) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	msg, err := protocol.Decode(line)
	require.NoError(t, err)
	return msg
}

func TestServe_FramesBothWays(t *testing.T) {
	hs := startServer(t)
	conn, r := dial(t, hs)

	_, err := conn.Write([]byte("{\"type\":\"join\",\"data\":{\"name\":\"ana\"}}\n\n{\"type\":\"roll\"}\n"))
	require.NoError(t, err)

	var msgs []protocol.Message
	var from []uuid.UUID
	require.Eventually(t, func() bool {
		msgs, from, _ = hs.h.snapshot()
		return len(msgs) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, &protocol.Join{Name: "ana"}, msgs[0])
	assert.Equal(t, &protocol.Roll{}, msgs[1])

	require.NoError(t, hs.hub.Send(from[0], &protocol.Info{Message: "welcome"}))
	assert.Equal(t, &protocol.Info{Message: "welcome"}, readMessage(t, conn, r))
}

func TestServe_OversizedFrameClosesConnection(t *testing.T) {
	hs := startServer(t)
	conn, r := dial(t, hs)

	big := `{"type":"join","data":{"name":"` + strings.Repeat("x", protocol.MaxFrameSize) + `"}}` + "\n"
	go conn.Write([]byte(big))

	// the error reply may be lost to a reset since the server stops
	// reading mid-frame, so only the close is checked
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var err error
	for err == nil {
		_, err = r.ReadBytes('\n')
	}
	assert.NotErrorIs(t, err, os.ErrDeadlineExceeded)

	require.Eventually(t, func() bool {
		_, _, lost := hs.h.snapshot()
		return len(lost) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestServe_ClientCloseReportsConnectionLost(t *testing.T) {
	hs := startServer(t)
	conn, _ := dial(t, hs)

	conn.Close()

	require.Eventually(t, func() bool {
		_, _, lost := hs.h.snapshot()
		return len(lost) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hs.hub.Count())
}

func TestServe_HubDisconnectFlushesThenCloses(t *testing.T) {
	hs := startServer(t)
	conn, r := dial(t, hs)

	_, err := conn.Write([]byte("{\"type\":\"roll\"}\n"))
	require.NoError(t, err)
	var from []uuid.UUID
	require.Eventually(t, func() bool {
		_, from, _ = hs.h.snapshot()
		return len(from) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hs.hub.Send(from[0], &protocol.Victory{Color: "blue", Name: "bo"}))
	hs.hub.Disconnect(from[0])

	assert.Equal(t, &protocol.Victory{Color: "blue", Name: "bo"}, readMessage(t, conn, r))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = r.ReadBytes('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	hs := startServer(t)
	conn, r := dial(t, hs)

	hs.cancel()

	select {
	case err := <-hs.done:
		assert.NoError(t, err)
		hs.done <- err
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err := r.ReadBytes('\n')
	assert.Error(t, err)
}
