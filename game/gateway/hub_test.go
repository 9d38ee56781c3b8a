package gateway

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/parchis/game/protocol"
)

type recordingHandler struct {
	mu           sync.Mutex
	messages     []protocol.Message
	from         []uuid.UUID
	disconnected []uuid.UUID
	replies      []*protocol.TimeSyncReply
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

func (r *recordingHandler) HandleSyncReply(id uuid.UUID, reply *protocol.TimeSyncReply, received time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
}

func newTestHub(opts Options) *Hub {
	logger := logrus.New()
	logger.Out = io.Discard
	opts.Logger = logrus.NewEntry(logger)
	return NewHub(opts)
}

// drain returns the messages currently queued for p
func drain(t *testing.T, p *Peer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for {
		select {
		case data, ok := <-p.Outbound():
			if !ok {
				return out
			}
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestNewHub(t *testing.T) {
	hub := newTestHub(Options{})

	assert.NotNil(t, hub.peers)
	assert.Equal(t, DefaultQueueSize, hub.opts.QueueSize)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := newTestHub(Options{})

	p1 := hub.Register("10.0.0.1:5000")
	p2 := hub.Register("10.0.0.2:5000")
	assert.NotEqual(t, p1.ID, p2.ID)
	assert.Equal(t, 2, hub.Count())

	hub.Unregister(p1.ID)
	hub.Unregister(p1.ID)
	assert.Equal(t, 1, hub.Count())

	_, ok := <-p1.Outbound()
	assert.False(t, ok, "outbound queue is closed")
}

func TestHub_SendAndMulticast(t *testing.T) {
	hub := newTestHub(Options{})
	p1 := hub.Register("a")
	p2 := hub.Register("b")
	p3 := hub.Register("c")

	require.NoError(t, hub.Send(p1.ID, &protocol.Info{Message: "hello"}))
	hub.Multicast([]uuid.UUID{p1.ID, p2.ID, uuid.New()}, &protocol.Info{Message: "all"})

	got := drain(t, p1)
	require.Len(t, got, 2)
	assert.Equal(t, "info", got[0]["type"])
	assert.Equal(t, "hello", got[0]["data"].(map[string]interface{})["message"])
	assert.Equal(t, "all", got[1]["data"].(map[string]interface{})["message"])

	assert.Len(t, drain(t, p2), 1)
	assert.Empty(t, drain(t, p3))

	assert.ErrorIs(t, hub.Send(uuid.New(), &protocol.Info{}), ErrUnknownPeer)
}

func TestHub_DisconnectDeliversQueuedFirst(t *testing.T) {
	hub := newTestHub(Options{})
	p := hub.Register("a")

	require.NoError(t, hub.Send(p.ID, &protocol.Victory{Name: "ana"}))
	hub.Disconnect(p.ID)

	data, ok := <-p.Outbound()
	require.True(t, ok)
	assert.Contains(t, string(data), `"victory"`)
	_, ok = <-p.Outbound()
	assert.False(t, ok)
}

func TestHub_FullQueueDropsPeer(t *testing.T) {
	hub := newTestHub(Options{QueueSize: 2})
	p := hub.Register("slow")

	require.NoError(t, hub.Send(p.ID, &protocol.Info{}))
	require.NoError(t, hub.Send(p.ID, &protocol.Info{}))
	assert.ErrorIs(t, hub.Send(p.ID, &protocol.Info{}), ErrQueueFull)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_ReceiveRoutes(t *testing.T) {
	hub := newTestHub(Options{})
	h := &recordingHandler{}
	hub.Handle(h)
	hub.HandleSync(h)
	p := hub.Register("a")

	hub.Receive(p, []byte(`{"type":"move","data":{"piece":1}}`))
	hub.Receive(p, []byte(`{"type":"time-sync-reply","data":{"round":3,"client_time":1000}}`))

	require.Len(t, h.messages, 1)
	assert.Equal(t, &protocol.Move{Piece: 1}, h.messages[0])
	assert.Equal(t, p.ID, h.from[0])
	require.Len(t, h.replies, 1)
	assert.Equal(t, uint64(3), h.replies[0].Round)
}

func TestHub_ReceiveMalformed(t *testing.T) {
	hub := newTestHub(Options{})
	h := &recordingHandler{}
	hub.Handle(h)
	p := hub.Register("a")

	hub.Receive(p, []byte(`{"type":`))
	hub.Receive(p, []byte(`{"type":"warp"}`))
	hub.Receive(p, []byte(`{"type":"move"}`))

	assert.Empty(t, h.messages, "a move without a piece never reaches the game")
	got := drain(t, p)
	require.Len(t, got, 3)
	for _, m := range got {
		assert.Equal(t, "error", m["type"])
		assert.Equal(t, protocol.CodeProtocol, m["data"].(map[string]interface{})["code"])
	}
	assert.Equal(t, 1, hub.Count(), "connection stays open")
}

func TestHub_RateLimit(t *testing.T) {
	hub := newTestHub(Options{Rate: 0.001, Burst: 2})
	h := &recordingHandler{}
	hub.Handle(h)
	p := hub.Register("a")

	for range 3 {
		hub.Receive(p, []byte(`{"type":"roll"}`))
	}

	assert.Len(t, h.messages, 2)
	got := drain(t, p)
	require.Len(t, got, 1)
	assert.Equal(t, protocol.CodeRateLimited, got[0]["data"].(map[string]interface{})["code"])
}

func TestHub_ConnectionLost(t *testing.T) {
	hub := newTestHub(Options{})
	h := &recordingHandler{}
	hub.Handle(h)
	p := hub.Register("a")

	hub.ConnectionLost(p.ID)

	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, []uuid.UUID{p.ID}, h.disconnected)
}
