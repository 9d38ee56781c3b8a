package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/wricardo/parchis/game/protocol"
)

const (
	// DefaultQueueSize is the outbound buffer per peer. A peer whose
	// buffer fills up is dropped.
	DefaultQueueSize = 256

	DefaultRate  = 20
	DefaultBurst = 40
)

var (
	ErrUnknownPeer = errors.New("unknown peer")
	ErrQueueFull   = errors.New("peer outbound queue full")
)

// Handler consumes decoded client messages and connection losses
type Handler interface {
	HandleMessage(id uuid.UUID, msg protocol.Message)
	HandleDisconnect(id uuid.UUID)
}

// SyncHandler consumes clock sync replies
type SyncHandler interface {
	HandleSyncReply(id uuid.UUID, reply *protocol.TimeSyncReply, received time.Time)
}

// Options tunes the hub. Zero values select the defaults.
type Options struct {
	QueueSize int
	Rate      rate.Limit
	Burst     int
	Logger    *logrus.Entry
}

// Peer is one client connection. Transports drain Outbound and feed
// inbound frames to Hub.Receive.
type Peer struct {
	ID   uuid.UUID
	Addr string

	send    chan []byte
	limiter *rate.Limiter
	closed  bool
}

// Outbound yields encoded messages for the peer. It is closed when the
// hub drops the peer; queued messages are still delivered first.
func (p *Peer) Outbound() <-chan []byte {
	return p.send
}

// Hub maintains the set of connected peers and routes their traffic
type Hub struct {
	mu    sync.RWMutex
	peers map[uuid.UUID]*Peer

	opts    Options
	handler Handler
	syncer  SyncHandler
	log     *logrus.Entry
	now     func() time.Time
}

// NewHub creates a hub with no peers
func NewHub(opts Options) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		peers: make(map[uuid.UUID]*Peer),
		opts:  opts,
		log:   opts.Logger.WithField("component", "gateway"),
		now:   time.Now,
	}
}

// Handle sets the receiver of game messages
func (h *Hub) Handle(handler Handler) {
	h.handler = handler
}

// HandleSync sets the receiver of clock sync replies
func (h *Hub) HandleSync(s SyncHandler) {
	h.syncer = s
}

// Register adds a connection and assigns it a fresh id
func (h *Hub) Register(addr string) *Peer {
	p := &Peer{
		ID:      uuid.New(),
		Addr:    addr,
		send:    make(chan []byte, h.opts.QueueSize),
		limiter: rate.NewLimiter(h.opts.Rate, h.opts.Burst),
	}

	h.mu.Lock()
	h.peers[p.ID] = p
	count := len(h.peers)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"peer": p.ID, "addr": addr, "peers": count}).Info("Peer connected")
	return p
}

// Unregister removes a peer and closes its outbound queue. It is safe to
// call more than once.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(id)
}

func (h *Hub) unregisterLocked(id uuid.UUID) {
	p, ok := h.peers[id]
	if !ok {
		return
	}
	delete(h.peers, id)
	if !p.closed {
		p.closed = true
		close(p.send)
	}
	h.log.WithFields(logrus.Fields{"peer": id, "peers": len(h.peers)}).Info("Peer unregistered")
}

// Disconnect closes a player's connection after its queued messages
func (h *Hub) Disconnect(id uuid.UUID) {
	h.Unregister(id)
}

// ConnectionLost is called by transports when a read fails. The peer is
// removed and the session runs its leave cleanup.
func (h *Hub) ConnectionLost(id uuid.UUID) {
	h.Unregister(id)
	if h.handler != nil {
		h.handler.HandleDisconnect(id)
	}
}

// Count returns the number of connected peers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Send queues msg for one peer
func (h *Hub) Send(id uuid.UUID, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enqueueLocked(id, data)
}

// Multicast queues msg for every listed peer, encoding it once
func (h *Hub) Multicast(ids []uuid.UUID, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.log.WithError(err).WithField("type", msg.Type()).Error("Failed to encode broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range ids {
		if err := h.enqueueLocked(id, data); err != nil && !errors.Is(err, ErrUnknownPeer) {
			h.log.WithError(err).WithField("peer", id).Warn("Dropped peer")
		}
	}
}

func (h *Hub) enqueueLocked(id uuid.UUID, data []byte) error {
	p, ok := h.peers[id]
	if !ok {
		return ErrUnknownPeer
	}
	select {
	case p.send <- data:
		return nil
	default:
		h.unregisterLocked(id)
		return ErrQueueFull
	}
}

// Receive decodes one inbound frame from peer and routes it. Clock sync
// replies go to the sync handler; everything else goes to the game.
func (h *Hub) Receive(p *Peer, frame []byte) {
	received := h.now()
	log := h.log.WithField("peer", p.ID)

	if !p.limiter.Allow() {
		log.Warn("Peer rate limited")
		h.reply(p.ID, protocol.ErrorWithCode(protocol.CodeRateLimited, "too many messages, slow down"))
		return
	}

	msg, err := protocol.Decode(frame)
	if err != nil {
		log.WithError(err).Warn("Dropped malformed message")
		h.reply(p.ID, protocol.NewError(err))
		return
	}

	if reply, ok := msg.(*protocol.TimeSyncReply); ok {
		if h.syncer != nil {
			h.syncer.HandleSyncReply(p.ID, reply, received)
		}
		return
	}
	if h.handler == nil {
		log.WithField("type", msg.Type()).Warn("No handler for message")
		return
	}
	h.handler.HandleMessage(p.ID, msg)
}

func (h *Hub) reply(id uuid.UUID, msg protocol.Message) {
	if err := h.Send(id, msg); err != nil {
		h.log.WithError(err).WithField("peer", id).Debug("Failed to reply")
	}
}
