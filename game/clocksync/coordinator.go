package clocksync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/parchis/game/protocol"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 2 * time.Second
)

// Roster lists the players whose clocks are synchronized
type Roster interface {
	PlayerIDs() []uuid.UUID
}

// Sender delivers a message to one player
type Sender interface {
	Send(id uuid.UUID, msg protocol.Message) error
}

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   *logrus.Entry
}

// Result summarizes one synchronization round. Times are unix
// milliseconds.
type Result struct {
	Round      uint64
	ServerTime int64
	Average    int64
	Offsets    map[uuid.UUID]int64
	Missing    []uuid.UUID
}

// Coordinator runs Berkeley-style rounds: it polls every player's clock,
// averages the answers with its own clock and tells each responder how far
// it is off. Players that do not answer in time are left out.
type Coordinator struct {
	roster Roster
	out    Sender
	opts   Options
	log    *logrus.Entry
	now    func() time.Time

	mu      sync.Mutex
	rounds  uint64
	pending *round
}

type round struct {
	id       uint64
	expected map[uuid.UUID]bool
	replies  map[uuid.UUID]int64
	done     chan struct{}
	closed   bool
}

func (r *round) checkComplete() {
	if !r.closed && len(r.replies) == len(r.expected) {
		r.closed = true
		close(r.done)
	}
}

func New(roster Roster, out Sender, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Coordinator{
		roster: roster,
		out:    out,
		opts:   opts,
		log:    opts.Logger.WithField("component", "clocksync"),
		now:    time.Now,
	}
}

// Run starts a round every interval until ctx is done
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.Round(ctx); err != nil {
				return nil
			}
		}
	}
}

// Round performs one synchronization round. It returns early with the
// context's error when ctx ends before the replies are collected.
func (c *Coordinator) Round(ctx context.Context) (*Result, error) {
	ids := c.roster.PlayerIDs()

	c.mu.Lock()
	c.rounds++
	r := &round{
		id:       c.rounds,
		expected: make(map[uuid.UUID]bool, len(ids)),
		replies:  make(map[uuid.UUID]int64, len(ids)),
		done:     make(chan struct{}),
	}
	for _, id := range ids {
		r.expected[id] = true
	}
	c.pending = r
	r.checkComplete()
	c.mu.Unlock()

	req := &protocol.TimeSyncRequest{Round: r.id, ServerTime: c.now().UnixMilli()}
	for _, id := range ids {
		if err := c.out.Send(id, req); err != nil {
			c.log.WithError(err).WithField("player", id).Debug("Failed to send time request")
			c.mu.Lock()
			delete(r.expected, id)
			r.checkComplete()
			c.mu.Unlock()
		}
	}

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()
	var ctxErr error
	select {
	case <-r.done:
	case <-timer.C:
	case <-ctx.Done():
		ctxErr = ctx.Err()
	}

	c.mu.Lock()
	if c.pending == r {
		c.pending = nil
	}
	replies := r.replies
	c.mu.Unlock()

	if ctxErr != nil {
		return nil, ctxErr
	}

	res := &Result{
		Round:      r.id,
		ServerTime: c.now().UnixMilli(),
		Offsets:    make(map[uuid.UUID]int64, len(replies)),
	}
	total := res.ServerTime
	for _, t := range replies {
		total += t
	}
	res.Average = total / int64(len(replies)+1)

	for _, id := range ids {
		clientTime, ok := replies[id]
		if !ok {
			res.Missing = append(res.Missing, id)
			continue
		}
		offset := res.Average - clientTime
		res.Offsets[id] = offset
		if err := c.out.Send(id, &protocol.TimeSyncAdjust{Round: r.id, Offset: offset}); err != nil {
			c.log.WithError(err).WithField("player", id).Debug("Failed to send time adjustment")
		}
	}

	c.log.WithFields(logrus.Fields{
		"round":     r.id,
		"responded": len(replies),
		"missing":   len(res.Missing),
	}).Debug("Clock sync round complete")
	return res, nil
}

// HandleSyncReply records a player's clock for the current round. Replies
// for other rounds and duplicate replies are ignored.
func (c *Coordinator) HandleSyncReply(id uuid.UUID, reply *protocol.TimeSyncReply, received time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.pending
	if r == nil || r.id != reply.Round || !r.expected[id] {
		c.log.WithFields(logrus.Fields{"player": id, "round": reply.Round}).Debug("Ignored stale time reply")
		return
	}
	if _, dup := r.replies[id]; dup {
		return
	}
	r.replies[id] = reply.ClientTime
	r.checkComplete()
}
