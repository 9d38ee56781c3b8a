package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/parchis/game/engine"
	"github.com/wricardo/parchis/game/protocol"
)

var (
	ErrNotJoined     = errors.New("join the game first")
	ErrAlreadyJoined = errors.New("already joined")
)

// DefaultStartDelay separates the game start announcement from the first
// turn update
const DefaultStartDelay = time.Second

// Broadcaster delivers messages to connected players
type Broadcaster interface {
	Send(id uuid.UUID, msg protocol.Message) error
	Multicast(ids []uuid.UUID, msg protocol.Message)
	Disconnect(id uuid.UUID)
}

// Options configures a session. Zero values select the defaults.
type Options struct {
	Board       *engine.Board
	Rules       engine.Rules
	Dice        engine.Dice
	StartDelay  time.Duration
	TurnTimeout time.Duration
	Logger      *logrus.Entry
}

type stopper interface {
	Stop() bool
}

// Session is the single game of the server process. Every request,
// disconnect and timer expiry runs under mu, and all resulting messages
// are handed to the broadcaster before mu is released.
type Session struct {
	mu     sync.Mutex
	opts   Options
	out    Broadcaster
	log    *logrus.Entry
	game   engine.Engine
	colors *ColorPool

	// gen increments on every reset so timers of a previous game are ignored
	gen       uint64
	turnTimer stopper

	sleep     func(time.Duration)
	afterFunc func(time.Duration, func()) stopper
}

// New creates a session waiting for players
func New(out Broadcaster, opts Options) (*Session, error) {
	if opts.Rules == (engine.Rules{}) {
		opts.Rules = engine.DefaultRules()
	}
	if opts.Board == nil {
		opts.Board = engine.DefaultBoard()
	}
	if opts.Dice == nil {
		opts.Dice = engine.NewRandomDice()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Session{
		opts:  opts,
		out:   out,
		log:   opts.Logger.WithField("component", "session"),
		sleep: time.Sleep,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) reset() error {
	g, err := engine.NewGame(s.opts.Board, s.opts.Rules, s.opts.Dice)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	s.stopTimer()
	s.game = g
	s.colors = NewColorPool()
	s.gen++
	return nil
}

// Board returns the topology in use
func (s *Session) Board() *engine.Board {
	return s.opts.Board
}

// Rules returns the rules in use
func (s *Session) Rules() engine.Rules {
	return s.opts.Rules
}

// Snapshot returns a copy of the game state
func (s *Session) Snapshot() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// PlayerIDs returns the seated players in turn order
func (s *Session) PlayerIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerIDs()
}

func (s *Session) playerIDs() []uuid.UUID {
	players := s.game.Players()
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func (s *Session) otherIDs(except uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range s.game.Players() {
		if p.ID != except {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (s *Session) broadcast(msg protocol.Message) {
	s.out.Multicast(s.playerIDs(), msg)
}

func (s *Session) send(id uuid.UUID, msg protocol.Message) {
	if err := s.out.Send(id, msg); err != nil {
		s.log.WithError(err).WithField("player", id).Warn("Failed to send message")
	}
}

func (s *Session) info(format string, args ...interface{}) {
	s.broadcast(&protocol.Info{Message: fmt.Sprintf(format, args...)})
}

func (s *Session) location(loc engine.Location) protocol.Location {
	return protocol.NewLocation(s.opts.Board, loc)
}

func (s *Session) playerLog(p *engine.Player) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{"player": p.Name, "color": p.Color})
}

// Join seats player id, reserving preferred or the next free color.
// The game starts automatically once enough players joined.
func (s *Session) Join(id uuid.UUID, name string, preferred engine.Color) (*engine.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.game.Player(id); ok {
		return nil, ErrAlreadyJoined
	}
	if s.game.Phase() != engine.AwaitingPlayers {
		return nil, engine.ErrAlreadyStarted
	}
	if len(s.game.Players()) >= s.opts.Rules.MaxPlayers {
		return nil, engine.ErrSessionFull
	}

	color, err := s.colors.Reserve(preferred)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.ToUpper(color.String()[:1]) + color.String()[1:]
	}

	p, err := s.game.AddPlayer(id, name, color)
	if err != nil {
		s.colors.Release(color)
		return nil, err
	}

	players := s.game.Players()
	infos := make([]protocol.PlayerInfo, len(players))
	for i, other := range players {
		infos[i] = protocol.PlayerInfo{Name: other.Name, Color: other.Color}
	}
	s.send(id, &protocol.Joined{
		PlayerID: id,
		Name:     name,
		Color:    color,
		Players:  infos,
		Max:      s.opts.Rules.MaxPlayers,
	})
	s.out.Multicast(s.otherIDs(id), &protocol.PlayerJoined{
		Name:  name,
		Color: color,
		Count: len(players),
		Max:   s.opts.Rules.MaxPlayers,
	})
	s.playerLog(p).WithField("players", len(players)).Info("Player joined")

	if s.game.CanStart() {
		if err := s.start(); err != nil {
			s.log.WithError(err).Error("Failed to start game")
		}
	}
	return p, nil
}

func (s *Session) start() error {
	if err := s.game.Start(); err != nil {
		return err
	}

	players := s.game.Players()
	order := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		order[i] = protocol.PlayerInfo{Name: p.Name, Color: p.Color}
	}
	first := s.game.CurrentPlayer()
	s.broadcast(&protocol.GameStarted{Order: order, First: first.Color})
	s.log.WithFields(logrus.Fields{"players": len(players), "first": first.Color}).Info("Game started")

	// clients render the board before the first turn arrives
	if s.opts.StartDelay > 0 {
		s.sleep(s.opts.StartDelay)
	}
	s.announceTurn(false)
	return nil
}

// announceTurn tells every player whose turn it is and arms the turn timer
func (s *Session) announceTurn(reroll bool) {
	cur := s.game.CurrentPlayer()
	if cur == nil {
		return
	}
	for _, p := range s.game.Players() {
		msg := &protocol.TurnUpdate{
			Color:  cur.Color,
			Name:   cur.Name,
			Seq:    s.game.TurnSeq(),
			Reroll: reroll,
		}
		switch {
		case p.ID != cur.ID:
			msg.Prompt = fmt.Sprintf("Waiting for %s (%s)", cur.Name, cur.Color)
		case reroll:
			msg.Prompt = "You rolled a double, roll again"
		default:
			msg.Prompt = "Your turn, roll the dice"
		}
		s.send(p.ID, msg)
	}
	s.armTimer()
}

// Roll throws the dice for id
func (s *Session) Roll(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.game.Player(id); !ok {
		return ErrNotJoined
	}
	res, err := s.game.Roll(id)
	if err != nil {
		return err
	}

	p := res.Player
	s.broadcast(&protocol.DiceResult{
		Color:              p.Color,
		Die1:               res.Roll.Die1,
		Die2:               res.Roll.Die2,
		Total:              res.Roll.Total(),
		Double:             res.Roll.Double(),
		ConsecutiveDoubles: res.ConsecutiveDoubles,
	})
	log := s.playerLog(p).WithFields(logrus.Fields{"die1": res.Roll.Die1, "die2": res.Roll.Die2})

	switch {
	case res.Penalty != nil:
		if res.Penalty.Piece >= 0 {
			s.broadcast(&protocol.PlacementUpdate{
				Color:   p.Color,
				Piece:   res.Penalty.Piece,
				From:    s.location(res.Penalty.From),
				To:      s.location(engine.JailLocation()),
				Penalty: true,
			})
			s.info("%s rolled %d doubles in a row, piece %d goes back to jail", p.Name, s.opts.Rules.DoublesPenalty, res.Penalty.Piece)
		} else {
			s.info("%s rolled %d doubles in a row and loses the turn", p.Name, s.opts.Rules.DoublesPenalty)
		}
		log.Info("Consecutive doubles penalty")
		s.announceTurn(false)

	case len(res.Legal) == 0:
		if res.Reroll {
			s.info("%s has no legal move but rolled a double", p.Name)
		} else {
			s.info("%s has no legal move", p.Name)
		}
		log.Debug("No legal move")
		s.announceTurn(res.Reroll)

	default:
		s.send(id, &protocol.LegalMoves{
			Pieces:    res.Legal,
			Total:     res.Roll.Total(),
			CanReroll: res.Roll.Double(),
		})
		log.WithField("legal", res.Legal).Debug("Awaiting move")
	}
	return nil
}

// Move applies id's chosen piece with the pending roll
func (s *Session) Move(id uuid.UUID, piece int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.game.Player(id); !ok {
		return ErrNotJoined
	}
	res, err := s.game.ApplyMove(id, piece)
	if err != nil {
		return err
	}

	p := res.Player
	s.broadcast(&protocol.PlacementUpdate{
		Color:    p.Color,
		Piece:    res.Piece,
		From:     s.location(res.From),
		To:       s.location(res.To),
		Released: res.Released,
		Finished: res.Finished,
	})
	switch {
	case res.Released:
		s.info("%s released piece %d from jail", p.Name, res.Piece)
	case res.Finished:
		s.info("%s brought piece %d home", p.Name, res.Piece)
	}

	if len(res.Captured) > 0 {
		captured := make([]protocol.CapturedPiece, len(res.Captured))
		for i, c := range res.Captured {
			captured[i] = protocol.CapturedPiece{Color: c.Color, Piece: c.Piece, From: s.location(c.From)}
			s.info("%s captured %s's piece %d", p.Name, c.Color, c.Piece)
		}
		s.broadcast(&protocol.CaptureUpdate{By: p.Color, Captured: captured})
	}

	s.playerLog(p).WithFields(logrus.Fields{
		"piece":    res.Piece,
		"from":     res.From.String(),
		"to":       res.To.String(),
		"captured": len(res.Captured),
	}).Debug("Move applied")

	if res.Victory {
		s.finish(p)
		return nil
	}
	s.announceTurn(res.Reroll)
	return nil
}

// finish announces the winner, closes every player connection and
// starts over with an empty game
func (s *Session) finish(winner *engine.Player) {
	s.broadcast(&protocol.Victory{Color: winner.Color, Name: winner.Name})
	s.playerLog(winner).Info("Game won")

	for _, id := range s.playerIDs() {
		s.out.Disconnect(id)
	}
	if err := s.reset(); err != nil {
		s.log.WithError(err).Error("Failed to reset session")
	}
}

// Leave removes id at its own request and closes its connection
func (s *Session) Leave(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.leave(id, "left") {
		return ErrNotJoined
	}
	s.out.Disconnect(id)
	return nil
}

// HandleDisconnect removes id after its connection was lost. It is a
// no-op for connections that never joined or were already removed.
func (s *Session) HandleDisconnect(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leave(id, "disconnected")
}

func (s *Session) leave(id uuid.UUID, reason string) bool {
	p, ok := s.game.Player(id)
	if !ok {
		return false
	}
	res, err := s.game.RemovePlayer(id)
	if err != nil {
		s.log.WithError(err).Error("Failed to remove player")
		return false
	}
	if err := s.colors.Release(p.Color); err != nil {
		s.log.WithError(err).Warn("Color pool out of sync")
	}

	remaining := len(s.game.Players())
	s.broadcast(&protocol.PlayerLeft{Name: p.Name, Color: p.Color, Count: remaining, Reason: reason})
	s.playerLog(p).WithFields(logrus.Fields{"reason": reason, "players": remaining}).Info("Player left")

	switch {
	case res.Halted:
		s.stopTimer()
		s.broadcast(&protocol.GameStopped{
			Reason:  "not enough players",
			Players: remaining,
			Min:     s.opts.Rules.MinPlayers,
		})
		s.log.WithField("players", remaining).Warn("Game stopped")
	case res.TurnChanged:
		s.announceTurn(false)
	}
	return true
}

// HandleMessage dispatches a decoded client message and answers
// rejected requests with an error message
func (s *Session) HandleMessage(id uuid.UUID, msg protocol.Message) {
	var err error
	switch m := msg.(type) {
	case *protocol.Join:
		_, err = s.Join(id, m.Name, m.Color)
	case *protocol.Roll:
		err = s.Roll(id)
	case *protocol.Move:
		err = s.Move(id, m.Piece)
	case *protocol.Leave:
		err = s.Leave(id)
	default:
		err = fmt.Errorf("%w: %s is not accepted from clients", protocol.ErrUnknownType, msg.Type())
	}
	if err == nil {
		return
	}

	s.log.WithError(err).WithFields(logrus.Fields{"peer": id, "type": msg.Type()}).Debug("Request rejected")
	if err := s.out.Send(id, errorReply(err)); err != nil {
		s.log.WithError(err).WithField("peer", id).Warn("Failed to send error")
	}
}

func errorReply(err error) *protocol.Error {
	switch {
	case errors.Is(err, ErrNotJoined):
		return protocol.ErrorWithCode(protocol.CodeNotJoined, err.Error())
	case errors.Is(err, ErrAlreadyJoined):
		return protocol.ErrorWithCode(protocol.CodeAlreadyJoined, err.Error())
	}
	return protocol.NewError(err)
}
