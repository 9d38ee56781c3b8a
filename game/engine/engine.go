package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Topology and rules
	Board() *Board
	Rules() Rules

	// Lifecycle
	AddPlayer(id uuid.UUID, name string, color Color) (*Player, error)
	RemovePlayer(id uuid.UUID) (*RemoveResult, error)
	CanStart() bool
	Start() error

	// Turn and movement
	Roll(id uuid.UUID) (*RollResult, error)
	ApplyMove(id uuid.UUID, piece int) (*MoveResult, error)
	SkipTurn() (*Player, *Player, error)

	// State
	Phase() Phase
	Pending() Pending
	Players() []*Player
	Player(id uuid.UUID) (*Player, bool)
	CurrentPlayer() *Player
	TurnSeq() uint64
	Winner() *Player
	Snapshot() Snapshot
}

var _ Engine = (*Game)(nil)

// Game implements the Engine interface. It is not safe for concurrent
// use; callers serialize access.
type Game struct {
	board    *Board
	rules    Rules
	dice     Dice
	players  []*Player
	phase    Phase
	current  int
	rolled   bool
	lastRoll Roll
	turnSeq  uint64
	winner   *Player
}

// NewGame creates a game waiting for players. A nil board selects the
// classic layout and nil dice a random source.
func NewGame(board *Board, rules Rules, dice Dice) (*Game, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if board == nil {
		board = DefaultBoard()
	}
	if dice == nil {
		dice = NewRandomDice()
	}
	return &Game{
		board: board,
		rules: rules,
		dice:  dice,
		phase: AwaitingPlayers,
	}, nil
}

// NewGameWithDefaults creates a classic game with random dice
func NewGameWithDefaults() *Game {
	g, err := NewGame(nil, DefaultRules(), nil)
	if err != nil {
		panic(fmt.Sprintf("default rules are invalid: %v", err))
	}
	return g
}

// Board returns the topology the game is played on
func (g *Game) Board() *Board {
	return g.board
}

// Rules returns the game rules
func (g *Game) Rules() Rules {
	return g.rules
}

// Phase returns the top-level state
func (g *Game) Phase() Phase {
	return g.phase
}

// Pending returns whether the current player must roll or move.
// It is empty unless the game is in progress.
func (g *Game) Pending() Pending {
	if g.phase != InProgress {
		return ""
	}
	if g.rolled {
		return AwaitingMove
	}
	return AwaitingRoll
}

// Players returns the players in turn order
func (g *Game) Players() []*Player {
	return g.players
}

// Player looks up a player by id
func (g *Game) Player(id uuid.UUID) (*Player, bool) {
	for _, p := range g.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CurrentPlayer returns the player whose turn it is, or nil when no
// game is in progress
func (g *Game) CurrentPlayer() *Player {
	if g.phase != InProgress || len(g.players) == 0 {
		return nil
	}
	return g.players[g.current]
}

// TurnSeq increments every time a new roll is awaited
func (g *Game) TurnSeq() uint64 {
	return g.turnSeq
}

// LastRoll returns the most recent roll
func (g *Game) LastRoll() Roll {
	return g.lastRoll
}

// Winner returns the winning player once the game is finished
func (g *Game) Winner() *Player {
	return g.winner
}

// AddPlayer appends a player to the turn order with all pieces jailed
func (g *Game) AddPlayer(id uuid.UUID, name string, color Color) (*Player, error) {
	if g.phase != AwaitingPlayers {
		return nil, ErrAlreadyStarted
	}
	if len(g.players) >= g.rules.MaxPlayers {
		return nil, ErrSessionFull
	}
	if !color.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}
	for _, p := range g.players {
		if p.ID == id {
			return nil, ErrDuplicatePlayer
		}
		if p.Color == color {
			return nil, fmt.Errorf("%w: %s", ErrColorTaken, color)
		}
	}

	p := NewPlayer(id, name, color)
	g.players = append(g.players, p)
	return p, nil
}

// RemoveResult describes the consequences of a player leaving
type RemoveResult struct {
	Player *Player
	// Halted is set when the game in progress stopped for lack of players
	Halted bool
	// TurnChanged is set when the departing player held the turn
	TurnChanged bool
	// Current is the player to act after the removal, if a game is running
	Current *Player
}

// RemovePlayer drops a player from the session, reassigning the turn
// or halting the game as needed
func (g *Game) RemovePlayer(id uuid.UUID) (*RemoveResult, error) {
	idx := -1
	for i, p := range g.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownPlayer
	}

	res := &RemoveResult{Player: g.players[idx]}
	g.players = append(g.players[:idx], g.players[idx+1:]...)

	if g.phase != InProgress {
		return res, nil
	}

	if len(g.players) < g.rules.MinPlayers {
		g.halt()
		res.Halted = true
		return res, nil
	}

	switch {
	case idx < g.current:
		g.current--
	case idx == g.current:
		if g.current >= len(g.players) {
			g.current = 0
		}
		g.rolled = false
		g.turnSeq++
		res.TurnChanged = true
	}
	res.Current = g.players[g.current]
	return res, nil
}

// halt abandons the game in progress; remaining players keep their
// seats but their pieces go back to jail
func (g *Game) halt() {
	g.phase = AwaitingPlayers
	g.current = 0
	g.rolled = false
	g.lastRoll = Roll{}
	g.turnSeq++
	for _, p := range g.players {
		p.resetPieces()
	}
}

// CanStart reports whether enough players joined for an automatic start
func (g *Game) CanStart() bool {
	return g.phase == AwaitingPlayers && len(g.players) >= g.rules.MinPlayers
}

// Start moves the game into progress with the first joined player to act
func (g *Game) Start() error {
	if g.phase != AwaitingPlayers {
		return ErrAlreadyStarted
	}
	if len(g.players) < g.rules.MinPlayers {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayer, len(g.players), g.rules.MinPlayers)
	}

	for _, p := range g.players {
		p.resetPieces()
	}
	g.phase = InProgress
	g.current = 0
	g.rolled = false
	g.lastRoll = Roll{}
	g.winner = nil
	g.turnSeq++
	return nil
}

// checkTurn verifies that id may act right now
func (g *Game) checkTurn(id uuid.UUID) (*Player, error) {
	switch g.phase {
	case AwaitingPlayers:
		return nil, ErrNotStarted
	case GameFinished:
		return nil, ErrGameOver
	}
	if _, ok := g.Player(id); !ok {
		return nil, ErrUnknownPlayer
	}
	p := g.players[g.current]
	if p.ID != id {
		return nil, ErrNotYourTurn
	}
	return p, nil
}
