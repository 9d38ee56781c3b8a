package engine

import "github.com/google/uuid"

// Snapshot is a read-only copy of the game state
type Snapshot struct {
	Board       string           `json:"board"`
	Phase       Phase            `json:"phase"`
	Pending     Pending          `json:"pending,omitempty"`
	CurrentTurn Color            `json:"current_turn,omitempty"`
	TurnSeq     uint64           `json:"turn_seq"`
	LastRoll    *Roll            `json:"last_roll,omitempty"`
	Players     []PlayerSnapshot `json:"players"`
	Winner      Color            `json:"winner,omitempty"`
	MinPlayers  int              `json:"min_players"`
	MaxPlayers  int              `json:"max_players"`
}

// PlayerSnapshot is a copy of one player's state
type PlayerSnapshot struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Color              Color           `json:"color"`
	Pieces             []PieceSnapshot `json:"pieces"`
	ConsecutiveDoubles int             `json:"consecutive_doubles"`
	Finished           int             `json:"finished"`
}

// PieceSnapshot is a piece with its resolved grid cell
type PieceSnapshot struct {
	Location Location `json:"location"`
	Cell     *Cell    `json:"cell,omitempty"`
}

// Snapshot copies the current state
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Board:      g.board.Name(),
		Phase:      g.phase,
		Pending:    g.Pending(),
		TurnSeq:    g.turnSeq,
		Players:    make([]PlayerSnapshot, 0, len(g.players)),
		MinPlayers: g.rules.MinPlayers,
		MaxPlayers: g.rules.MaxPlayers,
	}
	if cur := g.CurrentPlayer(); cur != nil {
		s.CurrentTurn = cur.Color
	}
	if g.lastRoll.Valid() {
		roll := g.lastRoll
		s.LastRoll = &roll
	}
	if g.winner != nil {
		s.Winner = g.winner.Color
	}

	for _, p := range g.players {
		ps := PlayerSnapshot{
			ID:                 p.ID,
			Name:               p.Name,
			Color:              p.Color,
			Pieces:             make([]PieceSnapshot, PiecesPerPlayer),
			ConsecutiveDoubles: p.ConsecutiveDoubles,
			Finished:           p.FinishedCount(),
		}
		for i := range p.Pieces {
			loc := p.Location(i)
			ps.Pieces[i].Location = loc
			if cell, ok := g.board.CellOf(loc); ok {
				ps.Pieces[i].Cell = &cell
			}
		}
		s.Players = append(s.Players, ps)
	}
	return s
}
