package engine

import "github.com/google/uuid"

// Penalty records the piece jailed by the consecutive doubles rule.
// Piece is -1 when the player had nothing in play.
type Penalty struct {
	Piece int      `json:"piece"`
	From  Location `json:"from"`
}

// RollResult is the outcome of a dice roll
type RollResult struct {
	Player             *Player
	Roll               Roll
	ConsecutiveDoubles int
	// Penalty is set when the roll completed a run of doubles
	Penalty *Penalty
	// Legal lists movable pieces; empty when no move is possible
	Legal []int
	// TurnAdvanced is set when the turn passed to the next player
	TurnAdvanced bool
	// Reroll is set when the roller must roll again without moving
	Reroll bool
	// Next is the player expected to act after this roll
	Next *Player
}

// AwaitingMove reports whether the roller must now choose a piece
func (r *RollResult) AwaitingMove() bool {
	return len(r.Legal) > 0 && r.Penalty == nil
}

// Roll draws two dice for the current player and resolves the
// consecutive doubles penalty and the no-legal-move cases
func (g *Game) Roll(id uuid.UUID) (*RollResult, error) {
	p, err := g.checkTurn(id)
	if err != nil {
		return nil, err
	}
	if g.rolled {
		return nil, violation(ErrAlreadyRolled, -1, LegalMoves(g.board, p, g.lastRoll))
	}

	roll := g.dice.Roll()
	g.lastRoll = roll
	if roll.Double() {
		p.ConsecutiveDoubles++
	} else {
		p.ConsecutiveDoubles = 0
	}

	res := &RollResult{
		Player:             p,
		Roll:               roll,
		ConsecutiveDoubles: p.ConsecutiveDoubles,
	}

	if p.ConsecutiveDoubles >= g.rules.DoublesPenalty {
		res.Penalty = g.jailFirstInPlay(p)
		p.ConsecutiveDoubles = 0
		g.advanceTurn(false)
		res.TurnAdvanced = true
		res.Next = g.CurrentPlayer()
		return res, nil
	}

	res.Legal = LegalMoves(g.board, p, roll)
	if len(res.Legal) == 0 {
		if roll.Double() {
			g.advanceTurn(true)
			res.Reroll = true
		} else {
			g.advanceTurn(false)
			res.TurnAdvanced = true
		}
		res.Next = g.CurrentPlayer()
		return res, nil
	}

	g.rolled = true
	res.Next = p
	return res, nil
}

// jailFirstInPlay sends the lowest-indexed piece on the loop or home
// lane back to jail
func (g *Game) jailFirstInPlay(p *Player) *Penalty {
	for i, piece := range p.Pieces {
		if piece.InPlay() {
			from := p.Location(i)
			p.sendToJail(i)
			return &Penalty{Piece: i, From: from}
		}
	}
	return &Penalty{Piece: -1, From: JailLocation()}
}

// advanceTurn ends the pending roll. Unless reroll is set the turn
// passes to the next player in join order.
func (g *Game) advanceTurn(reroll bool) {
	g.rolled = false
	g.turnSeq++
	if reroll || len(g.players) == 0 {
		return
	}
	g.players[g.current].ConsecutiveDoubles = 0
	g.current = (g.current + 1) % len(g.players)
}

// SkipTurn passes the turn of an idle current player, discarding any
// pending roll. It returns the skipped and the next player.
func (g *Game) SkipTurn() (*Player, *Player, error) {
	switch g.phase {
	case AwaitingPlayers:
		return nil, nil, ErrNotStarted
	case GameFinished:
		return nil, nil, ErrGameOver
	}
	skipped := g.players[g.current]
	g.advanceTurn(false)
	return skipped, g.CurrentPlayer(), nil
}
