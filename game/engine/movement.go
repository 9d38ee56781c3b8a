package engine

import (
	"slices"

	"github.com/google/uuid"
)

// MoveResult describes an applied move
type MoveResult struct {
	Player   *Player
	Piece    int
	From     Location
	To       Location
	Released bool
	Finished bool
	Captured []CapturedPiece
	Victory  bool
	// Reroll is set when the move was made with a double and the same
	// player rolls again
	Reroll bool
	// Next is the player to act after the move; nil after a victory
	Next *Player
}

// LegalMoves returns the pieces p may move with roll. A double with
// pieces in jail only allows releasing a jailed piece.
//
// A loop piece stays on the loop while index+total < LoopLength; reaching
// LoopLength exactly lands on home lane index 0.
func LegalMoves(b *Board, p *Player, roll Roll) []int {
	if roll.Double() {
		if jailed := p.JailedPieces(); len(jailed) > 0 {
			return jailed
		}
	}

	total := roll.Total()
	loopLen := b.LoopLength()
	laneLen := b.HomeLaneLength(p.Color)

	legal := []int{}
	for i, piece := range p.Pieces {
		switch piece.Zone {
		case OnLoop:
			next := piece.Index + total
			if next < loopLen || next-loopLen < laneLen {
				legal = append(legal, i)
			}
		case OnHomeLane:
			if piece.Index+total < laneLen {
				legal = append(legal, i)
			}
		}
	}
	return legal
}

// ApplyMove moves one of the current player's pieces by the pending
// roll, resolving jail release, home lane entry, captures and victory
func (g *Game) ApplyMove(id uuid.UUID, piece int) (*MoveResult, error) {
	p, err := g.checkTurn(id)
	if err != nil {
		return nil, err
	}
	if !g.rolled {
		return nil, violation(ErrRollFirst, piece, nil)
	}
	legal := LegalMoves(g.board, p, g.lastRoll)
	if piece < 0 || piece >= PiecesPerPlayer {
		return nil, violation(ErrInvalidPiece, piece, legal)
	}
	if !slices.Contains(legal, piece) {
		return nil, violation(ErrIllegalMove, piece, legal)
	}

	res := &MoveResult{
		Player: p,
		Piece:  piece,
		From:   p.Location(piece),
	}

	total := g.lastRoll.Total()
	laneLen := g.board.HomeLaneLength(p.Color)
	last := laneLen - 1
	cur := p.Pieces[piece]

	switch cur.Zone {
	case Jailed:
		p.Pieces[piece] = Piece{Zone: OnLoop, Index: g.board.EntryIndex(p.Color)}
		res.Released = true
	case OnLoop:
		next := cur.Index + total
		loopLen := g.board.LoopLength()
		if next < loopLen {
			p.Pieces[piece] = Piece{Zone: OnLoop, Index: next}
		} else {
			p.Pieces[piece] = laneStep(next-loopLen, last)
		}
	case OnHomeLane:
		p.Pieces[piece] = laneStep(cur.Index+total, last)
	}

	res.Finished = p.Pieces[piece].Zone == Finished
	res.To = p.Location(piece)
	res.Captured = g.capture(p, res.To)

	if p.HasWon() {
		g.phase = GameFinished
		g.winner = p
		g.rolled = false
		res.Victory = true
		return res, nil
	}

	res.Reroll = g.lastRoll.Double()
	g.advanceTurn(res.Reroll)
	res.Next = g.CurrentPlayer()
	return res, nil
}

// laneStep places a piece at home lane index i; the exact last index
// is the explicit transition to Finished
func laneStep(i, last int) Piece {
	if i == last {
		return Piece{Zone: Finished, Index: last}
	}
	return Piece{Zone: OnHomeLane, Index: i}
}

// capture jails every opponent piece on dest unless dest is a safe
// loop cell. Home lanes never capture.
func (g *Game) capture(mover *Player, dest Location) []CapturedPiece {
	if dest.Zone != OnLoop {
		return nil
	}
	if g.board.IsSafe(g.board.CellAtLoopIndex(dest.Index)) {
		return nil
	}

	var captured []CapturedPiece
	for _, other := range g.players {
		if other == mover {
			continue
		}
		for i, piece := range other.Pieces {
			if piece.Zone == OnLoop && piece.Index == dest.Index {
				other.sendToJail(i)
				captured = append(captured, CapturedPiece{
					PlayerID: other.ID,
					Color:    other.Color,
					Piece:    i,
					From:     dest,
				})
			}
		}
	}
	return captured
}
