package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"github.com/wricardo/parchis/game/engine"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy picks one of the legal pieces for p
type Strategy func(b *engine.Board, p *engine.Player, legal []int) int

// firstLegal always moves the lowest numbered legal piece
func firstLegal(_ *engine.Board, _ *engine.Player, legal []int) int {
	return legal[0]
}

// leader moves the piece that has travelled furthest
func leader(b *engine.Board, p *engine.Player, legal []int) int {
	best, bestProgress := legal[0], -2
	for _, i := range legal {
		if prog := progress(b, p.Pieces[i]); prog > bestProgress {
			best, bestProgress = i, prog
		}
	}
	return best
}

// trailer moves the piece that is furthest behind
func trailer(b *engine.Board, p *engine.Player, legal []int) int {
	best, bestProgress := legal[0], int(^uint(0)>>1)
	for _, i := range legal {
		if prog := progress(b, p.Pieces[i]); prog < bestProgress {
			best, bestProgress = i, prog
		}
	}
	return best
}

func randomStrategy(seed uint64) Strategy {
	r := rand.New(rand.NewPCG(seed, 0x5eed))
	return func(_ *engine.Board, _ *engine.Player, legal []int) int {
		return legal[r.IntN(len(legal))]
	}
}

func progress(b *engine.Board, piece engine.Piece) int {
	switch piece.Zone {
	case engine.OnLoop:
		return piece.Index
	case engine.OnHomeLane, engine.Finished:
		return b.LoopLength() + piece.Index
	}
	return -1
}

// StrategyByName resolves a strategy flag value
func StrategyByName(name string, seed uint64) (Strategy, error) {
	switch name {
	case "first":
		return firstLegal, nil
	case "leader":
		return leader, nil
	case "trailer":
		return trailer, nil
	case "random":
		return randomStrategy(seed), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
}

// GameStats records what happened in one simulated game
type GameStats struct {
	Winner    engine.Color
	Turns     uint64
	Rolls     int
	Moves     int
	Captures  int
	Penalties int
	Skipped   int
	Completed bool
}

// Simulation plays games without any transport
type Simulation struct {
	Board      *engine.Board
	Players    int
	MaxActions int
	Strategies map[engine.Color]Strategy
	Default    Strategy
}

// Play runs one game with dice seeded by seed
func (s *Simulation) Play(seed uint64) (*GameStats, error) {
	rules := engine.DefaultRules()
	game, err := engine.NewGame(s.Board, rules, engine.NewSeededDice(seed, seed^0x9e3779b97f4a7c15))
	if err != nil {
		return nil, err
	}
	for i := 0; i < s.Players; i++ {
		color := engine.Colors[i]
		if _, err := game.AddPlayer(uuid.New(), color.String(), color); err != nil {
			return nil, err
		}
	}
	if err := game.Start(); err != nil {
		return nil, err
	}

	stats := &GameStats{}
	for action := 0; action < s.MaxActions; action++ {
		cur := game.CurrentPlayer()
		rr, err := game.Roll(cur.ID)
		if err != nil {
			return nil, fmt.Errorf("roll for %s: %w", cur.Color, err)
		}
		stats.Rolls++
		if rr.Penalty != nil {
			stats.Penalties++
		}
		if !rr.AwaitingMove() {
			if rr.TurnAdvanced && rr.Penalty == nil {
				stats.Skipped++
			}
			continue
		}

		strategy := s.Default
		if st, ok := s.Strategies[cur.Color]; ok {
			strategy = st
		}
		piece := strategy(s.Board, cur, slices.Clone(rr.Legal))

		mr, err := game.ApplyMove(cur.ID, piece)
		if err != nil {
			return nil, fmt.Errorf("move %d for %s: %w", piece, cur.Color, err)
		}
		stats.Moves++
		stats.Captures += len(mr.Captured)
		if mr.Victory {
			stats.Winner = cur.Color
			stats.Completed = true
			break
		}
	}
	stats.Turns = game.TurnSeq()
	return stats, nil
}

// Summary aggregates many games
type Summary struct {
	Games      int
	Completed  int
	Wins       map[engine.Color]int
	TotalTurns uint64
	Captures   int
	Penalties  int
	Skipped    int
	Shortest   uint64
	Longest    uint64
}

func (s *Summary) Add(g *GameStats) {
	if s.Wins == nil {
		s.Wins = make(map[engine.Color]int)
	}
	s.Games++
	s.Captures += g.Captures
	s.Penalties += g.Penalties
	s.Skipped += g.Skipped
	if !g.Completed {
		return
	}
	s.Completed++
	s.Wins[g.Winner]++
	s.TotalTurns += g.Turns
	if s.Shortest == 0 || g.Turns < s.Shortest {
		s.Shortest = g.Turns
	}
	if g.Turns > s.Longest {
		s.Longest = g.Turns
	}
}

// AverageTurns over completed games
func (s *Summary) AverageTurns() float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(s.Completed)
}
