// Command simulate plays Parchís games offline between strategy bots and
// reports how the board and rules behave: win rates per color, game length,
// captures and doubles penalties.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/parchis/game/config"
	"github.com/wricardo/parchis/game/engine"
	"github.com/wricardo/parchis/internal/logging"
)

const defaultMaxActions = 20000

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "play Parchís games between bots and print statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Value: 100, Usage: "number of games to play"},
			&cli.IntFlag{Name: "players", Value: engine.MaxPlayers, Usage: "players per game (2-4)"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "dice seed of the first game"},
			&cli.IntFlag{Name: "max-actions", Value: defaultMaxActions, Usage: "abandon a game after this many rolls"},
			&cli.StringFlag{Name: "strategy", Value: "leader", Usage: "first, leader, trailer or random"},
			&cli.StringSliceFlag{Name: "seat", Usage: "per color strategy as color=strategy, e.g. red=random"},
			&cli.StringFlag{Name: "boards-dir", Value: "boards", Usage: "directory of board layout files"},
			&cli.StringFlag{Name: "board", Value: config.ClassicName, Usage: "board layout to play"},
			&cli.BoolFlag{Name: "debug", Usage: "log every game result"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := logging.New("text", cmd.Bool("debug"))
			if err != nil {
				return err
			}
			return run(cmd, out, logging.Component(logger, "simulate"))
		},
	}
}

func run(cmd *cli.Command, out io.Writer, log *logrus.Entry) error {
	players := int(cmd.Int("players"))
	if players < engine.DefaultMinPlayers || players > engine.MaxPlayers {
		return fmt.Errorf("players must be between %d and %d", engine.DefaultMinPlayers, engine.MaxPlayers)
	}
	games := int(cmd.Int("games"))
	if games <= 0 {
		return fmt.Errorf("games must be positive")
	}
	seed := uint64(cmd.Int("seed"))

	boards, err := config.NewManager(cmd.String("boards-dir"))
	if err != nil {
		return err
	}
	cfg, err := boards.LoadBoard(cmd.String("board"))
	if err != nil {
		return err
	}
	board, err := engine.NewBoard(cfg)
	if err != nil {
		return err
	}

	def, err := StrategyByName(cmd.String("strategy"), seed)
	if err != nil {
		return err
	}
	seats, err := parseSeats(cmd.StringSlice("seat"), seed)
	if err != nil {
		return err
	}

	sim := &Simulation{
		Board:      board,
		Players:    players,
		MaxActions: int(cmd.Int("max-actions")),
		Strategies: seats,
		Default:    def,
	}

	summary := &Summary{}
	for i := 0; i < games; i++ {
		stats, err := sim.Play(seed + uint64(i))
		if err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		summary.Add(stats)
		log.WithFields(logrus.Fields{
			"game":     i + 1,
			"winner":   stats.Winner,
			"turns":    stats.Turns,
			"captures": stats.Captures,
			"complete": stats.Completed,
		}).Debug("Game finished")
	}

	printSummary(out, board.Name(), players, summary)
	return nil
}

// parseSeats reads color=strategy pairs
func parseSeats(values []string, seed uint64) (map[engine.Color]Strategy, error) {
	seats := make(map[engine.Color]Strategy, len(values))
	for _, v := range values {
		colorName, strategyName, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid seat %q, want color=strategy", v)
		}
		color, err := engine.ParseColor(strings.TrimSpace(colorName))
		if err != nil {
			return nil, err
		}
		st, err := StrategyByName(strings.TrimSpace(strategyName), seed+uint64(color.Ordinal()))
		if err != nil {
			return nil, err
		}
		seats[color] = st
	}
	return seats, nil
}

func printSummary(w io.Writer, boardName string, players int, s *Summary) {
	fmt.Fprintf(w, "🎲 %d games on %q with %d players\n", s.Games, boardName, players)
	fmt.Fprintf(w, "   completed: %d\n", s.Completed)
	if s.Completed < s.Games {
		fmt.Fprintf(w, "   ⚠️  %d games hit the action limit\n", s.Games-s.Completed)
	}

	colors := make([]engine.Color, 0, len(s.Wins))
	for c := range s.Wins {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i].Ordinal() < colors[j].Ordinal() })
	for _, c := range colors {
		pct := 100 * float64(s.Wins[c]) / float64(s.Completed)
		fmt.Fprintf(w, "   %-6s wins: %4d (%.1f%%)\n", c, s.Wins[c], pct)
	}

	fmt.Fprintf(w, "   turns: avg %.1f, shortest %d, longest %d\n", s.AverageTurns(), s.Shortest, s.Longest)
	fmt.Fprintf(w, "   captures: %d, doubles penalties: %d, turns without a move: %d\n", s.Captures, s.Penalties, s.Skipped)
}
