// Command bot connects automated players to a running Parchís server over
// WebSocket. Each bot joins, rolls on its turn, picks a legal piece with its
// strategy and answers clock sync requests until someone wins.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/parchis/game/engine"
	"github.com/wricardo/parchis/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "play Parchís automatically against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:8080/ws", Usage: "WebSocket endpoint of the game server", Sources: cli.EnvVars("PARCHIS_WS_URL")},
			&cli.IntFlag{Name: "count", Value: 1, Usage: "number of bots to connect (1-4)"},
			&cli.StringFlag{Name: "name", Value: "bot", Usage: "name prefix of the bots"},
			&cli.StringSliceFlag{Name: "color", Usage: "preferred colors, one per bot"},
			&cli.StringFlag{Name: "strategy", Value: "random", Usage: "first, last or random"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "seed of the random strategy"},
			&cli.DurationFlag{Name: "delay", Usage: "pause before each roll and move"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := logging.New("text", cmd.Bool("debug"))
	if err != nil {
		return err
	}
	bots, err := buildBots(cmd, logging.Component(logger, "bot"))
	if err != nil {
		return err
	}

	for _, b := range bots {
		if err := b.Dial(ctx, cmd.String("url")); err != nil {
			return err
		}
	}

	results, err := playAll(ctx, bots)
	if err != nil {
		return err
	}
	for _, res := range results {
		logger.WithFields(logrus.Fields{
			"color": res.Color,
			"won":   res.Won,
			"rolls": res.Rolls,
			"moves": res.Moves,
		}).Info("Bot finished")
	}
	return nil
}

func buildBots(cmd *cli.Command, log *logrus.Entry) ([]*Bot, error) {
	count := int(cmd.Int("count"))
	if count < 1 || count > engine.MaxPlayers {
		return nil, fmt.Errorf("count must be between 1 and %d", engine.MaxPlayers)
	}
	colors := cmd.StringSlice("color")
	if len(colors) > count {
		return nil, fmt.Errorf("got %d colors for %d bots", len(colors), count)
	}

	bots := make([]*Bot, count)
	for i := range bots {
		pick, err := PickerByName(cmd.String("strategy"), uint64(cmd.Int("seed"))+uint64(i))
		if err != nil {
			return nil, err
		}
		b := &Bot{
			Name:   fmt.Sprintf("%s-%d", cmd.String("name"), i+1),
			Pick:   pick,
			Delay:  cmd.Duration("delay"),
			Logger: log.WithField("bot", i+1),
		}
		if i < len(colors) {
			color, err := engine.ParseColor(colors[i])
			if err != nil {
				return nil, err
			}
			b.Color = color
		}
		bots[i] = b
	}
	return bots, nil
}

// playAll runs every bot until the game ends. The first failure cancels
// the others.
func playAll(ctx context.Context, bots []*Bot) ([]*Result, error) {
	results := make([]*Result, len(bots))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range bots {
		g.Go(func() error {
			res, err := b.Play(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", b.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
