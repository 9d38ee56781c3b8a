package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/parchis/game/engine"
	"github.com/wricardo/parchis/game/protocol"
)

const rateLimitBackoff = 250 * time.Millisecond

var ErrConnectionClosed = errors.New("connection closed before the game ended")

// Picker chooses one of the legal pieces
type Picker func(legal []int) int

func pickFirst(legal []int) int {
	return legal[0]
}

func pickLast(legal []int) int {
	return legal[len(legal)-1]
}

func pickRandom(seed uint64) Picker {
	r := rand.New(rand.NewPCG(seed, seed>>1|1))
	return func(legal []int) int {
		return legal[r.IntN(len(legal))]
	}
}

// PickerByName resolves the strategy flag
func PickerByName(name string, seed uint64) (Picker, error) {
	switch name {
	case "first":
		return pickFirst, nil
	case "last":
		return pickLast, nil
	case "random":
		return pickRandom(seed), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// Result is what a bot saw of its game
type Result struct {
	Color  engine.Color
	Winner engine.Color
	Won    bool
	Rolls  int
	Moves  int
	// Offset is the sum of clock adjustments received, in milliseconds
	Offset int64
}

// Bot is one automated player on a WebSocket connection
type Bot struct {
	Name   string
	Color  engine.Color
	Pick   Picker
	Delay  time.Duration
	Logger *logrus.Entry

	conn   *websocket.Conn
	result Result
	last   protocol.Message
}

// Dial connects the bot to the server's /ws endpoint
func (b *Bot) Dial(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	b.conn = conn
	if b.Pick == nil {
		b.Pick = pickFirst
	}
	if b.Logger == nil {
		b.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return nil
}

// Play joins the game and plays until a victory is announced
func (b *Bot) Play(ctx context.Context) (*Result, error) {
	if b.conn == nil {
		return nil, errors.New("bot is not connected")
	}
	stop := context.AfterFunc(ctx, func() { b.conn.Close() })
	defer stop()
	defer b.conn.Close()

	if err := b.request(&protocol.Join{Name: b.Name, Color: b.Color}); err != nil {
		return nil, err
	}

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			b.Logger.WithError(err).Warn("Ignoring undecodable message")
			continue
		}

		done, err := b.handle(msg)
		if err != nil {
			return nil, err
		}
		if done {
			res := b.result
			return &res, nil
		}
	}
}

func (b *Bot) handle(msg protocol.Message) (bool, error) {
	switch m := msg.(type) {
	case *protocol.Joined:
		b.result.Color = m.Color
		b.Logger = b.Logger.WithField("color", m.Color)
		b.Logger.WithField("players", len(m.Players)).Info("Seated")

	case *protocol.GameStarted:
		b.Logger.WithField("first", m.First).Info("Game started")

	case *protocol.TurnUpdate:
		if m.Color != b.result.Color {
			return false, nil
		}
		b.pause()
		b.result.Rolls++
		return false, b.request(&protocol.Roll{})

	case *protocol.LegalMoves:
		b.pause()
		return false, b.move(m.Pieces)

	case *protocol.CaptureUpdate:
		for _, c := range m.Captured {
			if c.Color == b.result.Color {
				b.Logger.WithFields(logrus.Fields{"by": m.By, "piece": c.Piece}).Info("Piece captured")
			}
		}

	case *protocol.Error:
		switch {
		case m.Code == protocol.CodeRateLimited && b.last != nil:
			time.Sleep(rateLimitBackoff)
			return false, b.write(b.last)
		case m.Retry && len(m.Legal) > 0:
			return false, b.move(m.Legal)
		case b.result.Color == "":
			return false, fmt.Errorf("join rejected (%s): %s", m.Code, m.Message)
		default:
			b.Logger.WithField("code", m.Code).Warn(m.Message)
		}

	case *protocol.GameStopped:
		b.Logger.WithField("reason", m.Reason).Info("Game stopped, waiting")

	case *protocol.TimeSyncRequest:
		return false, b.write(&protocol.TimeSyncReply{
			Round:      m.Round,
			ClientTime: time.Now().UnixMilli() + b.result.Offset,
		})

	case *protocol.TimeSyncAdjust:
		b.result.Offset += m.Offset

	case *protocol.Victory:
		b.result.Winner = m.Color
		b.result.Won = m.Color == b.result.Color
		b.Logger.WithFields(logrus.Fields{"winner": m.Color, "won": b.result.Won}).Info("Game over")
		return true, nil
	}
	return false, nil
}

func (b *Bot) move(legal []int) error {
	b.result.Moves++
	return b.request(&protocol.Move{Piece: b.Pick(legal)})
}

func (b *Bot) pause() {
	if b.Delay > 0 {
		time.Sleep(b.Delay)
	}
}

// request sends a game action and remembers it for a rate limited retry
func (b *Bot) request(msg protocol.Message) error {
	b.last = msg
	return b.write(msg)
}

func (b *Bot) write(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type(), err)
	}
	return nil
}
