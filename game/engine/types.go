package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	PiecesPerPlayer   = 4
	HomeLaneLength    = 8
	MaxPlayers        = 4
	DefaultMinPlayers = 2
	DoublesPenalty    = 3
	DieFaces          = 6
	JailIndex         = -1
)

// Color identifies a player's side of the board
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
)

// Colors lists every color in canonical assignment order
var Colors = [MaxPlayers]Color{Red, Blue, Green, Yellow}

// ParseColor converts a case-insensitive color name into a Color
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	return c, nil
}

// Valid reports whether c is one of the four board colors
func (c Color) Valid() bool {
	return c.Ordinal() >= 0
}

// Ordinal returns the position of c in Colors, or -1
func (c Color) Ordinal() int {
	for i, known := range Colors {
		if known == c {
			return i
		}
	}
	return -1
}

func (c Color) String() string {
	return string(c)
}

// Zone is the part of the board a piece is in
type Zone int

const (
	Jailed Zone = iota
	OnLoop
	OnHomeLane
	Finished
)

var zoneNames = map[Zone]string{
	Jailed:     "jail",
	OnLoop:     "loop",
	OnHomeLane: "home",
	Finished:   "finished",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// MarshalJSON encodes the zone by name
func (z Zone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

// UnmarshalJSON decodes a zone name
func (z *Zone) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for zone, name := range zoneNames {
		if name == s {
			*z = zone
			return nil
		}
	}
	return fmt.Errorf("unknown zone %q", s)
}

// Piece is one of a player's four tokens.
// Index is JailIndex while jailed, a loop index on the loop and a
// home lane index on the home lane. A finished piece keeps the last
// home lane index.
type Piece struct {
	Zone  Zone `json:"zone"`
	Index int  `json:"index"`
}

// InPlay reports whether the piece is on the loop or its home lane
func (p Piece) InPlay() bool {
	return p.Zone == OnLoop || p.Zone == OnHomeLane
}

// Player is a participant's per-session record
type Player struct {
	ID                 uuid.UUID              `json:"id"`
	Name               string                 `json:"name"`
	Color              Color                  `json:"color"`
	Pieces             [PiecesPerPlayer]Piece `json:"pieces"`
	ConsecutiveDoubles int                    `json:"consecutive_doubles"`
}

// NewPlayer creates a player with every piece in jail
func NewPlayer(id uuid.UUID, name string, color Color) *Player {
	p := &Player{ID: id, Name: name, Color: color}
	p.resetPieces()
	return p
}

func (p *Player) resetPieces() {
	for i := range p.Pieces {
		p.Pieces[i] = Piece{Zone: Jailed, Index: JailIndex}
	}
	p.ConsecutiveDoubles = 0
}

// FinishedCount returns how many pieces reached the center
func (p *Player) FinishedCount() int {
	n := 0
	for _, piece := range p.Pieces {
		if piece.Zone == Finished {
			n++
		}
	}
	return n
}

// HasWon reports whether all four pieces are finished
func (p *Player) HasWon() bool {
	return p.FinishedCount() == PiecesPerPlayer
}

// JailedPieces returns the indexes of the player's jailed pieces
func (p *Player) JailedPieces() []int {
	var out []int
	for i, piece := range p.Pieces {
		if piece.Zone == Jailed {
			out = append(out, i)
		}
	}
	return out
}

// Location returns where piece i currently stands
func (p *Player) Location(i int) Location {
	piece := p.Pieces[i]
	switch piece.Zone {
	case OnLoop:
		return LoopLocation(piece.Index)
	case OnHomeLane:
		return HomeLocation(p.Color, piece.Index)
	case Finished:
		return FinishedLocation(p.Color)
	default:
		return JailLocation()
	}
}

// sendToJail is the only backward zone transition
func (p *Player) sendToJail(i int) {
	p.Pieces[i] = Piece{Zone: Jailed, Index: JailIndex}
}

// Roll is a pair of dice
type Roll struct {
	Die1 int `json:"die1"`
	Die2 int `json:"die2"`
}

// Total is the sum used for movement
func (r Roll) Total() int {
	return r.Die1 + r.Die2
}

// Double reports whether both dice show the same face
func (r Roll) Double() bool {
	return r.Die1 == r.Die2
}

// Valid reports whether both dice are in [1, DieFaces]
func (r Roll) Valid() bool {
	return r.Die1 >= 1 && r.Die1 <= DieFaces && r.Die2 >= 1 && r.Die2 <= DieFaces
}

// Phase is the top-level game state
type Phase string

const (
	AwaitingPlayers Phase = "awaiting_players"
	InProgress      Phase = "in_progress"
	GameFinished    Phase = "finished"
)

// Pending is the sub-state while a game is in progress
type Pending string

const (
	AwaitingRoll Pending = "awaiting_roll"
	AwaitingMove Pending = "awaiting_move"
)

// CapturedPiece identifies a piece sent back to jail by a capture
type CapturedPiece struct {
	PlayerID uuid.UUID `json:"player_id"`
	Color    Color     `json:"color"`
	Piece    int       `json:"piece"`
	From     Location  `json:"from"`
}
