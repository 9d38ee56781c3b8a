package protocol

import (
	"github.com/google/uuid"
	"github.com/wricardo/parchis/game/engine"
)

// Type is the tag of a message on the wire
type Type string

const (
	TypeJoin            Type = "join"
	TypeJoined          Type = "joined"
	TypePlayerJoined    Type = "player-joined"
	TypePlayerLeft      Type = "player-left"
	TypeGameStarted     Type = "game-started"
	TypeGameStopped     Type = "game-stopped"
	TypeRoll            Type = "roll"
	TypeDiceResult      Type = "dice-result"
	TypeLegalMoves      Type = "legal-moves"
	TypeMove            Type = "move"
	TypePlacementUpdate Type = "placement-update"
	TypeCaptureUpdate   Type = "capture-update"
	TypeTurnUpdate      Type = "turn-update"
	TypeInfo            Type = "info"
	TypeError           Type = "error"
	TypeVictory         Type = "victory"
	TypeTimeSyncRequest Type = "time-sync-request"
	TypeTimeSyncReply   Type = "time-sync-reply"
	TypeTimeSyncAdjust  Type = "time-sync-adjust"
	TypeLeave           Type = "leave"
)

// Message is any value that can travel inside an envelope
type Message interface {
	Type() Type
}

// PlayerInfo is the public view of a seated player
type PlayerInfo struct {
	Name  string       `json:"name"`
	Color engine.Color `json:"color"`
}

// Join asks for a seat. Color is an optional preference.
type Join struct {
	Name  string       `json:"name"`
	Color engine.Color `json:"color,omitempty"`
}

// Joined confirms a seat to the joining player
type Joined struct {
	PlayerID uuid.UUID    `json:"player_id"`
	Name     string       `json:"name"`
	Color    engine.Color `json:"color"`
	Players  []PlayerInfo `json:"players"`
	Max      int          `json:"max"`
}

type PlayerJoined struct {
	Name  string       `json:"name"`
	Color engine.Color `json:"color"`
	Count int          `json:"count"`
	Max   int          `json:"max"`
}

type PlayerLeft struct {
	Name   string       `json:"name"`
	Color  engine.Color `json:"color"`
	Count  int          `json:"count"`
	Reason string       `json:"reason,omitempty"`
}

// GameStarted announces the turn order
type GameStarted struct {
	Order []PlayerInfo `json:"order"`
	First engine.Color `json:"first"`
}

// GameStopped announces a halted game waiting for more players
type GameStopped struct {
	Reason  string `json:"reason"`
	Players int    `json:"players"`
	Min     int    `json:"min"`
}

// Roll asks to throw the dice
type Roll struct{}

type DiceResult struct {
	Color              engine.Color `json:"color"`
	Die1               int          `json:"die1"`
	Die2               int          `json:"die2"`
	Total              int          `json:"total"`
	Double             bool         `json:"double"`
	ConsecutiveDoubles int          `json:"consecutive_doubles"`
}

// LegalMoves lists the pieces the roller may move; sent to the roller only
type LegalMoves struct {
	Pieces    []int `json:"pieces"`
	Total     int   `json:"total"`
	CanReroll bool  `json:"can_reroll"`
}

// Move selects the piece to advance with the pending roll
type Move struct {
	Piece int `json:"piece"`
}

type PlacementUpdate struct {
	Color    engine.Color `json:"color"`
	Piece    int          `json:"piece"`
	From     Location     `json:"from"`
	To       Location     `json:"to"`
	Released bool         `json:"released,omitempty"`
	Finished bool         `json:"finished,omitempty"`
	// Penalty marks a piece jailed by the consecutive doubles rule
	Penalty bool `json:"penalty,omitempty"`
}

// CapturedPiece is one piece sent back to jail
type CapturedPiece struct {
	Color engine.Color `json:"color"`
	Piece int          `json:"piece"`
	From  Location     `json:"from"`
}

type CaptureUpdate struct {
	By       engine.Color    `json:"by"`
	Captured []CapturedPiece `json:"captured"`
}

// TurnUpdate names the player expected to roll. Prompt is personalized
// per recipient.
type TurnUpdate struct {
	Color  engine.Color `json:"color"`
	Name   string       `json:"name"`
	Seq    uint64       `json:"seq"`
	Reroll bool         `json:"reroll,omitempty"`
	Prompt string       `json:"prompt"`
}

type Info struct {
	Message string `json:"message"`
}

// Error reports a rejected request. Legal is set when the pending roll
// can still be used.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
	Legal   []int  `json:"legal,omitempty"`
}

type Victory struct {
	Color engine.Color `json:"color"`
	Name  string       `json:"name"`
}

// TimeSyncRequest polls a client's clock; times are unix milliseconds
type TimeSyncRequest struct {
	Round      uint64 `json:"round"`
	ServerTime int64  `json:"server_time"`
}

type TimeSyncReply struct {
	Round      uint64 `json:"round"`
	ClientTime int64  `json:"client_time"`
}

// TimeSyncAdjust tells a client how many milliseconds to add to its clock
type TimeSyncAdjust struct {
	Round  uint64 `json:"round"`
	Offset int64  `json:"offset"`
}

// Leave gives up the seat
type Leave struct{}

func (*Join) Type() Type            { return TypeJoin }
func (*Joined) Type() Type          { return TypeJoined }
func (*PlayerJoined) Type() Type    { return TypePlayerJoined }
func (*PlayerLeft) Type() Type      { return TypePlayerLeft }
func (*GameStarted) Type() Type     { return TypeGameStarted }
func (*GameStopped) Type() Type     { return TypeGameStopped }
func (*Roll) Type() Type            { return TypeRoll }
func (*DiceResult) Type() Type      { return TypeDiceResult }
func (*LegalMoves) Type() Type      { return TypeLegalMoves }
func (*Move) Type() Type            { return TypeMove }
func (*PlacementUpdate) Type() Type { return TypePlacementUpdate }
func (*CaptureUpdate) Type() Type   { return TypeCaptureUpdate }
func (*TurnUpdate) Type() Type      { return TypeTurnUpdate }
func (*Info) Type() Type            { return TypeInfo }
func (*Error) Type() Type           { return TypeError }
func (*Victory) Type() Type         { return TypeVictory }
func (*TimeSyncRequest) Type() Type { return TypeTimeSyncRequest }
func (*TimeSyncReply) Type() Type   { return TypeTimeSyncReply }
func (*TimeSyncAdjust) Type() Type  { return TypeTimeSyncAdjust }
func (*Leave) Type() Type           { return TypeLeave }

// newMessage allocates the concrete message for t
func newMessage(t Type) Message {
	switch t {
	case TypeJoin:
		return &Join{}
	case TypeJoined:
		return &Joined{}
	case TypePlayerJoined:
		return &PlayerJoined{}
	case TypePlayerLeft:
		return &PlayerLeft{}
	case TypeGameStarted:
		return &GameStarted{}
	case TypeGameStopped:
		return &GameStopped{}
	case TypeRoll:
		return &Roll{}
	case TypeDiceResult:
		return &DiceResult{}
	case TypeLegalMoves:
		return &LegalMoves{}
	case TypeMove:
		return &Move{}
	case TypePlacementUpdate:
		return &PlacementUpdate{}
	case TypeCaptureUpdate:
		return &CaptureUpdate{}
	case TypeTurnUpdate:
		return &TurnUpdate{}
	case TypeInfo:
		return &Info{}
	case TypeError:
		return &Error{}
	case TypeVictory:
		return &Victory{}
	case TypeTimeSyncRequest:
		return &TimeSyncRequest{}
	case TypeTimeSyncReply:
		return &TimeSyncReply{}
	case TypeTimeSyncAdjust:
		return &TimeSyncAdjust{}
	case TypeLeave:
		return &Leave{}
	}
	return nil
}
