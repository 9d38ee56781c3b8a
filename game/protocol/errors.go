package protocol

import (
	"errors"

	"github.com/wricardo/parchis/game/engine"
)

// Error codes carried by error messages
const (
	CodeProtocol      = "protocol"
	CodeRateLimited   = "rate_limited"
	CodeNotJoined     = "not_joined"
	CodeAlreadyJoined = "already_joined"
	CodeSessionFull   = "session_full"
	CodeGameStarted   = "game_started"
	CodeColorTaken    = "color_taken"
	CodeNotStarted    = "not_started"
	CodeNotYourTurn   = "not_your_turn"
	CodeAlreadyRolled = "already_rolled"
	CodeRollFirst     = "roll_first"
	CodeIllegalMove   = "illegal_move"
	CodeInvalidPiece  = "invalid_piece"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrMalformed, CodeProtocol},
	{ErrUnknownType, CodeProtocol},
	{ErrFrameTooLarge, CodeProtocol},
	{engine.ErrSessionFull, CodeSessionFull},
	{engine.ErrAlreadyStarted, CodeGameStarted},
	{engine.ErrColorTaken, CodeColorTaken},
	{engine.ErrUnknownColor, CodeProtocol},
	{engine.ErrDuplicatePlayer, CodeAlreadyJoined},
	{engine.ErrUnknownPlayer, CodeNotJoined},
	{engine.ErrNotStarted, CodeNotStarted},
	{engine.ErrGameOver, CodeNotStarted},
	{engine.ErrNotYourTurn, CodeNotYourTurn},
	{engine.ErrAlreadyRolled, CodeAlreadyRolled},
	{engine.ErrRollFirst, CodeRollFirst},
	{engine.ErrIllegalMove, CodeIllegalMove},
	{engine.ErrInvalidPiece, CodeInvalidPiece},
}

// CodeOf maps an error to its wire code. Unrecognized errors map to
// CodeProtocol.
func CodeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeProtocol
}

// NewError builds the error reply for err, attaching the legal set of a
// rule violation
func NewError(err error) *Error {
	out := &Error{Code: CodeOf(err), Message: err.Error()}
	var v *engine.RuleViolation
	if errors.As(err, &v) && v.Retryable() {
		out.Retry = true
		out.Legal = v.Legal
	}
	return out
}

// ErrorWithCode builds an error reply with an explicit code
func ErrorWithCode(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
