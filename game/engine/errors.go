package engine

import (
	"errors"
	"fmt"
)

var (
	ErrSessionFull     = errors.New("session is full")
	ErrAlreadyStarted  = errors.New("game has already started")
	ErrColorTaken      = errors.New("color already taken")
	ErrUnknownColor    = errors.New("unknown color")
	ErrDuplicatePlayer = errors.New("player already joined")
	ErrUnknownPlayer   = errors.New("player not in session")
	ErrNotEnoughPlayer = errors.New("not enough players to start")

	ErrNotStarted    = errors.New("game has not started")
	ErrGameOver      = errors.New("game is over")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrAlreadyRolled = errors.New("dice already rolled this turn, move a piece")
	ErrRollFirst     = errors.New("roll the dice first")
	ErrInvalidPiece  = errors.New("invalid piece index")
	ErrIllegalMove   = errors.New("piece cannot move with the current roll")
)

// RuleViolation is a rejected roll or move. Legal holds the pieces that
// can still be moved with the pending roll, so the client can retry
// without rolling again.
type RuleViolation struct {
	Err   error
	Piece int
	Legal []int
}

func (v *RuleViolation) Error() string {
	if v.Legal != nil {
		return fmt.Sprintf("%v (legal pieces: %v)", v.Err, v.Legal)
	}
	return v.Err.Error()
}

func (v *RuleViolation) Unwrap() error {
	return v.Err
}

// Retryable reports whether the same roll can still be used
func (v *RuleViolation) Retryable() bool {
	return len(v.Legal) > 0
}

func violation(err error, piece int, legal []int) *RuleViolation {
	return &RuleViolation{Err: err, Piece: piece, Legal: legal}
}
