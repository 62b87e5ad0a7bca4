package game

import (
	"errors"
	"fmt"

	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

// Play rejection kinds. The first four are the validator's sentinels so either
// package's name matches with errors.Is.
var (
	ErrInsufficientResources = rules.ErrInsufficientResources
	ErrZoneFull              = rules.ErrZoneFull
	ErrWrongOwner            = rules.ErrWrongOwner
	ErrIllegalCardType       = rules.ErrIllegalCardType
	ErrWrongPhase            = errors.New("action not allowed in current phase")
	ErrNotInHand             = errors.New("card not in hand")
)

// Engine rejection kinds.
var (
	ErrGameAlreadyEnded = errors.New("game already ended")
	ErrNotCurrentPlayer = errors.New("not the current player")
	ErrNotStarted       = errors.New("game not started")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNoNextPhase      = errors.New("no next phase")
	ErrUnknownZone      = errors.New("unknown zone")
	ErrUnknownPlayer    = errors.New("unknown player")
)

// PlayError is a rejected card play. The engine state is unchanged when one
// is returned.
type PlayError struct {
	Kind     error
	PlayerID int
	CardID   int
	Zone     string
	Err      error
}

func (e *PlayError) Error() string {
	cause := e.Kind
	if e.Err != nil {
		cause = e.Err
	}
	return fmt.Sprintf("player %d cannot play card %d to %s: %v", e.PlayerID, e.CardID, e.Zone, cause)
}

func (e *PlayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// EngineError is a call the engine refuses in its current state.
type EngineError struct {
	Kind     error
	Op       string
	PlayerID int
	Detail   string
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.PlayerID != 0 {
		msg = fmt.Sprintf("%s (player %d)", msg, e.PlayerID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Kind
}

func engineErr(op string, kind error, playerID int, detail string) error {
	return &EngineError{Kind: kind, Op: op, PlayerID: playerID, Detail: detail}
}
