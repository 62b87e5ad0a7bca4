package server

import (
	"errors"

	"github.com/tcgworld/tcg-engine/internal/game"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

// Client message types.
const (
	TypeCreateGame   = "create_game"
	TypeJoinGame     = "join_game"
	TypePlayCard     = "play_card"
	TypeAdvancePhase = "advance_phase"
	TypeEndTurn      = "end_turn"
	TypeShuffleZone  = "shuffle_zone"
	TypeApplyDamage  = "apply_damage"
	TypeSnapshot     = "snapshot"
)

// Server envelope types.
const (
	EnvelopeEvent    = "event"
	EnvelopeResult   = "result"
	EnvelopeSnapshot = "snapshot"
	EnvelopeError    = "error"
)

// Error codes that are not engine errors.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnknownMessage  = "UNKNOWN_MESSAGE"
	CodeGameNotFound    = "GAME_NOT_FOUND"
	CodeNoGame          = "NO_GAME"
	CodeInternal        = "INTERNAL"
	CodeSeatTaken       = "SEAT_TAKEN"
	CodeSeatUnavailable = "SEAT_UNAVAILABLE"
	CodeNotSeated       = "NOT_SEATED"
	CodeSeatMismatch    = "SEAT_MISMATCH"
)

// Message is a request from a client.
type Message struct {
	Type     string `json:"type"`
	GameID   string `json:"game_id,omitempty"`
	PlayerID int    `json:"player_id,omitempty"`
	CardID   int    `json:"card_id,omitempty"`
	Zone     string `json:"zone,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// Envelope is everything the server sends: pushed events, call results,
// snapshots and errors.
type Envelope struct {
	Type     string         `json:"type"`
	Request  string         `json:"request,omitempty"`
	GameID   string         `json:"game_id,omitempty"`
	Event    *rules.Event   `json:"event,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
	Code     string         `json:"code,omitempty"`
}

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrGameAlreadyEnded, "GAME_ALREADY_ENDED"},
	{game.ErrNotStarted, "NOT_STARTED"},
	{game.ErrAlreadyStarted, "ALREADY_STARTED"},
	{game.ErrNotCurrentPlayer, "NOT_CURRENT_PLAYER"},
	{game.ErrUnknownPlayer, "UNKNOWN_PLAYER"},
	{game.ErrUnknownZone, "UNKNOWN_ZONE"},
	{game.ErrNoNextPhase, "NO_NEXT_PHASE"},
	{game.ErrWrongPhase, "WRONG_PHASE"},
	{game.ErrNotInHand, "NOT_IN_HAND"},
	{game.ErrInsufficientResources, "INSUFFICIENT_RESOURCES"},
	{game.ErrZoneFull, "ZONE_FULL"},
	{game.ErrWrongOwner, "WRONG_OWNER"},
	{game.ErrIllegalCardType, "ILLEGAL_CARD_TYPE"},
	{zone.ErrNotOrderable, "NOT_ORDERABLE"},
}

// ErrorCode maps an engine error to a stable wire code.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// seatCode maps seat errors to their codes and everything else to fallback.
func seatCode(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrSeatTaken):
		return CodeSeatTaken
	case errors.Is(err, ErrSeatUnavailable):
		return CodeSeatUnavailable
	}
	return fallback
}

func errorEnvelope(request, gameID, code string, err error) Envelope {
	return Envelope{
		Type:    EnvelopeError,
		Request: request,
		GameID:  gameID,
		Error:   err.Error(),
		Code:    code,
	}
}
