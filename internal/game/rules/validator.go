package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Card play rejections. Validator errors wrap exactly one of these.
var (
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrZoneFull              = errors.New("zone is full")
	ErrWrongOwner            = errors.New("zone belongs to another player")
	ErrIllegalCardType       = errors.New("card type not accepted by zone")
)

// PlayCandidate is the part of a card the validator looks at.
type PlayCandidate struct {
	ID       int
	Cost     int
	CardType string
	OwnerID  int
}

// ZoneTarget describes the destination zone of a play.
type ZoneTarget struct {
	Name        string
	OwnerID     int
	PerPlayer   bool
	Count       int
	MaxCapacity int
}

func (t ZoneTarget) full() bool {
	return t.MaxCapacity >= 0 && t.Count >= t.MaxCapacity
}

// PlayerStatus is the per-player input to win-condition evaluation.
type PlayerStatus struct {
	ID         int
	Health     int
	DeckCount  int
	FailedDraw bool
}

// TypeTable maps a zone name to the card types it accepts. Zones without an
// entry accept any card type. Zone names and types compare case-insensitively.
type TypeTable map[string][]string

// DefaultTypeTable returns the built-in zone legality table.
func DefaultTypeTable() TypeTable {
	return TypeTable{
		ZoneField: {"Creature", "Structure"},
	}
}

// Merge returns a copy of t with every entry of override applied on top.
func (t TypeTable) Merge(override TypeTable) TypeTable {
	out := make(TypeTable, len(t)+len(override))
	for zone, types := range t {
		out[zone] = append([]string(nil), types...)
	}
	for zone, types := range override {
		for existing := range out {
			if strings.EqualFold(existing, zone) {
				delete(out, existing)
			}
		}
		out[zone] = append([]string(nil), types...)
	}
	return out
}

// Validator answers legality questions against a rules document. It holds no
// game state.
type Validator struct {
	doc   *Document
	types map[string]map[string]struct{}
}

// NewValidator creates a validator. A nil table means DefaultTypeTable.
func NewValidator(doc *Document, table TypeTable) *Validator {
	if table == nil {
		table = DefaultTypeTable()
	}
	types := make(map[string]map[string]struct{}, len(table))
	for zone, accepted := range table {
		if len(accepted) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(accepted))
		for _, t := range accepted {
			set[strings.ToLower(t)] = struct{}{}
		}
		types[strings.ToLower(zone)] = set
	}
	return &Validator{doc: doc, types: types}
}

// Document returns the rules document the validator was built from.
func (v *Validator) Document() *Document {
	return v.doc
}

// IsActionAllowed reports whether action is legal in the named phase.
// Unknown phases allow nothing.
func (v *Validator) IsActionAllowed(action, phase string) bool {
	if v == nil || v.doc == nil {
		return false
	}
	p, ok := v.doc.Phase(phase)
	if !ok {
		return false
	}
	return p.Allows(action)
}

// AcceptsType reports whether the zone's legality table admits cardType.
func (v *Validator) AcceptsType(zoneName, cardType string) bool {
	set, ok := v.types[strings.ToLower(zoneName)]
	if !ok {
		return true
	}
	_, ok = set[strings.ToLower(cardType)]
	return ok
}

// ValidateCardPlay checks whether card may be played into target by a player
// holding resources.
func (v *Validator) ValidateCardPlay(card PlayCandidate, target ZoneTarget, resources int) error {
	if card.Cost > resources {
		return fmt.Errorf("card %d costs %d, player has %d: %w", card.ID, card.Cost, resources, ErrInsufficientResources)
	}
	if target.full() {
		return fmt.Errorf("zone %s holds %d/%d cards: %w", target.Name, target.Count, target.MaxCapacity, ErrZoneFull)
	}
	if target.PerPlayer && target.OwnerID != card.OwnerID {
		return fmt.Errorf("card %d owned by player %d, zone %s owned by player %d: %w",
			card.ID, card.OwnerID, target.Name, target.OwnerID, ErrWrongOwner)
	}
	if !v.AcceptsType(target.Name, card.CardType) {
		return fmt.Errorf("zone %s does not accept %q cards: %w", target.Name, card.CardType, ErrIllegalCardType)
	}
	return nil
}

// CheckWinConditions evaluates win conditions in document order and returns
// the surviving player of the first one that triggers. When that condition
// eliminates every player the game is a draw: winner 0 with ok true.
func (v *Validator) CheckWinConditions(players []PlayerStatus) (winner int, ok bool) {
	if v == nil || v.doc == nil {
		return 0, false
	}
	for _, wc := range v.doc.WinConditions {
		var lost func(PlayerStatus) bool
		switch wc.Type {
		case WinHealthReduction:
			threshold := wc.Threshold
			lost = func(p PlayerStatus) bool { return p.Health <= threshold }
		case WinDeckDepletion:
			lost = func(p PlayerStatus) bool { return p.FailedDraw && p.DeckCount == 0 }
		default:
			continue
		}
		if id, found := survivor(players, lost); found {
			return id, true
		}
	}
	return 0, false
}

// survivor returns the first player in seat order who has not lost, provided
// at least one player has. If all of them lost it returns 0.
func survivor(players []PlayerStatus, lost func(PlayerStatus) bool) (int, bool) {
	anyLost := false
	for _, p := range players {
		if lost(p) {
			anyLost = true
			break
		}
	}
	if !anyLost {
		return 0, false
	}
	for _, p := range players {
		if !lost(p) {
			return p.ID, true
		}
	}
	return 0, true
}
