package rules

import (
	"encoding/json"
	"fmt"
)

// Action tags understood by the engine. Documents may declare others; they are
// carried through and answered by IsActionAllowed like any other tag.
const (
	ActionPlayCard = "playCard"
	ActionDrawCard = "drawCard"
	ActionAttack   = "attack"
	ActionEndTurn  = "endTurn"
)

// Zone names the engine addresses directly.
const (
	ZoneDeck    = "Deck"
	ZoneHand    = "Hand"
	ZoneField   = "Field"
	ZoneDiscard = "Discard"
)

// requiredZones must be declared by every document.
var requiredZones = []string{ZoneDeck, ZoneHand, ZoneField}

// WinConditionType tags a win condition variant.
type WinConditionType string

const (
	WinHealthReduction WinConditionType = "healthReduction"
	WinDeckDepletion   WinConditionType = "deckDepletion"
)

func (t WinConditionType) String() string {
	switch t {
	case WinHealthReduction:
		return "HEALTH_REDUCTION"
	case WinDeckDepletion:
		return "DECK_DEPLETION"
	default:
		return fmt.Sprintf("WIN_CONDITION(%s)", string(t))
	}
}

// GameInfo holds the top-level game parameters.
type GameInfo struct {
	PlayerCount         int
	InitialPlayerHealth int
	Name                string
	Description         string
}

// ZoneDef declares a zone. Layout is view data the core never interprets.
type ZoneDef struct {
	Name      string
	PerPlayer bool
	IsPublic  bool
	IsOrdered bool
	MaxCards  int
	Layout    json.RawMessage
}

// PhaseDef is a named turn phase and the action tags legal during it.
type PhaseDef struct {
	Name           string
	AllowedActions []string
	allowed        map[string]struct{}
}

// NewPhaseDef builds a phase definition with its action lookup set.
func NewPhaseDef(name string, actions ...string) PhaseDef {
	p := PhaseDef{
		Name:           name,
		AllowedActions: append([]string(nil), actions...),
		allowed:        make(map[string]struct{}, len(actions)),
	}
	for _, a := range actions {
		p.allowed[a] = struct{}{}
	}
	return p
}

// Allows reports whether the action tag is legal in this phase.
func (p PhaseDef) Allows(action string) bool {
	if p.allowed == nil {
		for _, a := range p.AllowedActions {
			if a == action {
				return true
			}
		}
		return false
	}
	_, ok := p.allowed[action]
	return ok
}

// ResourceSystem configures the per-player resource economy.
type ResourceSystem struct {
	StartingAmount int
	MaxAmount      int
	GainPerTurn    int
}

// TurnStructure describes phases, resources and draw counts.
type TurnStructure struct {
	Phases           []PhaseDef
	ResourceSystem   ResourceSystem
	FirstPlayerDraws int
	NormalDrawCount  int
}

// WinCondition is one entry of the ordered win-condition list. Threshold is
// only meaningful for WinHealthReduction.
type WinCondition struct {
	Type      WinConditionType
	Threshold int
}

// Document is the validated, typed form of a rules document.
type Document struct {
	GameInfo       GameInfo
	Zones          []ZoneDef
	TurnStructure  TurnStructure
	WinConditions  []WinCondition
	CardProperties json.RawMessage
}

// Zone returns the zone definition with the given name.
func (d *Document) Zone(name string) (ZoneDef, bool) {
	for _, z := range d.Zones {
		if z.Name == name {
			return z, true
		}
	}
	return ZoneDef{}, false
}

// Phase returns the phase definition with the given name.
func (d *Document) Phase(name string) (PhaseDef, bool) {
	for _, p := range d.TurnStructure.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseDef{}, false
}

// PhaseNames returns the phase names in document order.
func (d *Document) PhaseNames() []string {
	names := make([]string, len(d.TurnStructure.Phases))
	for i, p := range d.TurnStructure.Phases {
		names[i] = p.Name
	}
	return names
}
