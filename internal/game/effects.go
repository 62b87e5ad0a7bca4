package game

import (
	"github.com/tcgworld/tcg-engine/internal/game/card"
)

// EffectScope is the slice of the engine an effect resolver may act on. It is
// only valid for the duration of the Resolve call.
type EffectScope interface {
	TurnNumber() int
	CurrentPlayer() int
	Opponents(playerID int) []int
	Health(playerID int) (int, bool)
	DamagePlayer(playerID, amount int) error
}

// EffectResolver runs after a card has been played and before win conditions
// are checked.
type EffectResolver interface {
	Resolve(scope EffectScope, played card.Card) error
}

// EffectResolverFunc adapts a function to EffectResolver.
type EffectResolverFunc func(scope EffectScope, played card.Card) error

// Resolve implements EffectResolver.
func (f EffectResolverFunc) Resolve(scope EffectScope, played card.Card) error {
	return f(scope, played)
}

// NoEffects resolves nothing.
type NoEffects struct{}

// Resolve implements EffectResolver.
func (NoEffects) Resolve(EffectScope, card.Card) error {
	return nil
}

// AttackDamage deals each creature's attack to the first opponent when it is
// played. Useful for headless simulations where games must finish.
type AttackDamage struct{}

// Resolve implements EffectResolver.
func (AttackDamage) Resolve(scope EffectScope, played card.Card) error {
	if played.Attack <= 0 {
		return nil
	}
	opponents := scope.Opponents(played.OwnerID)
	if len(opponents) == 0 {
		return nil
	}
	return scope.DamagePlayer(opponents[0], played.Attack)
}

// engineScope implements EffectScope over a locked engine.
type engineScope struct {
	e *TurnEngine
}

func (s engineScope) TurnNumber() int {
	return s.e.turns.TurnNumber()
}

func (s engineScope) CurrentPlayer() int {
	return s.e.currentPlayer().ID
}

func (s engineScope) Opponents(playerID int) []int {
	out := make([]int, 0, len(s.e.players)-1)
	for _, p := range s.e.players {
		if p.ID != playerID {
			out = append(out, p.ID)
		}
	}
	return out
}

func (s engineScope) Health(playerID int) (int, bool) {
	p, ok := s.e.player(playerID)
	if !ok {
		return 0, false
	}
	return p.Health, true
}

func (s engineScope) DamagePlayer(playerID, amount int) error {
	return s.e.damage(playerID, amount)
}
