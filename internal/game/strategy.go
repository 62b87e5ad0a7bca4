package game

import (
	"sort"

	"github.com/tcgworld/tcg-engine/internal/game/card"
)

// Move is one card play chosen by a strategy.
type Move struct {
	CardID int
	Zone   string
}

// TurnView is what a strategy sees when planning a phase.
type TurnView struct {
	PlayerID   int
	TurnNumber int
	Phase      string
	Resources  int
	Hand       []card.Card
	// FieldZone is the registry key of the player's own field.
	FieldZone string
}

// Strategy picks card plays for AI seats. The engine tries the moves in order
// and skips any it rejects, re-checking affordability as resources are spent.
type Strategy interface {
	Name() string
	Plan(view TurnView) []Move
}

// GreedyStrategy plays the most expensive affordable cards first, ties broken
// by catalog id.
type GreedyStrategy struct{}

// Name implements Strategy.
func (GreedyStrategy) Name() string {
	return "greedy"
}

// Plan implements Strategy.
func (GreedyStrategy) Plan(view TurnView) []Move {
	playable := make([]card.Card, 0, len(view.Hand))
	for _, c := range view.Hand {
		if c.Cost <= view.Resources {
			playable = append(playable, c)
		}
	}
	sort.SliceStable(playable, func(i, j int) bool {
		if playable[i].Cost != playable[j].Cost {
			return playable[i].Cost > playable[j].Cost
		}
		return playable[i].CatalogID < playable[j].CatalogID
	})

	moves := make([]Move, len(playable))
	for i, c := range playable {
		moves[i] = Move{CardID: c.ID, Zone: view.FieldZone}
	}
	return moves
}

// PassStrategy never plays anything.
type PassStrategy struct{}

// Name implements Strategy.
func (PassStrategy) Name() string {
	return "pass"
}

// Plan implements Strategy.
func (PassStrategy) Plan(TurnView) []Move {
	return nil
}
