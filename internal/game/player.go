package game

import (
	"fmt"

	"github.com/tcgworld/tcg-engine/internal/game/resource"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

// Player is a seat at the table. Seats are numbered from 1.
type Player struct {
	ID     int
	Name   string
	IsAI   bool
	Health int

	resources  *resource.Pool
	failedDraw bool
}

func newPlayer(seat int, human bool, health int, system rules.ResourceSystem) *Player {
	name := "Player"
	if seat > 1 {
		name = fmt.Sprintf("Opponent %d", seat-1)
	}
	return &Player{
		ID:        seat,
		Name:      name,
		IsAI:      !human,
		Health:    health,
		resources: resource.NewPool(system),
	}
}

// CurrentResources returns the spendable resources left this turn.
func (p *Player) CurrentResources() int {
	return p.resources.Current()
}

// MaxResources returns this turn's resource maximum.
func (p *Player) MaxResources() int {
	return p.resources.Max()
}

// PlayerView is a read-only copy of a player.
type PlayerView struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	IsAI             bool   `json:"isAi"`
	Health           int    `json:"health"`
	CurrentResources int    `json:"currentResources"`
	MaxResources     int    `json:"maxResources"`
	DeckCount        int    `json:"deckCount"`
	HandCount        int    `json:"handCount"`
}
