package config

import (
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/game"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

// EngineOptions turns the game and rules sections into engine context
// options. A zero seed leaves the engine on a time-seeded source.
func (c *Config) EngineOptions(logger *zap.Logger) []game.ContextOption {
	opts := game.DefaultOptions()
	if c.Game.DeckSize > 0 {
		opts.DeckSize = c.Game.DeckSize
	}
	opts.MaxTurns = c.Game.MaxTurns
	opts.HumanSeats = append([]int(nil), c.Game.HumanSeats...)
	opts.RecordReplay = c.Game.RecordReplay
	if len(c.Rules.TypeTable) > 0 {
		opts.TypeTable = rules.TypeTable(c.Rules.TypeTable)
	}
	if len(c.Rules.FaceUp) > 0 {
		opts.FacePolicy = zone.FacePolicy{Overrides: c.Rules.FaceUp}
	}

	out := []game.ContextOption{
		game.WithLogger(logger),
		game.WithOptions(opts),
	}
	if c.Game.Seed != 0 {
		out = append(out, game.WithSeed(c.Game.Seed, c.Game.Seed>>1|1))
	}
	if c.Game.Strategy == "pass" {
		out = append(out, game.WithStrategy(game.PassStrategy{}))
	}
	if c.Game.Effects == "attack" {
		out = append(out, game.WithEffects(game.AttackDamage{}))
	}
	return out
}
