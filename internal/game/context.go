package game

import (
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

// Options tunes a game beyond what the rules document declares.
type Options struct {
	// DeckSize is the number of cards dealt into each deck.
	DeckSize int
	// MaxTurns ends the game as a draw once exceeded. 0 means no limit.
	MaxTurns int
	// HumanSeats lists the seats driven by host calls. Every other seat is
	// played by the strategy.
	HumanSeats []int
	// TypeTable overrides entries of the default zone type table.
	TypeTable rules.TypeTable
	// FacePolicy overrides the default face-up state of zones.
	FacePolicy zone.FacePolicy
	// RecordReplay keeps a snapshot of every turn start.
	RecordReplay bool
}

// DefaultAITurnLimit caps games that have no human seat when no explicit
// limit is configured.
const DefaultAITurnLimit = 200

// DefaultOptions returns a single human at seat 1 with 30-card decks.
func DefaultOptions() Options {
	return Options{
		DeckSize:   card.DefaultDeckSize,
		HumanSeats: []int{1},
	}
}

func (o Options) hasHuman(playerCount int) bool {
	for seat := 1; seat <= playerCount; seat++ {
		if o.isHuman(seat) {
			return true
		}
	}
	return false
}

func (o Options) isHuman(seat int) bool {
	for _, s := range o.HumanSeats {
		if s == seat {
			return true
		}
	}
	return false
}

// EngineContext carries everything a game needs. Build one per game; nothing
// in it is process global.
type EngineContext struct {
	Rules     *rules.Document
	Catalog   *card.Catalog
	Validator *rules.Validator
	Rand      *rand.Rand
	Logger    *zap.Logger
	Events    *rules.EventBus
	Strategy  Strategy
	Effects   EffectResolver
	Options   Options
}

// ContextOption customises an EngineContext.
type ContextOption func(*EngineContext)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ContextOption {
	return func(c *EngineContext) { c.Logger = logger }
}

// WithRand sets the random source used for decks and shuffles. A *rand.Rand
// is not safe for concurrent use, so rng must not be shared between games.
func WithRand(rng *rand.Rand) ContextOption {
	return func(c *EngineContext) { c.Rand = rng }
}

// WithSeed gives every context it is applied to its own PCG source seeded
// with seed1 and seed2, so one option value can build many identical games.
func WithSeed(seed1, seed2 uint64) ContextOption {
	return func(c *EngineContext) { c.Rand = rand.New(rand.NewPCG(seed1, seed2)) }
}

// WithEventBus shares an existing event bus.
func WithEventBus(bus *rules.EventBus) ContextOption {
	return func(c *EngineContext) { c.Events = bus }
}

// WithStrategy sets the AI strategy.
func WithStrategy(s Strategy) ContextOption {
	return func(c *EngineContext) { c.Strategy = s }
}

// WithEffects sets the effect resolver.
func WithEffects(r EffectResolver) ContextOption {
	return func(c *EngineContext) { c.Effects = r }
}

// WithOptions replaces the game options.
func WithOptions(o Options) ContextOption {
	return func(c *EngineContext) { c.Options = o }
}

// NewEngineContext assembles a context for doc and catalog. Unset
// collaborators get defaults: a no-op logger, a fresh event bus, the greedy
// strategy, no effects and a time-seeded random source.
func NewEngineContext(doc *rules.Document, catalog *card.Catalog, opts ...ContextOption) (*EngineContext, error) {
	if doc == nil {
		return nil, errors.New("engine context: rules document is required")
	}
	if catalog == nil {
		return nil, errors.New("engine context: card catalog is required")
	}

	c := &EngineContext{
		Rules:   doc,
		Catalog: catalog,
		Options: DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Events == nil {
		c.Events = rules.NewEventBus()
	}
	if c.Strategy == nil {
		c.Strategy = GreedyStrategy{}
	}
	if c.Effects == nil {
		c.Effects = NoEffects{}
	}
	if c.Rand == nil {
		now := uint64(time.Now().UnixNano())
		c.Rand = rand.New(rand.NewPCG(now, now>>1|1))
	}
	if c.Options.DeckSize <= 0 {
		c.Options.DeckSize = card.DefaultDeckSize
	}
	if c.Options.MaxTurns < 0 {
		c.Options.MaxTurns = 0
	}
	if c.Options.MaxTurns == 0 && !c.Options.hasHuman(doc.GameInfo.PlayerCount) {
		c.Options.MaxTurns = DefaultAITurnLimit
	}
	c.Validator = rules.NewValidator(doc, rules.DefaultTypeTable().Merge(c.Options.TypeTable))
	return c, nil
}
