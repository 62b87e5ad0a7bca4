package card

import (
	"math/rand/v2"
)

// PoolCopies is how many times each catalog entry is placed in the pool a
// random deck is drawn from.
const PoolCopies = 3

// DefaultDeckSize is the deck size used when none is configured.
const DefaultDeckSize = 30

// BuildRandomDeck draws deckSize cards for playerID from a pool holding
// PoolCopies of every catalog entry, uniformly and without replacement. If
// the pool runs out first the returned deck is shorter than deckSize. Card ids
// are player scoped (see ScopedID).
func BuildRandomDeck(c *Catalog, playerID, deckSize int, rng *rand.Rand) []*Card {
	if c.Len() == 0 || deckSize <= 0 {
		return nil
	}

	pool := make([]int, 0, c.Len()*PoolCopies)
	for i := range c.defs {
		for n := 0; n < PoolCopies; n++ {
			pool = append(pool, i)
		}
	}

	deck := make([]*Card, 0, min(deckSize, len(pool)))
	for len(deck) < deckSize && len(pool) > 0 {
		pick := rng.IntN(len(pool))
		def := c.defs[pool[pick]]
		last := len(pool) - 1
		pool[pick] = pool[last]
		pool = pool[:last]

		deck = append(deck, def.NewCard(playerID))
	}
	return deck
}
