package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

// ErrInsufficient is returned when a spend exceeds the current amount.
var ErrInsufficient = errors.New("insufficient resources")

// Pool is a player's per-turn spendable resources.
// Invariant: 0 <= Current <= Max <= cap.
type Pool struct {
	mu sync.RWMutex

	current int
	max     int
	cap     int
	turns   int
}

// NewPool creates an empty pool bounded by the system's max amount.
func NewPool(system rules.ResourceSystem) *Pool {
	return &Pool{cap: max(system.MaxAmount, 0)}
}

// Refresh grows the maximum and refills the pool at the start of a turn. The
// first refresh sets the maximum to the starting amount, later ones add
// GainPerTurn. The maximum never exceeds the system cap.
func (p *Pool) Refresh(system rules.ResourceSystem) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cap = max(system.MaxAmount, 0)
	if p.turns == 0 {
		p.max = system.StartingAmount
	} else {
		p.max += system.GainPerTurn
	}
	p.max = min(max(p.max, 0), p.cap)
	p.current = p.max
	p.turns++
	return p.current
}

// Spend deducts amount from the current resources.
func (p *Pool) Spend(amount int) error {
	if amount <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount > p.current {
		return fmt.Errorf("spend %d of %d: %w", amount, p.current, ErrInsufficient)
	}
	p.current -= amount
	return nil
}

// Current returns the spendable amount.
func (p *Pool) Current() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Max returns this turn's maximum.
func (p *Pool) Max() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.max
}
