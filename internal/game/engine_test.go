package game

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

const testRules = `{
  "gameInfo": {"playerCount": 2, "initialPlayerHealth": 20, "name": "Skirmish"},
  "zones": [
    {"name": "Deck", "perPlayer": true, "isPublic": false, "isOrdered": true, "maxCards": -1},
    {"name": "Hand", "perPlayer": true, "isPublic": false, "isOrdered": true, "maxCards": 7},
    {"name": "Field", "perPlayer": true, "isPublic": true, "isOrdered": false, "maxCards": 5},
    {"name": "Discard", "perPlayer": true, "isPublic": true, "isOrdered": true, "maxCards": -1}
  ],
  "turnStructure": {
    "phases": [
      {"name": "Draw", "allowedActions": ["drawCard"]},
      {"name": "Main", "allowedActions": ["playCard"]},
      {"name": "End", "allowedActions": ["endTurn"]}
    ],
    "resourceSystem": {"startingAmount": 1, "maxAmount": 10, "gainPerTurn": 1},
    "firstPlayerDraws": 3,
    "normalDrawCount": 1
  },
  "winConditions": [
    {"type": "healthReduction", "threshold": 0},
    {"type": "deckDepletion"}
  ]
}`

func testDoc(t *testing.T, mutate ...func(*rules.Document)) *rules.Document {
	t.Helper()
	doc, err := rules.ParseDocument(strings.NewReader(testRules))
	require.NoError(t, err)
	for _, m := range mutate {
		m(doc)
	}
	return doc
}

func setZoneCap(name string, maxCards int) func(*rules.Document) {
	return func(doc *rules.Document) {
		for i := range doc.Zones {
			if doc.Zones[i].Name == name {
				doc.Zones[i].MaxCards = maxCards
			}
		}
	}
}

// creatureCatalog holds n creatures that all cost cost.
func creatureCatalog(t *testing.T, n, cost int) *card.Catalog {
	t.Helper()
	defs := make([]card.Definition, n)
	for i := range defs {
		defs[i] = card.Definition{ID: i + 1, Name: fmt.Sprintf("Creature %d", i+1), Type: "Creature", Cost: cost, Attack: 2, Health: 2}
	}
	c, err := card.NewCatalog(defs)
	require.NoError(t, err)
	return c
}

func mixedCatalog(t *testing.T) *card.Catalog {
	t.Helper()
	defs := make([]card.Definition, 0, 14)
	for i := 1; i <= 12; i++ {
		defs = append(defs, card.Definition{ID: i, Name: fmt.Sprintf("Creature %d", i), Type: "Creature", Cost: i%4 + 1, Attack: i%3 + 1, Health: 2})
	}
	defs = append(defs,
		card.Definition{ID: 13, Name: "Bolt", Type: "Spell", Cost: 1},
		card.Definition{ID: 14, Name: "Tower", Type: "Structure", Cost: 2, Health: 6},
	)
	c, err := card.NewCatalog(defs)
	require.NoError(t, err)
	return c
}

type recorder struct {
	events []rules.Event
}

func record(e *TurnEngine) *recorder {
	r := &recorder{}
	e.Events().Subscribe(func(ev rules.Event) {
		r.events = append(r.events, ev)
	})
	return r
}

func (r *recorder) ofType(t rules.EventType) []rules.Event {
	var out []rules.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.events = nil
}

func newTestEngine(t *testing.T, doc *rules.Document, catalog *card.Catalog, opts Options, extra ...ContextOption) *TurnEngine {
	t.Helper()
	all := append([]ContextOption{WithLogger(zap.NewNop()), WithSeed(42, 7), WithOptions(opts)}, extra...)
	ctx, err := NewEngineContext(doc, catalog, all...)
	require.NoError(t, err)
	return NewTurnEngine(ctx)
}

func humans(seats ...int) Options {
	o := DefaultOptions()
	o.HumanSeats = seats
	return o
}

// give puts a fresh card from def into the player's hand without publishing
// the zone change.
func give(t *testing.T, e *TurnEngine, playerID int, def card.Definition) *card.Card {
	t.Helper()
	hand, ok := e.zones.ForPlayer(rules.ZoneHand, playerID)
	require.True(t, ok)
	c := def.NewCard(playerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	require.NoError(t, hand.Add(c, nil))
	e.pending = nil
	return c
}

func zoneIDs(t *testing.T, e *TurnEngine, key string) []int {
	t.Helper()
	v, ok := e.Zone(key, 0)
	require.True(t, ok, "zone %s", key)
	out := make([]int, len(v.Cards))
	for i, c := range v.Cards {
		out[i] = c.ID
	}
	return out
}

func TestOpeningTurn(t *testing.T) {
	doc := testDoc(t)
	e := newTestEngine(t, doc, mixedCatalog(t), humans(1))
	require.NoError(t, e.Start())

	assert.Equal(t, StatusRunning, e.Status())
	assert.Equal(t, 1, e.TurnNumber())
	assert.Equal(t, 1, e.CurrentPlayerID())
	assert.Equal(t, "Draw", e.CurrentPhase())

	p1, ok := e.Player(1)
	require.True(t, ok)
	draws := doc.TurnStructure.FirstPlayerDraws + doc.TurnStructure.NormalDrawCount
	assert.Equal(t, 1, p1.CurrentResources)
	assert.Equal(t, draws, p1.HandCount)
	assert.Equal(t, 30-draws, p1.DeckCount)
	assert.False(t, p1.IsAI)

	p2, ok := e.Player(2)
	require.True(t, ok)
	assert.Equal(t, doc.TurnStructure.FirstPlayerDraws+1, p2.HandCount)
	assert.Equal(t, 30-p2.HandCount, p2.DeckCount)
	assert.True(t, p2.IsAI)
	assert.Equal(t, "Opponent 1", p2.Name)

	hand1, _ := e.Zone("Hand_1", 0)
	for _, c := range hand1.Cards {
		assert.True(t, c.FaceUp, "human hand is face up")
		assert.Equal(t, 1, card.DecodeOwner(c.ID))
	}
	hand2, _ := e.Zone("Hand_2", 0)
	for _, c := range hand2.Cards {
		assert.False(t, c.FaceUp, "ai hand is face down")
	}
}

func TestStartTwice(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1))
	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.Start(), ErrAlreadyStarted)
}

func TestCallsBeforeStart(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1))

	assert.ErrorIs(t, e.PlayCard(1, 1001, "Field"), ErrNotStarted)
	assert.ErrorIs(t, e.AdvancePhase(1), ErrNotStarted)
	assert.ErrorIs(t, e.EndTurn(1), ErrNotStarted)
	assert.ErrorIs(t, e.ShuffleZone(1, "Deck"), ErrNotStarted)
	assert.Equal(t, StatusNotStarted, e.Status())
	assert.Equal(t, 0, e.CurrentPlayerID())
}

func TestRoundRobin(t *testing.T) {
	for _, players := range []int{2, 3, 4} {
		t.Run(fmt.Sprintf("%d players", players), func(t *testing.T) {
			doc := testDoc(t, func(d *rules.Document) { d.GameInfo.PlayerCount = players })
			seats := make([]int, players)
			for i := range seats {
				seats[i] = i + 1
			}
			e := newTestEngine(t, doc, mixedCatalog(t), humans(seats...))
			require.NoError(t, e.Start())

			for round := 0; round < 3; round++ {
				startSeat := e.CurrentPlayerID()
				startTurn := e.TurnNumber()
				for i := 0; i < players; i++ {
					require.NoError(t, e.EndTurn(e.CurrentPlayerID()))
				}
				assert.Equal(t, startSeat, e.CurrentPlayerID())
				assert.Equal(t, startTurn+1, e.TurnNumber())
			}
		})
	}
}

func TestEndTurnNotCurrentPlayer(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	err := e.EndTurn(2)
	assert.ErrorIs(t, err, ErrNotCurrentPlayer)
	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, 2, engErr.PlayerID)

	assert.ErrorIs(t, e.EndTurn(9), ErrUnknownPlayer)
	assert.Equal(t, 1, e.CurrentPlayerID())
}

func TestResourceInvariantAfterEveryTurn(t *testing.T) {
	doc := testDoc(t)
	opts := humans()
	opts.MaxTurns = 15
	opts.RecordReplay = true
	e := newTestEngine(t, doc, mixedCatalog(t), opts)
	r := record(e)
	require.NoError(t, e.Start())

	maxAmount := doc.TurnStructure.ResourceSystem.MaxAmount
	refreshes := r.ofType(rules.EventResourcesRefreshed)
	require.NotEmpty(t, refreshes)
	for _, ev := range refreshes {
		assert.LessOrEqual(t, ev.Amount, maxAmount)
		assert.GreaterOrEqual(t, ev.Amount, 0)
	}

	replay := e.Replay()
	require.NotNil(t, replay)
	require.Equal(t, len(refreshes), replay.Size())
	for i := 0; i < replay.Size(); i++ {
		s, ok := replay.StateAt(i)
		require.True(t, ok)
		for _, p := range s.Players {
			assert.LessOrEqual(t, 0, p.CurrentResources)
			assert.LessOrEqual(t, p.CurrentResources, p.MaxResources)
			assert.LessOrEqual(t, p.MaxResources, maxAmount)
		}
	}
}

func TestResourceGrowthPerTurn(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	var got []int
	for turn := 0; turn < 12; turn++ {
		p, _ := e.Player(1)
		got = append(got, p.MaxResources)
		require.NoError(t, e.EndTurn(1))
		require.NoError(t, e.EndTurn(2))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 10}, got)
}

func TestPlayCard(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())
	c := give(t, e, 1, card.Definition{ID: 50, Name: "Squire", Type: "Creature", Cost: 1, Attack: 1, Health: 1})
	require.NoError(t, e.AdvancePhase(1))
	assert.Equal(t, "Main", e.CurrentPhase())

	r := record(e)
	require.NoError(t, e.PlayCard(1, c.ID, "Field"))

	assert.Equal(t, []int{c.ID}, zoneIDs(t, e, "Field_1"))
	assert.NotContains(t, zoneIDs(t, e, "Hand_1"), c.ID)
	p, _ := e.Player(1)
	assert.Equal(t, 0, p.CurrentResources)

	moved := r.ofType(rules.EventCardMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, "Hand_1", moved[0].FromZone)
	assert.Equal(t, "Field_1", moved[0].ToZone)
	assert.Equal(t, c.ID, moved[0].CardID)

	changed := r.ofType(rules.EventZoneChanged)
	names := make([]string, len(changed))
	for i, ev := range changed {
		names[i] = ev.ZoneName
	}
	assert.Equal(t, []string{"Hand_1", "Field_1"}, names)

	played := r.ofType(rules.EventCardPlayed)
	require.Len(t, played, 1)
	assert.Equal(t, 1, played[0].Amount)

	field, _ := e.Zone("Field", 1)
	assert.True(t, field.Cards[0].FaceUp)
	assert.Equal(t, 1, field.Cards[0].OwnerID)

	for i := 1; i < len(r.events); i++ {
		assert.Equal(t, r.events[i-1].Sequence+1, r.events[i].Sequence)
	}
}

func TestPlayCardRejectionsAreAtomic(t *testing.T) {
	rich := func(d *rules.Document) { d.TurnStructure.ResourceSystem.StartingAmount = 5 }

	tests := []struct {
		name    string
		mutate  []func(*rules.Document)
		setup   func(t *testing.T, e *TurnEngine) (cardID int, zoneName string)
		kind    error
		advance bool
	}{
		{
			name: "wrong phase",
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return give(t, e, 1, card.Definition{ID: 50, Name: "A", Type: "Creature", Cost: 1}).ID, "Field"
			},
			kind: ErrWrongPhase,
		},
		{
			name: "not in hand",
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return 1999, "Field"
			},
			kind:    ErrNotInHand,
			advance: true,
		},
		{
			name: "other player's card",
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return give(t, e, 2, card.Definition{ID: 51, Name: "B", Type: "Creature", Cost: 1}).ID, "Field"
			},
			kind:    ErrNotInHand,
			advance: true,
		},
		{
			name: "insufficient resources",
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return give(t, e, 1, card.Definition{ID: 52, Name: "C", Type: "Creature", Cost: 2}).ID, "Field"
			},
			kind:    ErrInsufficientResources,
			advance: true,
		},
		{
			name:   "zone full",
			mutate: []func(*rules.Document){rich, setZoneCap("Field", 0)},
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return give(t, e, 1, card.Definition{ID: 53, Name: "D", Type: "Creature", Cost: 1}).ID, "Field"
			},
			kind:    ErrZoneFull,
			advance: true,
		},
		{
			name:   "wrong owner",
			mutate: []func(*rules.Document){rich},
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return give(t, e, 1, card.Definition{ID: 54, Name: "E", Type: "Creature", Cost: 1}).ID, "Field_2"
			},
			kind:    ErrWrongOwner,
			advance: true,
		},
		{
			name:   "illegal card type",
			mutate: []func(*rules.Document){rich},
			setup: func(t *testing.T, e *TurnEngine) (int, string) {
				return give(t, e, 1, card.Definition{ID: 55, Name: "F", Type: "Spell", Cost: 1}).ID, "Field"
			},
			kind:    ErrIllegalCardType,
			advance: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, testDoc(t, tt.mutate...), mixedCatalog(t), humans(1, 2))
			require.NoError(t, e.Start())
			if tt.advance {
				require.NoError(t, e.AdvancePhase(1))
			}
			cardID, zoneName := tt.setup(t, e)

			before := e.Snapshot()
			r := record(e)

			err := e.PlayCard(1, cardID, zoneName)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			var playErr *PlayError
			require.ErrorAs(t, err, &playErr)
			assert.Equal(t, 1, playErr.PlayerID)

			after := e.Snapshot()
			assert.Equal(t, before.Checksum(), after.Checksum(), "a rejected play must not change state")
			assert.Empty(t, r.events)
		})
	}
}

func TestPlayCardUnknownZone(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())
	require.NoError(t, e.AdvancePhase(1))
	c := give(t, e, 1, card.Definition{ID: 50, Name: "A", Type: "Creature", Cost: 1})

	assert.ErrorIs(t, e.PlayCard(1, c.ID, "Graveyard"), ErrUnknownZone)
	assert.Contains(t, zoneIDs(t, e, "Hand_1"), c.ID)
}

func TestPlayCardNotCurrentPlayer(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())
	c := give(t, e, 2, card.Definition{ID: 50, Name: "A", Type: "Creature", Cost: 1})

	assert.ErrorIs(t, e.PlayCard(2, c.ID, "Field"), ErrNotCurrentPlayer)
}

func TestTypeTableOverride(t *testing.T) {
	opts := humans(1, 2)
	opts.TypeTable = rules.TypeTable{rules.ZoneField: nil}
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), opts)
	require.NoError(t, e.Start())
	require.NoError(t, e.AdvancePhase(1))
	c := give(t, e, 1, card.Definition{ID: 55, Name: "F", Type: "Spell", Cost: 1})

	require.NoError(t, e.PlayCard(1, c.ID, "Field"))
}

func TestHealthReductionWin(t *testing.T) {
	finisher := EffectResolverFunc(func(scope EffectScope, played card.Card) error {
		for _, id := range scope.Opponents(played.OwnerID) {
			health, _ := scope.Health(id)
			if err := scope.DamagePlayer(id, health); err != nil {
				return err
			}
		}
		return nil
	})
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2), WithEffects(finisher))
	require.NoError(t, e.Start())
	require.NoError(t, e.AdvancePhase(1))
	c := give(t, e, 1, card.Definition{ID: 50, Name: "Dragon", Type: "Creature", Cost: 1, Attack: 9})

	r := record(e)
	require.NoError(t, e.PlayCard(1, c.ID, "Field"))

	p2, _ := e.Player(2)
	assert.Equal(t, 0, p2.Health)
	assert.Equal(t, StatusEnded, e.Status())
	winner, ended := e.Winner()
	assert.True(t, ended)
	assert.Equal(t, 1, winner)

	damaged := r.ofType(rules.EventPlayerDamaged)
	require.Len(t, damaged, 1)
	assert.Equal(t, 2, damaged[0].PlayerID)
	assert.Equal(t, 20, damaged[0].Amount)

	ended2 := r.ofType(rules.EventGameEnded)
	require.Len(t, ended2, 1)
	assert.Equal(t, 1, ended2[0].WinnerID)

	assert.ErrorIs(t, e.EndTurn(1), ErrGameAlreadyEnded)
	assert.ErrorIs(t, e.AdvancePhase(1), ErrGameAlreadyEnded)
	assert.ErrorIs(t, e.ApplyDamage(1, 1), ErrGameAlreadyEnded)
}

func TestAllPlayersLostIsADraw(t *testing.T) {
	blast := EffectResolverFunc(func(scope EffectScope, played card.Card) error {
		for _, id := range []int{1, 2} {
			if err := scope.DamagePlayer(id, 100); err != nil {
				return err
			}
		}
		return nil
	})
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2), WithEffects(blast))
	require.NoError(t, e.Start())
	require.NoError(t, e.AdvancePhase(1))
	c := give(t, e, 1, card.Definition{ID: 50, Name: "Meteor", Type: "Creature", Cost: 1})

	r := record(e)
	require.NoError(t, e.PlayCard(1, c.ID, "Field"))

	assert.Equal(t, StatusEnded, e.Status())
	winner, ended := e.Winner()
	assert.True(t, ended)
	assert.Equal(t, 0, winner)
	assert.Equal(t, "all players lost", e.EndReason())

	gameEnded := r.ofType(rules.EventGameEnded)
	require.Len(t, gameEnded, 1)
	assert.Zero(t, gameEnded[0].WinnerID)

	assert.ErrorIs(t, e.EndTurn(1), ErrGameAlreadyEnded)
}

func TestApplyDamage(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	require.NoError(t, e.ApplyDamage(1, 5))
	p1, _ := e.Player(1)
	assert.Equal(t, 15, p1.Health)
	assert.Equal(t, StatusRunning, e.Status())

	assert.ErrorIs(t, e.ApplyDamage(7, 1), ErrUnknownPlayer)

	require.NoError(t, e.ApplyDamage(1, 15))
	winner, ended := e.Winner()
	require.True(t, ended)
	assert.Equal(t, 2, winner)
}

func TestDeckDepletionWin(t *testing.T) {
	opts := humans(1, 2)
	opts.DeckSize = 4
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), opts)
	require.NoError(t, e.Start())

	p2, _ := e.Player(2)
	require.Equal(t, 0, p2.DeckCount, "opening hand empties the second deck")
	require.Equal(t, StatusRunning, e.Status())

	r := record(e)
	require.NoError(t, e.EndTurn(1))

	assert.Len(t, r.ofType(rules.EventDeckEmpty), 1)
	assert.Empty(t, r.ofType(rules.EventPhaseChanged), "game ends before any phase of the turn")
	assert.Equal(t, "", e.CurrentPhase())

	winner, ended := e.Winner()
	require.True(t, ended)
	assert.Equal(t, 1, winner)
}

func TestDeckEmptyWithoutDepletionRule(t *testing.T) {
	doc := testDoc(t, func(d *rules.Document) {
		d.WinConditions = []rules.WinCondition{{Type: rules.WinHealthReduction, Threshold: 0}}
	})
	opts := humans(1, 2)
	opts.DeckSize = 4
	e := newTestEngine(t, doc, mixedCatalog(t), opts)
	require.NoError(t, e.Start())

	require.NoError(t, e.EndTurn(1))
	assert.Equal(t, StatusRunning, e.Status())
	assert.Equal(t, "Draw", e.CurrentPhase())
	assert.Equal(t, 2, e.CurrentPlayerID())
}

func TestHandFullReturnsCardToDeck(t *testing.T) {
	doc := testDoc(t, setZoneCap("Hand", 4))
	e := newTestEngine(t, doc, mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	deckBefore := zoneIDs(t, e, "Deck_2")
	handBefore := zoneIDs(t, e, "Hand_2")
	require.Len(t, handBefore, 4)

	r := record(e)
	require.NoError(t, e.EndTurn(1))

	assert.Len(t, r.ofType(rules.EventHandFull), 1)
	assert.Empty(t, r.ofType(rules.EventCardDrawn))
	assert.Equal(t, deckBefore, zoneIDs(t, e, "Deck_2"), "undrawn card stays on top of the deck")
	assert.Equal(t, handBefore, zoneIDs(t, e, "Hand_2"))
	assert.Equal(t, "Draw", e.CurrentPhase())
}

func TestCardsAreNeverLost(t *testing.T) {
	doc := testDoc(t, setZoneCap("Hand", 5))
	opts := humans()
	opts.MaxTurns = 25
	e := newTestEngine(t, doc, mixedCatalog(t), opts)
	require.NoError(t, e.Start())

	s := e.Snapshot()
	counts := make(map[int]int)
	seen := make(map[*card.Card]bool)
	for _, z := range s.Zones {
		for _, c := range z.Cards {
			counts[c.OwnerID]++
			assert.Equal(t, c.OwnerID, card.DecodeOwner(c.ID))
		}
	}
	for _, z := range e.zones.All() {
		for _, c := range z.Cards() {
			assert.False(t, seen[c], "card %v is in two zones", c)
			seen[c] = true
		}
	}
	assert.Equal(t, map[int]int{1: 30, 2: 30}, counts)
}

func TestAITurnPlaysGreedily(t *testing.T) {
	e := newTestEngine(t, testDoc(t), creatureCatalog(t, 10, 1), humans(1))
	require.NoError(t, e.Start())

	r := record(e)
	require.NoError(t, e.EndTurn(1))

	assert.Equal(t, 1, e.CurrentPlayerID())
	assert.Equal(t, 2, e.TurnNumber())
	assert.Len(t, zoneIDs(t, e, "Field_2"), 1, "one resource buys one card")

	p2, _ := e.Player(2)
	assert.Equal(t, 0, p2.CurrentResources)
	assert.Equal(t, 4, p2.HandCount)

	var phases []string
	for _, ev := range r.ofType(rules.EventPhaseChanged) {
		if ev.PlayerID == 2 {
			phases = append(phases, ev.Phase)
		}
	}
	assert.Equal(t, []string{"Draw", "Main", "End"}, phases)

	started := r.ofType(rules.EventTurnStarted)
	require.Len(t, started, 2)
	assert.Equal(t, 2, started[0].PlayerID)
	assert.Equal(t, 1, started[1].PlayerID)
	assert.Equal(t, 2, started[1].TurnNumber)
}

func TestAITurnWithPassStrategy(t *testing.T) {
	e := newTestEngine(t, testDoc(t), creatureCatalog(t, 10, 1), humans(1), WithStrategy(PassStrategy{}))
	require.NoError(t, e.Start())
	require.NoError(t, e.EndTurn(1))

	assert.Empty(t, zoneIDs(t, e, "Field_2"))
	p2, _ := e.Player(2)
	assert.Equal(t, 1, p2.CurrentResources)
}

func TestGreedyStrategyPlan(t *testing.T) {
	hand := []card.Card{
		{ID: 1005, CatalogID: 5, Cost: 2},
		{ID: 1003, CatalogID: 3, Cost: 4},
		{ID: 1009, CatalogID: 9, Cost: 7},
		{ID: 1001, CatalogID: 1, Cost: 2},
		{ID: 1004, CatalogID: 4, Cost: 0},
	}
	moves := GreedyStrategy{}.Plan(TurnView{PlayerID: 1, Resources: 4, Hand: hand, FieldZone: "Field_1"})

	ids := make([]int, len(moves))
	for i, m := range moves {
		ids[i] = m.CardID
		assert.Equal(t, "Field_1", m.Zone)
	}
	assert.Equal(t, []int{1003, 1001, 1005, 1004}, ids)
	assert.Empty(t, GreedyStrategy{}.Plan(TurnView{Resources: 0, Hand: hand[:2]}))
}

func TestStopBetweenTurns(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	e.Stop()
	assert.Equal(t, StatusRunning, e.Status(), "the current turn is not interrupted")
	require.NoError(t, e.AdvancePhase(1))

	r := record(e)
	require.NoError(t, e.EndTurn(1))

	assert.Empty(t, r.ofType(rules.EventTurnStarted))
	winner, ended := e.Winner()
	require.True(t, ended)
	assert.Equal(t, 0, winner)
	assert.Equal(t, "stopped", e.EndReason())
}

func TestTurnLimit(t *testing.T) {
	opts := humans()
	opts.MaxTurns = 3
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), opts)
	require.NoError(t, e.Start())

	winner, ended := e.Winner()
	require.True(t, ended)
	assert.Equal(t, 0, winner)
	assert.Equal(t, "turn limit reached", e.EndReason())
	assert.Equal(t, 4, e.TurnNumber())
}

func TestAIOnlyGamesTerminateByDefault(t *testing.T) {
	ctx, err := NewEngineContext(testDoc(t), mixedCatalog(t), WithOptions(humans()), WithSeed(1, 1))
	require.NoError(t, err)
	assert.Equal(t, DefaultAITurnLimit, ctx.Options.MaxTurns)

	e := NewTurnEngine(ctx)
	require.NoError(t, e.Start())
	assert.Equal(t, StatusEnded, e.Status())
}

func TestSeededGamesAreReproducible(t *testing.T) {
	play := func() ([]string, int) {
		opts := humans()
		opts.RecordReplay = true
		e := newTestEngine(t, testDoc(t), mixedCatalog(t), opts, WithEffects(AttackDamage{}))
		require.NoError(t, e.Start())
		winner, ended := e.Winner()
		require.True(t, ended)
		return e.Replay().Checksums(), winner
	}

	sumsA, winnerA := play()
	sumsB, winnerB := play()
	assert.NotEmpty(t, sumsA)
	assert.Equal(t, sumsA, sumsB)
	assert.Equal(t, winnerA, winnerB)
	assert.NotZero(t, winnerA, "attack damage decides the game before the turn limit")
}

func TestSeedOptionIsNotSharedBetweenGames(t *testing.T) {
	doc, catalog := testDoc(t), mixedCatalog(t)
	opts := []ContextOption{WithLogger(zap.NewNop()), WithSeed(7, 7>>1|1), WithOptions(humans(1, 2))}

	a, err := NewEngineContext(doc, catalog, opts...)
	require.NoError(t, err)
	b, err := NewEngineContext(doc, catalog, opts...)
	require.NoError(t, err)
	require.NotSame(t, a.Rand, b.Rand)

	first, second := NewTurnEngine(a), NewTurnEngine(b)
	require.NoError(t, first.Start())
	require.NoError(t, second.Start())
	assert.Equal(t, zoneIDs(t, first, "Hand_1"), zoneIDs(t, second, "Hand_1"))
	assert.Equal(t, zoneIDs(t, first, "Deck_2"), zoneIDs(t, second, "Deck_2"))
}

func TestShuffleZone(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	before := zoneIDs(t, e, "Deck_1")
	r := record(e)
	require.NoError(t, e.ShuffleZone(1, "Deck"))
	after := zoneIDs(t, e, "Deck_1")

	sort.Ints(before)
	sorted := append([]int(nil), after...)
	sort.Ints(sorted)
	assert.Equal(t, before, sorted)
	assert.Len(t, r.ofType(rules.EventZoneChanged), 1)

	assert.ErrorIs(t, e.ShuffleZone(1, "Field"), zone.ErrNotOrderable)
	assert.ErrorIs(t, e.ShuffleZone(1, "Deck_2"), ErrWrongOwner)
	assert.ErrorIs(t, e.ShuffleZone(1, "Graveyard"), ErrUnknownZone)
	assert.ErrorIs(t, e.ShuffleZone(2, "Deck"), ErrNotCurrentPlayer)
}

func TestAdvancePhaseDoesNotWrap(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	require.NoError(t, e.AdvancePhase(1))
	require.NoError(t, e.AdvancePhase(1))
	assert.Equal(t, "End", e.CurrentPhase())

	err := e.AdvancePhase(1)
	assert.ErrorIs(t, err, ErrNoNextPhase)
	assert.Equal(t, "End", e.CurrentPhase())
	assert.Equal(t, 1, e.TurnNumber())
}

func TestListenersMayReadEngine(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	var seen []int
	e.Events().SubscribeTyped(rules.EventTurnStarted, func(ev rules.Event) {
		seen = append(seen, e.Snapshot().CurrentPlayerID)
	})

	require.NoError(t, e.Start())
	require.NoError(t, e.EndTurn(1))
	assert.Equal(t, []int{1, 2}, seen)
}

func TestFacePolicyOverrideFromOptions(t *testing.T) {
	opts := humans(1)
	opts.FacePolicy = zone.FacePolicy{Overrides: map[string]bool{"Hand": true}}
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), opts)
	require.NoError(t, e.Start())

	hand2, _ := e.Zone("Hand_2", 0)
	require.NotEmpty(t, hand2.Cards)
	for _, c := range hand2.Cards {
		assert.True(t, c.FaceUp)
	}
}

func TestCardFlippedOnDraw(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	r := record(e)
	require.NoError(t, e.Start())

	var flippedIn []string
	for _, ev := range r.ofType(rules.EventCardFlipped) {
		flippedIn = append(flippedIn, ev.ZoneName)
		assert.True(t, ev.FaceUp)
	}
	assert.NotEmpty(t, flippedIn)
	for _, name := range flippedIn {
		assert.True(t, strings.HasPrefix(name, "Hand_"))
	}
}
