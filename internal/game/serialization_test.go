package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

func createTestSnapshot() Snapshot {
	return Snapshot{
		GameID:          "game-1",
		Status:          "RUNNING",
		TurnNumber:      3,
		CurrentPlayerID: 2,
		Phase:           "Main",
		Sequence:        40,
		Players: []PlayerView{
			{ID: 2, Name: "Opponent 1", IsAI: true, Health: 17, CurrentResources: 1, MaxResources: 3},
			{ID: 1, Name: "Player", Health: 20, CurrentResources: 0, MaxResources: 3},
		},
		Zones: []zone.View{
			{Key: "Hand_1", Name: "Hand", OwnerID: 1, Cards: []card.Card{{ID: 1004, FaceUp: true}, {ID: 1002, FaceUp: true}}},
			{Key: "Deck_1", Name: "Deck", OwnerID: 1, Cards: []card.Card{{ID: 1007}, {ID: 1001}}},
		},
	}
}

func TestDeterministicChecksum(t *testing.T) {
	expected := createTestSnapshot().Checksum()
	assert.Len(t, expected, 64)
	for i := 0; i < 10; i++ {
		assert.Equal(t, expected, createTestSnapshot().Checksum())
	}
}

func TestChecksumIgnoresIdentityAndListOrder(t *testing.T) {
	a := createTestSnapshot()
	b := createTestSnapshot()
	b.GameID = "game-2"
	b.Sequence = 99
	b.Players[0], b.Players[1] = b.Players[1], b.Players[0]
	b.Zones[0], b.Zones[1] = b.Zones[1], b.Zones[0]

	assert.Equal(t, a.Checksum(), b.Checksum())
}

func TestChecksumDifferentStates(t *testing.T) {
	base := createTestSnapshot().Checksum()

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"health", func(s *Snapshot) { s.Players[0].Health-- }},
		{"resources", func(s *Snapshot) { s.Players[1].CurrentResources = 3 }},
		{"phase", func(s *Snapshot) { s.Phase = "Combat" }},
		{"card order", func(s *Snapshot) { s.Zones[1].Cards[0], s.Zones[1].Cards[1] = s.Zones[1].Cards[1], s.Zones[1].Cards[0] }},
		{"face", func(s *Snapshot) { s.Zones[1].Cards[0].FaceUp = true }},
		{"winner", func(s *Snapshot) { s.WinnerID = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestSnapshot()
			tt.mutate(&s)
			assert.NotEqual(t, base, s.Checksum())
		})
	}
}

func TestSnapshotMarshalIndent(t *testing.T) {
	data, err := createTestSnapshot().MarshalIndent()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "game-1", decoded["gameId"])
	assert.Equal(t, "Main", decoded["phase"])
	assert.NotContains(t, decoded, "winnerId")
	assert.Len(t, decoded["zones"], 2)
}

func TestEngineSnapshotIsACopy(t *testing.T) {
	e := newTestEngine(t, testDoc(t), mixedCatalog(t), humans(1, 2))
	require.NoError(t, e.Start())

	s := e.Snapshot()
	require.NotEmpty(t, s.Zones)
	assert.Equal(t, e.GameID(), s.GameID)
	assert.Len(t, s.Players, 2)

	for i := range s.Zones {
		for j := range s.Zones[i].Cards {
			s.Zones[i].Cards[j].FaceUp = !s.Zones[i].Cards[j].FaceUp
		}
	}
	assert.Equal(t, e.Snapshot().Checksum(), e.Snapshot().Checksum())
	assert.NotEqual(t, s.Checksum(), e.Snapshot().Checksum())
}
