package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

// Snapshot is a read-only copy of a game at one point in time.
type Snapshot struct {
	GameID          string       `json:"gameId"`
	Status          string       `json:"status"`
	TurnNumber      int          `json:"turnNumber"`
	CurrentPlayerID int          `json:"currentPlayerId"`
	Phase           string       `json:"phase"`
	WinnerID        int          `json:"winnerId,omitempty"`
	Sequence        int          `json:"sequence"`
	Players         []PlayerView `json:"players"`
	Zones           []zone.View  `json:"zones"`
}

// Snapshot copies the current game state.
func (e *TurnEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *TurnEngine) snapshot() Snapshot {
	s := Snapshot{
		GameID:     e.gameID,
		Status:     e.status.String(),
		TurnNumber: e.turns.TurnNumber(),
		Phase:      e.turns.CurrentPhase(),
		WinnerID:   e.winner,
		Sequence:   e.sequence,
		Players:    make([]PlayerView, 0, len(e.players)),
	}
	if len(e.players) > 0 {
		s.CurrentPlayerID = e.currentPlayer().ID
	}
	for _, p := range e.players {
		s.Players = append(s.Players, e.playerView(p))
	}
	for _, z := range e.zones.All() {
		s.Zones = append(s.Zones, z.Snapshot())
	}
	return s
}

// Checksum returns a SHA-256 over the game state. The game id and event
// sequence are left out, so two games played from the same seed and inputs
// produce the same checksum turn by turn.
func (s Snapshot) Checksum() string {
	sum := sha256.Sum256([]byte(s.canonical()))
	return hex.EncodeToString(sum[:])
}

// canonical renders the state with zones sorted by key. Card order inside a
// zone is kept since it is game state.
func (s Snapshot) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%d|%d|%s|%d\n", s.Status, s.TurnNumber, s.CurrentPlayerID, s.Phase, s.WinnerID)

	players := append([]PlayerView(nil), s.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	for _, p := range players {
		fmt.Fprintf(&buf, "PLAYER:%d|%t|%d|%d|%d\n", p.ID, p.IsAI, p.Health, p.CurrentResources, p.MaxResources)
	}

	zones := append([]zone.View(nil), s.Zones...)
	sort.Slice(zones, func(i, j int) bool { return zones[i].Key < zones[j].Key })
	for _, z := range zones {
		ids := make([]string, len(z.Cards))
		for i, c := range z.Cards {
			ids[i] = fmt.Sprintf("%d:%t", c.ID, c.FaceUp)
		}
		fmt.Fprintf(&buf, "ZONE:%s|%s\n", z.Key, strings.Join(ids, ","))
	}
	return buf.String()
}

// MarshalIndent renders the snapshot as indented JSON.
func (s Snapshot) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
