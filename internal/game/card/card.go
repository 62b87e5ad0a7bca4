package card

import (
	"fmt"
	"sort"
)

// OwnerStride separates player-scoped card ids: a card built for player p from
// catalog entry c has id p*OwnerStride + c.
const OwnerStride = 1000

// ScopedID returns the globally unique id of catalog entry catalogID in the
// deck of playerID.
func ScopedID(playerID, catalogID int) int {
	return playerID*OwnerStride + catalogID
}

// DecodeOwner recovers the player id from a scoped card id.
func DecodeOwner(id int) int {
	return id / OwnerStride
}

// Card is a single game piece. The engine moves cards between zones; a card
// belongs to at most one zone at a time.
type Card struct {
	ID          int      `json:"id"`
	CatalogID   int      `json:"catalogId"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CardType    string   `json:"type"`
	Cost        int      `json:"cost"`
	Attack      int      `json:"attack"`
	Health      int      `json:"health"`
	Tags        []string `json:"tags,omitempty"`
	OwnerID     int      `json:"ownerId"`
	FaceUp      bool     `json:"faceUp"`
	Artwork     string   `json:"artworkUrl,omitempty"`
}

// Flip sets the face-up state and reports whether it changed.
func (c *Card) Flip(faceUp bool) bool {
	if c.FaceUp == faceUp {
		return false
	}
	c.FaceUp = faceUp
	return true
}

// HasTag reports whether the card carries tag.
func (c *Card) HasTag(tag string) bool {
	i := sort.SearchStrings(c.Tags, tag)
	return i < len(c.Tags) && c.Tags[i] == tag
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	return &cp
}

func (c *Card) String() string {
	return fmt.Sprintf("%s#%d", c.Name, c.ID)
}

// normalizeTags returns the tags sorted with duplicates removed.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := append([]string(nil), tags...)
	sort.Strings(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
