package zone

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/tcgworld/tcg-engine/internal/game/card"
)

var (
	// ErrAtCapacity is returned when adding to a full zone.
	ErrAtCapacity = errors.New("zone at capacity")
	// ErrIndexOutOfRange is returned for a position outside the zone.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotFound is returned when a card is not in the zone.
	ErrNotFound = errors.New("card not found")
	// ErrNotOrderable is returned when shuffling a zone whose order is fixed.
	ErrNotOrderable = errors.New("zone not orderable")
)

// Error is a rejected zone operation. Kind is one of the Err* sentinels.
type Error struct {
	Kind error
	Zone string
	// Detail is optional extra context.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("zone %s: %v", e.Zone, e.Kind)
	}
	return fmt.Sprintf("zone %s: %v: %s", e.Zone, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Kind classifies zones by definition name. The rules only ever dispatch on
// the name, so the set is closed.
type Kind int

const (
	KindCustom Kind = iota
	KindDeck
	KindHand
	KindField
	KindDiscard
)

// KindOf maps a zone definition name to its kind.
func KindOf(name string) Kind {
	switch strings.ToLower(name) {
	case "deck":
		return KindDeck
	case "hand":
		return KindHand
	case "field":
		return KindField
	case "discard":
		return KindDiscard
	default:
		return KindCustom
	}
}

func (k Kind) String() string {
	switch k {
	case KindDeck:
		return "DECK"
	case KindHand:
		return "HAND"
	case KindField:
		return "FIELD"
	case KindDiscard:
		return "DISCARD"
	default:
		return "CUSTOM"
	}
}

// ChangeFunc is called after every successful mutation of a zone. flipped is
// the card whose face changed on entry, if any.
type ChangeFunc func(z *Zone, flipped *card.Card)

// Zone is a named container of cards. The zero MaxCapacity means a zone that
// can hold nothing; use -1 for unlimited.
type Zone struct {
	Name           string
	OwnerID        int
	IsPublic       bool
	IsOrderable    bool
	IsInteractable bool
	MaxCapacity    int
	FaceUp         bool
	Layout         json.RawMessage

	cards    []*card.Card
	onChange ChangeFunc
}

// New creates an empty zone.
func New(name string, ownerID int, maxCapacity int) *Zone {
	return &Zone{
		Name:           name,
		OwnerID:        ownerID,
		IsOrderable:    true,
		IsInteractable: true,
		MaxCapacity:    maxCapacity,
	}
}

// Key returns the registry key of the zone.
func (z *Zone) Key() string {
	return Key(z.Name, z.OwnerID)
}

// Kind returns the zone's kind.
func (z *Zone) Kind() Kind {
	return KindOf(z.Name)
}

// OnChange installs the mutation callback.
func (z *Zone) OnChange(fn ChangeFunc) {
	z.onChange = fn
}

func (z *Zone) changed(flipped *card.Card) {
	if z.onChange != nil {
		z.onChange(z, flipped)
	}
}

func (z *Zone) fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Zone: z.Key(), Detail: fmt.Sprintf(format, args...)}
}

// Len returns the number of cards in the zone.
func (z *Zone) Len() int {
	return len(z.cards)
}

// IsFull reports whether another card would exceed the capacity.
func (z *Zone) IsFull() bool {
	return z.MaxCapacity >= 0 && len(z.cards) >= z.MaxCapacity
}

// Cards returns the cards in order. The slice is a copy; the cards are not.
func (z *Zone) Cards() []*card.Card {
	out := make([]*card.Card, len(z.cards))
	copy(out, z.cards)
	return out
}

// Contains reports whether a card with the given id is in the zone.
func (z *Zone) Contains(cardID int) bool {
	return z.indexOf(cardID) >= 0
}

// IndexOf returns the position of the first card with the given id, or -1.
func (z *Zone) IndexOf(cardID int) int {
	return z.indexOf(cardID)
}

func (z *Zone) indexOf(cardID int) int {
	for i, c := range z.cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// Add inserts c at position. A nil or out-of-range position appends. The card
// takes the zone's face-up state.
func (z *Zone) Add(c *card.Card, position *int) error {
	if z.IsFull() {
		return z.fail(ErrAtCapacity, "%d/%d cards", len(z.cards), z.MaxCapacity)
	}

	at := len(z.cards)
	if position != nil && *position >= 0 && *position < len(z.cards) {
		at = *position
	}

	z.cards = append(z.cards, nil)
	copy(z.cards[at+1:], z.cards[at:])
	z.cards[at] = c

	var flipped *card.Card
	if c.Flip(z.FaceUp) {
		flipped = c
	}
	z.changed(flipped)
	return nil
}

// RemoveAt removes and returns the card at index.
func (z *Zone) RemoveAt(index int) (*card.Card, error) {
	if index < 0 || index >= len(z.cards) {
		return nil, z.fail(ErrIndexOutOfRange, "index %d of %d", index, len(z.cards))
	}
	c := z.cards[index]
	z.cards = append(z.cards[:index], z.cards[index+1:]...)
	z.changed(nil)
	return c, nil
}

// Remove removes and returns the first card with the given id.
func (z *Zone) Remove(cardID int) (*card.Card, error) {
	i := z.indexOf(cardID)
	if i < 0 {
		return nil, z.fail(ErrNotFound, "card %d", cardID)
	}
	return z.RemoveAt(i)
}

// DrawTop removes and returns the card at index 0. An empty zone is not an
// error.
func (z *Zone) DrawTop() (*card.Card, bool) {
	if len(z.cards) == 0 {
		return nil, false
	}
	c, _ := z.RemoveAt(0)
	return c, true
}

// Shuffle permutes the cards with a Fisher-Yates pass driven by rng.
func (z *Zone) Shuffle(rng *rand.Rand) error {
	if !z.IsOrderable {
		return z.fail(ErrNotOrderable, "")
	}
	for i := len(z.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		z.cards[i], z.cards[j] = z.cards[j], z.cards[i]
	}
	z.changed(nil)
	return nil
}

// View is a read-only copy of a zone handed to hosts.
type View struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	OwnerID     int             `json:"ownerId"`
	IsPublic    bool            `json:"isPublic"`
	FaceUp      bool            `json:"faceUp"`
	MaxCapacity int             `json:"maxCapacity"`
	Layout      json.RawMessage `json:"layout,omitempty"`
	Cards       []card.Card     `json:"cards"`
}

// Snapshot copies the zone and its cards.
func (z *Zone) Snapshot() View {
	v := View{
		Key:         z.Key(),
		Name:        z.Name,
		Kind:        z.Kind().String(),
		OwnerID:     z.OwnerID,
		IsPublic:    z.IsPublic,
		FaceUp:      z.FaceUp,
		MaxCapacity: z.MaxCapacity,
		Layout:      z.Layout,
		Cards:       make([]card.Card, len(z.cards)),
	}
	for i, c := range z.cards {
		v.Cards[i] = *c.Clone()
	}
	return v
}
