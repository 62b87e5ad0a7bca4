package zone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

// Key returns the registry key for a zone: the bare name for shared zones,
// Name_<ownerID> for per-player ones.
func Key(name string, ownerID int) string {
	if ownerID == 0 {
		return name
	}
	return name + "_" + strconv.Itoa(ownerID)
}

// FacePolicy decides whether cards entering a zone are shown face up.
type FacePolicy struct {
	// Overrides maps zone definition names to a fixed face-up state. Names
	// match case-insensitively since config loaders lower-case map keys.
	Overrides map[string]bool
}

func (p FacePolicy) override(name string) (bool, bool) {
	if v, ok := p.Overrides[name]; ok {
		return v, true
	}
	for k, v := range p.Overrides {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return false, false
}

// FaceUp returns the face-up state for a zone instance. Without an override,
// decks are face down, hands are face up only for human owners, fields and
// discards are face up, and any other zone is face up iff it is public.
func (p FacePolicy) FaceUp(name string, isPublic, humanOwner bool) bool {
	if v, ok := p.override(name); ok {
		return v
	}
	switch KindOf(name) {
	case KindDeck:
		return false
	case KindHand:
		return humanOwner
	case KindField, KindDiscard:
		return true
	default:
		return isPublic
	}
}

// Owner describes a seat zones are created for.
type Owner struct {
	ID    int
	Human bool
}

// Registry holds every zone instance of a game.
type Registry struct {
	zones map[string]*Zone
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{zones: make(map[string]*Zone)}
}

// Build creates the zones declared by doc: one instance per owner for
// per-player definitions, a single shared instance otherwise.
func Build(doc *rules.Document, owners []Owner, policy FacePolicy, onChange ChangeFunc) (*Registry, error) {
	r := NewRegistry()
	for _, def := range doc.Zones {
		if !def.PerPlayer {
			z := fromDef(def, 0)
			z.FaceUp = policy.FaceUp(def.Name, def.IsPublic, false)
			z.OnChange(onChange)
			if err := r.Add(z); err != nil {
				return nil, err
			}
			continue
		}
		for _, o := range owners {
			z := fromDef(def, o.ID)
			z.FaceUp = policy.FaceUp(def.Name, def.IsPublic, o.Human)
			z.IsInteractable = o.Human
			z.OnChange(onChange)
			if err := r.Add(z); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func fromDef(def rules.ZoneDef, ownerID int) *Zone {
	z := New(def.Name, ownerID, def.MaxCards)
	z.IsPublic = def.IsPublic
	z.IsOrderable = def.IsOrdered
	z.Layout = def.Layout
	return z
}

// Add registers z under its key.
func (r *Registry) Add(z *Zone) error {
	key := z.Key()
	if _, exists := r.zones[key]; exists {
		return fmt.Errorf("zone %s already registered", key)
	}
	r.zones[key] = z
	r.order = append(r.order, key)
	return nil
}

// Get returns the zone stored under key.
func (r *Registry) Get(key string) (*Zone, bool) {
	z, ok := r.zones[key]
	return z, ok
}

// ForPlayer resolves a zone name from a player's point of view: the player's
// own instance first, then the shared one.
func (r *Registry) ForPlayer(name string, playerID int) (*Zone, bool) {
	if z, ok := r.zones[Key(name, playerID)]; ok {
		return z, true
	}
	return r.Get(name)
}

// Resolve looks up either a registry key ("Field_2") or a bare name resolved
// for playerID ("Field").
func (r *Registry) Resolve(name string, playerID int) (*Zone, bool) {
	if z, ok := r.zones[name]; ok && z.OwnerID != 0 {
		return z, true
	}
	return r.ForPlayer(name, playerID)
}

// All returns the zones in creation order.
func (r *Registry) All() []*Zone {
	out := make([]*Zone, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.zones[key])
	}
	return out
}

// Len returns the number of zones.
func (r *Registry) Len() int {
	return len(r.order)
}
