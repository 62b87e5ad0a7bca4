package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed is the kind of every catalog rejection.
var ErrMalformed = errors.New("malformed catalog entry")

// CatalogError reports a structurally invalid catalog. Index is the offending
// entry, or -1 when the document itself is unusable.
type CatalogError struct {
	Index  int
	Detail string
}

func (e *CatalogError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("card catalog: %v: %s", ErrMalformed, e.Detail)
	}
	return fmt.Sprintf("card catalog: entry %d: %v: %s", e.Index, ErrMalformed, e.Detail)
}

func (e *CatalogError) Unwrap() error {
	return ErrMalformed
}

// Definition is one catalog entry.
type Definition struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Cost        int      `json:"cost"`
	Attack      int      `json:"attack"`
	Health      int      `json:"health"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ArtworkURL  string   `json:"artworkUrl,omitempty"`
}

// NewCard instantiates the definition as a card owned by ownerID.
func (d Definition) NewCard(ownerID int) *Card {
	return &Card{
		ID:          ScopedID(ownerID, d.ID),
		CatalogID:   d.ID,
		Name:        d.Name,
		Description: d.Description,
		CardType:    d.Type,
		Cost:        d.Cost,
		Attack:      d.Attack,
		Health:      d.Health,
		Tags:        normalizeTags(d.Tags),
		OwnerID:     ownerID,
		Artwork:     d.ArtworkURL,
	}
}

// Catalog is the immutable set of card definitions decks are sampled from.
type Catalog struct {
	defs []Definition
}

// NewCatalog validates defs and builds a catalog from them.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make([]Definition, 0, len(defs))}
	seen := make(map[int]struct{}, len(defs))
	for i, d := range defs {
		if err := validateDefinition(d); err != nil {
			return nil, &CatalogError{Index: i, Detail: err.Error()}
		}
		if _, dup := seen[d.ID]; dup {
			return nil, &CatalogError{Index: i, Detail: fmt.Sprintf("duplicate id %d", d.ID)}
		}
		d.Tags = normalizeTags(d.Tags)
		seen[d.ID] = struct{}{}
		c.defs = append(c.defs, d)
	}
	return c, nil
}

func validateDefinition(d Definition) error {
	switch {
	case d.ID < 0 || d.ID >= OwnerStride:
		return fmt.Errorf("id %d outside [0, %d)", d.ID, OwnerStride)
	case strings.TrimSpace(d.Name) == "":
		return errors.New("name is empty")
	case d.Cost < 0:
		return fmt.Errorf("cost %d is negative", d.Cost)
	}
	return nil
}

// entry mirrors Definition with pointers so absent fields can be told apart
// from zero values.
type entry struct {
	ID          *int      `json:"id"`
	Name        *string   `json:"name"`
	Type        *string   `json:"type"`
	Cost        *int      `json:"cost"`
	Attack      *int      `json:"attack"`
	Health      *int      `json:"health"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	ArtworkURL  *string   `json:"artworkUrl"`
}

func (e entry) definition() (Definition, error) {
	required := []struct {
		name    string
		present bool
	}{
		{"id", e.ID != nil},
		{"name", e.Name != nil},
		{"type", e.Type != nil},
		{"cost", e.Cost != nil},
		{"attack", e.Attack != nil},
		{"health", e.Health != nil},
	}
	for _, f := range required {
		if !f.present {
			return Definition{}, fmt.Errorf("missing %s", f.name)
		}
	}

	d := Definition{
		ID:     *e.ID,
		Name:   *e.Name,
		Type:   *e.Type,
		Cost:   *e.Cost,
		Attack: *e.Attack,
		Health: *e.Health,
	}
	if e.Description != nil {
		d.Description = *e.Description
	}
	if e.Tags != nil {
		d.Tags = *e.Tags
	}
	if e.ArtworkURL != nil {
		d.ArtworkURL = *e.ArtworkURL
	}
	return d, nil
}

// LoadCatalog parses a {"cards": [...]} document. Any invalid entry fails the
// whole load; entries are never skipped.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read card catalog: %w", err)
	}

	var doc struct {
		Cards *[]json.RawMessage `json:"cards"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CatalogError{Index: -1, Detail: err.Error()}
	}
	if doc.Cards == nil {
		return nil, &CatalogError{Index: -1, Detail: "missing cards"}
	}

	defs := make([]Definition, 0, len(*doc.Cards))
	for i, raw := range *doc.Cards {
		var e entry
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&e); err != nil {
			return nil, &CatalogError{Index: i, Detail: err.Error()}
		}
		d, err := e.definition()
		if err != nil {
			return nil, &CatalogError{Index: i, Detail: err.Error()}
		}
		defs = append(defs, d)
	}
	return NewCatalog(defs)
}

// LoadCatalogFile reads a catalog document from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.defs)
}

// Definitions returns the definitions in catalog order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}
