package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Load error kinds. A *LoadError unwraps to exactly one of these.
var (
	ErrMissingField = errors.New("missing field")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrInvalidValue = errors.New("invalid value")
)

// LoadError reports why a rules document was rejected and where.
type LoadError struct {
	Path   string
	Kind   error
	Detail string
}

func (e *LoadError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rules document: %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("rules document: %s: %v: %s", e.Path, e.Kind, e.Detail)
}

func (e *LoadError) Unwrap() error {
	return e.Kind
}

func missing(path string) error {
	return &LoadError{Path: path, Kind: ErrMissingField}
}

func mismatch(path, want string, got any) error {
	return &LoadError{Path: path, Kind: ErrTypeMismatch, Detail: fmt.Sprintf("want %s, got %s", want, jsonKind(got))}
}

func invalid(path, format string, args ...any) error {
	return &LoadError{Path: path, Kind: ErrInvalidValue, Detail: fmt.Sprintf(format, args...)}
}

// LoadDocument reads and validates the rules document at path.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules document: %w", err)
	}
	defer f.Close()
	return ParseDocument(f)
}

// ParseDocument decodes and validates a rules document. It either returns a
// fully populated document or an error; nothing is partially applied.
func ParseDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &LoadError{Path: "$", Kind: ErrTypeMismatch, Detail: err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &LoadError{Path: "$", Kind: ErrTypeMismatch, Detail: "trailing data after the document"}
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, mismatch("$", "object", raw)
	}

	doc := &Document{}

	if doc.GameInfo, err = parseGameInfo(root); err != nil {
		return nil, err
	}
	if doc.Zones, err = parseZones(root); err != nil {
		return nil, err
	}
	if doc.TurnStructure, err = parseTurnStructure(root); err != nil {
		return nil, err
	}
	if doc.WinConditions, err = parseWinConditions(root); err != nil {
		return nil, err
	}
	if err := capturePassthrough(data, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// capturePassthrough copies layout and cardProperties byte for byte from the
// source. The structure has already been validated by the typed parse.
func capturePassthrough(data []byte, doc *Document) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return &LoadError{Path: "$", Kind: ErrTypeMismatch, Detail: err.Error()}
	}
	doc.CardProperties = present(root["cardProperties"])

	var zones []map[string]json.RawMessage
	if err := json.Unmarshal(root["zones"], &zones); err != nil {
		return &LoadError{Path: "zones", Kind: ErrTypeMismatch, Detail: err.Error()}
	}
	for i := range doc.Zones {
		doc.Zones[i].Layout = present(zones[i]["layout"])
	}
	return nil
}

// present drops absent and null values.
func present(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

func parseGameInfo(root map[string]any) (GameInfo, error) {
	obj, err := objectField(root, "gameInfo", "gameInfo")
	if err != nil {
		return GameInfo{}, err
	}

	var info GameInfo
	if info.PlayerCount, err = intField(obj, "playerCount", "gameInfo.playerCount"); err != nil {
		return GameInfo{}, err
	}
	if info.PlayerCount < 2 {
		return GameInfo{}, invalid("gameInfo.playerCount", "must be at least 2, got %d", info.PlayerCount)
	}
	if info.InitialPlayerHealth, err = intField(obj, "initialPlayerHealth", "gameInfo.initialPlayerHealth"); err != nil {
		return GameInfo{}, err
	}
	if info.InitialPlayerHealth <= 0 {
		return GameInfo{}, invalid("gameInfo.initialPlayerHealth", "must be positive, got %d", info.InitialPlayerHealth)
	}
	if info.Name, err = optionalString(obj, "name", "gameInfo.name"); err != nil {
		return GameInfo{}, err
	}
	if info.Description, err = optionalString(obj, "description", "gameInfo.description"); err != nil {
		return GameInfo{}, err
	}
	return info, nil
}

func parseZones(root map[string]any) ([]ZoneDef, error) {
	items, err := arrayField(root, "zones", "zones")
	if err != nil {
		return nil, err
	}

	zones := make([]ZoneDef, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		path := fmt.Sprintf("zones[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, mismatch(path, "object", item)
		}

		var z ZoneDef
		if z.Name, err = stringField(obj, "name", path+".name"); err != nil {
			return nil, err
		}
		if z.Name == "" {
			return nil, invalid(path+".name", "must not be empty")
		}
		if seen[z.Name] {
			return nil, invalid(path+".name", "duplicate zone %q", z.Name)
		}
		seen[z.Name] = true

		if z.PerPlayer, err = boolField(obj, "perPlayer", path+".perPlayer"); err != nil {
			return nil, err
		}
		if z.IsPublic, err = boolField(obj, "isPublic", path+".isPublic"); err != nil {
			return nil, err
		}
		if z.IsOrdered, err = boolField(obj, "isOrdered", path+".isOrdered"); err != nil {
			return nil, err
		}
		if z.MaxCards, err = intField(obj, "maxCards", path+".maxCards"); err != nil {
			return nil, err
		}
		if z.MaxCards < -1 {
			return nil, invalid(path+".maxCards", "must be -1 (unlimited) or non-negative, got %d", z.MaxCards)
		}
		zones = append(zones, z)
	}

	for _, name := range requiredZones {
		if !seen[name] {
			return nil, invalid("zones", "required zone %q is not declared", name)
		}
	}
	return zones, nil
}

func parseTurnStructure(root map[string]any) (TurnStructure, error) {
	obj, err := objectField(root, "turnStructure", "turnStructure")
	if err != nil {
		return TurnStructure{}, err
	}

	var ts TurnStructure

	phases, err := arrayField(obj, "phases", "turnStructure.phases")
	if err != nil {
		return TurnStructure{}, err
	}
	if len(phases) == 0 {
		return TurnStructure{}, invalid("turnStructure.phases", "at least one phase is required")
	}
	seen := make(map[string]bool, len(phases))
	for i, item := range phases {
		path := fmt.Sprintf("turnStructure.phases[%d]", i)
		p, ok := item.(map[string]any)
		if !ok {
			return TurnStructure{}, mismatch(path, "object", item)
		}
		name, err := stringField(p, "name", path+".name")
		if err != nil {
			return TurnStructure{}, err
		}
		if name == "" {
			return TurnStructure{}, invalid(path+".name", "must not be empty")
		}
		if seen[name] {
			return TurnStructure{}, invalid(path+".name", "duplicate phase %q", name)
		}
		seen[name] = true

		rawActions, err := arrayField(p, "allowedActions", path+".allowedActions")
		if err != nil {
			return TurnStructure{}, err
		}
		actions := make([]string, 0, len(rawActions))
		for j, a := range rawActions {
			s, ok := a.(string)
			if !ok {
				return TurnStructure{}, mismatch(fmt.Sprintf("%s.allowedActions[%d]", path, j), "string", a)
			}
			actions = append(actions, s)
		}
		ts.Phases = append(ts.Phases, NewPhaseDef(name, actions...))
	}

	res, err := objectField(obj, "resourceSystem", "turnStructure.resourceSystem")
	if err != nil {
		return TurnStructure{}, err
	}
	resourceFields := []struct {
		key string
		dst *int
	}{
		{"startingAmount", &ts.ResourceSystem.StartingAmount},
		{"maxAmount", &ts.ResourceSystem.MaxAmount},
		{"gainPerTurn", &ts.ResourceSystem.GainPerTurn},
	}
	for _, f := range resourceFields {
		path := "turnStructure.resourceSystem." + f.key
		if *f.dst, err = intField(res, f.key, path); err != nil {
			return TurnStructure{}, err
		}
		if *f.dst < 0 {
			return TurnStructure{}, invalid(path, "must be non-negative, got %d", *f.dst)
		}
	}

	if ts.FirstPlayerDraws, err = intField(obj, "firstPlayerDraws", "turnStructure.firstPlayerDraws"); err != nil {
		return TurnStructure{}, err
	}
	if ts.FirstPlayerDraws < 0 {
		return TurnStructure{}, invalid("turnStructure.firstPlayerDraws", "must be non-negative, got %d", ts.FirstPlayerDraws)
	}
	if ts.NormalDrawCount, err = intField(obj, "normalDrawCount", "turnStructure.normalDrawCount"); err != nil {
		return TurnStructure{}, err
	}
	if ts.NormalDrawCount < 0 {
		return TurnStructure{}, invalid("turnStructure.normalDrawCount", "must be non-negative, got %d", ts.NormalDrawCount)
	}

	return ts, nil
}

func parseWinConditions(root map[string]any) ([]WinCondition, error) {
	items, err := arrayField(root, "winConditions", "winConditions")
	if err != nil {
		return nil, err
	}

	conds := make([]WinCondition, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("winConditions[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, mismatch(path, "object", item)
		}
		typ, err := stringField(obj, "type", path+".type")
		if err != nil {
			return nil, err
		}

		wc := WinCondition{Type: WinConditionType(typ)}
		switch wc.Type {
		case WinHealthReduction:
			if wc.Threshold, err = intField(obj, "threshold", path+".threshold"); err != nil {
				return nil, err
			}
		case WinDeckDepletion:
		default:
			return nil, invalid(path+".type", "unknown win condition %q", typ)
		}
		conds = append(conds, wc)
	}
	return conds, nil
}

func objectField(obj map[string]any, key, path string) (map[string]any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, missing(path)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, mismatch(path, "object", v)
	}
	return m, nil
}

func arrayField(obj map[string]any, key, path string) ([]any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, missing(path)
	}
	a, ok := v.([]any)
	if !ok {
		return nil, mismatch(path, "array", v)
	}
	return a, nil
}

func intField(obj map[string]any, key, path string) (int, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, missing(path)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, mismatch(path, "integer", v)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, mismatch(path, "integer", v)
	}
	return int(i), nil
}

func boolField(obj map[string]any, key, path string) (bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return false, missing(path)
	}
	b, ok := v.(bool)
	if !ok {
		return false, mismatch(path, "boolean", v)
	}
	return b, nil
}

func stringField(obj map[string]any, key, path string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", missing(path)
	}
	s, ok := v.(string)
	if !ok {
		return "", mismatch(path, "string", v)
	}
	return s, nil
}

func optionalString(obj map[string]any, key, path string) (string, error) {
	if v, ok := obj[key]; !ok || v == nil {
		return "", nil
	}
	return stringField(obj, key, path)
}

func jsonKind(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
