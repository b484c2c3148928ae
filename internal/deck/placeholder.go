package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizedPlaceholder carries a single placeholder key of the form
// "{name}_{index}", the join key between layout schema and generated content.
type NormalizedPlaceholder struct {
	Name string `json:"name"`
}

// NormalizedLayout is one layout's ordered placeholder keys, as persisted in
// processed_layout.json.
type NormalizedLayout struct {
	SlideName    string                  `json:"slide_name"`
	Placeholders []NormalizedPlaceholder `json:"placeholders"`
}

// Key builds the canonical placeholder key.
func Key(name string, index int) string {
	return name + "_" + strconv.Itoa(index)
}

// SplitKey decomposes a placeholder key into its name and index. The index
// is everything after the last underscore; the name may itself contain
// underscores.
func SplitKey(key string) (string, int, error) {
	cut := strings.LastIndex(key, "_")
	if cut <= 0 || cut == len(key)-1 {
		return "", 0, fmt.Errorf("invalid placeholder key %q, expected name_index", key)
	}
	idx, err := strconv.Atoi(key[cut+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid placeholder key %q, index is not a number", key)
	}
	return key[:cut], idx, nil
}

// Normalize converts a layout schema into ordered placeholder key lists, one
// per layout. A layout with an unnamed placeholder or a negative index is a
// schema defect and fails the whole conversion.
func Normalize(schema LayoutSchema) ([]NormalizedLayout, error) {
	if len(schema) == 0 {
		return nil, &SchemaValidationError{Reason: "schema has no layouts"}
	}
	out := make([]NormalizedLayout, 0, len(schema))
	for _, layout := range schema {
		if layout.Name == "" {
			return nil, &SchemaValidationError{Reason: "layout with empty name"}
		}
		nl := NormalizedLayout{SlideName: layout.Name}
		seen := make(map[string]struct{}, len(layout.Placeholders))
		for _, ph := range layout.Placeholders {
			if ph.Name == "" {
				return nil, &SchemaValidationError{Reason: fmt.Sprintf("layout %q has a placeholder with no name", layout.Name)}
			}
			if ph.Index < 0 {
				return nil, &SchemaValidationError{Reason: fmt.Sprintf("layout %q placeholder %q has negative index", layout.Name, ph.Name)}
			}
			key := Key(ph.Name, ph.Index)
			if _, dup := seen[key]; dup {
				return nil, &SchemaValidationError{Reason: fmt.Sprintf("layout %q has duplicate placeholder key %q", layout.Name, key)}
			}
			seen[key] = struct{}{}
			nl.Placeholders = append(nl.Placeholders, NormalizedPlaceholder{Name: key})
		}
		out = append(out, nl)
	}
	return out, nil
}
