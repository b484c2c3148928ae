package deck

import (
	"testing"
)

func TestKeyAndSplitKey_RoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		index int
	}{
		{"Title 1", 0},
		{"Content Placeholder 2", 13},
		{"name_with_underscores", 7},
	}
	for _, c := range cases {
		key := Key(c.name, c.index)
		name, idx, err := SplitKey(key)
		if err != nil {
			t.Fatalf("SplitKey(%q): %v", key, err)
		}
		if name != c.name || idx != c.index {
			t.Fatalf("round trip %q: got (%q, %d), want (%q, %d)", key, name, idx, c.name, c.index)
		}
	}
}

func TestSplitKey_RejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "noindex", "_5", "name_", "name_abc"} {
		if _, _, err := SplitKey(key); err == nil {
			t.Fatalf("SplitKey(%q): expected error", key)
		}
	}
}

func TestNormalize_BuildsUniqueOrderedKeys(t *testing.T) {
	schema := LayoutSchema{
		{
			Name: "Title Slide",
			Placeholders: []Placeholder{
				{Name: "Title 1", Type: "text", Index: 0},
				{Name: "Subtitle 2", Type: "text", Index: 1},
			},
		},
		{
			Name: "Picture Slide",
			Placeholders: []Placeholder{
				{Name: "Title 1", Type: "text", Index: 0},
				{Name: "Picture Placeholder 2", Type: "picture", Index: 13},
			},
		},
	}

	norm, err := Normalize(schema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(norm) != 2 {
		t.Fatalf("expected 2 layouts, got %d", len(norm))
	}
	got := norm[1].Placeholders
	if got[0].Name != "Title 1_0" || got[1].Name != "Picture Placeholder 2_13" {
		t.Fatalf("unexpected keys: %+v", got)
	}

	for _, layout := range norm {
		seen := map[string]bool{}
		for _, ph := range layout.Placeholders {
			if seen[ph.Name] {
				t.Fatalf("layout %q has duplicate key %q", layout.SlideName, ph.Name)
			}
			seen[ph.Name] = true
		}
	}
}

func TestNormalize_RejectsDefectiveSchemas(t *testing.T) {
	cases := []struct {
		label  string
		schema LayoutSchema
	}{
		{"empty schema", LayoutSchema{}},
		{"unnamed layout", LayoutSchema{{Name: "", Placeholders: []Placeholder{{Name: "Title 1"}}}}},
		{"unnamed placeholder", LayoutSchema{{Name: "L", Placeholders: []Placeholder{{Name: ""}}}}},
		{"negative index", LayoutSchema{{Name: "L", Placeholders: []Placeholder{{Name: "Title 1", Index: -1}}}}},
		{"duplicate key", LayoutSchema{{Name: "L", Placeholders: []Placeholder{
			{Name: "Title 1", Index: 0},
			{Name: "Title 1", Index: 0},
		}}}},
	}
	for _, c := range cases {
		if _, err := Normalize(c.schema); err == nil {
			t.Fatalf("%s: expected error", c.label)
		}
	}
}
