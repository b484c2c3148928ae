package deck

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractJSON_PrefersFencedBlock(t *testing.T) {
	raw := "Here is the plan.\n```json\n{\"slides\": []}\n```\nDone."
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"slides": []}` {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestExtractJSON_AcceptsBareJSON(t *testing.T) {
	got, err := ExtractJSON(`  {"slides": []}  `)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"slides": []}` {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestExtractJSON_RejectsProseWithoutJSON(t *testing.T) {
	_, err := ExtractJSON("I could not produce an assignment, sorry.")
	var parseErr *AssignmentParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected AssignmentParseError, got %v", err)
	}
}

func TestParseAssignment_WrapsTopLevelArray(t *testing.T) {
	raw := "```json\n[{\"slide_name\": \"Title Slide\", \"placeholders\": {\"Title 1_0\": \"Hi\"}}]\n```"
	slides, warnings, err := ParseAssignment(raw, map[string]bool{"Title Slide": true})
	if err != nil {
		t.Fatalf("ParseAssignment: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(slides) != 1 || slides[0].SlideName != "Title Slide" {
		t.Fatalf("unexpected slides: %+v", slides)
	}
	if slides[0].Placeholders["Title 1_0"] != "Hi" {
		t.Fatalf("unexpected placeholder value: %v", slides[0].Placeholders["Title 1_0"])
	}
}

func TestParseAssignment_UnknownLayoutIsWarningNotError(t *testing.T) {
	raw := `{"slides": [{"slide_name": "Nope", "placeholders": {}}]}`
	slides, warnings, err := ParseAssignment(raw, map[string]bool{"Title Slide": true})
	if err != nil {
		t.Fatalf("ParseAssignment: %v", err)
	}
	if len(slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(slides))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Nope") {
		t.Fatalf("expected unknown layout warning, got %v", warnings)
	}
}

func TestParseAssignment_StructuralDefectsFailWhole(t *testing.T) {
	cases := []struct {
		label string
		raw   string
	}{
		{"missing slides key", `{"decks": []}`},
		{"empty slides array", `{"slides": []}`},
		{"missing slide_name", `{"slides": [{"placeholders": {}}]}`},
		{"missing placeholders", `{"slides": [{"slide_name": "Title Slide"}]}`},
		{"slide not an object", `{"slides": ["oops"]}`},
	}
	for _, c := range cases {
		_, _, err := ParseAssignment(c.raw, map[string]bool{"Title Slide": true})
		var structErr *AssignmentStructureError
		if !errors.As(err, &structErr) {
			t.Fatalf("%s: expected AssignmentStructureError, got %v", c.label, err)
		}
	}
}
