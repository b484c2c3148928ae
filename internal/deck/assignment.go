package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssignedSlide is one entry of the execution agent's layout assignment:
// which layout the slide uses and what each placeholder key receives.
type AssignedSlide struct {
	SlideName    string         `json:"slide_name"`
	Placeholders map[string]any `json:"placeholders"`
}

type assignmentDoc struct {
	Slides []json.RawMessage `json:"slides"`
}

// ExtractJSON pulls the JSON payload out of an agent reply. A fenced
// ```json block wins; otherwise the whole reply must parse as JSON.
func ExtractJSON(raw string) (string, error) {
	if start := strings.Index(raw, "```json"); start >= 0 {
		rest := raw[start+len("```json"):]
		end := strings.Index(rest, "```")
		if end < 0 {
			return "", &AssignmentParseError{Reason: "unterminated ```json fence"}
		}
		return strings.TrimSpace(rest[:end]), nil
	}
	trimmed := strings.TrimSpace(raw)
	if !json.Valid([]byte(trimmed)) {
		return "", &AssignmentParseError{Reason: "reply contains no JSON payload"}
	}
	return trimmed, nil
}

// ParseAssignment parses the execution agent reply into assigned slides and
// validates each entry against the known layout set. Unknown layouts become
// warnings; the materializer skips them later. Structural defects fail the
// whole assignment so a malformed reply never half-writes a deck.
func ParseAssignment(raw string, layouts map[string]bool) ([]AssignedSlide, []string, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, nil, err
	}

	// A bare top-level array is wrapped into the canonical document shape.
	if strings.HasPrefix(strings.TrimSpace(payload), "[") {
		payload = `{"slides":` + payload + `}`
	}

	var doc assignmentDoc
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, nil, &AssignmentParseError{Reason: fmt.Sprintf("invalid assignment JSON: %v", err)}
	}
	if doc.Slides == nil {
		return nil, nil, &AssignmentStructureError{Reason: `missing "slides" array`}
	}
	if len(doc.Slides) == 0 {
		return nil, nil, &AssignmentStructureError{Reason: `"slides" array is empty`}
	}

	slides := make([]AssignedSlide, 0, len(doc.Slides))
	var warnings []string
	for i, rawSlide := range doc.Slides {
		var s AssignedSlide
		if err := json.Unmarshal(rawSlide, &s); err != nil {
			return nil, nil, &AssignmentStructureError{Reason: fmt.Sprintf("slide %d is not an object: %v", i, err)}
		}
		if s.SlideName == "" {
			return nil, nil, &AssignmentStructureError{Reason: fmt.Sprintf("slide %d has no slide_name", i)}
		}
		if s.Placeholders == nil {
			return nil, nil, &AssignmentStructureError{Reason: fmt.Sprintf("slide %d (%s) has no placeholders object", i, s.SlideName)}
		}
		if !layouts[s.SlideName] {
			warnings = append(warnings, fmt.Sprintf("slide %d references unknown layout %q", i, s.SlideName))
		}
		slides = append(slides, s)
	}
	return slides, warnings, nil
}
