package deck

import (
	"github.com/yungbote/paperdeck-backend/internal/pptx"
)

// Placeholder describes one slot on a layout, as persisted in
// layout_details.json.
type Placeholder struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Layout is one named layout of a template with its ordered placeholders.
type Layout struct {
	Name         string        `json:"name"`
	Placeholders []Placeholder `json:"placeholders"`
}

// LayoutSchema is the template's full layout inventory, ordered as the
// template orders its layouts.
type LayoutSchema []Layout

// SchemaFromTemplate converts the parsed template layouts into the
// serializable schema.
func SchemaFromTemplate(layouts []pptx.LayoutInfo) LayoutSchema {
	schema := make(LayoutSchema, 0, len(layouts))
	for _, l := range layouts {
		layout := Layout{Name: l.Name}
		for _, ph := range l.Placeholders {
			layout.Placeholders = append(layout.Placeholders, Placeholder{
				Name:  ph.Name,
				Type:  string(ph.Type),
				Index: ph.Index,
			})
		}
		schema = append(schema, layout)
	}
	return schema
}

// LayoutNames returns the schema's layout names in order.
func (s LayoutSchema) LayoutNames() []string {
	names := make([]string, 0, len(s))
	for _, l := range s {
		names = append(names, l.Name)
	}
	return names
}

// LayoutSet returns the layout names as a membership set.
func (s LayoutSchema) LayoutSet() map[string]bool {
	set := make(map[string]bool, len(s))
	for _, l := range s {
		set[l.Name] = true
	}
	return set
}
