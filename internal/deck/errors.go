package deck

import (
	"fmt"
	"strings"
)

// TemplateNotFoundError reports a template name that matched no file in the
// upload area, enumerating what is available.
type TemplateNotFoundError struct {
	Name      string
	Available []string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template file %s not found. Available templates: %s",
		e.Name, strings.Join(e.Available, ", "))
}

// TemplateParseError reports a template file that exists on disk but could
// not be opened as a presentation.
type TemplateParseError struct {
	Path string
	Err  error
}

func (e *TemplateParseError) Error() string {
	return fmt.Sprintf("template file %s is not a readable presentation: %v", e.Path, e.Err)
}

func (e *TemplateParseError) Unwrap() error { return e.Err }

// SchemaValidationError reports a malformed layout schema artifact.
type SchemaValidationError struct {
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return "invalid layout schema: " + e.Reason
}

// AssignmentParseError reports agent output from which no JSON could be
// extracted. Prior artifacts must be left untouched when this is returned.
type AssignmentParseError struct {
	Reason string
}

func (e *AssignmentParseError) Error() string {
	return "failed to extract valid JSON from agent response: " + e.Reason
}

// AssignmentStructureError reports agent JSON that parsed but violates the
// slides contract.
type AssignmentStructureError struct {
	Reason string
}

func (e *AssignmentStructureError) Error() string {
	return "invalid assignment structure: " + e.Reason
}
