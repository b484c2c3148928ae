package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact filenames produced over a generation run. Every stage writes its
// output here so a failed run can be inspected and resumed by hand.
const (
	LayoutDetailsFile     = "layout_details.json"
	ProcessedLayoutFile   = "processed_layout.json"
	SlidesDataFile        = "slides_data.json"
	UpdatedSlidesDataFile = "updated_slides_data.json"
	FiguresMetadataFile   = "figures_metadata.json"
	ExecutionAgentFile    = "execution_agent.json"
	PrerequisitesFile     = "prerequisites_dict.json"
)

// Artifacts persists pipeline stage outputs as JSON files under a single
// data directory.
type Artifacts struct {
	root string
}

func NewArtifacts(root string) (*Artifacts, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: creating %s: %w", root, err)
	}
	return &Artifacts{root: root}, nil
}

func (a *Artifacts) Root() string { return a.root }

func (a *Artifacts) Path(name string) string { return filepath.Join(a.root, name) }

// Save marshals v and writes it atomically: a rename either fully replaces
// the previous artifact or leaves it untouched.
func (a *Artifacts) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: marshaling %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(a.root, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifacts: temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, a.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: replacing %s: %w", name, err)
	}
	return nil
}

func (a *Artifacts) Load(name string, v any) error {
	data, err := os.ReadFile(a.Path(name))
	if err != nil {
		return fmt.Errorf("artifacts: reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifacts: parsing %s: %w", name, err)
	}
	return nil
}

func (a *Artifacts) Exists(name string) bool {
	info, err := os.Stat(a.Path(name))
	return err == nil && !info.IsDir()
}

// Clear removes every known artifact file. Unknown files in the directory
// are left alone.
func (a *Artifacts) Clear() error {
	names := []string{
		LayoutDetailsFile, ProcessedLayoutFile, SlidesDataFile,
		UpdatedSlidesDataFile, FiguresMetadataFile, ExecutionAgentFile,
		PrerequisitesFile,
	}
	for _, name := range names {
		if err := os.Remove(a.Path(name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("artifacts: removing %s: %w", name, err)
		}
	}
	return nil
}
