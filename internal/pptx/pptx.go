// Package pptx reads and writes PowerPoint files as OOXML packages: a zip
// archive of XML parts. It implements only the operations the deck pipeline
// needs: layout introspection, appending slides cloned from a layout, filling
// text and picture placeholders, and removing slides from the front.
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	contentTypesPart     = "[Content_Types].xml"
	presentationPart     = "ppt/presentation.xml"
	presentationRelsPart = "ppt/_rels/presentation.xml.rels"

	slideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	slideRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	layoutRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	imageRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Presentation is an in-memory OOXML package. All mutations happen on the
// part map; nothing is written until Save.
type Presentation struct {
	path    string
	parts   map[string][]byte
	order   []string
	layouts []LayoutInfo
}

// Open reads a .pptx file fully into memory and parses its layout schema.
func Open(path string) (*Presentation, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", path, err)
	}
	defer r.Close()

	p := &Presentation{
		path:  path,
		parts: make(map[string][]byte, len(r.File)),
	}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		p.parts[f.Name] = data
		p.order = append(p.order, f.Name)
	}

	if _, ok := p.parts[presentationPart]; !ok {
		return nil, fmt.Errorf("%s: not a presentation package (missing %s)", path, presentationPart)
	}

	layouts, err := p.parseLayouts()
	if err != nil {
		return nil, err
	}
	p.layouts = layouts
	return p, nil
}

// Path returns the file the package was opened from.
func (p *Presentation) Path() string { return p.path }

// Layouts returns the parsed layout schema in slideLayoutN order.
func (p *Presentation) Layouts() []LayoutInfo { return p.layouts }

// LayoutNames returns the layout names in order.
func (p *Presentation) LayoutNames() []string {
	names := make([]string, 0, len(p.layouts))
	for _, l := range p.layouts {
		names = append(names, l.Name)
	}
	return names
}

// SlideCount counts the entries of the presentation's slide id list.
func (p *Presentation) SlideCount() int {
	return len(p.slideIDEntries())
}

// Save writes the package to path, preserving original part order and
// appending new parts after it.
func (p *Presentation) Save(path string) error {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	written := make(map[string]bool, len(p.parts))
	writePart := func(name string) error {
		data, ok := p.parts[name]
		if !ok || written[name] {
			return nil
		}
		f, err := w.Create(name)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write zip entry %s: %w", name, err)
		}
		written[name] = true
		return nil
	}

	for _, name := range p.order {
		if err := writePart(name); err != nil {
			return err
		}
	}
	var added []string
	for name := range p.parts {
		if !written[name] {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	for _, name := range added {
		if err := writePart(name); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write pptx %s: %w", path, err)
	}
	return nil
}

func (p *Presentation) part(name string) (string, bool) {
	data, ok := p.parts[name]
	if !ok {
		return "", false
	}
	return string(data), true
}

func (p *Presentation) setPart(name string, data string) {
	p.parts[name] = []byte(data)
}

// nextPartNumber finds the highest N among parts matching prefix + N + suffix
// and returns N+1.
func (p *Presentation) nextPartNumber(prefix, suffix string) int {
	max := 0
	for name := range p.parts {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		mid := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		n := 0
		for _, c := range mid {
			if c < '0' || c > '9' {
				n = 0
				break
			}
			n = n*10 + int(c-'0')
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}
