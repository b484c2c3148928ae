package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

type PlaceholderType string

const (
	PlaceholderText    PlaceholderType = "text"
	PlaceholderPicture PlaceholderType = "picture"
	PlaceholderOther   PlaceholderType = "other"
)

type PlaceholderInfo struct {
	Name  string          `json:"name"`
	Type  PlaceholderType `json:"type"`
	Index int             `json:"index"`
}

type LayoutInfo struct {
	Name         string            `json:"name"`
	Part         string            `json:"-"`
	Placeholders []PlaceholderInfo `json:"placeholders"`
}

var layoutPartRe = regexp.MustCompile(`^ppt/slideLayouts/slideLayout(\d+)\.xml$`)

func (p *Presentation) parseLayouts() ([]LayoutInfo, error) {
	type numbered struct {
		n    int
		part string
	}
	var found []numbered
	for name := range p.parts {
		m := layoutPartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{n: n, part: name})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	layouts := make([]LayoutInfo, 0, len(found))
	for _, f := range found {
		info, err := parseLayoutPart(f.part, p.parts[f.part])
		if err != nil {
			return nil, fmt.Errorf("parse layout %s: %w", f.part, err)
		}
		layouts = append(layouts, info)
	}
	return layouts, nil
}

// parseLayoutPart walks the layout XML token stream collecting the layout
// name (cSld/@name) and one placeholder descriptor per shape carrying a
// p:ph element.
func parseLayoutPart(part string, data []byte) (LayoutInfo, error) {
	info := LayoutInfo{Part: part}

	dec := xml.NewDecoder(bytes.NewReader(data))
	spDepth := 0
	var cur *PlaceholderInfo
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "cSld":
				for _, a := range el.Attr {
					if a.Name.Local == "name" {
						info.Name = a.Value
					}
				}
			case "sp":
				spDepth++
				if spDepth == 1 {
					cur = &PlaceholderInfo{Index: -1}
				}
			case "cNvPr":
				if cur != nil && cur.Name == "" {
					for _, a := range el.Attr {
						if a.Name.Local == "name" {
							cur.Name = a.Value
						}
					}
				}
			case "ph":
				if cur != nil {
					cur.Index = 0
					cur.Type = PlaceholderText
					for _, a := range el.Attr {
						switch a.Name.Local {
						case "idx":
							if n, err := strconv.Atoi(a.Value); err == nil {
								cur.Index = n
							}
						case "type":
							cur.Type = placeholderTypeOf(a.Value)
						}
					}
				}
			}
		case xml.EndElement:
			if el.Name.Local == "sp" {
				spDepth--
				if spDepth == 0 && cur != nil {
					if cur.Index >= 0 {
						info.Placeholders = append(info.Placeholders, *cur)
					}
					cur = nil
				}
			}
		}
	}

	if info.Name == "" {
		info.Name = part
	}
	return info, nil
}

func placeholderTypeOf(phType string) PlaceholderType {
	switch phType {
	case "", "title", "ctrTitle", "subTitle", "body":
		return PlaceholderText
	case "pic":
		return PlaceholderPicture
	default:
		return PlaceholderOther
	}
}
