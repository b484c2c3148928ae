package pptx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

func (p *Presentation) addContentTypeOverride(partName, contentType string) error {
	doc, ok := p.part(contentTypesPart)
	if !ok {
		return fmt.Errorf("missing %s", contentTypesPart)
	}
	needle := `PartName="` + partName + `"`
	if strings.Contains(doc, needle) {
		return nil
	}
	closeIdx := strings.LastIndex(doc, "</Types>")
	if closeIdx < 0 {
		return fmt.Errorf("malformed %s", contentTypesPart)
	}
	entry := fmt.Sprintf(`<Override PartName="%s" ContentType="%s"/>`, partName, contentType)
	p.setPart(contentTypesPart, doc[:closeIdx]+entry+doc[closeIdx:])
	return nil
}

func (p *Presentation) addDefaultExtension(ext, contentType string) error {
	doc, ok := p.part(contentTypesPart)
	if !ok {
		return fmt.Errorf("missing %s", contentTypesPart)
	}
	needle := `Extension="` + ext + `"`
	if strings.Contains(doc, needle) {
		return nil
	}
	closeIdx := strings.LastIndex(doc, "</Types>")
	if closeIdx < 0 {
		return fmt.Errorf("malformed %s", contentTypesPart)
	}
	entry := fmt.Sprintf(`<Default Extension="%s" ContentType="%s"/>`, ext, contentType)
	p.setPart(contentTypesPart, doc[:closeIdx]+entry+doc[closeIdx:])
	return nil
}

var relIDRe = regexp.MustCompile(`\bId="rId(\d+)"`)

// addRelationship appends a relationship to the given .rels part, creating
// the part when absent, and returns the new relationship id.
func (p *Presentation) addRelationship(relsPart, relType, target string) (string, error) {
	doc, ok := p.part(relsPart)
	if !ok {
		doc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
	}
	max := 0
	for _, m := range relIDRe.FindAllStringSubmatch(doc, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	rID := fmt.Sprintf("rId%d", max+1)

	closeIdx := strings.LastIndex(doc, "</Relationships>")
	if closeIdx < 0 {
		return "", fmt.Errorf("malformed rels part %s", relsPart)
	}
	entry := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`, rID, relType, escapeXMLAttr(target))
	p.setPart(relsPart, doc[:closeIdx]+entry+doc[closeIdx:])
	return rID, nil
}

// relationshipTarget resolves a relationship id to its target within a part.
func (p *Presentation) relationshipTarget(relsPart, rID string) (string, bool) {
	doc, ok := p.part(relsPart)
	if !ok {
		return "", false
	}
	re := regexp.MustCompile(`<Relationship\b[^>]*\bId="` + regexp.QuoteMeta(rID) + `"[^>]*>`)
	m := re.FindStringIndex(doc)
	if m == nil {
		return "", false
	}
	attrs := tagAttrs(doc, m[0])
	t, ok := attrs["Target"]
	return t, ok
}

// dropRelationship removes a relationship element from a .rels part.
func (p *Presentation) dropRelationship(relsPart, rID string) error {
	doc, ok := p.part(relsPart)
	if !ok {
		return fmt.Errorf("missing rels part %s", relsPart)
	}
	re := regexp.MustCompile(`<Relationship\b[^>]*\bId="` + regexp.QuoteMeta(rID) + `"[^>]*/>`)
	next := re.ReplaceAllString(doc, "")
	if next == doc {
		return fmt.Errorf("relationship %s not found in %s", rID, relsPart)
	}
	p.setPart(relsPart, next)
	return nil
}

type slideIDEntry struct {
	id    int
	rID   string
	start int
	end   int
}

var sldIDRe = regexp.MustCompile(`<p:sldId\b[^>]*/>`)

func (p *Presentation) slideIDEntries() []slideIDEntry {
	doc, ok := p.part(presentationPart)
	if !ok {
		return nil
	}
	var entries []slideIDEntry
	for _, loc := range sldIDRe.FindAllStringIndex(doc, -1) {
		attrs := tagAttrs(doc, loc[0])
		e := slideIDEntry{start: loc[0], end: loc[1], rID: attrs["r:id"]}
		if v, ok := attrs["id"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				e.id = n
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// appendSlideID adds a slide id entry referencing rID at the end of the
// slide id list.
func (p *Presentation) appendSlideID(rID string) error {
	doc, ok := p.part(presentationPart)
	if !ok {
		return fmt.Errorf("missing %s", presentationPart)
	}
	// Slide ids start at 256 by convention.
	nextID := 256
	for _, e := range p.slideIDEntries() {
		if e.id >= nextID {
			nextID = e.id + 1
		}
	}
	entry := fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, nextID, rID)

	if closeIdx := strings.Index(doc, "</p:sldIdLst>"); closeIdx >= 0 {
		p.setPart(presentationPart, doc[:closeIdx]+entry+doc[closeIdx:])
		return nil
	}
	if selfIdx := strings.Index(doc, "<p:sldIdLst/>"); selfIdx >= 0 {
		repl := "<p:sldIdLst>" + entry + "</p:sldIdLst>"
		p.setPart(presentationPart, doc[:selfIdx]+repl+doc[selfIdx+len("<p:sldIdLst/>"):])
		return nil
	}
	// No list at all: place one right after the master id list.
	if mEnd := strings.Index(doc, "</p:sldMasterIdLst>"); mEnd >= 0 {
		at := mEnd + len("</p:sldMasterIdLst>")
		p.setPart(presentationPart, doc[:at]+"<p:sldIdLst>"+entry+"</p:sldIdLst>"+doc[at:])
		return nil
	}
	return fmt.Errorf("no slide id list in %s", presentationPart)
}

// RemoveSlideAt removes the i-th slide (0-based): its relationship is dropped
// first, then the slide id entry, then the orphaned parts. Dropping the
// relationship before the list entry avoids a dangling reference if the
// second step fails.
func (p *Presentation) RemoveSlideAt(i int) error {
	entries := p.slideIDEntries()
	if i < 0 || i >= len(entries) {
		return fmt.Errorf("slide index %d out of range (have %d)", i, len(entries))
	}
	entry := entries[i]

	target, ok := p.relationshipTarget(presentationRelsPart, entry.rID)
	if !ok {
		return fmt.Errorf("slide relationship %s not found", entry.rID)
	}
	if err := p.dropRelationship(presentationRelsPart, entry.rID); err != nil {
		return err
	}

	doc, _ := p.part(presentationPart)
	p.setPart(presentationPart, doc[:entry.start]+doc[entry.end:])

	slidePart := "ppt/" + strings.TrimPrefix(target, "/ppt/")
	if !strings.HasPrefix(target, "/") {
		slidePart = "ppt/" + target
	}
	relsPart := "ppt/slides/_rels/" + strings.TrimPrefix(slidePart, "ppt/slides/") + ".rels"
	delete(p.parts, slidePart)
	delete(p.parts, relsPart)

	if ct, ok := p.part(contentTypesPart); ok {
		re := regexp.MustCompile(`<Override PartName="/` + regexp.QuoteMeta(slidePart) + `"[^>]*/>`)
		p.setPart(contentTypesPart, re.ReplaceAllString(ct, ""))
	}
	return nil
}
