package pptx

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Slide is a handle onto one slide part of the package.
type Slide struct {
	p    *Presentation
	part string
}

// AddSlideFromLayout appends a new slide cloned from the named layout: the
// layout's placeholder shapes are copied, the slide part is registered in the
// content types, the package relationships, and the slide id list.
func (p *Presentation) AddSlideFromLayout(layoutName string) (*Slide, error) {
	var layout *LayoutInfo
	for i := range p.layouts {
		if p.layouts[i].Name == layoutName {
			layout = &p.layouts[i]
			break
		}
	}
	if layout == nil {
		return nil, fmt.Errorf("layout %q not found in template", layoutName)
	}

	layoutXML, ok := p.part(layout.Part)
	if !ok {
		return nil, fmt.Errorf("layout part %s missing", layout.Part)
	}

	slideXML, err := buildSlideFromLayoutXML(layoutXML)
	if err != nil {
		return nil, fmt.Errorf("clone layout %q: %w", layoutName, err)
	}

	n := p.nextPartNumber("ppt/slides/slide", ".xml")
	slidePart := fmt.Sprintf("ppt/slides/slide%d.xml", n)
	slideRelsPart := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)
	layoutTarget := "../slideLayouts/" + strings.TrimPrefix(layout.Part, "ppt/slideLayouts/")

	p.setPart(slidePart, slideXML)
	p.setPart(slideRelsPart, fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="%s" Target="%s"/></Relationships>`,
		layoutRelType, layoutTarget))

	if err := p.addContentTypeOverride("/"+slidePart, slideContentType); err != nil {
		return nil, err
	}
	rID, err := p.addRelationship(presentationRelsPart, slideRelType, "slides/"+filepath.Base(slidePart))
	if err != nil {
		return nil, err
	}
	if err := p.appendSlideID(rID); err != nil {
		return nil, err
	}

	return &Slide{p: p, part: slidePart}, nil
}

// buildSlideFromLayoutXML produces a slide document containing only the
// layout's placeholder shapes, with the layout root's namespace declarations
// carried over.
func buildSlideFromLayoutXML(layoutXML string) (string, error) {
	rootStart := strings.Index(layoutXML, "<p:sldLayout")
	if rootStart < 0 {
		return "", fmt.Errorf("no sldLayout root element")
	}
	rootTagEnd := strings.IndexByte(layoutXML[rootStart:], '>')
	if rootTagEnd < 0 {
		return "", fmt.Errorf("malformed sldLayout root element")
	}
	rootTag := layoutXML[rootStart : rootStart+rootTagEnd]

	var nsDecls []string
	for _, m := range attrRe.FindAllStringSubmatch(rootTag, -1) {
		if strings.HasPrefix(m[1], "xmlns") {
			nsDecls = append(nsDecls, fmt.Sprintf(`%s="%s"`, m[1], m[2]))
		}
	}
	if len(nsDecls) == 0 {
		nsDecls = []string{
			`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`,
			`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`,
			`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`,
		}
	}

	treeStart, treeEnd := findElement(layoutXML, "p:spTree", 0)
	if treeStart < 0 {
		return "", fmt.Errorf("no spTree in layout")
	}
	tree := layoutXML[treeStart:treeEnd]
	openEnd := strings.IndexByte(tree, '>')
	inner := tree[openEnd+1 : len(tree)-len("</p:spTree>")]

	// Header: group shape properties that every spTree carries.
	header := ""
	if s, e := findElement(inner, "p:grpSpPr", 0); s >= 0 {
		header = inner[:e]
	} else if s, e := findElement(inner, "p:nvGrpSpPr", 0); s >= 0 {
		header = inner[:e]
	}

	var shapes strings.Builder
	pos := 0
	for {
		s, e := findElement(inner, "p:sp", pos)
		if s < 0 {
			break
		}
		block := inner[s:e]
		if strings.Contains(block, "<p:ph") {
			shapes.WriteString(block)
		}
		pos = e
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString("<p:sld " + strings.Join(nsDecls, " ") + ">")
	b.WriteString("<p:cSld><p:spTree>")
	b.WriteString(header)
	b.WriteString(shapes.String())
	b.WriteString("</p:spTree></p:cSld>")
	b.WriteString("<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>")
	b.WriteString("</p:sld>")
	return b.String(), nil
}

// findPlaceholderShape locates the <p:sp> block whose p:ph idx equals idx
// (a missing idx attribute means 0).
func findPlaceholderShape(doc string, idx int) (int, int) {
	pos := 0
	for {
		s, e := findElement(doc, "p:sp", pos)
		if s < 0 {
			return -1, -1
		}
		block := doc[s:e]
		if phIdx, ok := placeholderIndexOf(block); ok && phIdx == idx {
			return s, e
		}
		pos = e
	}
}

func placeholderIndexOf(spBlock string) (int, bool) {
	phStart := strings.Index(spBlock, "<p:ph")
	if phStart < 0 {
		return 0, false
	}
	attrs := tagAttrs(spBlock, phStart)
	if v, ok := attrs["idx"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, true
}

// HasPlaceholder reports whether the slide carries a shape bound to the
// placeholder index.
func (s *Slide) HasPlaceholder(idx int) bool {
	doc, ok := s.p.part(s.part)
	if !ok {
		return false
	}
	st, _ := findPlaceholderShape(doc, idx)
	return st >= 0
}

// SetText replaces the placeholder's text body with one paragraph per entry.
func (s *Slide) SetText(idx int, paragraphs []string) error {
	doc, ok := s.p.part(s.part)
	if !ok {
		return fmt.Errorf("slide part %s missing", s.part)
	}
	spStart, spEnd := findPlaceholderShape(doc, idx)
	if spStart < 0 {
		return fmt.Errorf("no placeholder with index %d on slide", idx)
	}
	sp := doc[spStart:spEnd]

	var body strings.Builder
	body.WriteString("<p:txBody><a:bodyPr/><a:lstStyle/>")
	if len(paragraphs) == 0 {
		body.WriteString("<a:p/>")
	}
	for _, para := range paragraphs {
		body.WriteString("<a:p><a:r><a:t>")
		body.WriteString(escapeXMLText(para))
		body.WriteString("</a:t></a:r></a:p>")
	}
	body.WriteString("</p:txBody>")

	if tbStart, tbEnd := findElement(sp, "p:txBody", 0); tbStart >= 0 {
		sp = sp[:tbStart] + body.String() + sp[tbEnd:]
	} else {
		closeIdx := strings.LastIndex(sp, "</p:sp>")
		if closeIdx < 0 {
			return fmt.Errorf("malformed shape for placeholder %d", idx)
		}
		sp = sp[:closeIdx] + body.String() + sp[closeIdx:]
	}

	s.p.setPart(s.part, doc[:spStart]+sp+doc[spEnd:])
	return nil
}

var cNvPrIDRe = regexp.MustCompile(`<p:cNvPr[^>]*\bid="(\d+)"`)

// InsertPicture embeds the image file into the package and swaps the
// placeholder shape for a picture shape bound to the same placeholder.
func (s *Slide) InsertPicture(idx int, imagePath string) error {
	doc, ok := s.p.part(s.part)
	if !ok {
		return fmt.Errorf("slide part %s missing", s.part)
	}
	spStart, spEnd := findPlaceholderShape(doc, idx)
	if spStart < 0 {
		return fmt.Errorf("no placeholder with index %d on slide", idx)
	}
	sp := doc[spStart:spEnd]

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image %s: %w", imagePath, err)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(imagePath), "."))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return fmt.Errorf("unsupported image extension %q", ext)
	}

	mediaPart := fmt.Sprintf("ppt/media/image%d.%s", s.p.nextMediaNumber(), ext)
	s.p.parts[mediaPart] = data
	if err := s.p.addDefaultExtension(ext, contentType); err != nil {
		return err
	}

	relsPart := "ppt/slides/_rels/" + filepath.Base(s.part) + ".rels"
	rID, err := s.p.addRelationship(relsPart, imageRelType, "../media/"+filepath.Base(mediaPart))
	if err != nil {
		return err
	}

	// Keep the original ph binding so the shape stays a placeholder.
	ph := `<p:ph idx="` + strconv.Itoa(idx) + `"/>`
	if phStart := strings.Index(sp, "<p:ph"); phStart >= 0 {
		phEnd := strings.IndexByte(sp[phStart:], '>')
		if phEnd >= 0 {
			ph = sp[phStart : phStart+phEnd+1]
			if !strings.HasSuffix(ph, "/>") {
				ph = strings.TrimSuffix(ph, ">") + "/>"
			}
		}
	}

	xfrm := `<a:xfrm><a:off x="838200" y="838200"/><a:ext cx="7315200" cy="4114800"/></a:xfrm>`
	if xs, xe := findElement(sp, "a:xfrm", 0); xs >= 0 {
		xfrm = sp[xs:xe]
	}

	shapeID := 1
	for _, m := range cNvPrIDRe.FindAllStringSubmatch(doc, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= shapeID {
			shapeID = n + 1
		}
	}

	pic := fmt.Sprintf(
		`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr>%s</p:nvPr></p:nvPicPr>`+
			`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
			`<p:spPr>%s</p:spPr></p:pic>`,
		shapeID, escapeXMLAttr("Picture "+filepath.Base(imagePath)), ph, rID, xfrm)

	s.p.setPart(s.part, doc[:spStart]+pic+doc[spEnd:])
	return nil
}

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

var mediaPartRe = regexp.MustCompile(`^ppt/media/image(\d+)\.[a-z]+$`)

func (p *Presentation) nextMediaNumber() int {
	max := 0
	for name := range p.parts {
		m := mediaPartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}
