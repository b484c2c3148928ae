package pptx

import (
	"regexp"
	"strings"
)

// findElement locates the full extent of the first <tag ...>...</tag> (or
// self-closing <tag .../>) element at or after from. It accounts for nested
// elements of the same tag. Returns start and end offsets into s, or (-1, -1).
func findElement(s, tag string, from int) (int, int) {
	open := "<" + tag
	for i := from; i < len(s); {
		idx := strings.Index(s[i:], open)
		if idx < 0 {
			return -1, -1
		}
		start := i + idx
		after := start + len(open)
		if after >= len(s) {
			return -1, -1
		}
		// Reject prefix matches like <p:spPr when searching <p:sp.
		switch s[after] {
		case ' ', '>', '/', '\t', '\n', '\r':
		default:
			i = after
			continue
		}
		tagEnd := strings.IndexByte(s[start:], '>')
		if tagEnd < 0 {
			return -1, -1
		}
		tagEnd += start
		if s[tagEnd-1] == '/' {
			return start, tagEnd + 1
		}
		// Scan forward for the matching close tag, tracking nesting.
		depth := 1
		pos := tagEnd + 1
		closeTag := "</" + tag + ">"
		for depth > 0 {
			nextOpen := indexElementOpen(s, tag, pos)
			nextClose := strings.Index(s[pos:], closeTag)
			if nextClose < 0 {
				return -1, -1
			}
			nextClose += pos
			if nextOpen >= 0 && nextOpen < nextClose {
				// A nested opening tag; self-closing nested tags don't
				// change depth.
				end := strings.IndexByte(s[nextOpen:], '>')
				if end < 0 {
					return -1, -1
				}
				end += nextOpen
				if s[end-1] != '/' {
					depth++
				}
				pos = end + 1
				continue
			}
			depth--
			pos = nextClose + len(closeTag)
		}
		return start, pos
	}
	return -1, -1
}

// indexElementOpen finds the next occurrence of an opening <tag> respecting
// word boundaries, or -1.
func indexElementOpen(s, tag string, from int) int {
	open := "<" + tag
	for i := from; i < len(s); {
		idx := strings.Index(s[i:], open)
		if idx < 0 {
			return -1
		}
		start := i + idx
		after := start + len(open)
		if after < len(s) {
			switch s[after] {
			case ' ', '>', '/', '\t', '\n', '\r':
				return start
			}
		}
		i = after
	}
	return -1
}

var attrRe = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)\s*=\s*"([^"]*)"`)

// tagAttrs parses the attributes of the opening tag starting at s[start].
func tagAttrs(s string, start int) map[string]string {
	end := strings.IndexByte(s[start:], '>')
	if end < 0 {
		return nil
	}
	tag := s[start : start+end]
	attrs := map[string]string{}
	for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

func escapeXMLText(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return r.Replace(s)
}

func escapeXMLAttr(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
