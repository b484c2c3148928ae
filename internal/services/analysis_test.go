package services

import (
	"testing"
)

func TestValidArxivURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://arxiv.org/abs/2406.15758", true},
		{"https://arxiv.org/pdf/2406.15758", true},
		{"https://arxiv.org/pdf/2406.15758.pdf", true},
		{"https://arxiv.org/abs/2406.15758v2", true},
		{"http://arxiv.org/abs/1706.03762", true},
		{"https://arxiv.org/abs/1706.03762 ", false},
		{"https://arxiv.org/list/cs.LG/recent", false},
		{"https://example.com/abs/2406.15758", false},
		{"arxiv.org/abs/2406.15758", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidArxivURL(tc.url); got != tc.want {
			t.Errorf("ValidArxivURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

const prereqMarkdown = `Here is the prerequisite analysis you asked for.

### 1. **Linear Algebra**
- **Matrix multiplication**: needed to follow the attention computation
- **Eigenvalues**: used in the spectral analysis of
  the positional encodings

### 2. **Probability Theory**
- **Softmax**: converts scores into a distribution

### 3. **Empty Topic**
No bullet items here.
`

func TestParsePrerequisites(t *testing.T) {
	got := ParsePrerequisites(prereqMarkdown)

	if len(got) != 3 {
		t.Fatalf("parsed %d topics, want 3: %v", len(got), got)
	}

	la := got["Linear Algebra"]
	if len(la) != 2 {
		t.Fatalf("Linear Algebra items = %v, want 2", la)
	}
	if la[0] != "Matrix multiplication: needed to follow the attention computation" {
		t.Fatalf("first item = %q", la[0])
	}
	// Wrapped bullet bodies collapse onto one line.
	if la[1] != "Eigenvalues: used in the spectral analysis of the positional encodings" {
		t.Fatalf("second item = %q", la[1])
	}

	pt := got["Probability Theory"]
	if len(pt) != 1 || pt[0] != "Softmax: converts scores into a distribution" {
		t.Fatalf("Probability Theory items = %v", pt)
	}

	if items, ok := got["Empty Topic"]; !ok || len(items) != 0 {
		t.Fatalf("Empty Topic = %v, %v; want present with no items", items, ok)
	}
}

func TestParsePrerequisites_NoSections(t *testing.T) {
	got := ParsePrerequisites("The paper is self-contained; no prerequisites.")
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
