package services

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

// writeMinimalTemplate writes a one-layout .pptx into dir.
func writeMinimalTemplate(t *testing.T, dir string) {
	t.Helper()
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
</Types>`,
		"ppt/presentation.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><p:sldIdLst/></p:presentation>`,
		"ppt/_rels/presentation.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"ppt/slideLayouts/slideLayout1.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld name="Title Slide"><p:spTree>
<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="ctrTitle"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>
</p:spTree></p:cSld>
</p:sldLayout>`,
	}

	path := filepath.Join(dir, "template.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, body := range parts {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func newSlidesFixture(t *testing.T, ai *fakeAI) (SlidesService, *store.Artifacts) {
	t.Helper()
	t.Setenv("MISTRAL_EXECUTION_AGENT_ID", "")
	t.Setenv("MISTRAL_ENHANCE_AGENT_ID", "")

	uploadDir := t.TempDir()
	writeMinimalTemplate(t, uploadDir)
	artifacts, err := store.NewArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifacts: %v", err)
	}
	templates := NewTemplateService(logger.Nop(), uploadDir, artifacts)
	return NewSlidesService(logger.Nop(), ai, artifacts, templates), artifacts
}

func seedAssignmentInputs(t *testing.T, artifacts *store.Artifacts) {
	t.Helper()
	if err := artifacts.Save(store.UpdatedSlidesDataFile, map[string]any{
		"content": []map[string]any{{"title": "Intro", "subtitle": "Why", "text": []string{"point"}}},
	}); err != nil {
		t.Fatalf("seed slides data: %v", err)
	}
	if err := artifacts.Save(store.ProcessedLayoutFile, []map[string]any{
		{"slide_name": "Title Slide"},
	}); err != nil {
		t.Fatalf("seed layout data: %v", err)
	}
}

func TestExecutionAgentParsing_ProseReplyLeavesNoArtifact(t *testing.T) {
	ai := &fakeAI{chatReply: "I am unable to produce the assignment you asked for."}
	svc, artifacts := newSlidesFixture(t, ai)
	seedAssignmentInputs(t, artifacts)

	_, _, err := svc.ExecutionAgentParsing(context.Background(), "template.pptx")
	var parseErr *deck.AssignmentParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected AssignmentParseError, got %v", err)
	}
	if artifacts.Exists(store.ExecutionAgentFile) {
		t.Fatalf("%s must not be written when parsing fails", store.ExecutionAgentFile)
	}
}

func TestExecutionAgentParsing_ValidReplySavesArtifact(t *testing.T) {
	ai := &fakeAI{chatReply: "```json\n{\"slides\": [{\"slide_name\": \"Title Slide\", \"placeholders\": {\"Title 1_0\": \"Intro\"}}]}\n```"}
	svc, artifacts := newSlidesFixture(t, ai)
	seedAssignmentInputs(t, artifacts)

	slides, warnings, err := svc.ExecutionAgentParsing(context.Background(), "template.pptx")
	if err != nil {
		t.Fatalf("ExecutionAgentParsing: %v", err)
	}
	if len(slides) != 1 || slides[0].SlideName != "Title Slide" {
		t.Fatalf("slides = %+v", slides)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if !artifacts.Exists(store.ExecutionAgentFile) {
		t.Fatalf("expected %s to be written", store.ExecutionAgentFile)
	}
}
