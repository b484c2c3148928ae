package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
	"github.com/yungbote/paperdeck-backend/internal/platform/envutil"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/pptx"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

type SlidesService interface {
	GenerateSlideData(ctx context.Context, studentLevel, documentURL string, numSlides int, selectedTopics []string) (*deck.Outline, error)
	EnhanceSlides(ctx context.Context) (string, error)
	ExecutionAgentParsing(ctx context.Context, templateName string) ([]deck.AssignedSlide, []string, error)
}

type slidesService struct {
	log              *logger.Logger
	ai               mistral.Client
	artifacts        *store.Artifacts
	templates        TemplateService
	enhanceAgentID   string
	executionAgentID string
}

func NewSlidesService(baseLog *logger.Logger, ai mistral.Client, artifacts *store.Artifacts, templates TemplateService) SlidesService {
	return &slidesService{
		log:              baseLog.With("service", "SlidesService"),
		ai:               ai,
		artifacts:        artifacts,
		templates:        templates,
		enhanceAgentID:   envutil.String("MISTRAL_ENHANCE_AGENT_ID", ""),
		executionAgentID: envutil.String("MISTRAL_EXECUTION_AGENT_ID", ""),
	}
}

func (s *slidesService) GenerateSlideData(ctx context.Context, studentLevel, documentURL string, numSlides int, selectedTopics []string) (*deck.Outline, error) {
	if numSlides <= 0 {
		numSlides = 10
	}
	var prereqs Prerequisites
	if err := s.artifacts.Load(store.PrerequisitesFile, &prereqs); err != nil {
		return nil, apierr.NotFound("NO_PREREQUISITES",
			fmt.Errorf("prerequisites data not found, run analyze/url or analyze/pdf first"))
	}

	filtered := prereqs
	if len(selectedTopics) > 0 {
		filtered = Prerequisites{}
		for _, topic := range selectedTopics {
			if items, ok := prereqs[topic]; ok {
				filtered[topic] = items
			}
		}
	}

	prompt := slideDataPrompt(studentLevel, numSlides, filtered)
	s.log.Info("generating slide data", "level", studentLevel, "slides", numSlides, "topics", len(filtered))
	reply, err := s.ai.ChatDocument(ctx, prompt, documentURL)
	if err != nil {
		return nil, fmt.Errorf("generating slide outline: %w", err)
	}

	payload, err := deck.ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	var outline deck.Outline
	if err := json.Unmarshal([]byte(payload), &outline); err != nil {
		return nil, fmt.Errorf("parsing slide outline: %w", err)
	}
	if len(outline.Content) == 0 {
		return nil, fmt.Errorf("slide outline has no slides")
	}
	if err := s.artifacts.Save(store.SlidesDataFile, &outline); err != nil {
		return nil, err
	}
	return &outline, nil
}

func slideDataPrompt(studentLevel string, numSlides int, prereqs Prerequisites) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this research paper and create a structured outline for a PowerPoint presentation tailored for a %s audience, where student_level is either 'PhD researcher', 'Master's student', or 'Undergrad student'. Follow these guidelines:\n\n", studentLevel)
	b.WriteString("Pictures should only contain figure number, example (figure 2)\n\n")
	if len(prereqs) > 0 {
		topics, _ := json.Marshal(prereqs)
		fmt.Fprintf(&b, "ONLY INCLUDE THE TOPICS IN %s FOR THE SLIDES\n\n", topics)
	}
	b.WriteString("Important: Once a formula is shown do not use it again\n\n")
	b.WriteString("CONSIDER Pictures AND FORMULA AS IMAGES\n\n")
	b.WriteString("DO NOT KEEP IMAGE/Pictures AND FORMULA IN SAME SLIDE\n\n")
	fmt.Fprintf(&b, "Total slides should be : %d **Always follow this, must not be more than this**\n\n", numSlides)
	b.WriteString("Title Slide: Create a concise, engaging title that captures the paper's essence. This is the first slide and a catchy subtitle. Bullets must be empty in this\n\n")
	b.WriteString("Agenda slide: The second slide which contains all subtitles of other slides as its bullet points\n\n")
	fmt.Fprintf(&b, "Then State the paper's main research question and significance. Highlight key background information relevant to the %s audience\n\n", studentLevel)
	b.WriteString("For each section of the paper create a 'Section Overview' slide with bullet points summarizing key concepts and any critical formulas in LaTeX notation, followed by in-depth explanation slides only where necessary.\n\n")
	fmt.Fprintf(&b, "Present key findings with supporting data or graphs, interpret results at a level appropriate for the %s, and close with Discussion & Implications, a Key Takeaways slide (3-5 points) and a Further Reading slide (3-4 resources).\n\n", studentLevel)
	b.WriteString("For each slide, provide a clear concise headline as the subtitle, 5-7 bullet points of main content, and notes on any visuals from the paper mentioning the figure number.\n\n")
	b.WriteString("Make sure to include the mathematical formulas where ever necessary\n\n")
	b.WriteString("Give the output in a json format matching {\"content\":[{\"title\",\"subtitle\",\"text\":[],\"formula_images\":[{\"formula\",\"name\"}],\"picture\":[]}]} and a dictionary tagging formula and its name in json")
	return b.String()
}

// EnhanceSlides runs an optional agent pass over the enriched slide data.
// The original artifact is only overwritten when the agent output survives
// validation; anything questionable leaves the file untouched.
func (s *slidesService) EnhanceSlides(ctx context.Context) (string, error) {
	var current json.RawMessage
	if err := s.artifacts.Load(store.UpdatedSlidesDataFile, &current); err != nil {
		return "", apierr.NotFound("NO_SLIDES_DATA",
			fmt.Errorf("updated_slides_data.json not found, run process-slides-data first"))
	}

	query := fmt.Sprintf(`Understand the current slides data as provided:
%s

And more data to the slides and maintain the same json format as the output

For slides with formulas, explain them in technical terms rather than giving examples of usage`, current)

	reply, err := s.completeWithAgent(ctx, s.enhanceAgentID, query)
	if err != nil {
		return "", fmt.Errorf("enhance agent: %w", err)
	}

	payload, err := deck.ExtractJSON(reply)
	if err != nil {
		s.log.Warn("enhance agent returned no JSON, keeping original slides", "error", err)
		return "Agent returned invalid data. Original slides kept unchanged.", nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil || data == nil {
		s.log.Warn("enhance agent returned null data, keeping original slides")
		return "Agent returned null data. Original slides kept unchanged.", nil
	}
	content, ok := data["content"].([]any)
	if !ok || len(content) == 0 {
		s.log.Warn("enhance agent output missing content, keeping original slides")
		return "Agent returned invalid data format. Original slides kept unchanged.", nil
	}
	first, ok := content[0].(map[string]any)
	if !ok {
		return "Agent returned invalid data format. Original slides kept unchanged.", nil
	}
	for _, field := range []string{"title", "subtitle"} {
		if _, present := first[field]; !present {
			s.log.Warn("enhance agent output missing required field", "field", field)
			return fmt.Sprintf("Agent output is missing required field %q. Original slides kept unchanged.", field), nil
		}
	}

	if err := s.artifacts.Save(store.UpdatedSlidesDataFile, data); err != nil {
		return "", err
	}
	return "Slides data enhanced and saved successfully", nil
}

func (s *slidesService) ExecutionAgentParsing(ctx context.Context, templateName string) ([]deck.AssignedSlide, []string, error) {
	templatePath, err := s.templates.Resolve(templateName)
	if err != nil {
		return nil, nil, err
	}
	pres, err := pptx.Open(templatePath)
	if err != nil {
		return nil, nil, &deck.TemplateParseError{Path: templatePath, Err: err}
	}
	layoutNames := pres.LayoutNames()

	var slidesData json.RawMessage
	if err := s.artifacts.Load(store.UpdatedSlidesDataFile, &slidesData); err != nil {
		return nil, nil, apierr.NotFound("NO_SLIDES_DATA",
			fmt.Errorf("updated_slides_data.json not found"))
	}
	var layoutData json.RawMessage
	if err := s.artifacts.Load(store.ProcessedLayoutFile, &layoutData); err != nil {
		return nil, nil, apierr.NotFound("NO_LAYOUT_DATA",
			fmt.Errorf("processed_layout.json not found"))
	}

	query := fmt.Sprintf(`Understand the current slides data as provided:
%s

Now create a new json with layouts chosen from %v for each of the slide. The json contains the placeholders.name_placeholders.index from %s as the key and the content as the values.

Using the fields in the slides data namely title, subtitle, text, formula_images and picture to the placeholder of the layout selected for the slide.

Give new titles for each slide and remove the subtitle

Treat both formulas and pictures as images when assigning the layout

If the content has bullet points, then be creative in choosing layouts which contain texts and title type

Always add the layout name in the json chosen from the %v

Add \n in the placeholders to create new lines

Do not add your own custom placeholders in the slide layout, use only the ones provided

Final output must be in JSON only`, slidesData, layoutNames, layoutData, layoutNames)

	reply, err := s.completeWithAgent(ctx, s.executionAgentID, query)
	if err != nil {
		return nil, nil, fmt.Errorf("execution agent: %w", err)
	}

	known := map[string]bool{}
	for _, name := range layoutNames {
		known[name] = true
	}
	slides, warnings, err := deck.ParseAssignment(reply, known)
	if err != nil {
		return nil, nil, err
	}
	if len(slides) == 0 {
		return nil, nil, &deck.AssignmentStructureError{Reason: "generated JSON contains no slides"}
	}
	for _, w := range warnings {
		s.log.Warn("assignment warning", "warning", w)
	}

	if err := s.artifacts.Save(store.ExecutionAgentFile, map[string]any{"slides": slides}); err != nil {
		return nil, nil, err
	}
	return slides, warnings, nil
}

// completeWithAgent prefers the configured agent and falls back to plain
// chat when no agent is configured or the agent call fails.
func (s *slidesService) completeWithAgent(ctx context.Context, agentID, query string) (string, error) {
	if agentID == "" {
		s.log.Warn("no agent configured, falling back to chat completion")
		return s.ai.ChatText(ctx, query)
	}
	reply, err := s.ai.AgentComplete(ctx, agentID, query)
	if err != nil {
		s.log.Warn("agent call failed, falling back to chat completion", "error", err)
		return s.ai.ChatText(ctx, query)
	}
	return reply, nil
}
