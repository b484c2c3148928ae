package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/paperdeck-backend/internal/deck"
	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
	"github.com/yungbote/paperdeck-backend/internal/platform/envutil"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/media"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

const podcastSystemPrompt = `You are a world-class podcast producer tasked with transforming the provided input text into an engaging and informative podcast script. The input may be unstructured or messy, sourced from PDFs or web pages. Your goal is to extract the most interesting and insightful content for a compelling podcast discussion.

Craft a natural, conversational flow between the host (Jane) and the guest speaker (the author or an expert on the topic). The host always initiates the conversation and interviews the guest, incorporates natural speech patterns, and concludes the conversation. The guest's responses must be substantiated by the input text; keep the conversation PG-rated and free of marketing content. Naturally weave a summary of key points into the closing part of the dialogue.

IMPORTANT RULE: Each line of dialogue should be no more than 100 characters (e.g., can finish within 5-8 seconds)

Give the output in a json format matching {"scratchpad": string, "name_of_guest": string, "dialogue": [{"speaker": string, "text": string}]} where speaker is "Host (Jane)" or "Guest".`

const (
	questionModifier = "PLEASE ANSWER THE FOLLOWING QN:"
	toneModifier     = "TONE: The tone of the podcast should be"
	languageModifier = "OUTPUT LANGUAGE <IMPORTANT>: The the podcast should be"
)

var lengthModifiers = map[string]string{
	"Short (1-2 min)":  "Keep the podcast brief, around 1-2 minutes long.",
	"Medium (3-5 min)": "Aim for a moderate length, about 3-5 minutes.",
	"Long (10-15 min)": "Aim for a longer podcast, around 10-15 minutes.",
}

// PodcastModifiers tune the generated dialogue.
type PodcastModifiers struct {
	Question string `json:"question,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Length   string `json:"length,omitempty"`
	Language string `json:"language,omitempty"`
}

type podcastDialogue struct {
	Scratchpad  string `json:"scratchpad"`
	NameOfGuest string `json:"name_of_guest"`
	Dialogue    []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	} `json:"dialogue"`
}

type PodcastResult struct {
	AudioFile      string `json:"audio_file"`
	TranscriptFile string `json:"transcript_file"`
	Guest          string `json:"guest"`
	Lines          int    `json:"lines"`
	RunID          string `json:"run_id,omitempty"`
}

type PodcastService interface {
	Generate(ctx context.Context, documentURL string, mods PodcastModifiers) (*PodcastResult, error)
	AudioPath(filename string) (string, error)
}

type podcastService struct {
	log        *logger.Logger
	ai         mistral.Client
	tools      media.Tools
	db         *store.DB
	podcastDir string
	hostVoice  string
	guestVoice string
	pause      time.Duration
}

func NewPodcastService(baseLog *logger.Logger, ai mistral.Client, tools media.Tools, db *store.DB, podcastDir string) PodcastService {
	return &podcastService{
		log:        baseLog.With("service", "PodcastService"),
		ai:         ai,
		tools:      tools,
		db:         db,
		podcastDir: podcastDir,
		hostVoice:  envutil.String("PODCAST_HOST_VOICE", "en+f3"),
		guestVoice: envutil.String("PODCAST_GUEST_VOICE", "en+m3"),
		pause:      envutil.Duration("PODCAST_PAUSE", 500*time.Millisecond),
	}
}

func (s *podcastService) Generate(ctx context.Context, documentURL string, mods PodcastModifiers) (*PodcastResult, error) {
	if documentURL == "" {
		return nil, apierr.BadRequest("MISSING_URL", fmt.Errorf("document_url is required"))
	}
	if err := s.tools.AssertReady(ctx); err != nil {
		return nil, fmt.Errorf("audio tools unavailable: %w", err)
	}

	prompt := buildPodcastPrompt(mods)
	s.log.Info("generating podcast dialogue")
	reply, err := s.ai.ChatDocument(ctx, prompt, documentURL)
	if err != nil {
		return nil, fmt.Errorf("generating dialogue: %w", err)
	}

	payload, err := deck.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("parsing dialogue: %w", err)
	}
	var dialogue podcastDialogue
	if err := json.Unmarshal([]byte(payload), &dialogue); err != nil {
		return nil, fmt.Errorf("parsing dialogue: %w", err)
	}
	if len(dialogue.Dialogue) == 0 {
		return nil, fmt.Errorf("dialogue is empty")
	}

	if err := os.MkdirAll(s.podcastDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating podcast dir: %w", err)
	}
	workDir, err := os.MkdirTemp("", "podcast-segments-")
	if err != nil {
		return nil, fmt.Errorf("creating segment dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	guest := dialogue.NameOfGuest
	if guest == "" {
		guest = "Guest"
	}

	var transcript strings.Builder
	segments := make([]string, 0, len(dialogue.Dialogue))
	for i, line := range dialogue.Dialogue {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		voice := s.guestVoice
		speakerLabel := guest
		if strings.HasPrefix(strings.ToLower(line.Speaker), "host") {
			voice = s.hostVoice
			speakerLabel = "Host"
		}
		fmt.Fprintf(&transcript, "**%s**: %s\n\n", speakerLabel, text)

		segPath := filepath.Join(workDir, fmt.Sprintf("line_%03d.wav", i))
		if _, err := s.tools.SynthesizeSpeech(ctx, text, voice, segPath); err != nil {
			return nil, fmt.Errorf("synthesizing line %d: %w", i, err)
		}
		segments = append(segments, segPath)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("dialogue produced no speakable lines")
	}

	id := uuid.NewString()
	audioPath := filepath.Join(s.podcastDir, id+".mp3")
	if _, err := s.tools.ConcatAudio(ctx, segments, s.pause, audioPath); err != nil {
		return nil, fmt.Errorf("concatenating audio: %w", err)
	}

	transcriptPath := filepath.Join(s.podcastDir, id+"_transcript.md")
	if err := os.WriteFile(transcriptPath, []byte(transcript.String()), 0o644); err != nil {
		return nil, fmt.Errorf("saving transcript: %w", err)
	}

	result := &PodcastResult{
		AudioFile:      filepath.Base(audioPath),
		TranscriptFile: filepath.Base(transcriptPath),
		Guest:          guest,
		Lines:          len(segments),
	}
	if s.db != nil {
		run := &store.GenerationRun{
			PaperURL:    documentURL,
			Status:      store.RunStatusCompleted,
			PodcastPath: audioPath,
		}
		if err := s.db.CreateRun(run); err == nil {
			result.RunID = run.ID.String()
		}
	}
	s.log.Info("podcast generated", "lines", len(segments), "audio", result.AudioFile)
	return result, nil
}

func (s *podcastService) AudioPath(filename string) (string, error) {
	path := filepath.Join(s.podcastDir, filepath.Base(filename))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", apierr.NotFound("NOT_FOUND", fmt.Errorf("podcast file %q not found", filename))
	}
	return path, nil
}

func buildPodcastPrompt(mods PodcastModifiers) string {
	parts := []string{podcastSystemPrompt}
	if mods.Question != "" {
		parts = append(parts, questionModifier+" "+mods.Question)
	}
	if mods.Tone != "" {
		parts = append(parts, toneModifier+" "+mods.Tone+".")
	}
	if mod, ok := lengthModifiers[mods.Length]; ok {
		parts = append(parts, mod)
	}
	if mods.Language != "" {
		parts = append(parts, languageModifier+" "+mods.Language+".")
	}
	return strings.Join(parts, "\n\n")
}
