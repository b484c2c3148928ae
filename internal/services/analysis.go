package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

// StudentLevel maps the API's numeric level to the audience description used
// in prompts.
type StudentLevel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var studentLevels = []StudentLevel{
	{ID: "1", Name: "PhD Researcher"},
	{ID: "2", Name: "Masters Student"},
	{ID: "3", Name: "Undergraduate Student"},
}

var levelDescriptions = map[string]string{
	"1": "phd researcher",
	"2": "masters student",
	"3": "undergraduate student",
}

var arxivURLRe = regexp.MustCompile(`^https?://arxiv\.org/(?:abs|pdf)/\d{4}\.\d+(?:v\d+)?(?:\.pdf)?$`)

// Prerequisites maps a topic title to its "subtopic: explanation" items.
type Prerequisites map[string][]string

type AnalysisService interface {
	StudentLevels() []StudentLevel
	AnalyzeURL(ctx context.Context, url, studentLevel string) (Prerequisites, error)
	AnalyzePDF(ctx context.Context, pdf []byte, studentLevel string) (Prerequisites, error)
	StoredPrerequisites() (Prerequisites, error)
}

type analysisService struct {
	log       *logger.Logger
	ai        mistral.Client
	artifacts *store.Artifacts
	uploadDir string
	rdb       *redis.Client
	cacheTTL  time.Duration
}

func NewAnalysisService(baseLog *logger.Logger, ai mistral.Client, artifacts *store.Artifacts, uploadDir string, rdb *redis.Client) AnalysisService {
	return &analysisService{
		log:       baseLog.With("service", "AnalysisService"),
		ai:        ai,
		artifacts: artifacts,
		uploadDir: uploadDir,
		rdb:       rdb,
		cacheTTL:  24 * time.Hour,
	}
}

func (s *analysisService) StudentLevels() []StudentLevel { return studentLevels }

func ValidArxivURL(url string) bool { return arxivURLRe.MatchString(url) }

func analysisCacheKey(url, level string) string {
	sum := sha256.Sum256([]byte(url + "|" + level))
	return "analysis:" + hex.EncodeToString(sum[:])
}

func (s *analysisService) AnalyzeURL(ctx context.Context, url, studentLevel string) (Prerequisites, error) {
	if !ValidArxivURL(url) {
		return nil, apierr.BadRequest("INVALID_URL",
			fmt.Errorf("invalid arXiv URL format, expected https://arxiv.org/abs/2406.15758 or https://arxiv.org/pdf/2406.15758"))
	}
	desc, ok := levelDescriptions[studentLevel]
	if !ok {
		return nil, apierr.BadRequest("INVALID_LEVEL", fmt.Errorf("invalid student level %q", studentLevel))
	}

	if cached := s.cacheGet(ctx, url, studentLevel); cached != nil {
		s.log.Info("analysis cache hit", "level", studentLevel)
		return cached, nil
	}

	prompt := fmt.Sprintf("Analyze this research paper and provide a comprehensive list of prerequisite topics that a %s should be familiar with to fully understand the concepts presented", desc)
	reply, err := s.ai.ChatDocument(ctx, prompt, url)
	if err != nil {
		return nil, fmt.Errorf("analyzing paper: %w", err)
	}

	prereqs := ParsePrerequisites(reply)
	if err := s.artifacts.Save(store.PrerequisitesFile, prereqs); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, url, studentLevel, prereqs)
	return prereqs, nil
}

func (s *analysisService) AnalyzePDF(ctx context.Context, pdf []byte, studentLevel string) (Prerequisites, error) {
	desc, ok := levelDescriptions[studentLevel]
	if !ok {
		return nil, apierr.BadRequest("INVALID_LEVEL", fmt.Errorf("invalid student level %q", studentLevel))
	}
	if len(pdf) == 0 {
		return nil, apierr.BadRequest("EMPTY_UPLOAD", fmt.Errorf("uploaded PDF is empty"))
	}

	// The upload area holds exactly one working paper at a time.
	paperPath := filepath.Join(s.uploadDir, "paper.pdf")
	if err := os.WriteFile(paperPath, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("saving uploaded paper: %w", err)
	}

	fileID, err := s.ai.UploadFile(ctx, "paper.pdf", pdf)
	if err != nil {
		return nil, fmt.Errorf("uploading paper: %w", err)
	}
	signedURL, err := s.ai.SignedURL(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("signing paper url: %w", err)
	}

	prompt := fmt.Sprintf("Analyze this research paper and provide a comprehensive list of prerequisite topics that a %s should be familiar with to fully understand the concepts presented", desc)
	reply, err := s.ai.ChatDocument(ctx, prompt, signedURL)
	if err != nil {
		return nil, fmt.Errorf("analyzing paper: %w", err)
	}

	prereqs := ParsePrerequisites(reply)
	if err := s.artifacts.Save(store.PrerequisitesFile, prereqs); err != nil {
		return nil, err
	}
	return prereqs, nil
}

func (s *analysisService) StoredPrerequisites() (Prerequisites, error) {
	var prereqs Prerequisites
	if err := s.artifacts.Load(store.PrerequisitesFile, &prereqs); err != nil {
		return nil, apierr.NotFound("NO_PREREQUISITES", fmt.Errorf("no prerequisite analysis stored yet"))
	}
	return prereqs, nil
}

func (s *analysisService) cacheGet(ctx context.Context, url, level string) Prerequisites {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, analysisCacheKey(url, level)).Bytes()
	if err != nil {
		return nil
	}
	var prereqs Prerequisites
	if json.Unmarshal(raw, &prereqs) != nil {
		return nil
	}
	return prereqs
}

func (s *analysisService) cacheSet(ctx context.Context, url, level string, prereqs Prerequisites) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(prereqs)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, analysisCacheKey(url, level), raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("analysis cache write failed", "error", err)
	}
}

var (
	sectionRe  = regexp.MustCompile(`### \d+\.\s*`)
	titleRe    = regexp.MustCompile(`^\*\*(.*?)\*\*`)
	subItemRe  = regexp.MustCompile(`(?s)-\s*\*\*(.*?)\*\*:\s*(.*?)(?:\n\s*-|\z)`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ParsePrerequisites parses the model's markdown reply into topic → items.
// Sections look like "### 1. **Linear Algebra**" followed by
// "- **Eigenvalues**: why they matter" bullets.
func ParsePrerequisites(text string) Prerequisites {
	prereqs := Prerequisites{}
	sections := sectionRe.Split(text, -1)
	for _, section := range sections[min(1, len(sections)):] {
		tm := titleRe.FindStringSubmatch(section)
		if tm == nil {
			continue
		}
		title := strings.TrimSpace(tm[1])
		var items []string
		rest := section
		for {
			m := subItemRe.FindStringSubmatchIndex(rest)
			if m == nil {
				break
			}
			sub := strings.TrimSpace(rest[m[2]:m[3]])
			body := strings.TrimSpace(whitespace.ReplaceAllString(rest[m[4]:m[5]], " "))
			items = append(items, sub+": "+body)
			// Resume at the "-" that terminated this item so adjacent
			// bullets are all captured.
			next := m[5]
			if next >= len(rest) {
				break
			}
			rest = rest[next:]
		}
		prereqs[title] = items
	}
	return prereqs
}
