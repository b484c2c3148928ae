package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/paperdeck-backend/internal/platform/apierr"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
	"github.com/yungbote/paperdeck-backend/internal/platform/mistral"
	"github.com/yungbote/paperdeck-backend/internal/store"
)

const (
	chatChunkSize    = 4800
	chatChunkOverlap = 600
	chatDefaultK     = 5
	chatMaxHistory   = 10

	chatNoDocsAnswer = "I couldn't find any relevant information to answer your question. Please try a different question or upload more documents."
)

const chatPromptTemplate = `You are an expert research assistant. Use the provided context from research papers to answer the question. If the context does not contain the answer, say so instead of guessing.

Question: %s

Context:
%s

Answer:`

// ChatQuery is one question against the ingested papers. CollectionNames
// narrows the search; empty means all active collections. K defaults to 5.
type ChatQuery struct {
	Question        string   `json:"question"`
	SessionID       string   `json:"session_id"`
	CollectionNames []string `json:"collection_names"`
	K               int      `json:"k"`
}

type ChatSource struct {
	Source         string `json:"source"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
}

type ChatAnswer struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"source_docs"`
}

// IngestResult reports where an ingested paper landed.
type IngestResult struct {
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
}

type ChatService interface {
	InitSession() string
	IngestURL(ctx context.Context, url string) (*IngestResult, error)
	IngestPDF(ctx context.Context, filename string, pdf []byte) (*IngestResult, error)
	Query(ctx context.Context, q ChatQuery) (*ChatAnswer, error)
	Collections() []string
}

type chatExchange struct {
	question string
	answer   string
}

type chatService struct {
	log     *logger.Logger
	ai      mistral.Client
	vectors *store.VectorStore

	mu       sync.Mutex
	sessions map[string][]chatExchange
}

func NewChatService(baseLog *logger.Logger, ai mistral.Client, vectors *store.VectorStore) ChatService {
	return &chatService{
		log:      baseLog.With("service", "ChatService"),
		ai:       ai,
		vectors:  vectors,
		sessions: map[string][]chatExchange{},
	}
}

func (s *chatService) InitSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = nil
	s.mu.Unlock()
	return id
}

func (s *chatService) Collections() []string { return s.vectors.Collections() }

func (s *chatService) IngestURL(ctx context.Context, url string) (*IngestResult, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apierr.BadRequest("MISSING_URL", fmt.Errorf("url is required"))
	}
	return s.ingest(ctx, url, url)
}

func (s *chatService) IngestPDF(ctx context.Context, filename string, pdf []byte) (*IngestResult, error) {
	if len(pdf) == 0 {
		return nil, apierr.BadRequest("EMPTY_UPLOAD", fmt.Errorf("uploaded PDF is empty"))
	}
	fileID, err := s.ai.UploadFile(ctx, filename, pdf)
	if err != nil {
		return nil, fmt.Errorf("uploading paper: %w", err)
	}
	signedURL, err := s.ai.SignedURL(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("signing paper url: %w", err)
	}
	return s.ingest(ctx, signedURL, filename)
}

func (s *chatService) ingest(ctx context.Context, documentURL, source string) (*IngestResult, error) {
	ocr, err := s.ai.ProcessOCR(ctx, documentURL, false)
	if err != nil {
		return nil, fmt.Errorf("running ocr: %w", err)
	}

	var pages []string
	for _, page := range ocr.Pages {
		if strings.TrimSpace(page.Markdown) != "" {
			pages = append(pages, page.Markdown)
		}
	}
	text := strings.Join(pages, "\n\n")
	chunks := chunkText(text, chatChunkSize, chatChunkOverlap)
	if len(chunks) == 0 {
		return nil, apierr.BadRequest("EMPTY_DOCUMENT", fmt.Errorf("document produced no text"))
	}

	vectors, err := s.ai.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	title := documentTitle(text, source)
	docs := make([]store.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = store.Document{
			Source:  source,
			Type:    "paper",
			Title:   title,
			Content: chunk,
		}
	}

	collection := collectionName(source)
	if err := s.vectors.Add(collection, docs, vectors); err != nil {
		return nil, err
	}
	s.log.Info("ingested document", "collection", collection, "chunks", len(chunks))
	return &IngestResult{Collection: collection, Chunks: len(chunks)}, nil
}

func (s *chatService) Query(ctx context.Context, q ChatQuery) (*ChatAnswer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, apierr.BadRequest("MISSING_QUESTION", fmt.Errorf("question is required"))
	}
	k := q.K
	if k <= 0 {
		k = chatDefaultK
	}

	queryVecs, err := s.ai.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("embedding question: expected 1 vector, got %d", len(queryVecs))
	}

	hits := s.vectors.Search(q.CollectionNames, queryVecs[0], k)
	if len(hits) == 0 {
		return &ChatAnswer{Answer: chatNoDocsAnswer}, nil
	}

	var contextParts []string
	sources := make([]ChatSource, 0, len(hits))
	for _, hit := range hits {
		contextParts = append(contextParts, hit.Document.Content)
		sources = append(sources, ChatSource{
			Source:         hit.Document.Source,
			Type:           hit.Document.Type,
			Title:          hit.Document.Title,
			ContentPreview: preview(hit.Document.Content, 200),
		})
	}

	prompt := fmt.Sprintf(chatPromptTemplate, question, strings.Join(contextParts, "\n\n---\n\n"))
	if history := s.history(q.SessionID); history != "" {
		prompt = "Previous conversation:\n" + history + "\n\n" + prompt
	}

	answer, err := s.ai.ChatText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("answering question: %w", err)
	}
	s.remember(q.SessionID, question, answer)
	return &ChatAnswer{Answer: answer, Sources: sources}, nil
}

func (s *chatService) history(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exchanges := s.sessions[sessionID]
	if len(exchanges) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range exchanges {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", e.question, e.answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *chatService) remember(sessionID, question, answer string) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exchanges := append(s.sessions[sessionID], chatExchange{question: question, answer: answer})
	if len(exchanges) > chatMaxHistory {
		exchanges = exchanges[len(exchanges)-chatMaxHistory:]
	}
	s.sessions[sessionID] = exchanges
}

var collectionNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// collectionName derives a unique collection name from the source: the
// sanitized basename plus a timestamp, so re-ingesting the same paper makes
// a fresh collection instead of clobbering the old one.
func collectionName(source string) string {
	base := source
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".pdf")
	base = collectionNameRe.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "document"
	}
	if len(base) > 48 {
		base = base[:48]
	}
	return fmt.Sprintf("%s_%d", base, time.Now().UnixNano())
}

// documentTitle takes the first markdown heading, falling back to the source.
func documentTitle(text, source string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
	}
	return source
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// chunkText splits text into overlapping chunks, preferring paragraph
// boundaries and falling back to hard splits for oversized paragraphs.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > size {
			flush()
			for start := 0; start < len(para); start += size - overlap {
				end := start + size
				if end > len(para) {
					end = len(para)
				}
				chunks = append(chunks, para[start:end])
				if end == len(para) {
					break
				}
			}
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}
