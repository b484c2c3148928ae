package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/paperdeck-backend/internal/platform/httpx"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

// Client is the Mistral API client used by the rest of the backend.
type Client interface {
	// ChatText sends a plain text prompt and returns the assistant text.
	ChatText(ctx context.Context, prompt string) (string, error)

	// ChatDocument sends a prompt alongside a document URL content part.
	ChatDocument(ctx context.Context, prompt string, documentURL string) (string, error)

	// AgentComplete sends a query to a pre-configured agent and returns its text.
	AgentComplete(ctx context.Context, agentID string, query string) (string, error)

	// Embed returns one embedding vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// ProcessOCR runs the OCR model over a document URL.
	ProcessOCR(ctx context.Context, documentURL string, includeImages bool) (*OCRResponse, error)

	// UploadFile uploads raw bytes (purpose "ocr") and returns the file id.
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)

	// SignedURL returns a short-lived URL for an uploaded file.
	SignedURL(ctx context.Context, fileID string) (string, error)
}

type OCRResponse struct {
	Pages []OCRPage `json:"pages"`
}

type OCRPage struct {
	Index    int        `json:"index"`
	Markdown string     `json:"markdown"`
	Images   []OCRImage `json:"images"`
}

type OCRImage struct {
	ID          string `json:"id"`
	ImageBase64 string `json:"image_base64"`
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	ocrModel   string
	embedModel string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("MISTRAL_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing MISTRAL_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("MISTRAL_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.mistral.ai"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("MISTRAL_MODEL"))
	if model == "" {
		model = "mistral-small-latest"
	}
	ocrModel := strings.TrimSpace(os.Getenv("MISTRAL_OCR_MODEL"))
	if ocrModel == "" {
		ocrModel = "mistral-ocr-latest"
	}
	embedModel := strings.TrimSpace(os.Getenv("MISTRAL_EMBED_MODEL"))
	if embedModel == "" {
		embedModel = "mistral-embed"
	}

	timeoutSec := 180
	if v := strings.TrimSpace(os.Getenv("MISTRAL_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := strings.TrimSpace(os.Getenv("MISTRAL_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "MistralClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		ocrModel:   ocrModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type contentPart struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	AgentID  string        `json:"agent_id,omitempty"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) ChatText(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	return c.chat(ctx, "/v1/chat/completions", &req)
}

func (c *client) ChatDocument(ctx context.Context, prompt string, documentURL string) (string, error) {
	if strings.TrimSpace(documentURL) == "" {
		return "", fmt.Errorf("documentURL required")
	}
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "document_url", DocumentURL: documentURL},
			},
		}},
	}
	return c.chat(ctx, "/v1/chat/completions", &req)
}

func (c *client) AgentComplete(ctx context.Context, agentID string, query string) (string, error) {
	if strings.TrimSpace(agentID) == "" {
		return "", fmt.Errorf("agentID required")
	}
	req := chatRequest{
		AgentID:  agentID,
		Messages: []chatMessage{{Role: "user", Content: query}},
	}
	return c.chat(ctx, "/v1/agents/completions", &req)
}

func (c *client) chat(ctx context.Context, path string, req *chatRequest) (string, error) {
	var resp chatResponse
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("mistral: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := embedRequest{Model: c.embedModel, Input: texts}
	var resp embedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/embeddings", &req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("mistral: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("mistral: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

type ocrRequest struct {
	Model    string `json:"model"`
	Document struct {
		Type        string `json:"type"`
		DocumentURL string `json:"document_url"`
	} `json:"document"`
	IncludeImageBase64 bool `json:"include_image_base64"`
}

func (c *client) ProcessOCR(ctx context.Context, documentURL string, includeImages bool) (*OCRResponse, error) {
	if strings.TrimSpace(documentURL) == "" {
		return nil, fmt.Errorf("documentURL required")
	}
	req := ocrRequest{Model: c.ocrModel, IncludeImageBase64: includeImages}
	req.Document.Type = "document_url"
	req.Document.DocumentURL = documentURL

	var resp OCRResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/ocr", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type fileUploadResponse struct {
	ID string `json:"id"`
}

func (c *client) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty file content")
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", "ocr"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	raw, err := c.send(httpReq)
	if err != nil {
		return "", err
	}
	var resp fileUploadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("mistral: upload response missing file id")
	}
	return resp.ID, nil
}

type signedURLResponse struct {
	URL string `json:"url"`
}

func (c *client) SignedURL(ctx context.Context, fileID string) (string, error) {
	if strings.TrimSpace(fileID) == "" {
		return "", fmt.Errorf("fileID required")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/files/"+fileID+"/url", nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	raw, err := c.send(httpReq)
	if err != nil {
		return "", err
	}
	var resp signedURLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode signed url response: %w", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("mistral: signed url response missing url")
	}
	return resp.URL, nil
}

func (c *client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	raw, err := c.send(httpReq)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response for %s: %w", path, err)
	}
	return nil
}

type apiStatusError struct {
	status int
	body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("mistral: status %d: %s", e.status, e.body)
}

func (e *apiStatusError) HTTPStatusCode() int { return e.status }

func (c *client) send(req *http.Request) ([]byte, error) {
	var bodyCopy []byte
	if req.Body != nil && req.GetBody != nil {
		// GetBody lets us replay the request on retry.
	} else if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		bodyCopy = b
		req.Body = io.NopCloser(bytes.NewReader(b))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			sleep := httpx.JitterSleep(time.Duration(attempt) * 500 * time.Millisecond)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(sleep):
			}
			if req.GetBody != nil {
				b, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = b
			} else if bodyCopy != nil {
				req.Body = io.NopCloser(bytes.NewReader(bodyCopy))
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if httpx.IsRetryableError(err) {
				continue
			}
			return nil, err
		}

		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return raw, nil
		}

		statusErr := &apiStatusError{status: resp.StatusCode, body: truncate(string(raw), 512)}
		lastErr = statusErr
		if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
			wait := httpx.RetryAfterDuration(resp, time.Duration(attempt+1)*time.Second, 30*time.Second)
			c.log.Warn("mistral: retryable status", "status", resp.StatusCode, "attempt", attempt, "wait", wait.String())
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(wait):
			}
			continue
		}
		return nil, statusErr
	}
	return nil, fmt.Errorf("mistral: retries exhausted: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
