// Package libretranslate provides the language detection and translation
// adapter over a LibreTranslate-compatible HTTP API.
package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.LanguageService = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultMinDetectLen is the text length below which detection is not
	// attempted; short snippets classify unreliably.
	DefaultMinDetectLen = 20

	// DefaultMinConfidence is the detection confidence floor, in percent.
	DefaultMinConfidence = 25.0

	// maxDetectSample bounds how much text is sent for detection; the
	// opening of a document is representative enough.
	maxDetectSample = 1000
)

// Config holds configuration for the language service.
type Config struct {
	// BaseURL is the API base URL (required), e.g. http://localhost:5000.
	BaseURL string

	// APIKey is optional; public instances require one.
	APIKey string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// MinDetectLen is the minimum text length for detection.
	MinDetectLen int

	// MinConfidence is the detection confidence floor, in percent.
	MinConfidence float64
}

// Client calls a LibreTranslate-compatible API.
type Client struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	minDetectLen  int
	minConfidence float64
}

// detectResponse is one candidate in the /detect response array.
type detectResponse struct {
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// translateRequest is the /translate request format.
type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// translateResponse is the /translate response format.
type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// detectRequest is the /detect request format.
type detectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

// NewClient creates a language service client with defaults applied.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &domain.ConfigurationError{Field: "translation_base_url", Reason: "base URL is required"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MinDetectLen <= 0 {
		cfg.MinDetectLen = DefaultMinDetectLen
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}

	return &Client{
		client:        &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		minDetectLen:  cfg.MinDetectLen,
		minConfidence: cfg.MinConfidence,
	}, nil
}

// Detect classifies the text's language. Text too short or classified
// below the confidence floor comes back as domain.LanguageUnknown; that is
// policy, not an error.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	sample := strings.TrimSpace(text)
	if utf8.RuneCountInString(sample) < c.minDetectLen {
		return domain.LanguageUnknown, nil
	}
	if len(sample) > maxDetectSample {
		sample = sample[:maxDetectSample]
		// Never split a rune at the cut point.
		for !utf8.ValidString(sample) {
			sample = sample[:len(sample)-1]
		}
	}

	body, err := c.post(ctx, "/detect", detectRequest{Q: sample, APIKey: c.apiKey})
	if err != nil {
		return "", err
	}

	var candidates []detectResponse
	if err := json.Unmarshal(body, &candidates); err != nil {
		return "", &domain.TranslationError{Reason: fmt.Sprintf("decode detect response: %v", err)}
	}
	if len(candidates) == 0 || candidates[0].Confidence < c.minConfidence {
		return domain.LanguageUnknown, nil
	}
	return candidates[0].Language, nil
}

// Translate converts text from source to target language.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := c.post(ctx, "/translate", translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", err
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &domain.TranslationError{Reason: fmt.Sprintf("decode translate response: %v", err)}
	}
	if resp.Error != "" {
		return "", &domain.TranslationError{Reason: resp.Error}
	}
	return resp.TranslatedText, nil
}

// post performs one JSON request. Failures come back as
// *domain.TranslationError so the orchestrator can record them on the job.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.TranslationError{Reason: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &domain.TranslationError{Reason: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.TranslationError{Reason: fmt.Sprintf("send request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TranslationError{Reason: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TranslationError{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(body), 256))}
	}
	return body, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
