// Package flowise provides the remote document store adapter. The client
// is a stateless request layer: one attempt per call, an operation-specific
// timeout on each, and every failure normalised to a
// *domain.TransportError. Retry policy lives in the orchestrator.
package flowise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.StoreClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultMetadataTimeout   = 10 * time.Second
	DefaultUpsertTimeout     = 60 * time.Second
	DefaultPredictionTimeout = 30 * time.Second

	// DefaultRequestsPerSecond bounds outbound request rate; index-wait
	// polling is the main consumer.
	DefaultRequestsPerSecond = 10
)

// Config holds configuration for the store client.
type Config struct {
	// BaseURL is the API base URL (required), e.g. http://localhost:3000/api/v1.
	BaseURL string

	// APIKey is the bearer token. Optional; unauthenticated instances
	// exist in development.
	APIKey string

	// MetadataTimeout bounds store lifecycle and chunk-page calls.
	MetadataTimeout time.Duration

	// UpsertTimeout bounds the multipart content upload.
	UpsertTimeout time.Duration

	// PredictionTimeout bounds prediction creation.
	PredictionTimeout time.Duration

	// RequestsPerSecond caps outbound request rate. Zero applies the
	// default.
	RequestsPerSecond float64
}

// Client calls the remote document store and prediction API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string

	metadataTimeout   time.Duration
	upsertTimeout     time.Duration
	predictionTimeout time.Duration

	limiter *rate.Limiter
}

// NewClient creates a store client with defaults applied.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &domain.ConfigurationError{Field: "api_base_url", Reason: "base URL is required"}
	}
	if cfg.MetadataTimeout == 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	if cfg.UpsertTimeout == 0 {
		cfg.UpsertTimeout = DefaultUpsertTimeout
	}
	if cfg.PredictionTimeout == 0 {
		cfg.PredictionTimeout = DefaultPredictionTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Client{
		client:            &http.Client{},
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:            cfg.APIKey,
		metadataTimeout:   cfg.MetadataTimeout,
		upsertTimeout:     cfg.UpsertTimeout,
		predictionTimeout: cfg.PredictionTimeout,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
	}, nil
}

// ListStores returns all stores.
func (c *Client) ListStores(ctx context.Context) ([]domain.StoreRecord, error) {
	body, _, err := c.do(ctx, c.metadataTimeout, http.MethodGet, "/document-store/store", nil, "")
	if err != nil {
		return nil, err
	}

	var stores []storeResponse
	if err := json.Unmarshal(body, &stores); err != nil {
		return nil, decodeError(err)
	}

	out := make([]domain.StoreRecord, len(stores))
	for i, s := range stores {
		out[i] = s.toDomain()
	}
	return out, nil
}

// GetStore returns one store by id. A 404 response maps to
// domain.ErrNotFound.
func (c *Client) GetStore(ctx context.Context, storeID string) (*domain.StoreRecord, error) {
	body, status, err := c.do(ctx, c.metadataTimeout, http.MethodGet, "/document-store/store/"+storeID, nil, "")
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var store storeResponse
	if err := json.Unmarshal(body, &store); err != nil {
		return nil, decodeError(err)
	}
	record := store.toDomain()
	return &record, nil
}

// CreateStore creates a store. Not idempotent.
func (c *Client) CreateStore(ctx context.Context, name, description string) (*domain.StoreRecord, error) {
	payload, err := json.Marshal(createStoreRequest{
		Name:        name,
		Description: description,
		Status:      string(domain.StoreStatusEmpty),
	})
	if err != nil {
		return nil, decodeError(err)
	}

	body, _, err := c.do(ctx, c.metadataTimeout, http.MethodPost, "/document-store/store", bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	var store storeResponse
	if err := json.Unmarshal(body, &store); err != nil {
		return nil, decodeError(err)
	}
	record := store.toDomain()
	return &record, nil
}

// UpdateStore sets the store status.
func (c *Client) UpdateStore(ctx context.Context, storeID string, status domain.StoreStatus) (*domain.StoreRecord, error) {
	payload, err := json.Marshal(updateStoreRequest{Status: string(status)})
	if err != nil {
		return nil, decodeError(err)
	}

	body, code, err := c.do(ctx, c.metadataTimeout, http.MethodPut, "/document-store/store/"+storeID, bytes.NewReader(payload), "application/json")
	if code == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var store storeResponse
	if err := json.Unmarshal(body, &store); err != nil {
		return nil, decodeError(err)
	}
	record := store.toDomain()
	return &record, nil
}

// DeleteStore removes a store.
func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	_, code, err := c.do(ctx, c.metadataTimeout, http.MethodDelete, "/document-store/store/"+storeID, nil, "")
	if code == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}

// GetChunkPage returns one page of indexed chunks for a document.
func (c *Client) GetChunkPage(ctx context.Context, storeID, docID string, page int) (*domain.ChunkPage, error) {
	path := fmt.Sprintf("/document-store/chunks/%s/%s/%d", storeID, docID, page)
	body, _, err := c.do(ctx, c.metadataTimeout, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	var resp chunkPageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError(err)
	}

	out := &domain.ChunkPage{DocID: docID, Page: page, TotalChunks: resp.Count}
	for _, chunk := range resp.Chunks {
		out.Chunks = append(out.Chunks, domain.StoreChunk{
			ID:      chunk.ID,
			DocID:   chunk.DocID,
			Content: chunk.PageContent,
		})
	}
	return out, nil
}

// UpsertDocument uploads extracted text as a multipart file. Not
// idempotent; callers confirm via GetChunkPage before retrying.
func (c *Client) UpsertDocument(ctx context.Context, storeID, loaderID, docID, text string) (*domain.UpsertResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("files", docID+".txt")
	if err != nil {
		return nil, decodeError(err)
	}
	if _, err := io.WriteString(part, text); err != nil {
		return nil, decodeError(err)
	}
	if err := writer.WriteField("docId", docID); err != nil {
		return nil, decodeError(err)
	}
	if err := writer.WriteField("loaderId", loaderID); err != nil {
		return nil, decodeError(err)
	}
	if err := writer.Close(); err != nil {
		return nil, decodeError(err)
	}

	body, _, err := c.do(ctx, c.upsertTimeout, http.MethodPost, "/document-store/upsert/"+storeID, &buf, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var resp upsertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError(err)
	}
	return &domain.UpsertResult{
		DocID:      resp.DocID,
		NumAdded:   resp.NumAdded,
		NumUpdated: resp.NumUpdated,
	}, nil
}

// CreatePrediction issues a question against the chatflow. API-level error
// payloads come back as a result with Err set, not as a Go error; the
// orchestrator records them without failing the job.
func (c *Client) CreatePrediction(ctx context.Context, chatflowID string, req domain.PredictionRequest) (*domain.PredictionResult, error) {
	payload, err := json.Marshal(predictionRequest{
		Question:       req.Question,
		OverrideConfig: map[string]any{},
		History:        []any{},
	})
	if err != nil {
		return nil, decodeError(err)
	}

	body, _, err := c.do(ctx, c.predictionTimeout, http.MethodPost, "/prediction/"+chatflowID, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	var resp predictionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError(err)
	}
	if resp.Error != "" || resp.Message != "" {
		detail := resp.Error
		if detail == "" {
			detail = resp.Message
		}
		return &domain.PredictionResult{Text: detail, Err: true}, nil
	}
	return &domain.PredictionResult{Text: resp.Text}, nil
}

// do performs one rate-limited, timeout-bounded request and returns the
// response body. Any failure is a *domain.TransportError; the HTTP status
// is also returned so callers can map specific codes like 404.
func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, body io.Reader, contentType string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, classifyRequestError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, &domain.TransportError{Kind: domain.TransportConnectionError, Detail: fmt.Sprintf("create request: %v", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, classifyRequestError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, classifyRequestError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, resp.StatusCode, &domain.TransportError{
			Kind:   domain.TransportHTTPError,
			Status: resp.StatusCode,
			Detail: truncate(string(respBody), 512),
		}
	}
	return respBody, resp.StatusCode, nil
}

// classifyRequestError maps transport failures to TIMEOUT or
// CONNECTION_ERROR.
func classifyRequestError(err error) *domain.TransportError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.TransportError{Kind: domain.TransportTimeout, Detail: err.Error()}
	}
	return &domain.TransportError{Kind: domain.TransportConnectionError, Detail: err.Error()}
}

// decodeError wraps a malformed response body. The remote answered, so it
// is an HTTP-level defect rather than a connection failure.
func decodeError(err error) *domain.TransportError {
	return &domain.TransportError{Kind: domain.TransportHTTPError, Detail: fmt.Sprintf("decode response: %v", err)}
}

func (s storeResponse) toDomain() domain.StoreRecord {
	return domain.StoreRecord{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Status:      domain.StoreStatus(s.Status),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
