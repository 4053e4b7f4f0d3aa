// Package semqa provides a Go client for the semqa question-answering API.
package semqa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("semqa: not found")

// Client is the semqa SDK entry point. It talks to a running semqa server
// over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a semqa Client for the given server base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("semqa: base URL required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SearchOptions configures a search request. Zero values fall back to the
// server defaults (approximate search, top_k=1).
type SearchOptions struct {
	UseApproximate *bool
	TopK           int
}

// SourceDocument is the corpus document backing an answer.
type SourceDocument struct {
	ID              int     `json:"id"`
	Question        string  `json:"question"`
	Answer          string  `json:"answer"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Answer is the server's response to a search query.
type Answer struct {
	Success        bool            `json:"success"`
	Query          string          `json:"query"`
	Answer         string          `json:"answer"`
	SourceDocument *SourceDocument `json:"source_document,omitempty"`
	SearchMethod   string          `json:"search_method"`
	LatencyMS      float64         `json:"latency_ms"`
}

// Document is a corpus document with its stored embedding.
type Document struct {
	ID         int       `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Embeddings []float32 `json:"embeddings"`
}

// DatabaseInfo describes the loaded corpus.
type DatabaseInfo struct {
	TotalDocuments  int      `json:"total_documents"`
	Columns         []string `json:"columns"`
	EmbeddingsShape [2]int   `json:"embeddings_shape"`
}

// Health is the server health report.
type Health struct {
	Status       string            `json:"status"`
	Checks       map[string]string `json:"checks,omitempty"`
	DatabaseInfo DatabaseInfo      `json:"database_info"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("semqa: API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

type searchRequest struct {
	Query          string `json:"query"`
	UseApproximate *bool  `json:"use_approximate,omitempty"`
	TopK           *int   `json:"top_k,omitempty"`
}

// Search asks the server a question and returns the assembled answer.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (Answer, error) {
	req := searchRequest{Query: query}
	if opts != nil {
		req.UseApproximate = opts.UseApproximate
		if opts.TopK > 0 {
			req.TopK = &opts.TopK
		}
	}

	var out Answer
	if err := c.post(ctx, "/search", req, http.StatusOK, &out); err != nil {
		return Answer{}, fmt.Errorf("search: %w", err)
	}
	return out, nil
}

// Document fetches a corpus document by id.
func (c *Client) Document(ctx context.Context, id int) (Document, error) {
	var out Document
	if err := c.get(ctx, fmt.Sprintf("/documents/%d", id), &out); err != nil {
		return Document{}, fmt.Errorf("document %d: %w", id, err)
	}
	return out, nil
}

// Health fetches the server health report. A degraded server still returns
// a report, not an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	defer resp.Body.Close()

	// 503 carries the same report body as 200.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return Health{}, fmt.Errorf("health: %w", apiError(resp))
	}

	var out Health
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Health{}, fmt.Errorf("health: decode response: %w", err)
	}
	return out, nil
}

// RebuildIndex triggers a background retraining of the partition index.
func (c *Client) RebuildIndex(ctx context.Context) error {
	if err := c.post(ctx, "/index/rebuild", nil, http.StatusAccepted, nil); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) post(ctx context.Context, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, reader)
	if err != nil {
		return err
	}
	return c.do(req, wantStatus, out)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError converts an error response body into an APIError, mapping 404
// onto ErrNotFound for errors.Is checks.
func apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
		apiErr.Code = "unknown"
		apiErr.Message = resp.Status
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	return apiErr
}
