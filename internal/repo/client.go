// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the content repository client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches client errors by type, so sentinel comparisons work on wrapped
// instances carrying a cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotFound
	ErrTypeUnauthorized
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeBadQuery
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking with errors.Is.
var (
	ErrNotFound        = &ClientError{Type: ErrTypeNotFound, Message: "document not found"}
	ErrUnauthorized    = &ClientError{Type: ErrTypeUnauthorized, Message: "not authorized for dataset"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrBadQuery        = &ClientError{Type: ErrTypeBadQuery, Message: "query rejected by repository"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid repository response"}
)

// =============================================================================
// CLIENT INTERFACE
// =============================================================================

// Client is the narrow capability surface the core requires from the content
// repository: one read and three writes. The query language and transport are
// the repository's concern.
type Client interface {
	// Fetch runs a query and returns the matching documents. A repository
	// response holding a single object is normalized to a one-element slice.
	Fetch(ctx context.Context, query string, params map[string]any) ([]Document, error)

	// Create stores a new document and returns it as persisted.
	Create(ctx context.Context, doc Document) (Document, error)

	// Patch applies a field map to an existing document and returns the
	// updated document. The repository decides whether the draft or the
	// published variant receives the write.
	Patch(ctx context.Context, id string, fields map[string]any) (Document, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the repository client.
type ClientConfig struct {
	// BaseURL is the repository API base URL (default: http://127.0.0.1:3333)
	BaseURL string

	// Dataset is the dataset name queries and mutations run against
	// (default: "production")
	Dataset string

	// Token is the bearer token for authenticated requests (optional)
	Token string

	// Timeout for requests (default: 30s)
	Timeout time.Duration

	// RequestsPerSecond caps the outbound request rate (default: 25)
	RequestsPerSecond float64
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://127.0.0.1:3333",
		Dataset:           "production",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 25,
	}
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// HTTPClient talks to the content repository over its HTTP API.
// It is safe for concurrent use.
type HTTPClient struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewHTTPClient creates a repository client with the given configuration.
// A nil config uses defaults; zero values are backfilled.
func NewHTTPClient(config *ClientConfig, log zerolog.Logger) *HTTPClient {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:3333"
	}
	if config.Dataset == "" {
		config.Dataset = "production"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 25
	}

	return &HTTPClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), int(config.RequestsPerSecond)),
		log:     log.With().Str("component", "repo").Logger(),
	}
}

// queryResponse is the wire shape of a query result. The result field may be
// a single object, an array, or null.
type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// mutateRequest is the wire shape of a mutation batch.
type mutateRequest struct {
	Mutations       []map[string]any `json:"mutations"`
	ReturnDocuments bool             `json:"returnDocuments"`
}

// mutateResponse is the wire shape of a mutation result.
type mutateResponse struct {
	Results []struct {
		ID       string   `json:"id"`
		Document Document `json:"document"`
	} `json:"results"`
}

// Fetch implements Client.
func (c *HTTPClient) Fetch(ctx context.Context, query string, params map[string]any) ([]Document, error) {
	values := url.Values{}
	values.Set("query", query)
	for k, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeBadQuery, Message: "unencodable query param " + k, Cause: err}
		}
		values.Set("$"+k, string(encoded))
	}

	endpoint := c.config.BaseURL + "/data/query/" + c.config.Dataset + "?" + values.Encode()

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid repository response", Cause: err}
	}

	return decodeResult(resp.Result)
}

// Create implements Client.
func (c *HTTPClient) Create(ctx context.Context, doc Document) (Document, error) {
	return c.mutate(ctx, map[string]any{"create": doc})
}

// Patch implements Client.
func (c *HTTPClient) Patch(ctx context.Context, id string, fields map[string]any) (Document, error) {
	return c.mutate(ctx, map[string]any{
		"patch": map[string]any{
			"id":  id,
			"set": fields,
		},
	})
}

// Delete implements Client. Deletes return no document, so the mutation is
// posted without the returnDocuments round trip.
func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	payload, err := json.Marshal(mutateRequest{
		Mutations: []map[string]any{
			{"delete": map[string]any{"id": id}},
		},
	})
	if err != nil {
		return &ClientError{Type: ErrTypeBadQuery, Message: "unencodable mutation", Cause: err}
	}

	endpoint := c.config.BaseURL + "/data/mutate/" + c.config.Dataset
	_, err = c.do(ctx, http.MethodPost, endpoint, payload)
	return err
}

// mutate posts a single mutation and returns the resulting document, if the
// repository returned one.
func (c *HTTPClient) mutate(ctx context.Context, mutation map[string]any) (Document, error) {
	payload, err := json.Marshal(mutateRequest{
		Mutations:       []map[string]any{mutation},
		ReturnDocuments: true,
	})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeBadQuery, Message: "unencodable mutation", Cause: err}
	}

	endpoint := c.config.BaseURL + "/data/mutate/" + c.config.Dataset

	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var resp mutateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid repository response", Cause: err}
	}
	if len(resp.Results) == 0 || resp.Results[0].Document == nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "repository returned no document"}
	}

	return resp.Results[0].Document, nil
}

// do performs one rate-limited HTTP request and maps failures onto the client
// error taxonomy.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeBadQuery, Message: "invalid request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "repository unreachable", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed reading response", Cause: err}
	}

	c.log.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("repository request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &ClientError{Type: ErrTypeBadQuery, Message: "query rejected by repository: " + string(body)}
	case resp.StatusCode >= 400:
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "repository error " + resp.Status}
	}

	return body, nil
}

// decodeResult normalizes a query result to a flat document slice.
// The repository may return a single object, an array, or null.
func decodeResult(raw json.RawMessage) ([]Document, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Document{}, nil
	}

	var docs []Document
	if err := json.Unmarshal(raw, &docs); err == nil {
		return docs, nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid repository response", Cause: err}
	}
	return []Document{doc}, nil
}
