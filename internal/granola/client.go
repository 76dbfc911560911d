package granola

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alexjbarnes/granola-sync/internal/errors"
)

const (
	defaultBaseURL = "https://api.granola.ai"
	documentsPath  = "/v2/get-documents"

	// clientVersion mirrors the desktop app release the API expects.
	clientVersion = "5.354.0"

	// pageSize is the maximum number of documents per request.
	pageSize = 100

	// maxResponseBytes caps how much of a response body we will read.
	maxResponseBytes = 64 << 20

	defaultTimeout = 120 * time.Second
)

// Client talks to the Granola documents API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the API base URL, primarily for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates an API client that authenticates each request with
// the token returned by the given TokenFunc.
func NewClient(token TokenFunc, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		token:      token,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// GetDocuments fetches all documents for the authenticated workspace,
// paging through the API until a short page signals the end.
func (c *Client) GetDocuments(ctx context.Context) ([]Document, error) {
	var all []Document

	offset := 0

	for {
		page, err := c.getDocumentsPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < pageSize {
			return all, nil
		}

		offset += len(page)
	}
}

func (c *Client) getDocumentsPage(ctx context.Context, offset int) ([]Document, error) {
	token, err := c.token()
	if err != nil {
		return nil, errors.Wrap(errors.KindFatal, err)
	}

	payload, err := json.Marshal(map[string]any{
		"limit":                     pageSize,
		"offset":                    offset,
		"include_last_viewed_panel": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+documentsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", "Granola/"+clientVersion)
	req.Header.Set("X-Client-Version", clientVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.KindTransient, "%w: %w", errors.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(errors.KindTransient, "%w: reading body: %w", errors.ErrAPIResponse, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.Wrapf(errors.KindFatal, "%w: status %d", errors.ErrAPIResponse, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.KindTransient, "%w: status %d", errors.ErrAPIResponse, resp.StatusCode)
	}

	var envelope documentsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrapf(errors.KindParse, "%w: decoding body: %w", errors.ErrAPIResponse, err)
	}

	return envelope.Docs, nil
}
