package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	deliveryTimeout = 10 * time.Second

	// maxErrorBody bounds how much of a failed response we keep for logs.
	maxErrorBody = 4 << 10
)

// Client delivers payloads to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a delivery client. Pass nil to use a default client
// with a short per-delivery timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: deliveryTimeout}
	}

	return &Client{httpClient: httpClient}
}

// Deliver sends a payload to one endpoint. GET endpoints receive the
// payload flattened into query parameters; other methods receive JSON.
func (c *Client) Deliver(ctx context.Context, ep Endpoint, payload Payload) error {
	var req *http.Request

	var err error

	if ep.Method == http.MethodGet {
		req, err = c.getRequest(ctx, ep, payload)
	} else {
		req, err = c.bodyRequest(ctx, ep, payload)
	}

	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering to %s: %w", ep.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("endpoint %s returned status %d: %s", ep.Name, resp.StatusCode, bytes.TrimSpace(body))
	}

	return nil
}

func (c *Client) bodyRequest(ctx context.Context, ep Endpoint, payload Payload) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, ep.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", ep.Name, err)
	}

	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// getRequest flattens the payload into query parameters. The full
// markdown body is skipped: it does not belong in a URL.
func (c *Client) getRequest(ctx context.Context, ep Endpoint, payload Payload) (*http.Request, error) {
	target, err := url.Parse(ep.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing url for %s: %w", ep.Name, err)
	}

	query := target.Query()
	query.Set("event", payload.Event)
	query.Set("timestamp", payload.Timestamp)
	query.Set("id", payload.Document.ID)
	query.Set("title", payload.Document.Title)

	if payload.Document.CreatedAt != "" {
		query.Set("created_at", payload.Document.CreatedAt)
	}

	if payload.Document.UpdatedAt != "" {
		query.Set("updated_at", payload.Document.UpdatedAt)
	}

	for _, folder := range payload.Document.Folders {
		query.Add("folders", folder)
	}

	query.Set("has_notes", strconv.FormatBool(payload.Document.HasNotes))
	query.Set("has_transcript", strconv.FormatBool(payload.Document.HasTranscript))

	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", ep.Name, err)
	}

	return req, nil
}
