package ratesdb

import (
	"bytes"
	"cbrrates/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	TokenHeader    = "API-Token"
	maxErrorDetail = 512
)

var ErrMissingEndpoint = errors.New("database endpoint is not configured")

// Client uploads records to the remote database ingestion endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	token    string
}

// SendRecords posts records as a JSON array. Only 200 OK counts as success.
func (c *Client) SendRecords(ctx context.Context, records []domain.CurrencyRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("nothing to send: %w", domain.ErrNoRecords)
	}
	if c.endpoint == "" {
		return ErrMissingEndpoint
	}

	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal %d records: %w", len(records), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorDetail))
		return fmt.Errorf("%w: unexpected status code %d: %s",
			domain.ErrNonSuccessStatus, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func NewClient(httpClient *http.Client, endpoint, token string) *Client {
	return &Client{http: httpClient, endpoint: endpoint, token: token}
}
