package cbr

import (
	"cbrrates/internal/domain"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const DefaultBaseURL = "https://cbr.ru/currency_base/daily/"

// browserHeaders make requests look like a regular browser visit.
// Accept-Encoding is left to the transport so compressed bodies are decoded transparently.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

type Client struct {
	http    *http.Client
	baseURL string
}

// FetchPage makes a single attempt to download the daily rates page posted up to the given date.
func (c *Client) FetchPage(ctx context.Context, date string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("UniDbQuery.Posted", "True")
	q.Set("UniDbQuery.To", date)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for date %q: %w", date, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to execute request for date %q: %w", domain.ErrTransport, date, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status code %d for date %q", domain.ErrNonSuccessStatus, resp.StatusCode, date)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response for date %q: %w", domain.ErrTransport, date, err)
	}
	return string(body), nil
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: httpClient, baseURL: baseURL}
}
