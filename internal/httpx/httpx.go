package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"marketplace-sitemap/internal/cache"
)

// HTTPError carries status/body for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 900))
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// Client performs single-attempt JSON GETs. Successful bodies are kept in
// Cache (when set) so calls inside the revalidation window skip the network.
type Client struct {
	HTTP  *http.Client
	Cache *cache.TTL
}

func New(timeout time.Duration, responses *cache.TTL) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:  &http.Client{Timeout: timeout},
		Cache: responses,
	}
}

// Get fetches rawURL once and returns the decoded body. Non-2xx responses
// return *HTTPError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.Cache != nil {
		if body, ok := c.Cache.Get(rawURL); ok {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// setting Accept-Encoding disables the transport's transparent gzip,
	// so only ask for what readBody knows how to decode
	req.Header.Set("Accept-Encoding", "br")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpx: request failed: %w", err)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("httpx: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		}
	}

	if c.Cache != nil {
		c.Cache.Put(rawURL, body)
	}
	return body, nil
}

// GetJSON is Get followed by json.Unmarshal into out. Bodies that fail to
// parse are not cached.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		if c.Cache != nil {
			c.Cache.Delete(rawURL)
		}
		return fmt.Errorf("json parse error: %w body=%s", err, snippet(body, 900))
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// readBody always drains and closes the body so the connection can be reused.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "br") {
		r = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(r)
}
