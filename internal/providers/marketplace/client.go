package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"marketplace-sitemap/internal/httpx"
)

// API paths appended to APIURL+EndPoint.
const (
	PathSettings   = "get-system-settings"
	PathItems      = "get-item"
	PathCategories = "get-categories"
	PathBlogs      = "blogs"
)

type Client struct {
	APIURL   string
	EndPoint string
	HTTP     *httpx.Client
}

func New(apiURL, endPoint string, hc *httpx.Client) *Client {
	if hc == nil {
		hc = httpx.New(0, nil)
	}
	return &Client{
		APIURL:   apiURL,
		EndPoint: endPoint,
		HTTP:     hc,
	}
}

func (c *Client) GetSystemSettings(ctx context.Context) (*SystemSettingsResponse, error) {
	var out SystemSettingsResponse
	if err := c.HTTP.GetJSON(ctx, c.endpoint(PathSettings, 0), &out); err != nil {
		return nil, fmt.Errorf("marketplace: get settings: %w", err)
	}
	return &out, nil
}

// ListPage fetches one page of a paginated collection (page >= 1).
func (c *Client) ListPage(ctx context.Context, path string, page int) (*Page, error) {
	if page <= 0 {
		page = 1
	}
	var out ListResponse
	if err := c.HTTP.GetJSON(ctx, c.endpoint(path, page), &out); err != nil {
		return nil, fmt.Errorf("marketplace: list %s page=%d: %w", path, page, err)
	}
	return &out.Data.Data, nil
}

// endpoint concatenates the configured pieces verbatim, like the web app does;
// page <= 0 means no query string.
func (c *Client) endpoint(path string, page int) string {
	u := c.APIURL + c.EndPoint + path
	if page <= 0 {
		return u
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q.Encode()
}
