package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Google Sheets v4 REST API using an API key. Only
// publicly readable spreadsheets are supported.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	spreadsheetID string
	apiKey        string
	userAgent     string
}

const (
	DefaultEndpoint  = "https://sheets.googleapis.com"
	defaultUserAgent = "shelf/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for one spreadsheet. An empty endpoint uses the
// public Google endpoint.
func NewClient(endpoint, spreadsheetID, apiKey string) (*Client, error) {
	id := strings.TrimSpace(spreadsheetID)
	if id == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:       base,
		http:          &http.Client{Timeout: requestTimeout},
		spreadsheetID: id,
		apiKey:        strings.TrimSpace(apiKey),
		userAgent:     defaultUserAgent,
	}, nil
}

// FetchSheetNames lists the sheet titles in document order.
func (c *Client) FetchSheetNames(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload SpreadsheetResponse
	if err := c.get(ctx, c.spreadsheetPath(), url.Values{"fields": {"sheets.properties"}}, &payload); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(payload.Sheets))
	for _, sheet := range payload.Sheets {
		names = append(names, sheet.Properties.Title)
	}
	return names, nil
}

// FetchValues returns every populated row of the named sheet.
func (c *Client) FetchValues(ctx context.Context, sheet string) ([][]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(sheet) == "" {
		return nil, fmt.Errorf("sheet name required")
	}
	var payload ValueRange
	if err := c.get(ctx, c.spreadsheetPath()+"/values/"+url.PathEscape(sheet), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Strings(), nil
}

// SheetNames implements catalog.Source.
func (c *Client) SheetNames(ctx context.Context) ([]string, error) {
	return c.FetchSheetNames(ctx)
}

// Rows implements catalog.Source.
func (c *Client) Rows(ctx context.Context, sheet string) ([][]string, error) {
	return c.FetchValues(ctx, sheet)
}

func (c *Client) spreadsheetPath() string {
	return "/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID)
}

// get issues a GET for an already escaped path.
func (c *Client) get(ctx context.Context, escapedPath string, query url.Values, dest any) error {
	values := url.Values{}
	for k, v := range query {
		values[k] = v
	}
	if c.apiKey != "" {
		values.Set("key", c.apiKey)
	}
	rel, err := url.Parse(escapedPath)
	if err != nil {
		return fmt.Errorf("build path: %w", err)
	}
	rel.RawQuery = values.Encode()
	reqURL := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", redactKey(err, c.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// redactKey keeps the API key out of errors that embed the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse sheets endpoint %q: %w", endpoint, err)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
