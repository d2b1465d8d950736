package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

const (
	userAgent      = "opendata-harvester/0.1"
	excerptLen     = 200
	defaultTimeout = 30 * time.Second
)

// Client is the HTTP client shared by the paginator and the record
// fetcher for one source, so both apply the same auth/header policy.
type Client struct {
	apiBase    string
	apiKey     string
	authScheme domain.AuthScheme
	headers    map[string]string
	httpClient *http.Client
	limiter    RateLimiter
}

// NewClient creates a client for one source configuration.
func NewClient(src *domain.Source, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if src.AuthScheme == domain.AuthBearer && src.APIKey != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: src.APIKey},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}

	return &Client{
		apiBase:    strings.TrimRight(src.APIBase, "/") + "/",
		apiKey:     src.APIKey,
		authScheme: src.AuthScheme,
		headers:    src.ExtraHeaders,
		httpClient: httpClient,
		limiter:    NewRateLimiter(),
	}
}

// StatusError is an HTTP response with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Excerpt    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s: %s", e.URL, e.Status, e.Excerpt)
}

// Retryable reports whether the status indicates a transient condition.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// DecodeError is a response body that could not be parsed as JSON.
// It carries an excerpt of the raw payload for diagnosis.
type DecodeError struct {
	URL     string
	Excerpt string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v (payload: %q)", e.URL, e.Err, e.Excerpt)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, pathOrURL string, params url.Values) (map[string]interface{}, error) {
	u := c.resolve(pathOrURL)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// GraphQL posts a query with variables to the GraphQL endpoint and
// returns the unwrapped "data" object. GraphQL-level errors are
// surfaced as plain errors since they are not transient.
func (c *Client) GraphQL(ctx context.Context, pathOrURL, query string, variables map[string]interface{}) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"query":     query,
		"variables": variables,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	u := c.resolve(pathOrURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if errs, ok := resp["errors"].([]interface{}); ok && len(errs) > 0 {
		return nil, fmt.Errorf("graphql errors: %v", errs)
	}

	data, _ := resp["data"].(map[string]interface{})
	if data == nil {
		return nil, &DecodeError{URL: u, Excerpt: "missing data object", Err: fmt.Errorf("no data in graphql response")}
	}
	return data, nil
}

func (c *Client) do(req *http.Request) (map[string]interface{}, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.authScheme == domain.AuthHeader && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.limiter.UpdateFromResponse(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.String(),
			Excerpt:    excerpt(body),
		}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &DecodeError{URL: req.URL.String(), Excerpt: excerpt(body), Err: err}
	}
	return decoded, nil
}

// resolve joins a path with the base URL, passing full URLs through.
func (c *Client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	return c.apiBase + strings.TrimLeft(pathOrURL, "/")
}

func excerpt(body []byte) string {
	if len(body) > excerptLen {
		return string(body[:excerptLen]) + "..."
	}
	return string(body)
}
