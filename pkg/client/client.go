package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

// Client is the API client for opendata-harvester
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RegisterSource registers or updates a harvest source
func (c *Client) RegisterSource(config []byte) (*domain.Source, error) {
	var response struct {
		Data *domain.Source `json:"data"`
	}
	if err := c.post("/api/v1/sources", config, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListSources retrieves all registered sources
func (c *Client) ListSources() ([]*domain.Source, error) {
	var response struct {
		Data []*domain.Source `json:"data"`
	}
	if err := c.get("/api/v1/sources", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSource retrieves one source by ID
func (c *Client) GetSource(sourceID string) (*domain.Source, error) {
	var response struct {
		Data *domain.Source `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/sources/%s", sourceID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// StartJob starts a harvest job for a source
func (c *Client) StartJob(sourceID string) (*domain.Job, error) {
	var response struct {
		Data *domain.Job `json:"data"`
	}
	if err := c.post(fmt.Sprintf("/api/v1/sources/%s/jobs", sourceID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListJobs retrieves the jobs of a source, newest first
func (c *Client) ListJobs(sourceID string) ([]*domain.Job, error) {
	var response struct {
		Data []*domain.Job `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/sources/%s/jobs", sourceID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetJob retrieves the status report for one job
func (c *Client) GetJob(jobID string) (*domain.JobReport, error) {
	var response struct {
		Data *domain.JobReport `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/jobs/%s", jobID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListItems retrieves the items of a job, optionally filtered by status
func (c *Client) ListItems(jobID string, status string) ([]*domain.Item, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}

	var response struct {
		Data []*domain.Item `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/jobs/%s/items", jobID), params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// CancelJob cancels a running job
func (c *Client) CancelJob(jobID string) error {
	return c.post(fmt.Sprintf("/api/v1/jobs/%s/cancel", jobID), nil, nil)
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body []byte, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(raw))
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
