package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ovforge/ovforge/internal/convert"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Health checks if the daemon is healthy
func (c *Client) Health() error {
	resp, err := c.get("/api/v1/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// GetStatus returns the daemon status
func (c *Client) GetStatus() (map[string]interface{}, error) {
	resp, err := c.get("/api/v1/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}

	return status, nil
}

// Shutdown requests daemon shutdown
func (c *Client) Shutdown() error {
	resp, err := c.post("/api/v1/admin/shutdown", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shutdown failed: status %d", resp.StatusCode)
	}

	return nil
}

// SubmitJob queues a conversion on the daemon
func (c *Client) SubmitJob(model, outputName string, cfg *convert.PassConfig) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"model":       model,
		"output_name": outputName,
	}
	if cfg != nil {
		payload["config"] = cfg
	}

	resp, err := c.post("/api/v1/jobs", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusAccepted {
		if msg, ok := result["error"].(string); ok {
			return nil, fmt.Errorf("submit failed: %s", msg)
		}
		return nil, fmt.Errorf("submit failed with status %d", resp.StatusCode)
	}

	return result, nil
}

// ListJobs returns all conversion jobs, optionally filtered by status
func (c *Client) ListJobs(status string) ([]map[string]interface{}, error) {
	url := "/api/v1/jobs"
	if status != "" {
		url = fmt.Sprintf("%s?status=%s", url, status)
	}

	resp, err := c.get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Jobs  []map[string]interface{} `json:"jobs"`
		Count int                      `json:"count"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Jobs, nil
}

// GetJob returns details about a specific job
func (c *Client) GetJob(id string) (map[string]interface{}, error) {
	resp, err := c.get(fmt.Sprintf("/api/v1/jobs/%s", id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job not found: %s", id)
	}

	var job map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, err
	}

	return job, nil
}

// CancelJob cancels a pending or running job
func (c *Client) CancelJob(id string) error {
	resp, err := c.delete(fmt.Sprintf("/api/v1/jobs/%s", id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to cancel job: status %d", resp.StatusCode)
	}

	return nil
}

// ValidateConfig checks a conversion config against the daemon
func (c *Client) ValidateConfig(cfg *convert.PassConfig) (bool, error) {
	payload := map[string]interface{}{
		"config": cfg,
	}

	resp, err := c.post("/api/v1/validate", payload)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	return result.Valid, nil
}

// ListModels returns all converted models
func (c *Client) ListModels() ([]map[string]interface{}, error) {
	resp, err := c.get("/api/v1/models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Models []map[string]interface{} `json:"models"`
		Count  int                      `json:"count"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Models, nil
}

// GetModel returns the manifest of a converted model
func (c *Client) GetModel(name string) (map[string]interface{}, error) {
	resp, err := c.get(fmt.Sprintf("/api/v1/models/%s", name))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("model not found: %s", name)
	}

	var model map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
		return nil, err
	}

	return model, nil
}

// RemoveModel drops a converted model from the registry
func (c *Client) RemoveModel(name string) error {
	resp, err := c.delete(fmt.Sprintf("/api/v1/models/%s", name))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to remove model: status %d", resp.StatusCode)
	}

	return nil
}

// HTTP helper methods

func (c *Client) get(path string) (*http.Response, error) {
	return c.httpClient.Get(c.baseURL + path)
}

func (c *Client) post(path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) delete(path string) (*http.Response, error) {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	return c.httpClient.Do(req)
}
