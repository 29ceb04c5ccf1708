package mapsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPMarkerClient talks to the map-visualization service over HTTP.
type HTTPMarkerClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPMarkerClient creates a client for the map service at baseURL.
func NewHTTPMarkerClient(baseURL string, timeout time.Duration) *HTTPMarkerClient {
	return &HTTPMarkerClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type markerRequest struct {
	ID      string                 `json:"id"`
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload"`
}

// AddMarker creates or replaces a marker in the given set.
func (c *HTTPMarkerClient) AddMarker(ctx context.Context, set, id, kind string, payload map[string]interface{}) error {
	url := fmt.Sprintf("%s/api/v1/markers/%s", c.baseURL, set)

	body, err := json.Marshal(markerRequest{ID: id, Kind: kind, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal marker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create marker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("marker request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Warning: failed to close marker response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("marker add failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// RemoveMarker deletes a marker from the given set. Removing an
// absent marker is treated as success.
func (c *HTTPMarkerClient) RemoveMarker(ctx context.Context, set, id string) error {
	url := fmt.Sprintf("%s/api/v1/markers/%s/%s", c.baseURL, set, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create marker delete request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("marker delete failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Warning: failed to close marker response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("marker delete failed with status %d", resp.StatusCode)
	}
	return nil
}
