package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// ProgressMirrorClient talks to a remote progress endpoint over HTTP. The
// remote is a plain document store for this client: it receives the whole
// aggregate on push and returns the whole aggregate on fetch.
type ProgressMirrorClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewProgressMirrorClient builds a mirror client for the given base URL.
// The token, when non-empty, is sent as an opaque bearer credential.
func NewProgressMirrorClient(baseURL, token string, timeout time.Duration) *ProgressMirrorClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProgressMirrorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the remote aggregate. A 404 means the remote has never
// seen this user and maps to (nil, nil).
func (c *ProgressMirrorClient) Fetch(ctx context.Context) (*entity.LearningProgress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/progress", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch remote progress: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch remote progress: unexpected status %s", resp.Status)
	}

	var progress entity.LearningProgress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return nil, fmt.Errorf("decode remote progress: %w", err)
	}
	progress.Normalize()
	return &progress, nil
}

// Push uploads the whole aggregate, replacing whatever the remote holds.
func (c *ProgressMirrorClient) Push(ctx context.Context, progress *entity.LearningProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode remote progress: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/progress", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push remote progress: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push remote progress: unexpected status %s", resp.Status)
	}
	return nil
}

func (c *ProgressMirrorClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
