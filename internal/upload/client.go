package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meltforce/squatter/internal/models"
)

// Client sends sessions to the squatter server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the squatter server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// sessionRequest matches the body of POST /api/v1/sessions.
type sessionRequest struct {
	*models.TrackSession
	Name string  `json:"name"`
	FPS  float64 `json:"fps"`
}

// SendSession POSTs a session to the server, which analyzes and stores it,
// and returns the new session ID. Retries up to 3 times with exponential
// backoff on transport errors and 5xx responses.
func (c *Client) SendSession(ctx context.Context, name string, s *models.TrackSession, fps float64) (string, error) {
	data, err := json.Marshal(sessionRequest{TrackSession: s, Name: name, FPS: fps})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/sessions", bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated:
			var created struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(body, &created); err != nil {
				return "", fmt.Errorf("decoding response: %w", err)
			}
			return created.ID, nil
		case resp.StatusCode < 500:
			return "", fmt.Errorf("session rejected (status %d): %s", resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, body)
	}

	return "", fmt.Errorf("after 3 attempts: %w", lastErr)
}
