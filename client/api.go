package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"venuepulse/models"
)

// beaconTimeout bounds the detached end-of-session send. It is deliberately
// short: the beacon fires while the process is tearing down.
const beaconTimeout = 3 * time.Second

// SessionService is the session/activity collaborator the SessionManager
// talks to. Implemented over REST by APIClient; tests substitute a fake.
type SessionService interface {
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (string, error)
	Heartbeat(ctx context.Context, sessionID string, update models.HeartbeatUpdate) error
	LogActivity(ctx context.Context, req models.LogActivityRequest) error
	// EndSession takes no context: it is the page-unload-safe beacon and must
	// not be cancellable by the caller's teardown.
	EndSession(sessionID string) error
}

// APIClient makes REST calls to the dashboard service.
type APIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPIClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateSession sends POST /api/v1/sessions and returns the assigned session id.
func (c *APIClient) CreateSession(ctx context.Context, req models.CreateSessionRequest) (string, error) {
	var out models.CreateSessionResponse
	if err := c.post(ctx, "/api/v1/sessions", req, &out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// Heartbeat sends POST /api/v1/sessions/{id}/heartbeat with a partial update.
func (c *APIClient) Heartbeat(ctx context.Context, sessionID string, update models.HeartbeatUpdate) error {
	return c.post(ctx, "/api/v1/sessions/"+sessionID+"/heartbeat", update, nil)
}

// LogActivity sends POST /api/v1/activity.
func (c *APIClient) LogActivity(ctx context.Context, req models.LogActivityRequest) error {
	return c.post(ctx, "/api/v1/activity", req, nil)
}

// EndSession sends POST /api/v1/sessions/{id}/end as a beacon: detached from
// any caller context, best effort, response discarded. Ordinary requests can
// be aborted mid-flight during teardown; this one always gets its attempt.
func (c *APIClient) EndSession(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), beaconTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sessions/"+sessionID+"/end", nil)
	if err != nil {
		return err
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("end session: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *APIClient) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *APIClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
