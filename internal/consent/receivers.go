package consent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTP push adapters for the external signal receivers. Both are
// best-effort: the synchronizer logs and moves on when a push fails, and a
// nil receiver (endpoint not configured) is skipped entirely.

const receiverTimeout = 5 * time.Second

// HTTPTagManager pushes the consent-mode map to a server-side tag container.
type HTTPTagManager struct {
	url    string
	client *http.Client
}

func NewHTTPTagManager(url string) *HTTPTagManager {
	return &HTTPTagManager{
		url:    url,
		client: &http.Client{Timeout: receiverTimeout},
	}
}

func (t *HTTPTagManager) UpdateConsent(ctx context.Context, signals map[Signal]SignalState) error {
	body, err := json.Marshal(map[string]any{
		"event":   "consent_update",
		"consent": signals,
	})
	if err != nil {
		return fmt.Errorf("encode consent signals: %w", err)
	}

	return postJSON(ctx, t.client, t.url, body)
}

// HTTPAnalytics pushes the boolean consent toggle to the session-analytics
// vendor hook.
type HTTPAnalytics struct {
	url    string
	client *http.Client
}

func NewHTTPAnalytics(url string) *HTTPAnalytics {
	return &HTTPAnalytics{
		url:    url,
		client: &http.Client{Timeout: receiverTimeout},
	}
}

func (a *HTTPAnalytics) SetConsent(ctx context.Context, granted bool) error {
	body, err := json.Marshal(map[string]bool{"consent": granted})
	if err != nil {
		return fmt.Errorf("encode analytics consent: %w", err)
	}

	return postJSON(ctx, a.client, a.url, body)
}

func postJSON(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build receiver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("push to receiver: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("receiver returned %d", resp.StatusCode)
	}
	return nil
}
