package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPPoster posts events to the notification collaborator's webhook.
type HTTPPoster struct {
	url    string
	client *http.Client
}

func NewHTTPPoster(url string) *HTTPPoster {
	return &HTTPPoster{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPPoster) Post(ctx context.Context, args EventArgs) error {
	body, err := json.Marshal(args)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notify event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify webhook returned status %d", resp.StatusCode)
	}
	return nil
}
