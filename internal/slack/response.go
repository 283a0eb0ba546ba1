package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"basegraph.app/standup/internal/model"
)

// ResponseClient posts delayed messages to a command's response_url.
type ResponseClient interface {
	Post(ctx context.Context, responseURL string, resp model.Response) error
}

type responseClient struct {
	http *http.Client
}

func NewResponseClient(client *http.Client) ResponseClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &responseClient{http: client}
}

func (c *responseClient) Post(ctx context.Context, responseURL string, resp model.Response) error {
	if responseURL == "" {
		return fmt.Errorf("no response_url to post to")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build response request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post response: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("post response: unexpected status %d", res.StatusCode)
	}
	return nil
}
