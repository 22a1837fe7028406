package pushover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-assistant/internal/infra"
)

const (
	DefaultAPIURL = "https://api.pushover.net/1/messages.json"
	// Pushover rejects messages longer than this many characters.
	maxMessageLen = 1024
)

// Client pushes each finished exchange to a phone. With no credentials it
// does nothing.
type Client struct {
	token      string
	userKey    string
	title      string
	apiURL     string
	httpClient *http.Client
	retryCfg   infra.RetryConfig
}

func NewClient(token, userKey, title, apiURL string) *Client {
	if title == "" {
		title = "Voice Assistant"
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		token:      token,
		userKey:    userKey,
		title:      title,
		apiURL:     apiURL,
		httpClient: infra.NewHTTPClient(10 * time.Second),
		retryCfg:   infra.DefaultRetryConfig(),
	}
}

func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	if r := []rune(message); len(r) > maxMessageLen {
		message = string(r[:maxMessageLen-1]) + "…"
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", message)
	data.Set("title", c.title)
	encoded := data.Encode()

	return infra.WithRetry(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(encoded))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		defer resp.Body.Close()

		return infra.CheckStatus("pushover", resp)
	})
}
