package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskdeck.app/botlink/internal/bot"
)

const (
	defaultAPIBaseURL = "https://slack.com/api"
	defaultTimeout    = 10 * time.Second
)

// Client talks to the Slack Web API. It implements bot.Provider.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
}

type Option func(*Client)

// WithBaseURL overrides the Slack API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient overrides the HTTP client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		baseURL:      defaultAPIBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ bot.Provider = (*Client)(nil)

// oauthAccessResponse mirrors oauth.v2.access. The ok flag is Slack's own
// success marker, independent of HTTP status.
type oauthAccessResponse struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error"`
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	AppID       string `json:"app_id"`
	Team        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	AuthedUser struct {
		ID string `json:"id"`
	} `json:"authed_user"`
}

// ExchangeCode exchanges a one-time authorization code for a bot credential
// via oauth.v2.access.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*bot.ExchangeResult, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", bot.ErrInvalidRequest)
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"redirect_uri":  {c.redirectURI},
	}

	body, err := c.postForm(ctx, "/oauth.v2.access", form)
	if err != nil {
		return nil, err
	}

	var resp oauthAccessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding oauth response: %v", bot.ErrMalformedResponse, err)
	}

	if !resp.OK {
		return nil, &bot.ProviderRejectedError{Reason: resp.Error}
	}

	return &bot.ExchangeResult{
		AccessToken: resp.AccessToken,
		Scope:       resp.Scope,
		TeamID:      resp.Team.ID,
		UserID:      resp.AuthedUser.ID,
		AppID:       resp.AppID,
	}, nil
}

// SendNotification posts text to a channel via chat.postMessage using the
// given bearer credential.
func (c *Client) SendNotification(ctx context.Context, channel, text, token string) error {
	payload := map[string]any{
		"channel": channel,
		"text":    text,
		"blocks":  notificationBlocks(text),
		"mrkdwn":  true,
	}
	return c.postJSON(ctx, "/chat.postMessage", token, payload)
}

// OpenPrompt opens the new-task modal for a slash command trigger via views.open.
func (c *Client) OpenPrompt(ctx context.Context, triggerID, token string) error {
	payload := map[string]any{
		"trigger_id": triggerID,
		"view":       newTaskView(),
	}
	return c.postJSON(ctx, "/views.open", token, payload)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req)
	if err != nil {
		return err
	}

	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: decoding response: %v", bot.ErrMalformedResponse, err)
	}
	if !resp.OK {
		slog.WarnContext(ctx, "slack api call rejected", "path", path, "reason", resp.Error)
		return &bot.ProviderRejectedError{Reason: resp.Error}
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bot.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", bot.ErrTransport, err)
	}

	// Slack reports logical failures in the body; non-2xx statuses are rare
	// and treated as transport-level failures.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", bot.ErrTransport, resp.StatusCode)
	}

	return body, nil
}
