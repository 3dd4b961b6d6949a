// Package api is the narrator session's HTTP client for the voxstory
// server. It maps the server's error envelope onto the narrator error
// taxonomy, so callers never see raw status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxstory/core/internal/models"
	"github.com/voxstory/core/internal/narrator/autosave"
	"github.com/voxstory/core/internal/narrator/dispatch"
)

const requestTimeout = 120 * time.Second

// Client talks to one server on behalf of one authenticated user. It
// implements dispatch.Backend and autosave.Store.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorEnvelope is the server's shared error body. "usage" is present only
// on quota denials.
type errorEnvelope struct {
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Usage   *models.UsageModel `json:"usage"`
}

func (e *errorEnvelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Synthesize requests narration audio for one normalized request. The
// server enforces the quota gate; this side only classifies the outcome.
func (c *Client) Synthesize(ctx context.Context, req dispatch.Request) ([]byte, string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"text":     req.Text,
		"voice_id": req.VoiceID,
		"speed":    req.Speed,
	})
	if err != nil {
		return nil, "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/say", bytes.NewReader(body))
	if err != nil {
		return nil, "", &dispatch.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.classify(resp)
	}
	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "audio/") {
		return nil, "", &dispatch.ProviderError{
			Err: fmt.Errorf("expected audio, got %q", mimeType),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &dispatch.ProviderError{Err: err}
	}
	return data, mimeType, nil
}

// Usage fetches today's consumption for the authenticated user.
func (c *Client) Usage(ctx context.Context) (models.UsageModel, error) {
	var rec models.UsageModel
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/usage", nil)
	if err != nil {
		return rec, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rec, c.classify(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Create persists a new story and returns its bound id.
func (c *Client) Create(ctx context.Context, title, content string) (autosave.Document, error) {
	return c.persistStory(ctx, http.MethodPost, "/api/v1/stories", title, content, http.StatusCreated)
}

// Update persists changes to an existing story.
func (c *Client) Update(ctx context.Context, id, title, content string) (autosave.Document, error) {
	return c.persistStory(ctx, http.MethodPut, "/api/v1/stories/"+id, title, content, http.StatusOK)
}

func (c *Client) persistStory(ctx context.Context, method, path, title, content string, wantStatus int) (autosave.Document, error) {
	body, err := json.Marshal(map[string]string{"title": title, "content": content})
	if err != nil {
		return autosave.Document{}, err
	}
	resp, err := c.do(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return autosave.Document{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return autosave.Document{}, c.classify(resp)
	}
	var st models.StoryModel
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return autosave.Document{}, err
	}
	return autosave.Document{ID: st.ID, Title: st.Title, Content: st.Content}, nil
}

// Story fetches one story by id, nil when it does not exist.
func (c *Client) Story(ctx context.Context, id string) (*models.StoryModel, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/stories/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}
	var st models.StoryModel
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Stories lists the user's stories.
func (c *Client) Stories(ctx context.Context) ([]models.StoryModel, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/stories", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}
	var out struct {
		Data []models.StoryModel `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteStory removes a story; false when it does not exist.
func (c *Client) DeleteStory(ctx context.Context, id string) (bool, error) {
	resp, err := c.do(ctx, http.MethodDelete, "/api/v1/stories/"+id, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, c.classify(resp)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpc.Do(req)
}

// classify turns a non-2xx response into a typed narrator error. The body
// is consumed here.
func (c *Client) classify(resp *http.Response) error {
	var env errorEnvelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &env); err != nil {
		env.Error = strings.TrimSpace(string(raw))
	}
	msg := env.text()
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &dispatch.ValidationError{Msg: msg}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &dispatch.AuthenticationError{Msg: msg}
	case http.StatusTooManyRequests:
		qe := &dispatch.QuotaExceededError{Reason: msg}
		if env.Usage != nil {
			qe.GenerationCount = env.Usage.GenerationCount
			qe.CharactersGenerated = env.Usage.CharactersGenerated
		}
		return qe
	default:
		return &dispatch.ProviderError{Err: fmt.Errorf("%s returned %s: %s", resp.Request.URL.Path, resp.Status, msg)}
	}
}
