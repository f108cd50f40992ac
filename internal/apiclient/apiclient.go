// Package apiclient consumes the mock-data HTTP collaborator: the
// read-only endpoints supplying conversation and comment history.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"refractor/internal/model"
)

const defaultTimeout = 10 * time.Second

// Client is a thin JSON client for the collaborator API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client rooted at baseURL (e.g. "http://localhost:3001").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Conversations fetches all conversation summaries.
func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.getJSON(ctx, "/api/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation fetches one conversation with its message history.
func (c *Client) Conversation(ctx context.Context, id string) (model.ConversationDetail, error) {
	var out model.ConversationDetail
	if err := c.getJSON(ctx, "/api/conversations/"+id, &out); err != nil {
		return model.ConversationDetail{}, err
	}
	return out, nil
}

// Comments fetches the queued audience comments.
func (c *Client) Comments(ctx context.Context) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.getJSON(ctx, "/api/comments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SceneComments fetches the comment queue for one scene.
func (c *Client) SceneComments(ctx context.Context, sceneID string) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.getJSON(ctx, "/api/comments/"+sceneID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed: HTTP %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
