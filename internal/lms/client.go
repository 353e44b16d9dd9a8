// Package lms wraps the LMS web-service API at the boundary this service
// consumes: the roster and group feeds for a course. It is deliberately
// thin; page scraping and mutations live in the browser bridge, not here.
package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Participant is one record of the enrollment feed.
type Participant struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	SISUserID   string `json:"sis_user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Group is one record of the course group feed.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Source is the roster data supplier the sync handler depends on.
type Source interface {
	FetchRoster(ctx context.Context, courseID string) ([]Participant, error)
	FetchGroups(ctx context.Context, courseID string) ([]Group, error)
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) FetchRoster(ctx context.Context, courseID string) ([]Participant, error) {
	var out []Participant
	err := c.getJSON(ctx, fmt.Sprintf("/api/v1/courses/%s/enrollments", url.PathEscape(courseID)), &out)
	return out, err
}

func (c *Client) FetchGroups(ctx context.Context, courseID string) ([]Group, error) {
	var out []Group
	err := c.getJSON(ctx, fmt.Sprintf("/api/v1/courses/%s/groups", url.PathEscape(courseID)), &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("lms: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lms: %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // 8MB guard
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("lms: %s: decode: %w", path, err)
	}
	return nil
}
