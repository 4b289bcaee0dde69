// Package asana implements the TaskSource port against the Asana REST API.
package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Asana API root.
	DefaultBaseURL = "https://app.asana.com/api/1.0"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// pageSize is the page size for list endpoints.
	pageSize = 100
)

// Ensure Client implements the interface.
var _ driven.TaskSource = (*Client)(nil)

// Config holds configuration for the Asana client.
type Config struct {
	// AccessToken is the personal access token (required).
	AccessToken string

	// BaseURL overrides the API root. Useful for tests.
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client is an authenticated, rate-limited Asana API client.
// Construct one at process start and inject it; it is safe for
// concurrent use.
type Client struct {
	http        *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a new Asana API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("asana: access token: %w", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = cfg.Timeout

	return &Client{
		http:        hc,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: NewRateLimiter(),
	}, nil
}

// envelope is the standard Asana response wrapper.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// get performs a single GET against an API path and decodes the data
// payload into out. Returns the pagination offset for the next page,
// empty when there is none.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	c.rateLimiter.Update(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("asana %s: %w", path, domain.ErrRateLimited)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		return "", fmt.Errorf("asana %s: %s", path, msg)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode data: %w", err)
		}
	}

	if env.NextPage != nil {
		return env.NextPage.Offset, nil
	}
	return "", nil
}

// getPaged walks offset pagination, handing each page's data payload to
// collect.
func (c *Client) getPaged(ctx context.Context, path string, query url.Values, collect func(json.RawMessage) error) error {
	offset := ""
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("limit", fmt.Sprintf("%d", pageSize))
		if offset != "" {
			q.Set("offset", offset)
		}

		var page json.RawMessage
		next, err := c.get(ctx, path, q, &page)
		if err != nil {
			return err
		}

		if err := collect(page); err != nil {
			return err
		}

		if next == "" {
			return nil
		}
		offset = next
	}
}

// Validate checks credentials by fetching the authenticated user.
func (c *Client) Validate(ctx context.Context) (string, error) {
	var user struct {
		Name string `json:"name"`
	}
	q := url.Values{}
	q.Set("opt_fields", "name")
	if _, err := c.get(ctx, "/users/me", q, &user); err != nil {
		return "", err
	}
	return user.Name, nil
}
