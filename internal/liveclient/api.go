package liveclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is a non 2xx answer of the REST API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("liveclient: api status %d: %s", e.StatusCode, e.Message)
}

// APIClient reads stats and the leaderboard over REST.
type APIClient struct {
	base string
	http *http.Client
}

// NewAPIClient builds a client for the server at baseURL.
func NewAPIClient(baseURL string, timeout time.Duration) (*APIClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("liveclient: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("liveclient: unsupported url scheme %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &APIClient{
		base: strings.TrimSuffix(u.String(), "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *APIClient) GetStats(ctx context.Context, token string) (StatsPayload, error) {
	var out StatsPayload
	err := c.get(ctx, token, "/api/v1/progress/stats", nil, &out)
	return out, err
}

func (c *APIClient) GetLeaderboard(ctx context.Context, token string, limit int32) ([]LeaderboardEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.FormatInt(int64(limit), 10))
	}

	var out LeaderboardPayload
	if err := c.get(ctx, token, "/api/v1/progress/leaderboard", q, &out); err != nil {
		return nil, err
	}
	if out.Entries == nil {
		out.Entries = []LeaderboardEntry{}
	}
	return out.Entries, nil
}

type apiResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *APIClient) get(ctx context.Context, token, path string, q url.Values, out any) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("liveclient: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("liveclient: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("liveclient: read %s: %w", path, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("liveclient: decode %s: %w", path, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("liveclient: decode %s data: %w", path, err)
	}
	return nil
}
