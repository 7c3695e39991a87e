package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"peaceproc/internal/logging"
)

var ErrAPIUnavailable = errors.New("log API unavailable")

// StreamClient talks to a running peaceprocd.
type StreamClient struct {
	base *url.URL
	http *http.Client
}

// StreamQuery mirrors the /logs query parameters.
type StreamQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	SessionID string
	Component string
}

// StreamResponse is the /logs payload.
type StreamResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

// NewStreamClient accepts host:port or a full URL. An empty bind yields a nil
// client.
func NewStreamClient(bind string) (*StreamClient, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &StreamClient{
		base: base,
		// No timeout; follow requests are bounded by the server's long-poll window.
		http: &http.Client{},
	}, nil
}

// Fetch performs one /logs request.
func (c *StreamClient) Fetch(ctx context.Context, q StreamQuery) (StreamResponse, error) {
	if c == nil {
		return StreamResponse{}, ErrAPIUnavailable
	}

	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if strings.TrimSpace(q.SessionID) != "" {
		values.Set("session", q.SessionID)
	}
	if strings.TrimSpace(q.Component) != "" {
		values.Set("component", q.Component)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/logs", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return StreamResponse{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return StreamResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return StreamResponse{}, fmt.Errorf("logs endpoint returned status %d", resp.StatusCode)
	}

	var payload StreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return StreamResponse{}, err
	}
	return payload, nil
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
