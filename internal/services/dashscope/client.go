// Package dashscope implements the image generator on top of the DashScope
// wanx text-to-image API (asynchronous task submit, then poll).
package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"peaceproc/internal/services"
)

const (
	synthesisPath       = "/api/v1/services/aigc/text2image/image-synthesis"
	tasksPath           = "/api/v1/tasks/"
	defaultBaseURL      = "https://dashscope.aliyuncs.com"
	defaultModel        = "wanx-v1"
	defaultStyle        = "<watercolor>"
	defaultSize         = "1024*1024"
	defaultPollInterval = time.Second
	defaultHTTPTimeout  = 60 * time.Second
	maxPollDuration     = 10 * time.Minute
)

// Task statuses reported by the tasks endpoint.
const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusCanceled  = "CANCELED"
	StatusUnknown   = "UNKNOWN"
)

// Config captures the runtime settings for the image API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Style          string
	Size           string
	PollInterval   time.Duration
	TimeoutSeconds int
}

// APIError preserves the upstream status and code for diagnosis.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	TaskID     string
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("dashscope")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.TaskID != "" {
		fmt.Fprintf(&b, ": task %s", e.TaskID)
	}
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// InteractionRecorder receives the prompt and resulting image URL.
type InteractionRecorder interface {
	Record(component, prompt, response string, metadata map[string]any)
}

// Client talks to the DashScope image synthesis API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	recorder   InteractionRecorder
	sleep      func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRecorder wires an interaction recorder.
func WithRecorder(recorder InteractionRecorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// NewClient constructs a client, filling unset fields with the wanx defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Style = strings.TrimSpace(cfg.Style); cfg.Style == "" {
		cfg.Style = defaultStyle
	}
	if cfg.Size = strings.TrimSpace(cfg.Size); cfg.Size == "" {
		cfg.Size = defaultSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type synthesisRequest struct {
	Model string `json:"model"`
	Input struct {
		Prompt string `json:"prompt"`
	} `json:"input"`
	Parameters struct {
		Style string `json:"style"`
		Size  string `json:"size"`
		N     int    `json:"n"`
	} `json:"parameters"`
}

type taskResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Output    struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		Code       string `json:"code"`
		Message    string `json:"message"`
		Results    []struct {
			URL     string `json:"url"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"results"`
	} `json:"output"`
}

// Generate submits a synthesis task for prompt and waits for it to finish. It
// returns the result image URLs (one for n=1).
func (c *Client) Generate(ctx context.Context, prompt string) ([]string, error) {
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "image", "generate", "image.api_key not configured", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, services.Wrap(services.ErrValidation, "image", "generate", "prompt required", nil)
	}

	taskID, err := c.submit(ctx, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "image", "submit", "", err)
	}
	urls, err := c.wait(ctx, taskID)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "image", "poll", "", err)
	}
	if c.recorder != nil {
		c.recorder.Record("ImagePromptCreator_Image", prompt, urls[0], map[string]any{
			"model": c.cfg.Model,
			"style": c.cfg.Style,
			"size":  c.cfg.Size,
			"n":     1,
		})
	}
	return urls, nil
}

func (c *Client) submit(ctx context.Context, prompt string) (string, error) {
	var body synthesisRequest
	body.Model = c.cfg.Model
	body.Input.Prompt = prompt
	body.Parameters.Style = c.cfg.Style
	body.Parameters.Size = c.cfg.Size
	body.Parameters.N = 1
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+synthesisPath, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-DashScope-Async", "enable")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	if resp.Output.TaskID == "" {
		return "", &APIError{StatusCode: http.StatusOK, Code: resp.Code, Message: "response missing task_id"}
	}
	return resp.Output.TaskID, nil
}

func (c *Client) wait(ctx context.Context, taskID string) ([]string, error) {
	deadline := time.Now().Add(maxPollDuration)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tasksPath+taskID, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}
		switch status := strings.ToUpper(resp.Output.TaskStatus); status {
		case StatusSucceeded:
			urls := make([]string, 0, len(resp.Output.Results))
			for _, result := range resp.Output.Results {
				if u := strings.TrimSpace(result.URL); u != "" {
					urls = append(urls, u)
				}
			}
			if len(urls) == 0 {
				return nil, &APIError{StatusCode: http.StatusOK, TaskID: taskID, Code: firstResultCode(resp), Message: "task succeeded without image url"}
			}
			return urls, nil
		case StatusFailed, StatusCanceled, StatusUnknown:
			return nil, &APIError{
				StatusCode: http.StatusOK,
				TaskID:     taskID,
				Code:       firstNonEmpty(resp.Output.Code, status),
				Message:    resp.Output.Message,
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("task %s still %s after %s", taskID, resp.Output.TaskStatus, maxPollDuration)
		}
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, err
		}
	}
}

func (c *Client) do(req *http.Request) (taskResponse, error) {
	var parsed taskResponse
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return parsed, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, fmt.Errorf("read body: %w", err)
	}
	decodeErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: parsed.Code, Message: parsed.Message}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return parsed, apiErr
	}
	if decodeErr != nil {
		return parsed, fmt.Errorf("decode response: %w", decodeErr)
	}
	return parsed, nil
}

func firstResultCode(resp taskResponse) string {
	for _, result := range resp.Output.Results {
		if result.Code != "" {
			return result.Code
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
