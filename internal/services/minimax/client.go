// Package minimax implements the speech synthesizer on top of the MiniMax
// T2A v2 endpoint. Audio is returned hex-encoded inside a JSON envelope.
package minimax

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"peaceproc/internal/services"
)

const (
	defaultBaseURL     = "https://api.minimaxi.com"
	defaultModel       = "speech-02-hd"
	defaultVoiceID     = "English_expressive_narrator"
	defaultSpeed       = 0.83
	defaultHTTPTimeout = 120 * time.Second
)

// ErrMissingField reports a response that lacks data or data.audio. It signals
// contract drift rather than a transport failure.
var ErrMissingField = errors.New("minimax: response missing expected field")

// APIError carries the provider status when the call is rejected.
type APIError struct {
	HTTPStatus int
	StatusCode int
	StatusMsg  string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("minimax: http %d: status_code %d: %s", e.HTTPStatus, e.StatusCode, e.StatusMsg)
	}
	return fmt.Sprintf("minimax: http %d: %s", e.HTTPStatus, e.StatusMsg)
}

// Config captures the runtime settings for the speech API.
type Config struct {
	APIKey         string
	GroupID        string
	BaseURL        string
	Model          string
	VoiceID        string
	Speed          float64
	TimeoutSeconds int
}

// InteractionRecorder receives the synthesized text.
type InteractionRecorder interface {
	Record(component, prompt, response string, metadata map[string]any)
}

// Client talks to the MiniMax speech API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	recorder   InteractionRecorder
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

// NewClient constructs a client with the fixed narration voice defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.GroupID = strings.TrimSpace(cfg.GroupID)
	if cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.VoiceID = strings.TrimSpace(cfg.VoiceID); cfg.VoiceID == "" {
		cfg.VoiceID = defaultVoiceID
	}
	if cfg.Speed <= 0 {
		cfg.Speed = defaultSpeed
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type timberWeight struct {
	VoiceID string `json:"voice_id"`
	Weight  int    `json:"weight"`
}

type voiceSetting struct {
	VoiceID   string  `json:"voice_id"`
	Speed     float64 `json:"speed"`
	Vol       float64 `json:"vol"`
	Pitch     int     `json:"pitch"`
	LatexRead bool    `json:"latex_read"`
}

type audioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Bitrate    int    `json:"bitrate"`
	Format     string `json:"format"`
	Channel    int    `json:"channel"`
}

type t2aRequest struct {
	Model         string         `json:"model"`
	Text          string         `json:"text"`
	Stream        bool           `json:"stream"`
	TimberWeights []timberWeight `json:"timber_weights"`
	VoiceSetting  voiceSetting   `json:"voice_setting"`
	AudioSetting  audioSetting   `json:"audio_setting"`
	LanguageBoost string         `json:"language_boost"`
}

type t2aResponse struct {
	Data *struct {
		Audio *string `json:"audio"`
	} `json:"data"`
	BaseResp *struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

// Synthesize converts text to mp3 bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "synthesize", "tts.api_key not configured", nil)
	}
	if c.cfg.GroupID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "synthesize", "tts.group_id not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, "tts", "synthesize", "text required", nil)
	}

	audio, err := c.synthesize(ctx, text)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "tts", "synthesize", "", err)
	}
	if c.recorder != nil {
		c.recorder.Record("Narrator", text, "[Binary audio data]", map[string]any{
			"model":    c.cfg.Model,
			"voice_id": c.cfg.VoiceID,
			"format":   "mp3",
		})
	}
	return audio, nil
}

func (c *Client) synthesize(ctx context.Context, text string) ([]byte, error) {
	payload := t2aRequest{
		Model:         c.cfg.Model,
		Text:          text,
		Stream:        false,
		TimberWeights: []timberWeight{{VoiceID: c.cfg.VoiceID, Weight: 1}},
		VoiceSetting:  voiceSetting{Speed: c.cfg.Speed, Vol: 1, Pitch: 0},
		AudioSetting:  audioSetting{SampleRate: 32000, Bitrate: 128000, Format: "mp3", Channel: 1},
		LanguageBoost: "auto",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	endpoint := c.cfg.BaseURL + "/v1/t2a_v2?GroupId=" + url.QueryEscape(c.cfg.GroupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{HTTPStatus: resp.StatusCode, StatusMsg: strings.TrimSpace(string(body))}
	}

	var parsed t2aResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.BaseResp != nil && parsed.BaseResp.StatusCode != 0 {
		return nil, &APIError{
			HTTPStatus: resp.StatusCode,
			StatusCode: parsed.BaseResp.StatusCode,
			StatusMsg:  parsed.BaseResp.StatusMsg,
		}
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("%w: data", ErrMissingField)
	}
	if parsed.Data.Audio == nil {
		return nil, fmt.Errorf("%w: data.audio", ErrMissingField)
	}
	audio, err := hex.DecodeString(*parsed.Data.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode audio hex: %w", err)
	}
	return audio, nil
}
