// Package speech synthesizes audio through an OpenAI-compatible /v1/audio/speech endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/studymate/internal/infrastructure/resilience"
)

// maxAudioBytes caps one reply at about 20 minutes of 24 kHz mono PCM.
const maxAudioBytes = 64 << 20

type Client struct {
	baseURL    string
	model      string
	voice      string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model, voice, apiKey string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		voice:      voice,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Synthesize returns raw 16-bit little-endian PCM, mono, 24 kHz.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"voice":           c.voice,
		"input":           text,
		"response_format": "pcm",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	audio, err := resilience.Call(ctx, c.executor, "speech.synthesize", func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, body)
	}, resilience.ClassifyHTTP)
	if err != nil {
		return nil, resilience.MarkTemporary("speech synthesize", err, resilience.ClassifyHTTP)
	}
	return audio, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &resilience.HTTPStatusError{
			Service:    "speech",
			Operation:  "synthesize",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(msg),
		}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return audio, nil
}
