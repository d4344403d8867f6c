// Package llm turns a capability and its structured input into schema-conforming JSON.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/core/schema"
)

type Client struct {
	backend ports.GenerationBackend
	catalog *Catalog
}

func NewClient(backend ports.GenerationBackend, catalog *Catalog) *Client {
	return &Client{backend: backend, catalog: catalog}
}

// Generate makes exactly one backend call; retries belong to the backend transport.
func (c *Client) Generate(ctx context.Context, req ports.GenerationRequest) (json.RawMessage, error) {
	op := "generate " + string(req.Capability)
	if req.Output == nil {
		req.Output = schema.ForCapability(req.Capability)
	}
	if req.Output == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("no output schema declared"))
	}

	prompt, err := c.catalog.Render(req.Capability, req.Input)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
	}

	text, err := c.backend.GenerateJSON(ctx, prompt, req.Media, req.Output)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrNoOutput, op, errors.New("empty model response"))
	}

	raw := extractJSONObject(text)
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, op, fmt.Errorf("parse model json: %w", err))
	}
	if value == nil {
		return nil, domain.WrapError(domain.ErrNoOutput, op, errors.New("null model response"))
	}
	if err := schema.Conform(req.Output, value); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, op, err)
	}
	return json.RawMessage(raw), nil
}

// extractJSONObject drops prose or code fences a model may wrap around the object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
