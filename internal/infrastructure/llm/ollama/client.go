// Package ollama is a generation backend for a local Ollama server.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/core/schema"
	"github.com/kirillkom/studymate/internal/infrastructure/resilience"
)

const maxInlineDocumentChars = 48000

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
	extractor  ports.TextExtractor
}

// New builds the client. Ollama has no document input, so non-image media is
// inlined as text through extractor when one is given.
func New(baseURL, genModel string, executor *resilience.Executor, extractor ports.TextExtractor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 180 * time.Second},
		executor:   executor,
		extractor:  extractor,
	}
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string, media []domain.Media, output *openapi3.Schema) (string, error) {
	documents, images, err := c.splitMedia(ctx, media)
	if err != nil {
		return "", err
	}
	if documents != "" {
		prompt = prompt + "\n\nDocument:\n" + documents
	}

	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	if output != nil {
		reqBody["format"] = schema.ToJSONSchema(output)
	}
	if len(images) > 0 {
		reqBody["images"] = images
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) splitMedia(ctx context.Context, media []domain.Media) (string, []string, error) {
	var docs strings.Builder
	var images []string
	for _, item := range media {
		mimeType, data, err := domain.DecodeDataURI(item.DataURI)
		if err != nil {
			return "", nil, domain.WrapError(domain.ErrInvalidInput, "ollama media", err)
		}
		if strings.HasPrefix(mimeType, "image/") {
			images = append(images, base64.StdEncoding.EncodeToString(data))
			continue
		}
		if c.extractor == nil {
			return "", nil, domain.WrapError(domain.ErrInvalidInput, "ollama media", fmt.Errorf("cannot inline %s without an extractor", mimeType))
		}
		text, err := c.extractor.Extract(ctx, domain.UploadedDocument{RawBytes: data, MimeType: mimeType})
		if err != nil {
			return "", nil, domain.WrapError(domain.ErrExtractionFailed, "ollama media", err)
		}
		docs.WriteString(truncateUTF8(text, maxInlineDocumentChars))
		docs.WriteString("\n")
	}
	return strings.TrimSpace(docs.String()), images, nil
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
