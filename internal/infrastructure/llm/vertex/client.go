// Package vertex is a Gemini generation backend on Vertex AI.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/getkin/kin-openapi/openapi3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/schema"
	"github.com/kirillkom/studymate/internal/infrastructure/resilience"
)

type generateFunc func(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error)

type Client struct {
	genai     *genai.Client
	modelName string
	executor  *resilience.Executor
	generate  generateFunc
}

func New(ctx context.Context, projectID, location, modelName string, executor *resilience.Executor) (*Client, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create vertex ai client: %w", err)
	}
	return newClient(client, modelName, executor, func(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		return model.GenerateContent(ctx, parts...)
	}), nil
}

func newClient(client *genai.Client, modelName string, executor *resilience.Executor, generate generateFunc) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), nil)
	}
	return &Client{genai: client, modelName: modelName, executor: executor, generate: generate}
}

func (c *Client) Close() error {
	if c.genai == nil {
		return nil
	}
	return c.genai.Close()
}

// GenerateJSON sends the prompt plus media blobs and asks Gemini for JSON matching output.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, media []domain.Media, output *openapi3.Schema) (string, error) {
	parts, err := buildParts(prompt, media)
	if err != nil {
		return "", err
	}

	model := c.model()
	model.ResponseMIMEType = "application/json"
	if output != nil {
		model.ResponseSchema = toGenaiSchema(output)
	}

	text, err := resilience.Call(ctx, c.executor, "vertex.generate", func(ctx context.Context) (string, error) {
		resp, err := c.generate(ctx, model, parts...)
		if err != nil {
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		return responseText(resp), nil
	}, classifyVertexError)
	if err != nil {
		return "", resilience.MarkTemporary("vertex generate", err, classifyVertexError)
	}
	return text, nil
}

func (c *Client) model() *genai.GenerativeModel {
	if c.genai == nil {
		return &genai.GenerativeModel{}
	}
	return c.genai.GenerativeModel(c.modelName)
}

func buildParts(prompt string, media []domain.Media) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(media)+1)
	for _, item := range media {
		mimeType, data, err := domain.DecodeDataURI(item.DataURI)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "vertex media", err)
		}
		parts = append(parts, genai.Blob{MIMEType: mimeType, Data: data})
	}
	return append(parts, genai.Text(prompt)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

// toGenaiSchema maps the model-facing shape of s; oneOf resolves to its first alternative.
func toGenaiSchema(s *openapi3.Schema) *genai.Schema {
	s = schema.Preferred(s)
	if s == nil {
		return nil
	}

	out := &genai.Schema{Description: s.Description}
	switch schema.TypeOf(s) {
	case openapi3.TypeObject:
		out.Type = genai.TypeObject
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, name := range schema.PropertyNames(s) {
			if ref := s.Properties[name]; ref != nil {
				out.Properties[name] = toGenaiSchema(ref.Value)
			}
		}
		out.Required = append([]string(nil), s.Required...)
	case openapi3.TypeArray:
		out.Type = genai.TypeArray
		if s.Items != nil {
			out.Items = toGenaiSchema(s.Items.Value)
		}
	case openapi3.TypeInteger:
		out.Type = genai.TypeInteger
	case openapi3.TypeNumber:
		out.Type = genai.TypeNumber
	case openapi3.TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	for _, value := range s.Enum {
		if text, ok := value.(string); ok {
			out.Enum = append(out.Enum, text)
		}
	}
	return out
}

func classifyVertexError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.Internal, codes.DeadlineExceeded:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition:
		return resilience.ErrorClassification{}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}
