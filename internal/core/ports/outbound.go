package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/studymate/internal/core/domain"
)

// TextExtractor extracts plain text from an uploaded document.
// An empty string with a nil error means the document carries no text.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.UploadedDocument) (string, error)
}

// DocumentLoader turns an uploaded file into its data URI and, on demand, its text.
type DocumentLoader interface {
	Load(ctx context.Context, file domain.FileHandle, needText bool) (domain.LoadedDocument, error)
}

type GenerationRequest struct {
	Capability domain.Capability
	Input      any
	Media      []domain.Media
	Output     *openapi3.Schema
}

// GenerationClient produces structured output that already conforms to req.Output.
type GenerationClient interface {
	Generate(ctx context.Context, req GenerationRequest) (json.RawMessage, error)
}

// GenerationBackend is a single model call returning raw JSON text.
type GenerationBackend interface {
	GenerateJSON(ctx context.Context, prompt string, media []domain.Media, output *openapi3.Schema) (string, error)
}

// SpeechSynthesizer returns raw PCM audio for the text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ActionObserver receives the terminal stage of every dispatched operation.
type ActionObserver interface {
	ObserveAction(kind domain.OperationKind, stage domain.Stage, duration time.Duration)
}
