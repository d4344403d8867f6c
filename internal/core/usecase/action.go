package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/core/schema"
	"github.com/kirillkom/studymate/internal/core/validation"
)

const tracerName = "github.com/kirillkom/studymate/internal/core/usecase"

// ActionUseCase runs one operation through validate, load and generate.
// It holds no per-request state and is safe for concurrent use.
type ActionUseCase struct {
	loader    ports.DocumentLoader
	generator ports.GenerationClient
	speech    ports.SpeechSynthesizer
	observer  ports.ActionObserver
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewActionUseCase(
	loader ports.DocumentLoader,
	generator ports.GenerationClient,
	speech ports.SpeechSynthesizer,
	observer ports.ActionObserver,
	logger *slog.Logger,
) *ActionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionUseCase{
		loader:    loader,
		generator: generator,
		speech:    speech,
		observer:  observer,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

func (uc *ActionUseCase) Handle(
	ctx context.Context,
	kind domain.OperationKind,
	fields map[string]string,
	file domain.FileHandle,
) domain.OperationResult {
	started := time.Now()
	ctx, span := uc.tracer.Start(ctx, "action "+string(kind))
	defer span.End()
	span.SetAttributes(attribute.String("studymate.operation", string(kind)))

	result := uc.run(ctx, kind, fields, file)
	uc.finish(ctx, span, result, time.Since(started))
	return result
}

func (uc *ActionUseCase) run(
	ctx context.Context,
	kind domain.OperationKind,
	fields map[string]string,
	file domain.FileHandle,
) domain.OperationResult {
	req, err := validation.Validate(kind, fields)
	if err != nil {
		return domain.Failed(kind, domain.StageValidationFailed, err)
	}

	var doc domain.LoadedDocument
	if need := kind.DocumentNeed(); need != domain.DocumentNone {
		doc, err = uc.loader.Load(ctx, file, need == domain.DocumentText)
		if err != nil {
			return domain.Failed(kind, domain.StageLoadFailed, err)
		}
	}

	payload, err := uc.generate(ctx, req, doc)
	if err != nil {
		return domain.Failed(kind, domain.StageGenerationFailed, err)
	}
	return domain.Completed(kind, payload)
}

func (uc *ActionUseCase) generate(ctx context.Context, req domain.OperationRequest, doc domain.LoadedDocument) (domain.Payload, error) {
	switch r := req.(type) {
	case domain.QuestionRequest:
		return uc.answerQuestion(ctx, r, doc)
	case domain.SummaryRequest:
		return uc.summarize(ctx, r, doc)
	case domain.FlashcardRequest:
		return uc.flashcards(ctx, r, doc)
	case domain.QuizRequest:
		return uc.quiz(ctx, r, doc)
	case domain.ConceptMapRequest:
		return uc.conceptMap(ctx, doc)
	case domain.ChatRequest:
		return uc.chat(ctx, r)
	case domain.SpeechRequest:
		return uc.textToSpeech(ctx, r)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "generate", fmt.Errorf("unsupported request %T", req))
	}
}

func (uc *ActionUseCase) answerQuestion(ctx context.Context, req domain.QuestionRequest, doc domain.LoadedDocument) (domain.Payload, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	media := []domain.Media{{MimeType: doc.MimeType, DataURI: doc.DataURI}}
	input := domain.QuestionInput{Question: req.Question}
	if err := uc.call(ctx, domain.CapabilityAnswerQuestion, input, media, schema.Answer(), &out); err != nil {
		return nil, err
	}
	return domain.Answer{Text: out.Answer}, nil
}

func (uc *ActionUseCase) summarize(ctx context.Context, req domain.SummaryRequest, doc domain.LoadedDocument) (domain.Payload, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	input := domain.SummaryInput{PDFText: doc.Text, SummaryType: req.SummaryType, PageNumbers: req.PageNumbers}
	if err := uc.call(ctx, domain.CapabilitySummarize, input, nil, schema.Summary(), &out); err != nil {
		return nil, err
	}
	return domain.Summary{Text: out.Summary}, nil
}

func (uc *ActionUseCase) flashcards(ctx context.Context, req domain.FlashcardRequest, doc domain.LoadedDocument) (domain.Payload, error) {
	var out struct {
		Flashcards []domain.Flashcard `json:"flashcards"`
	}
	input := domain.FlashcardsInput{PDFText: doc.Text, Topic: req.Topic, NumberOfFlashcards: req.Count}
	if err := uc.call(ctx, domain.CapabilityGenerateFlashcards, input, nil, schema.Flashcards(), &out); err != nil {
		return nil, err
	}
	return domain.FlashcardSet{Cards: out.Flashcards}, nil
}

func (uc *ActionUseCase) quiz(ctx context.Context, req domain.QuizRequest, doc domain.LoadedDocument) (domain.Payload, error) {
	var out struct {
		Quiz json.RawMessage `json:"quiz"`
	}
	input := domain.QuizInput{StudyMaterial: doc.Text, NumberOfQuestions: req.Count}
	if err := uc.call(ctx, domain.CapabilityGenerateQuiz, input, nil, schema.Quiz(), &out); err != nil {
		return nil, err
	}
	items, err := decodeQuizItems(out.Quiz)
	if err != nil {
		return nil, err
	}
	return domain.Quiz{Items: items}, nil
}

func (uc *ActionUseCase) conceptMap(ctx context.Context, doc domain.LoadedDocument) (domain.Payload, error) {
	var out domain.ConceptMap
	input := domain.ConceptMapInput{Text: doc.Text}
	if err := uc.call(ctx, domain.CapabilityConceptMap, input, nil, schema.ConceptMap(), &out); err != nil {
		return nil, err
	}
	if err := checkConceptMap(out); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "check concept map", err)
	}
	return out, nil
}

func (uc *ActionUseCase) chat(ctx context.Context, req domain.ChatRequest) (domain.Payload, error) {
	var out struct {
		Message string `json:"message"`
	}
	history := req.History
	if history == nil {
		history = []domain.ChatMessage{}
	}
	input := domain.ChatInput{History: history, Message: req.Message}
	if err := uc.call(ctx, domain.CapabilityGeneralChat, input, nil, schema.ChatReply(), &out); err != nil {
		return nil, err
	}
	return domain.ChatReply{Text: out.Message}, nil
}

func (uc *ActionUseCase) textToSpeech(ctx context.Context, req domain.SpeechRequest) (domain.Payload, error) {
	if uc.speech == nil {
		return nil, domain.WrapError(domain.ErrTemporary, "synthesize speech", errors.New("speech synthesizer is not configured"))
	}
	pcm, err := uc.speech.Synthesize(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, domain.WrapError(domain.ErrNoOutput, "synthesize speech", errors.New("empty audio"))
	}
	return domain.Speech{Media: domain.EncodeDataURI("audio/wav", EncodeWAV(pcm, speechSampleRate, speechChannels))}, nil
}

// call performs exactly one generation and decodes the conforming output into target.
func (uc *ActionUseCase) call(
	ctx context.Context,
	capability domain.Capability,
	input any,
	media []domain.Media,
	output *openapi3.Schema,
	target any,
) error {
	raw, err := uc.generator.Generate(ctx, ports.GenerationRequest{
		Capability: capability,
		Input:      input,
		Media:      media,
		Output:     output,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return domain.WrapError(domain.ErrMalformedOutput, "decode "+string(capability), err)
	}
	return nil
}

func (uc *ActionUseCase) finish(ctx context.Context, span trace.Span, result domain.OperationResult, elapsed time.Duration) {
	span.SetAttributes(attribute.String("studymate.stage", string(result.Stage)))

	attrs := []any{
		"operation", result.Operation,
		"stage", result.Stage,
		"duration_ms", elapsed.Milliseconds(),
	}
	if result.Succeeded() {
		span.SetStatus(codes.Ok, "")
		uc.logger.InfoContext(ctx, "action_completed", attrs...)
	} else {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Message)
		uc.logger.WarnContext(ctx, "action_failed", append(attrs, "error", result.Err)...)
	}

	if uc.observer != nil {
		uc.observer.ObserveAction(result.Operation, result.Stage, elapsed)
	}
}

// decodeQuizItems accepts the quiz as items or as an embedded {"quiz":[...]} document.
func decodeQuizItems(raw json.RawMessage) ([]domain.QuizItem, error) {
	var embedded string
	if err := json.Unmarshal(raw, &embedded); err != nil {
		var items []domain.QuizItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, domain.WrapError(domain.ErrMalformedOutput, "decode quiz", err)
		}
		return items, nil
	}

	var value any
	if err := json.Unmarshal([]byte(embedded), &value); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "decode embedded quiz", err)
	}
	if err := schema.Conform(schema.EmbeddedQuiz(), value); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "check embedded quiz", err)
	}
	var doc struct {
		Quiz []domain.QuizItem `json:"quiz"`
	}
	if err := json.Unmarshal([]byte(embedded), &doc); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "decode embedded quiz", err)
	}
	return doc.Quiz, nil
}

func checkConceptMap(m domain.ConceptMap) error {
	ids := make(map[string]struct{}, len(m.Nodes))
	for _, node := range m.Nodes {
		if _, dup := ids[node.ID]; dup {
			return fmt.Errorf("duplicate node id %q", node.ID)
		}
		ids[node.ID] = struct{}{}
	}
	for _, edge := range m.Edges {
		if _, ok := ids[edge.From]; !ok {
			return fmt.Errorf("edge source %q is not a node", edge.From)
		}
		if _, ok := ids[edge.To]; !ok {
			return fmt.Errorf("edge target %q is not a node", edge.To)
		}
	}
	return nil
}
