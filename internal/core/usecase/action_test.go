package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
)

type generatorFake struct {
	raw      string
	err      error
	requests []ports.GenerationRequest
}

func (f *generatorFake) Generate(_ context.Context, req ports.GenerationRequest) (json.RawMessage, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

type speechFake struct {
	pcm  []byte
	err  error
	text string
}

func (f *speechFake) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.text = text
	return f.pcm, f.err
}

type observation struct {
	kind  domain.OperationKind
	stage domain.Stage
}

type observerFake struct {
	seen []observation
}

func (f *observerFake) ObserveAction(kind domain.OperationKind, stage domain.Stage, _ time.Duration) {
	f.seen = append(f.seen, observation{kind: kind, stage: stage})
}

type fileFake struct {
	data  []byte
	reads int
}

func (f *fileFake) Name() string     { return "notes.pdf" }
func (f *fileFake) MimeType() string { return "application/pdf" }
func (f *fileFake) Size() int64      { return int64(len(f.data)) }
func (f *fileFake) Bytes() ([]byte, error) {
	f.reads++
	return f.data, nil
}

type actionHarness struct {
	uc        *ActionUseCase
	extractor *extractorFake
	generator *generatorFake
	speech    *speechFake
	observer  *observerFake
}

func newActionHarness(text, raw string) *actionHarness {
	h := &actionHarness{
		extractor: &extractorFake{text: text},
		generator: &generatorFake{raw: raw},
		speech:    &speechFake{},
		observer:  &observerFake{},
	}
	h.uc = NewActionUseCase(NewDocumentLoaderUseCase(h.extractor), h.generator, h.speech, h.observer, nil)
	return h
}

func pdf() *fileFake {
	return &fileFake{data: []byte("%PDF-1.4 fake")}
}

func TestQuizCallsGeneratorOnceWithStudyMaterial(t *testing.T) {
	h := newActionHarness("cell biology notes", `{"quiz":[{"question":"q1","answer":"a1","difficulty":"Easy"}]}`)

	result := h.uc.Handle(context.Background(), domain.OperationQuiz, map[string]string{"numberOfQuestions": "5"}, pdf())
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(h.generator.requests) != 1 {
		t.Fatalf("expected one generation, got %d", len(h.generator.requests))
	}
	req := h.generator.requests[0]
	if req.Capability != domain.CapabilityGenerateQuiz {
		t.Fatalf("unexpected capability %s", req.Capability)
	}
	input, err := json.Marshal(req.Input)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	if string(input) != `{"studyMaterial":"cell biology notes","numberOfQuestions":5}` {
		t.Fatalf("unexpected input %s", input)
	}
	quiz := result.Payload.(domain.Quiz)
	if len(quiz.Items) != 1 || quiz.Items[0].Difficulty != domain.DifficultyEasy {
		t.Fatalf("unexpected quiz %#v", quiz)
	}
}

func TestSummaryWithNoTextNeverGenerates(t *testing.T) {
	h := newActionHarness("   ", `{"summary":"unused"}`)

	result := h.uc.Handle(context.Background(), domain.OperationSummary, map[string]string{"summaryType": "Quick Summary"}, pdf())
	if result.Stage != domain.StageLoadFailed {
		t.Fatalf("expected load failure, got %s", result.Stage)
	}
	if !domain.IsKind(result.Err, domain.ErrNoTextFound) {
		t.Fatalf("expected no text found, got %v", result.Err)
	}
	if len(h.generator.requests) != 0 {
		t.Fatalf("expected generator not called")
	}
}

func TestValidationFailureNeverReadsFile(t *testing.T) {
	h := newActionHarness("text", `{"flashcards":[]}`)
	file := pdf()

	result := h.uc.Handle(context.Background(), domain.OperationFlashcards, map[string]string{"topic": "", "numberOfFlashcards": "3"}, file)
	if result.Stage != domain.StageValidationFailed {
		t.Fatalf("expected validation failure, got %s", result.Stage)
	}
	if file.reads != 0 || h.extractor.calls != 0 || len(h.generator.requests) != 0 {
		t.Fatalf("expected no side effects, reads=%d extracts=%d generations=%d", file.reads, h.extractor.calls, len(h.generator.requests))
	}
	body, _ := json.Marshal(result)
	if string(body) != `{"status":"error","message":"Invalid input: topic must not be empty."}` {
		t.Fatalf("unexpected envelope %s", body)
	}
}

func TestEmptyFileNeverExtracts(t *testing.T) {
	h := newActionHarness("text", `{"answer":"x"}`)

	result := h.uc.Handle(context.Background(), domain.OperationQuestion, map[string]string{"question": "why?"}, &fileFake{})
	if result.Stage != domain.StageLoadFailed || !domain.IsKind(result.Err, domain.ErrEmptyFile) {
		t.Fatalf("expected empty file load failure, got %s %v", result.Stage, result.Err)
	}
	if h.extractor.calls != 0 {
		t.Fatalf("expected extractor not called")
	}
}

func TestQuestionSendsDataURIWithoutExtraction(t *testing.T) {
	h := newActionHarness("unused", `{"answer":"Mitochondria."}`)

	result := h.uc.Handle(context.Background(), domain.OperationQuestion, map[string]string{"question": "powerhouse?"}, pdf())
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if h.extractor.calls != 0 {
		t.Fatalf("expected no extraction for question")
	}
	media := h.generator.requests[0].Media
	if len(media) != 1 || media[0].DataURI != "data:application/pdf;base64,JVBERi0xLjQgZmFrZQ==" {
		t.Fatalf("unexpected media %#v", media)
	}
	if result.Payload.(domain.Answer).Text != "Mitochondria." {
		t.Fatalf("unexpected payload %#v", result.Payload)
	}
}

func TestQuizEmbeddedString(t *testing.T) {
	embedded := `{"quiz":"{\"quiz\":[{\"question\":\"q\",\"answer\":\"a\",\"difficulty\":\"Medium\"}]}"}`
	h := newActionHarness("text", embedded)

	result := h.uc.Handle(context.Background(), domain.OperationQuiz, map[string]string{"numberOfQuestions": "1"}, pdf())
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	items := result.Payload.(domain.Quiz).Items
	if len(items) != 1 || items[0].Difficulty != domain.DifficultyMedium {
		t.Fatalf("unexpected items %#v", items)
	}
}

func TestQuizEmbeddedStringMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":       `{"quiz":"not json"}`,
		"bad difficulty": `{"quiz":"{\"quiz\":[{\"question\":\"q\",\"answer\":\"a\",\"difficulty\":\"Impossible\"}]}"}`,
	} {
		h := newActionHarness("text", raw)
		result := h.uc.Handle(context.Background(), domain.OperationQuiz, map[string]string{"numberOfQuestions": "1"}, pdf())
		if result.Stage != domain.StageGenerationFailed || !domain.IsKind(result.Err, domain.ErrMalformedOutput) {
			t.Fatalf("%s: expected malformed output, got %s %v", name, result.Stage, result.Err)
		}
	}
}

func TestConceptMapIntegrity(t *testing.T) {
	tests := map[string]struct {
		raw string
		ok  bool
	}{
		"valid":         {raw: `{"nodes":[{"id":"a","label":"A"},{"id":"b","label":"B"}],"edges":[{"from":"a","to":"b","label":"causes"}]}`, ok: true},
		"dangling edge": {raw: `{"nodes":[{"id":"a","label":"A"}],"edges":[{"from":"a","to":"z","label":"x"}]}`},
		"duplicate id":  {raw: `{"nodes":[{"id":"a","label":"A"},{"id":"a","label":"B"}],"edges":[]}`},
	}

	for name, tc := range tests {
		h := newActionHarness("text", tc.raw)
		result := h.uc.Handle(context.Background(), domain.OperationConceptMap, nil, pdf())
		if tc.ok != result.Succeeded() {
			t.Fatalf("%s: expected ok=%v, got %+v", name, tc.ok, result)
		}
		if !tc.ok && !domain.IsKind(result.Err, domain.ErrMalformedOutput) {
			t.Fatalf("%s: expected malformed output, got %v", name, result.Err)
		}
	}
}

func TestGenerationErrorsKeepKind(t *testing.T) {
	h := newActionHarness("text", "")
	h.generator.err = domain.WrapError(domain.ErrTemporary, "ollama generate", errors.New("503"))

	result := h.uc.Handle(context.Background(), domain.OperationSummary, map[string]string{"summaryType": "Quick Summary"}, pdf())
	if result.Stage != domain.StageGenerationFailed {
		t.Fatalf("expected generation failure, got %s", result.Stage)
	}
	if result.Message != "The generation service is temporarily unavailable. Please try again." {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestChatSendsEmptyHistoryArray(t *testing.T) {
	h := newActionHarness("", `{"message":"hello!"}`)

	result := h.uc.Handle(context.Background(), domain.OperationChat, map[string]string{"message": "hi"}, nil)
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	input, _ := json.Marshal(h.generator.requests[0].Input)
	if string(input) != `{"history":[],"message":"hi"}` {
		t.Fatalf("unexpected input %s", input)
	}
	if h.extractor.calls != 0 {
		t.Fatalf("chat must not load documents")
	}
}

func TestSpeech(t *testing.T) {
	h := newActionHarness("", "")
	h.speech.pcm = []byte{1, 0, 2, 0}

	result := h.uc.Handle(context.Background(), domain.OperationSpeech, map[string]string{"text": "hello"}, nil)
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	media := result.Payload.(domain.Speech).Media
	if !strings.HasPrefix(media, "data:audio/wav;base64,") {
		t.Fatalf("unexpected media %q", media)
	}
	_, wav, err := domain.DecodeDataURI(media)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(wav) != 48 || string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("unexpected wav header %q", wav[:12])
	}

	h.speech.pcm = nil
	result = h.uc.Handle(context.Background(), domain.OperationSpeech, map[string]string{"text": "hello"}, nil)
	if !domain.IsKind(result.Err, domain.ErrNoOutput) {
		t.Fatalf("expected no output, got %v", result.Err)
	}
}

func TestSpeechWithoutSynthesizer(t *testing.T) {
	uc := NewActionUseCase(NewDocumentLoaderUseCase(&extractorFake{}), &generatorFake{}, nil, nil, nil)
	result := uc.Handle(context.Background(), domain.OperationSpeech, map[string]string{"text": "hello"}, nil)
	if result.Stage != domain.StageGenerationFailed || !domain.IsKind(result.Err, domain.ErrTemporary) {
		t.Fatalf("expected temporary generation failure, got %s %v", result.Stage, result.Err)
	}
}

func TestObserverSeesTerminalStage(t *testing.T) {
	h := newActionHarness("text", `{"summary":"short"}`)

	h.uc.Handle(context.Background(), domain.OperationSummary, map[string]string{"summaryType": "Quick Summary"}, pdf())
	h.uc.Handle(context.Background(), domain.OperationKind("translate"), nil, nil)

	want := []observation{
		{kind: domain.OperationSummary, stage: domain.StageCompleted},
		{kind: domain.OperationKind("translate"), stage: domain.StageValidationFailed},
	}
	if len(h.observer.seen) != len(want) {
		t.Fatalf("expected %d observations, got %#v", len(want), h.observer.seen)
	}
	for i := range want {
		if h.observer.seen[i] != want[i] {
			t.Fatalf("observation %d: expected %#v, got %#v", i, want[i], h.observer.seen[i])
		}
	}
}
