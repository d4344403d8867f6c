package domain

import "strings"

type OperationKind string

const (
	OperationQuestion   OperationKind = "question"
	OperationSummary    OperationKind = "summary"
	OperationFlashcards OperationKind = "flashcards"
	OperationQuiz       OperationKind = "quiz"
	OperationConceptMap OperationKind = "concept_map"
	OperationChat       OperationKind = "chat"
	OperationSpeech     OperationKind = "speech"
)

// Operations lists every supported operation in a stable order.
func Operations() []OperationKind {
	return []OperationKind{
		OperationQuestion,
		OperationSummary,
		OperationFlashcards,
		OperationQuiz,
		OperationConceptMap,
		OperationChat,
		OperationSpeech,
	}
}

// ParseOperationKind accepts the canonical name plus the dashed form used in URLs.
func ParseOperationKind(raw string) (OperationKind, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	for _, kind := range Operations() {
		if string(kind) == normalized {
			return kind, true
		}
	}
	return "", false
}

type DocumentNeed int

const (
	DocumentNone DocumentNeed = iota
	DocumentDataURI
	DocumentText
)

func (k OperationKind) DocumentNeed() DocumentNeed {
	switch k {
	case OperationQuestion:
		return DocumentDataURI
	case OperationSummary, OperationFlashcards, OperationQuiz, OperationConceptMap:
		return DocumentText
	default:
		return DocumentNone
	}
}

// Stage is a state of the per-invocation action machine.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageValidating       Stage = "validating"
	StageLoading          Stage = "loading"
	StageGenerating       Stage = "generating"
	StageValidationFailed Stage = "validation_failed"
	StageLoadFailed       Stage = "load_failed"
	StageGenerationFailed Stage = "generation_failed"
	StageCompleted        Stage = "completed"
)

func (s Stage) Terminal() bool {
	switch s {
	case StageValidationFailed, StageLoadFailed, StageGenerationFailed, StageCompleted:
		return true
	default:
		return false
	}
}

type SummaryType string

const (
	QuickSummary    SummaryType = "Quick Summary"
	DetailedSummary SummaryType = "Detailed Summary"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

const (
	MinFlashcards = 1
	MaxFlashcards = 20
	MinQuestions  = 1
	MaxQuestions  = 50
)

// OperationRequest is the validated, typed input of one operation.
type OperationRequest interface {
	Kind() OperationKind
}

type QuestionRequest struct {
	Question string
}

type SummaryRequest struct {
	SummaryType SummaryType
	PageNumbers string
}

type FlashcardRequest struct {
	Topic string
	Count int
}

type QuizRequest struct {
	Count int
}

type ConceptMapRequest struct{}

type ChatRequest struct {
	Message string
	History []ChatMessage
}

type SpeechRequest struct {
	Text string
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (QuestionRequest) Kind() OperationKind   { return OperationQuestion }
func (SummaryRequest) Kind() OperationKind    { return OperationSummary }
func (FlashcardRequest) Kind() OperationKind  { return OperationFlashcards }
func (QuizRequest) Kind() OperationKind       { return OperationQuiz }
func (ConceptMapRequest) Kind() OperationKind { return OperationConceptMap }
func (ChatRequest) Kind() OperationKind       { return OperationChat }
func (SpeechRequest) Kind() OperationKind     { return OperationSpeech }

// Capability names a prompt in the generation catalog.
type Capability string

const (
	CapabilityAnswerQuestion     Capability = "answer_question"
	CapabilitySummarize          Capability = "summarize"
	CapabilityGenerateFlashcards Capability = "generate_flashcards"
	CapabilityGenerateQuiz       Capability = "generate_quiz"
	CapabilityConceptMap         Capability = "generate_concept_map"
	CapabilityGeneralChat        Capability = "general_chat"
)

// Structured inputs handed to the generation client. JSON names are part of the prompt contract.

type QuestionInput struct {
	Question string `json:"question"`
}

type SummaryInput struct {
	PDFText     string      `json:"pdfText"`
	SummaryType SummaryType `json:"summaryType"`
	PageNumbers string      `json:"pageNumbers,omitempty"`
}

type FlashcardsInput struct {
	PDFText            string `json:"pdfText"`
	Topic              string `json:"topic"`
	NumberOfFlashcards int    `json:"numberOfFlashcards"`
}

type QuizInput struct {
	StudyMaterial     string `json:"studyMaterial"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
}

type ConceptMapInput struct {
	Text string `json:"text"`
}

type ChatInput struct {
	History []ChatMessage `json:"history"`
	Message string        `json:"message"`
}
