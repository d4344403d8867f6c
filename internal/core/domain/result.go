package domain

import (
	"encoding/json"
	"fmt"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Payload is a feature-specific success value; PayloadKey is its envelope key.
type Payload interface {
	PayloadKey() string
}

type Answer struct {
	Text string
}

type Summary struct {
	Text string
}

type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FlashcardSet struct {
	Cards []Flashcard
}

type QuizItem struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
}

type Quiz struct {
	Items []QuizItem
}

type ConceptNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ConceptEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

type ConceptMap struct {
	Nodes []ConceptNode `json:"nodes"`
	Edges []ConceptEdge `json:"edges"`
}

type ChatReply struct {
	Text string
}

// Speech carries a WAV data URI.
type Speech struct {
	Media string
}

func (Answer) PayloadKey() string       { return "answer" }
func (Summary) PayloadKey() string      { return "summary" }
func (FlashcardSet) PayloadKey() string { return "flashcards" }
func (Quiz) PayloadKey() string         { return "quiz" }
func (ConceptMap) PayloadKey() string   { return "conceptMap" }
func (ChatReply) PayloadKey() string    { return "answer" }
func (Speech) PayloadKey() string       { return "media" }

func (a Answer) MarshalJSON() ([]byte, error)    { return json.Marshal(a.Text) }
func (s Summary) MarshalJSON() ([]byte, error)   { return json.Marshal(s.Text) }
func (c ChatReply) MarshalJSON() ([]byte, error) { return json.Marshal(c.Text) }
func (s Speech) MarshalJSON() ([]byte, error)    { return json.Marshal(s.Media) }

func (f FlashcardSet) MarshalJSON() ([]byte, error) {
	if f.Cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Cards)
}

func (q Quiz) MarshalJSON() ([]byte, error) {
	if q.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q.Items)
}

// OperationResult is the outcome of one action invocation.
type OperationResult struct {
	Operation OperationKind
	Stage     Stage
	Payload   Payload
	Message   string
	Err       error
}

func Completed(kind OperationKind, payload Payload) OperationResult {
	return OperationResult{
		Operation: kind,
		Stage:     StageCompleted,
		Payload:   payload,
	}
}

func Failed(kind OperationKind, stage Stage, err error) OperationResult {
	return OperationResult{
		Operation: kind,
		Stage:     stage,
		Message:   UserMessage(err),
		Err:       err,
	}
}

func (r OperationResult) Succeeded() bool {
	return r.Stage == StageCompleted && r.Payload != nil
}

// MarshalJSON renders the uniform envelope.
func (r OperationResult) MarshalJSON() ([]byte, error) {
	if r.Succeeded() {
		return json.Marshal(map[string]any{
			"status":               StatusSuccess,
			r.Payload.PayloadKey(): r.Payload,
		})
	}

	message := r.Message
	if message == "" {
		message = UserMessage(r.Err)
	}
	if message == "" {
		message = fmt.Sprintf("operation %s did not complete", r.Operation)
	}
	return json.Marshal(struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{
		Status:  StatusError,
		Message: message,
	})
}
