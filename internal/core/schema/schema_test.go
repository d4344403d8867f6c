package schema

import (
	"encoding/json"
	"testing"

	"github.com/kirillkom/studymate/internal/core/domain"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return value
}

func TestConformAcceptsExactShape(t *testing.T) {
	cases := map[string]string{
		"answer":     `{"answer":"42"}`,
		"flashcards": `{"flashcards":[{"question":"q","answer":"a"}]}`,
		"quiz array": `{"quiz":[{"question":"q","answer":"a","difficulty":"Hard"}]}`,
		"quiz text":  `{"quiz":"{\"quiz\":[]}"}`,
		"concepts":   `{"nodes":[{"id":"a","label":"A"}],"edges":[]}`,
	}
	if err := Conform(Answer(), decode(t, cases["answer"])); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := Conform(Flashcards(), decode(t, cases["flashcards"])); err != nil {
		t.Fatalf("flashcards: %v", err)
	}
	if err := Conform(Quiz(), decode(t, cases["quiz array"])); err != nil {
		t.Fatalf("quiz array: %v", err)
	}
	if err := Conform(Quiz(), decode(t, cases["quiz text"])); err != nil {
		t.Fatalf("quiz text: %v", err)
	}
	if err := Conform(ConceptMap(), decode(t, cases["concepts"])); err != nil {
		t.Fatalf("concept map: %v", err)
	}
}

func TestConformRejectsDrift(t *testing.T) {
	tests := []struct {
		name string
		cap  domain.Capability
		raw  string
	}{
		{name: "extra property", cap: domain.CapabilityAnswerQuestion, raw: `{"answer":"x","confidence":1}`},
		{name: "missing property", cap: domain.CapabilitySummarize, raw: `{}`},
		{name: "wrong type", cap: domain.CapabilityGeneralChat, raw: `{"message":3}`},
		{name: "bad difficulty", cap: domain.CapabilityGenerateQuiz, raw: `{"quiz":[{"question":"q","answer":"a","difficulty":"Trivial"}]}`},
		{name: "card missing answer", cap: domain.CapabilityGenerateFlashcards, raw: `{"flashcards":[{"question":"q"}]}`},
		{name: "edge extra field", cap: domain.CapabilityConceptMap, raw: `{"nodes":[],"edges":[{"from":"a","to":"b","label":"","weight":2}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Conform(ForCapability(tc.cap), decode(t, tc.raw)); err == nil {
				t.Fatalf("expected conformance error for %s", tc.raw)
			}
		})
	}
}

func TestConformWithoutSchema(t *testing.T) {
	if err := Conform(nil, map[string]any{}); err == nil {
		t.Fatalf("expected error for missing schema")
	}
}

func TestToJSONSchemaPrefersStructuredQuiz(t *testing.T) {
	doc := ToJSONSchema(Quiz())
	properties, ok := doc["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties, got %#v", doc)
	}
	quiz, ok := properties["quiz"].(map[string]any)
	if !ok {
		t.Fatalf("expected quiz property, got %#v", properties)
	}
	if quiz["type"] != "array" {
		t.Fatalf("expected array quiz for model, got %#v", quiz["type"])
	}
	if doc["additionalProperties"] != false {
		t.Fatalf("expected closed object, got %#v", doc["additionalProperties"])
	}
}

func TestForCapabilityCoversCatalog(t *testing.T) {
	for _, capability := range []domain.Capability{
		domain.CapabilityAnswerQuestion,
		domain.CapabilitySummarize,
		domain.CapabilityGenerateFlashcards,
		domain.CapabilityGenerateQuiz,
		domain.CapabilityConceptMap,
		domain.CapabilityGeneralChat,
	} {
		if ForCapability(capability) == nil {
			t.Fatalf("expected schema for %s", capability)
		}
	}
	if ForCapability("unknown") != nil {
		t.Fatalf("expected nil schema for unknown capability")
	}
}
