// Package schema declares the structured output of every generation capability
// and checks decoded model output against it.
package schema

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/studymate/internal/core/domain"
)

// ForCapability returns a fresh output schema for the capability, or nil when unknown.
func ForCapability(capability domain.Capability) *openapi3.Schema {
	switch capability {
	case domain.CapabilityAnswerQuestion:
		return Answer()
	case domain.CapabilitySummarize:
		return Summary()
	case domain.CapabilityGenerateFlashcards:
		return Flashcards()
	case domain.CapabilityGenerateQuiz:
		return Quiz()
	case domain.CapabilityConceptMap:
		return ConceptMap()
	case domain.CapabilityGeneralChat:
		return ChatReply()
	default:
		return nil
	}
}

func Answer() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"answer": openapi3.NewStringSchema(),
	})
}

func Summary() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"summary": openapi3.NewStringSchema(),
	})
}

func ChatReply() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"message": openapi3.NewStringSchema(),
	})
}

func Flashcard() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"question": openapi3.NewStringSchema(),
		"answer":   openapi3.NewStringSchema(),
	})
}

func Flashcards() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"flashcards": openapi3.NewArraySchema().WithItems(Flashcard()),
	})
}

func QuizItem() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"question": openapi3.NewStringSchema(),
		"answer":   openapi3.NewStringSchema(),
		"difficulty": openapi3.NewStringSchema().WithEnum(
			string(domain.DifficultyEasy),
			string(domain.DifficultyMedium),
			string(domain.DifficultyHard),
		),
	})
}

func QuizItems() *openapi3.Schema {
	return openapi3.NewArraySchema().WithItems(QuizItem())
}

// Quiz accepts the quiz either as structured items or as an embedded JSON document string.
func Quiz() *openapi3.Schema {
	embedded := openapi3.NewStringSchema()
	return object(map[string]*openapi3.Schema{
		"quiz": {
			OneOf: openapi3.SchemaRefs{
				openapi3.NewSchemaRef("", QuizItems()),
				openapi3.NewSchemaRef("", embedded),
			},
		},
	})
}

// EmbeddedQuiz is the document carried inside the string form of Quiz.
func EmbeddedQuiz() *openapi3.Schema {
	return object(map[string]*openapi3.Schema{
		"quiz": QuizItems(),
	})
}

func ConceptMap() *openapi3.Schema {
	node := object(map[string]*openapi3.Schema{
		"id":    openapi3.NewStringSchema(),
		"label": openapi3.NewStringSchema(),
	})
	edge := object(map[string]*openapi3.Schema{
		"from":  openapi3.NewStringSchema(),
		"to":    openapi3.NewStringSchema(),
		"label": openapi3.NewStringSchema(),
	})
	return object(map[string]*openapi3.Schema{
		"nodes": openapi3.NewArraySchema().WithItems(node),
		"edges": openapi3.NewArraySchema().WithItems(edge),
	})
}

// object builds a closed object whose properties are all required.
func object(properties map[string]*openapi3.Schema) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	required := make([]string, 0, len(properties))
	for name, property := range properties {
		out.WithProperty(name, property)
		required = append(required, name)
	}
	sort.Strings(required)
	out.Required = required
	closed := false
	out.AdditionalProperties = openapi3.AdditionalProperties{Has: &closed}
	return out
}

// Conform validates a decoded JSON value (maps, slices, float64, string, bool).
func Conform(s *openapi3.Schema, value any) error {
	if s == nil {
		return fmt.Errorf("schema: no schema declared")
	}
	if err := s.VisitJSON(value); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// TypeOf returns the single JSON type of s, or "" when none is declared.
func TypeOf(s *openapi3.Schema) string {
	if s == nil || s.Type == nil || len(*s.Type) == 0 {
		return ""
	}
	return (*s.Type)[0]
}

// Preferred resolves oneOf to its first alternative, the shape models are asked to produce.
func Preferred(s *openapi3.Schema) *openapi3.Schema {
	for s != nil && TypeOf(s) == "" && len(s.OneOf) > 0 && s.OneOf[0] != nil {
		s = s.OneOf[0].Value
	}
	return s
}

// PropertyNames lists object properties in stable order.
func PropertyNames(s *openapi3.Schema) []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToJSONSchema renders the model-facing shape of s as a plain JSON Schema document.
func ToJSONSchema(s *openapi3.Schema) map[string]any {
	s = Preferred(s)
	if s == nil {
		return map[string]any{}
	}

	out := map[string]any{}
	if typ := TypeOf(s); typ != "" {
		out["type"] = typ
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}

	switch TypeOf(s) {
	case openapi3.TypeObject:
		properties := make(map[string]any, len(s.Properties))
		for _, name := range PropertyNames(s) {
			ref := s.Properties[name]
			if ref == nil {
				continue
			}
			properties[name] = ToJSONSchema(ref.Value)
		}
		out["properties"] = properties
		if len(s.Required) > 0 {
			out["required"] = s.Required
		}
		if s.AdditionalProperties.Has != nil && !*s.AdditionalProperties.Has {
			out["additionalProperties"] = false
		}
	case openapi3.TypeArray:
		if s.Items != nil {
			out["items"] = ToJSONSchema(s.Items.Value)
		}
	}
	return out
}
