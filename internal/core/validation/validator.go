// Package validation turns raw form fields into typed operation requests.
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/studymate/internal/core/domain"
)

const (
	FieldQuestion           = "question"
	FieldSummaryType        = "summaryType"
	FieldPageNumbers        = "pageNumbers"
	FieldTopic              = "topic"
	FieldNumberOfFlashcards = "numberOfFlashcards"
	FieldNumberOfQuestions  = "numberOfQuestions"
	FieldMessage            = "message"
	FieldHistory            = "history"
	FieldText               = "text"
)

type fieldRule struct {
	name     string
	required bool
	coerce   func(raw string) (any, error)
	schema   *openapi3.Schema
	reason   string
}

type validator struct {
	rules []fieldRule
	build func(values map[string]any) domain.OperationRequest
}

var validators = map[domain.OperationKind]validator{
	domain.OperationQuestion: {
		rules: []fieldRule{nonEmptyString(FieldQuestion)},
		build: func(v map[string]any) domain.OperationRequest {
			return domain.QuestionRequest{Question: v[FieldQuestion].(string)}
		},
	},
	domain.OperationSummary: {
		rules: []fieldRule{
			{
				name:     FieldSummaryType,
				required: true,
				coerce:   asString,
				schema: openapi3.NewStringSchema().WithEnum(
					string(domain.QuickSummary),
					string(domain.DetailedSummary),
				),
				reason: fmt.Sprintf("must be %q or %q", domain.QuickSummary, domain.DetailedSummary),
			},
			{name: FieldPageNumbers, coerce: asString, schema: openapi3.NewStringSchema(), reason: "must be a string"},
		},
		build: func(v map[string]any) domain.OperationRequest {
			req := domain.SummaryRequest{SummaryType: domain.SummaryType(v[FieldSummaryType].(string))}
			if pages, ok := v[FieldPageNumbers].(string); ok {
				req.PageNumbers = pages
			}
			return req
		},
	},
	domain.OperationFlashcards: {
		rules: []fieldRule{
			nonEmptyString(FieldTopic),
			boundedInt(FieldNumberOfFlashcards, domain.MinFlashcards, domain.MaxFlashcards),
		},
		build: func(v map[string]any) domain.OperationRequest {
			return domain.FlashcardRequest{
				Topic: v[FieldTopic].(string),
				Count: int(v[FieldNumberOfFlashcards].(float64)),
			}
		},
	},
	domain.OperationQuiz: {
		rules: []fieldRule{boundedInt(FieldNumberOfQuestions, domain.MinQuestions, domain.MaxQuestions)},
		build: func(v map[string]any) domain.OperationRequest {
			return domain.QuizRequest{Count: int(v[FieldNumberOfQuestions].(float64))}
		},
	},
	domain.OperationConceptMap: {
		build: func(map[string]any) domain.OperationRequest {
			return domain.ConceptMapRequest{}
		},
	},
	domain.OperationChat: {
		rules: []fieldRule{
			nonEmptyString(FieldMessage),
			{name: FieldHistory, coerce: asJSON, schema: historySchema(), reason: "must be a JSON array of {role, content} messages"},
		},
		build: func(v map[string]any) domain.OperationRequest {
			req := domain.ChatRequest{Message: v[FieldMessage].(string)}
			if history, ok := v[FieldHistory].([]any); ok {
				req.History = chatHistory(history)
			}
			return req
		},
	},
	domain.OperationSpeech: {
		rules: []fieldRule{nonEmptyString(FieldText)},
		build: func(v map[string]any) domain.OperationRequest {
			return domain.SpeechRequest{Text: v[FieldText].(string)}
		},
	},
}

// Validate checks fields in a fixed order and reports the first violation.
// The field map is never modified.
func Validate(kind domain.OperationKind, fields map[string]string) (domain.OperationRequest, error) {
	const op = "validate"

	v, ok := validators[kind]
	if !ok {
		return nil, domain.NewValidationError(op, "operation", fmt.Sprintf("%q is not supported", kind))
	}

	values := make(map[string]any, len(v.rules))
	for _, rule := range v.rules {
		raw, present := fields[rule.name]
		if !present {
			if rule.required {
				return nil, domain.NewValidationError(op, rule.name, "is required")
			}
			continue
		}

		value, err := rule.coerce(raw)
		if err != nil {
			return nil, domain.NewValidationError(op, rule.name, rule.reason)
		}
		if err := rule.schema.VisitJSON(value); err != nil {
			return nil, domain.NewValidationError(op, rule.name, rule.reason)
		}
		values[rule.name] = value
	}
	return v.build(values), nil
}

// Fields lists the field names an operation reads, in validation order.
func Fields(kind domain.OperationKind) []string {
	v, ok := validators[kind]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v.rules))
	for _, rule := range v.rules {
		out = append(out, rule.name)
	}
	return out
}

func nonEmptyString(name string) fieldRule {
	return fieldRule{
		name:     name,
		required: true,
		coerce:   asString,
		schema:   openapi3.NewStringSchema().WithMinLength(1),
		reason:   "must not be empty",
	}
}

func boundedInt(name string, lo, hi int) fieldRule {
	return fieldRule{
		name:     name,
		required: true,
		coerce:   asInteger,
		schema:   openapi3.NewIntegerSchema().WithMin(float64(lo)).WithMax(float64(hi)),
		reason:   fmt.Sprintf("must be an integer between %d and %d", lo, hi),
	}
}

func historySchema() *openapi3.Schema {
	message := openapi3.NewObjectSchema().
		WithProperty("role", openapi3.NewStringSchema()).
		WithProperty("content", openapi3.NewStringSchema())
	message.Required = []string{"content", "role"}
	closed := false
	message.AdditionalProperties = openapi3.AdditionalProperties{Has: &closed}
	return openapi3.NewArraySchema().WithItems(message)
}

func asString(raw string) (any, error) {
	return raw, nil
}

// asInteger parses base-10 integers; JSON numbers are float64 for schema checks.
func asInteger(raw string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return float64(n), nil
}

func asJSON(raw string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	return value, nil
}

func chatHistory(items []any) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := entry["role"].(string)
		content, _ := entry["content"].(string)
		out = append(out, domain.ChatMessage{Role: role, Content: content})
	}
	return out
}
