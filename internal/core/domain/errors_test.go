package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(ErrExtractionFailed, "load document", cause)
	if !IsKind(err, ErrExtractionFailed) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "load document: ") {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}
	if WrapError(ErrTemporary, "op", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestUserMessageNamesViolatedField(t *testing.T) {
	err := NewValidationError("validate quiz", "numberOfQuestions", "must be at most 50")
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input kind")
	}
	msg := UserMessage(err)
	if msg != "Invalid input: numberOfQuestions must be at most 50." {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestUserMessageByKind(t *testing.T) {
	cases := []struct {
		kind error
		want string
	}{
		{kind: ErrEmptyFile, want: "No file provided."},
		{kind: ErrNoTextFound, want: "No extractable text was found in the document."},
		{kind: ErrMalformedOutput, want: "The model returned a response in an unexpected format. Please try again."},
		{kind: errors.New("other"), want: "An unknown error occurred."},
	}
	for _, tc := range cases {
		got := UserMessage(WrapError(tc.kind, "op", errors.New("detail")))
		if got != tc.want {
			t.Fatalf("kind %v: expected %q, got %q", tc.kind, tc.want, got)
		}
	}
}
