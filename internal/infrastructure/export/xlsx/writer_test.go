package xlsx

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/studymate/internal/core/domain"
)

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestWriteFlashcardsOneRowPerCard(t *testing.T) {
	data, err := WriteFlashcards([]domain.Flashcard{
		{Question: "What is ATP?", Answer: "Energy currency"},
		{Question: "Where is DNA?", Answer: "Nucleus"},
	})
	if err != nil {
		t.Fatalf("WriteFlashcards: %v", err)
	}

	rows := readRows(t, data, "Flashcards")
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Question" || rows[2][1] != "Nucleus" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestWriteQuizIncludesDifficulty(t *testing.T) {
	data, err := WriteQuiz([]domain.QuizItem{{Question: "2+2", Answer: "4", Difficulty: domain.DifficultyEasy}})
	if err != nil {
		t.Fatalf("WriteQuiz: %v", err)
	}
	rows := readRows(t, data, "Quiz")
	if len(rows) != 2 || len(rows[1]) != 3 || rows[1][2] != "Easy" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestWriteEmptySetKeepsHeader(t *testing.T) {
	data, err := WriteQuiz(nil)
	if err != nil {
		t.Fatalf("WriteQuiz: %v", err)
	}
	if rows := readRows(t, data, "Quiz"); len(rows) != 1 {
		t.Fatalf("expected header only, got %v", rows)
	}
}
