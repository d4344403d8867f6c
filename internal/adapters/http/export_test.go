package httpadapter

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/infrastructure/export/xlsx"
)

func postExport(t *testing.T, kind, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := newTestHandler(config.Config{}, &dispatcherFake{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exports/"+kind, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestExportFlashcardsAcceptsSuccessEnvelope(t *testing.T) {
	res := postExport(t, "flashcards", `{"status":"success","flashcards":[{"question":"What is ATP?","answer":"Energy currency"}]}`)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if got := res.Header().Get("Content-Type"); got != xlsx.ContentType {
		t.Fatalf("expected workbook content type, got %q", got)
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "flashcards.xlsx") {
		t.Fatalf("expected attachment filename, got %q", res.Header().Get("Content-Disposition"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Flashcards")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "What is ATP?" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestExportQuiz(t *testing.T) {
	res := postExport(t, "quiz", `{"quiz":[{"question":"q","answer":"a","difficulty":"Hard"}]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
}

func TestExportRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name string
		kind string
		body string
		want int
	}{
		{"not json", "flashcards", "nope", http.StatusBadRequest},
		{"wrong shape", "flashcards", `{"flashcards":[{"question":"q"}]}`, http.StatusBadRequest},
		{"extra key", "quiz", `{"quiz":[],"notes":"x"}`, http.StatusBadRequest},
		{"bad difficulty", "quiz", `{"quiz":[{"question":"q","answer":"a","difficulty":"Impossible"}]}`, http.StatusBadRequest},
		{"unknown export", "mindmap", `{}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := postExport(t, tc.kind, tc.body)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, res.Code, res.Body.String())
			}
		})
	}
}
