package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/schema"
	"github.com/kirillkom/studymate/internal/infrastructure/export/xlsx"
)

type exporter struct {
	schema func() *openapi3.Schema
	write  func(raw []byte) ([]byte, error)
}

var exporters = map[string]exporter{
	"flashcards": {
		schema: schema.Flashcards,
		write: func(raw []byte) ([]byte, error) {
			var body struct {
				Flashcards []domain.Flashcard `json:"flashcards"`
			}
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, err
			}
			return xlsx.WriteFlashcards(body.Flashcards)
		},
	},
	"quiz": {
		schema: schema.EmbeddedQuiz,
		write: func(raw []byte) ([]byte, error) {
			var body struct {
				Quiz []domain.QuizItem `json:"quiz"`
			}
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, err
			}
			return xlsx.WriteQuiz(body.Quiz)
		},
	},
}

// handleExport turns a flashcards or quiz envelope into a workbook download.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	exp, ok := exporters[kind]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown export %q.", kind))
		return
	}

	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), requestErrorMessage(err))
		return
	}

	payload, err := exportPayload(kind, raw, exp.schema())
	if err != nil {
		rt.recordExport(kind, err)
		writeError(w, http.StatusBadRequest, domain.UserMessage(err))
		return
	}

	workbook, err := exp.write(payload)
	rt.recordExport(kind, err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not build the workbook.")
		return
	}

	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

// exportPayload checks the body against the output schema. A "status" key from a
// success envelope is dropped so responses can be posted back unchanged.
func exportPayload(kind string, raw []byte, s *openapi3.Schema) ([]byte, error) {
	const op = "export"

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, domain.NewValidationError(op, "request", "must be a JSON object")
	}
	delete(doc, "status")
	if err := schema.Conform(s, doc); err != nil {
		return nil, domain.NewValidationError(op, kind, "does not match the expected shape")
	}
	return json.Marshal(doc)
}

func (rt *Router) recordExport(kind string, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordExport(kind, err)
	}
}
