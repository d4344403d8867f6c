package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/studymate/internal/infrastructure/storage/localfs"
)

// fieldFlags collects repeated -field key=value flags.
type fieldFlags map[string]string

func (f fieldFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f fieldFlags) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("field %q must look like key=value", raw)
	}
	f[strings.TrimSpace(key)] = value
	return nil
}

func loadFile(path string) (domain.FileHandle, error) {
	if path == "" {
		return nil, nil
	}
	f, err := localfs.Open(path, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// render prints an envelope and optionally saves its payload to outPath.
func render(w io.Writer, kind domain.OperationKind, envelope []byte, outPath string) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &body); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}

	var status, message string
	_ = json.Unmarshal(body["status"], &status)
	if status != domain.StatusSuccess {
		_ = json.Unmarshal(body["message"], &message)
		return fmt.Errorf("%s failed: %s", kind, message)
	}
	delete(body, "status")

	for key, payload := range body {
		if outPath != "" {
			if err := save(key, payload, outPath); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s\n", color.GreenString("saved"), outPath)
			return nil
		}

		fmt.Fprintln(w, color.New(color.FgCyan, color.Bold).Sprint(key))
		var text string
		if json.Unmarshal(payload, &text) == nil {
			fmt.Fprintln(w, text)
			return nil
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, payload, "", "  "); err != nil {
			return fmt.Errorf("format %s: %w", key, err)
		}
		fmt.Fprintln(w, pretty.String())
	}
	return nil
}

func save(key string, payload json.RawMessage, outPath string) error {
	var data []byte
	var err error

	switch key {
	case "flashcards":
		var cards []domain.Flashcard
		if err = json.Unmarshal(payload, &cards); err == nil {
			data, err = xlsx.WriteFlashcards(cards)
		}
	case "quiz":
		var items []domain.QuizItem
		if err = json.Unmarshal(payload, &items); err == nil {
			data, err = xlsx.WriteQuiz(items)
		}
	case "media":
		var uri string
		if err = json.Unmarshal(payload, &uri); err == nil {
			_, data, err = domain.DecodeDataURI(uri)
		}
	default:
		data = payload
	}
	if err != nil {
		return fmt.Errorf("prepare %s: %w", key, err)
	}
	return os.WriteFile(outPath, data, 0o644)
}
