// Package extractor routes uploads to the text extractor for their format.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
)

const spreadsheetMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var pdfMagic = []byte("%PDF-")

type Router struct {
	pdf         ports.TextExtractor
	text        ports.TextExtractor
	spreadsheet ports.TextExtractor
}

func NewRouter(pdf, text, spreadsheet ports.TextExtractor) *Router {
	return &Router{pdf: pdf, text: text, spreadsheet: spreadsheet}
}

func (r *Router) Extract(ctx context.Context, doc domain.UploadedDocument) (string, error) {
	switch kindOf(doc) {
	case "pdf":
		return r.pdf.Extract(ctx, doc)
	case "text":
		return r.text.Extract(ctx, doc)
	case "spreadsheet":
		if r.spreadsheet != nil {
			return r.spreadsheet.Extract(ctx, doc)
		}
	}
	return "", fmt.Errorf("unsupported document type %q (%s)", doc.MimeType, doc.FileName)
}

func kindOf(doc domain.UploadedDocument) string {
	mediaType, _, err := mime.ParseMediaType(doc.MimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(doc.MimeType))
	}
	switch {
	case mediaType == "application/pdf":
		return "pdf"
	case strings.HasPrefix(mediaType, "text/"):
		return "text"
	case mediaType == spreadsheetMime:
		return "spreadsheet"
	}

	switch strings.ToLower(filepath.Ext(doc.FileName)) {
	case ".pdf":
		return "pdf"
	case ".txt", ".md":
		return "text"
	case ".xlsx":
		return "spreadsheet"
	}
	if bytes.HasPrefix(doc.RawBytes, pdfMagic) {
		return "pdf"
	}
	return ""
}
