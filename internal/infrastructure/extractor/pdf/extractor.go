package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/studymate/internal/core/domain"
)

// Extractor reads the text layer of a PDF page by page.
// Scanned documents without a text layer yield an empty string.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns an error instead of panicking when the reader trips over a malformed object.
func (e *Extractor) Extract(ctx context.Context, doc domain.UploadedDocument) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf %q: %v", doc.FileName, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.RawBytes), int64(len(doc.RawBytes)))
	if err != nil {
		return "", fmt.Errorf("open pdf %q: %w", doc.FileName, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
