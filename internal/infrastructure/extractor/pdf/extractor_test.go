package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kirillkom/studymate/internal/core/domain"
)

// buildPDF writes a minimal document with one page per content stream.
// pageExtra is appended to every page dictionary.
func buildPDF(pageExtra string, contents ...string) []byte {
	kids := make([]string, 0, len(contents))
	for i := range contents {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, content := range contents {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R%s >>", 5+2*i, pageExtra),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func extract(t *testing.T, data []byte) (string, error) {
	t.Helper()
	return NewExtractor().Extract(context.Background(), domain.UploadedDocument{
		RawBytes: data,
		MimeType: "application/pdf",
		FileName: "notes.pdf",
	})
}

func TestExtractRejectsNonPDF(t *testing.T) {
	if _, err := extract(t, []byte("definitely not a pdf")); err == nil {
		t.Fatalf("expected error for non-pdf input")
	}
}

func TestExtractReadsPagesInOrder(t *testing.T) {
	data := buildPDF("",
		"BT /F1 12 Tf 72 720 Td (Osmosis moves water) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Diffusion moves solutes) Tj ET",
	)

	text, err := extract(t, data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	first := strings.Index(text, "Osmosis moves water")
	second := strings.Index(text, "Diffusion moves solutes")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected both pages in order, got %q", text)
	}
}

func TestExtractPageWithoutTextLayer(t *testing.T) {
	text, err := extract(t, buildPDF("", "q Q"))
	if err != nil {
		t.Fatalf("expected no error for a page without text, got %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestExtractMalformedObjectReturnsError(t *testing.T) {
	data := buildPDF(" /Bad <zz>", "BT /F1 12 Tf 72 720 Td (unreachable) Tj ET")

	text, err := extract(t, data)
	if err == nil {
		t.Fatalf("expected error for malformed page dictionary, got text %q", text)
	}
	if text != "" {
		t.Fatalf("expected no text alongside the error, got %q", text)
	}
	if !strings.Contains(err.Error(), "notes.pdf") {
		t.Fatalf("expected file name in error, got %v", err)
	}
}

func TestExtractHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor().Extract(ctx, domain.UploadedDocument{
		RawBytes: buildPDF("", "BT /F1 12 Tf 72 720 Td (text) Tj ET"),
		FileName: "notes.pdf",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
