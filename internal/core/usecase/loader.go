package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
)

type DocumentLoaderUseCase struct {
	extractor ports.TextExtractor
}

func NewDocumentLoaderUseCase(extractor ports.TextExtractor) *DocumentLoaderUseCase {
	return &DocumentLoaderUseCase{extractor: extractor}
}

// Load reads the upload once and extracts text at most once. Nothing is retried.
func (uc *DocumentLoaderUseCase) Load(ctx context.Context, file domain.FileHandle, needText bool) (domain.LoadedDocument, error) {
	doc, err := uc.readUpload(file)
	if err != nil {
		return domain.LoadedDocument{}, err
	}

	loaded := domain.LoadedDocument{
		UploadedDocument: doc,
		DataURI:          domain.EncodeDataURI(doc.MimeType, doc.RawBytes),
	}
	if !needText {
		return loaded, nil
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return domain.LoadedDocument{}, err
	}
	loaded.Text = text
	return loaded, nil
}

func (uc *DocumentLoaderUseCase) readUpload(file domain.FileHandle) (domain.UploadedDocument, error) {
	if file == nil || file.Size() == 0 {
		return domain.UploadedDocument{}, domain.WrapError(domain.ErrEmptyFile, "load document", errors.New("no file bytes"))
	}

	raw, err := file.Bytes()
	if err != nil {
		return domain.UploadedDocument{}, domain.WrapError(domain.ErrExtractionFailed, "read upload", err)
	}
	if len(raw) == 0 {
		return domain.UploadedDocument{}, domain.WrapError(domain.ErrEmptyFile, "load document", errors.New("no file bytes"))
	}

	return domain.UploadedDocument{
		RawBytes: raw,
		MimeType: strings.TrimSpace(file.MimeType()),
		FileName: file.Name(),
	}, nil
}

func (uc *DocumentLoaderUseCase) extractText(ctx context.Context, doc domain.UploadedDocument) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtractionFailed, "extract text", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(
			domain.ErrNoTextFound,
			"extract text",
			fmt.Errorf("document %q has no text", doc.FileName),
		)
	}
	return text, nil
}
