package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const defaultMimeType = "application/octet-stream"

// FileHandle is an uploaded file as seen by the core. Bytes is called at most once per request.
type FileHandle interface {
	Name() string
	MimeType() string
	Size() int64
	Bytes() ([]byte, error)
}

// UploadedDocument lives for a single request.
type UploadedDocument struct {
	RawBytes []byte
	MimeType string
	FileName string
}

// LoadedDocument is an upload plus the representations the generation step consumes.
type LoadedDocument struct {
	UploadedDocument
	DataURI string
	Text    string
}

// Media is a document handed to the model verbatim.
type Media struct {
	MimeType string
	DataURI  string
}

type memoryFile struct {
	name     string
	mimeType string
	data     []byte
}

// NewMemoryFile wraps in-memory bytes as a FileHandle.
func NewMemoryFile(name, mimeType string, data []byte) FileHandle {
	return &memoryFile{name: name, mimeType: mimeType, data: data}
}

func (f *memoryFile) Name() string           { return f.name }
func (f *memoryFile) MimeType() string       { return f.mimeType }
func (f *memoryFile) Size() int64            { return int64(len(f.data)) }
func (f *memoryFile) Bytes() ([]byte, error) { return f.data, nil }

// EncodeDataURI renders data:<mime>;base64,<payload>.
func EncodeDataURI(mimeType string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI is the inverse of EncodeDataURI; only base64 payloads are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("data uri: missing data: scheme")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data uri: missing payload separator")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, errors.New("data uri: payload is not base64")
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data uri: decode payload: %w", err)
	}
	return mimeType, data, nil
}
