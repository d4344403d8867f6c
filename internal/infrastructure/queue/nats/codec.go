package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
)

const (
	outcomeReplied     = "replied"
	outcomeDecodeError = "decode_error"
	outcomeReplyError  = "reply_error"
	outcomePanic       = "panic"
)

// ActionRequest is the wire form of one action; Data is base64 in JSON.
type ActionRequest struct {
	Operation string            `json:"operation"`
	Fields    map[string]string `json:"fields,omitempty"`
	File      *FilePayload      `json:"file,omitempty"`
}

type FilePayload struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

func EncodeRequest(kind domain.OperationKind, fields map[string]string, file domain.FileHandle) ([]byte, error) {
	req := ActionRequest{Operation: string(kind), Fields: fields}
	if file != nil {
		data, err := file.Bytes()
		if err != nil {
			return nil, fmt.Errorf("read file for request: %w", err)
		}
		req.File = &FilePayload{Name: file.Name(), MimeType: file.MimeType(), Data: data}
	}
	return json.Marshal(req)
}

func DecodeRequest(data []byte) (domain.OperationKind, map[string]string, domain.FileHandle, error) {
	var req ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return "", nil, nil, domain.NewValidationError("decode action request", "request", "must be a JSON action request")
	}

	kind, ok := domain.ParseOperationKind(req.Operation)
	if !ok {
		kind = domain.OperationKind(req.Operation)
	}
	fields := req.Fields
	if fields == nil {
		fields = map[string]string{}
	}

	var file domain.FileHandle
	if req.File != nil {
		file = domain.NewMemoryFile(req.File.Name, req.File.MimeType, req.File.Data)
	}
	return kind, fields, file, nil
}

// handleMessage never fails: every outcome is an envelope.
func handleMessage(ctx context.Context, dispatcher ports.ActionDispatcher, data []byte) ([]byte, string) {
	kind, fields, file, err := DecodeRequest(data)
	outcome := outcomeReplied

	var result domain.OperationResult
	if err != nil {
		result = domain.Failed(kind, domain.StageValidationFailed, err)
		outcome = outcomeDecodeError
	} else if result, err = dispatch(ctx, dispatcher, kind, fields, file); err != nil {
		outcome = outcomePanic
	}

	reply, err := json.Marshal(result)
	if err != nil {
		reply, _ = json.Marshal(domain.Failed(kind, result.Stage, err))
	}
	return reply, outcome
}

// dispatch keeps one failing request from taking the subscription down.
func dispatch(
	ctx context.Context,
	dispatcher ports.ActionDispatcher,
	kind domain.OperationKind,
	fields map[string]string,
	file domain.FileHandle,
) (result domain.OperationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch %s: %v", kind, r)
			result = domain.Failed(kind, domain.StageGenerationFailed, err)
		}
	}()
	return dispatcher.Handle(ctx, kind, fields, file), nil
}
