// Package mcpadapter exposes the study actions as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/core/validation"
	"github.com/kirillkom/studymate/internal/infrastructure/storage/localfs"
)

const pathArg = "path"

type toolDef struct {
	name        string
	description string
	kind        domain.OperationKind
	options     []mcp.ToolOption
}

type Server struct {
	dispatcher   ports.ActionDispatcher
	maxFileBytes int64
}

func NewServer(dispatcher ports.ActionDispatcher, maxFileBytes int64) *Server {
	return &Server{dispatcher: dispatcher, maxFileBytes: maxFileBytes}
}

// MCPServer builds an MCP server with one tool per study action.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("studymate", version, server.WithToolCapabilities(false))
	for _, def := range tools() {
		opts := append([]mcp.ToolOption{mcp.WithDescription(def.description)}, def.options...)
		srv.AddTool(mcp.NewTool(def.name, opts...), s.toolHandler(def))
	}
	return srv
}

func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.MCPServer(version))
}

func tools() []toolDef {
	document := mcp.WithString(pathArg, mcp.Required(), mcp.Description("Local path of the study document (PDF, text, or workbook)."))
	return []toolDef{
		{
			name:        "ask_pdf",
			description: "Answer a question about a PDF document.",
			kind:        domain.OperationQuestion,
			options: []mcp.ToolOption{
				document,
				mcp.WithString(validation.FieldQuestion, mcp.Required(), mcp.Description("The question to answer.")),
			},
		},
		{
			name:        "summarize_pdf",
			description: "Summarize a document, optionally limited to some pages.",
			kind:        domain.OperationSummary,
			options: []mcp.ToolOption{
				document,
				mcp.WithString(validation.FieldSummaryType, mcp.Required(),
					mcp.Enum(string(domain.QuickSummary), string(domain.DetailedSummary))),
				mcp.WithString(validation.FieldPageNumbers, mcp.Description("Pages to cover, for example \"1-3, 5\".")),
			},
		},
		{
			name:        "generate_flashcards",
			description: "Write question/answer flashcards about a topic in a document.",
			kind:        domain.OperationFlashcards,
			options: []mcp.ToolOption{
				document,
				mcp.WithString(validation.FieldTopic, mcp.Required()),
				mcp.WithNumber(validation.FieldNumberOfFlashcards, mcp.Required(),
					mcp.Min(domain.MinFlashcards), mcp.Max(domain.MaxFlashcards)),
			},
		},
		{
			name:        "generate_quiz",
			description: "Write quiz questions with difficulty levels from a document.",
			kind:        domain.OperationQuiz,
			options: []mcp.ToolOption{
				document,
				mcp.WithNumber(validation.FieldNumberOfQuestions, mcp.Required(),
					mcp.Min(domain.MinQuestions), mcp.Max(domain.MaxQuestions)),
			},
		},
		{
			name:        "generate_concept_map",
			description: "Extract a concept map of nodes and labelled edges from a document.",
			kind:        domain.OperationConceptMap,
			options:     []mcp.ToolOption{document},
		},
		{
			name:        "chat",
			description: "Continue a study conversation.",
			kind:        domain.OperationChat,
			options: []mcp.ToolOption{
				mcp.WithString(validation.FieldMessage, mcp.Required()),
				mcp.WithArray(validation.FieldHistory, mcp.Description("Earlier turns as {role, content} objects.")),
			},
		},
	}
}

func (s *Server) toolHandler(def toolDef) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		var file domain.FileHandle
		if path, _ := args[pathArg].(string); path != "" && def.kind.DocumentNeed() != domain.DocumentNone {
			loaded, err := s.readFile(path)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			file = loaded
		}

		result := s.dispatcher.Handle(ctx, def.kind, toolFields(def.kind, args), file)
		if !result.Succeeded() {
			return mcp.NewToolResultError(result.Message), nil
		}
		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", def.name, err)
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// toolFields turns typed tool arguments back into the form fields the validator reads.
func toolFields(kind domain.OperationKind, args map[string]any) map[string]string {
	fields := make(map[string]string)
	for _, name := range validation.Fields(kind) {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			fields[name] = v
		case float64:
			fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				continue
			}
			fields[name] = string(raw)
		}
	}
	return fields
}

func (s *Server) readFile(path string) (domain.FileHandle, error) {
	f, err := localfs.Open(path, s.maxFileBytes)
	if err != nil {
		return nil, err
	}
	return f, nil
}
