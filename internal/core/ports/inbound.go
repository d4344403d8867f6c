package ports

import (
	"context"

	"github.com/kirillkom/studymate/internal/core/domain"
)

// ActionDispatcher is the inbound contract shared by every adapter (HTTP, NATS, MCP, CLI).
// Failures are reported inside the result, never as a separate error.
type ActionDispatcher interface {
	Handle(ctx context.Context, kind domain.OperationKind, fields map[string]string, file domain.FileHandle) domain.OperationResult
}
