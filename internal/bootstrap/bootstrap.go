package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/core/usecase"
	"github.com/kirillkom/studymate/internal/infrastructure/extractor"
	"github.com/kirillkom/studymate/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/studymate/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/studymate/internal/infrastructure/extractor/spreadsheet"
	"github.com/kirillkom/studymate/internal/infrastructure/llm"
	"github.com/kirillkom/studymate/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/studymate/internal/infrastructure/llm/vertex"
	"github.com/kirillkom/studymate/internal/infrastructure/queue/nats"
	"github.com/kirillkom/studymate/internal/infrastructure/resilience"
	"github.com/kirillkom/studymate/internal/infrastructure/speech"
)

type App struct {
	Config config.Config

	Dispatcher ports.ActionDispatcher
	Executor   *resilience.Executor

	closeFn func()
}

// New wires the action dispatcher with the configured generation backend.
// observer may be nil.
func New(ctx context.Context, cfg config.Config, observer ports.ActionObserver, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	executor := resilience.NewExecutor(cfg.Resilience(), logger)

	textExtractor := extractor.NewRouter(pdf.NewExtractor(), plaintext.NewExtractor(), spreadsheet.NewExtractor())

	backend, closeBackend, err := newBackend(ctx, cfg, executor, textExtractor)
	if err != nil {
		return nil, err
	}

	catalog, err := llm.DefaultCatalog()
	if err != nil {
		closeBackend()
		return nil, fmt.Errorf("load capability catalog: %w", err)
	}

	var synthesizer ports.SpeechSynthesizer
	if cfg.SpeechURL != "" {
		synthesizer = speech.New(cfg.SpeechURL, cfg.SpeechModel, cfg.SpeechVoice, cfg.SpeechAPIKey, executor)
	}

	dispatcher := usecase.NewActionUseCase(
		usecase.NewDocumentLoaderUseCase(textExtractor),
		llm.NewClient(backend, catalog),
		synthesizer,
		observer,
		logger,
	)

	logger.Info("bootstrap_ready",
		"backend", cfg.GenerationBackend,
		"speech_enabled", synthesizer != nil,
	)

	return &App{
		Config:     cfg,
		Dispatcher: dispatcher,
		Executor:   executor,
		closeFn:    closeBackend,
	}, nil
}

func newBackend(
	ctx context.Context,
	cfg config.Config,
	executor *resilience.Executor,
	textExtractor ports.TextExtractor,
) (ports.GenerationBackend, func(), error) {
	switch cfg.GenerationBackend {
	case "vertex":
		if cfg.VertexProject == "" {
			return nil, nil, fmt.Errorf("VERTEX_PROJECT is required for the vertex backend")
		}
		client, err := vertex.New(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init vertex client: %w", err)
		}
		return client, func() { _ = client.Close() }, nil
	case "ollama", "":
		return ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, executor, textExtractor), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown GENERATION_BACKEND %q", cfg.GenerationBackend)
	}
}

// NewQueue connects the NATS request/reply transport used by the worker and the CLI.
func NewQueue(cfg config.Config, logger *slog.Logger) (*nats.Queue, error) {
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(cfg.Resilience(), logger),
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
