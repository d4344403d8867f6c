package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/kirillkom/studymate/internal/bootstrap"
	"github.com/kirillkom/studymate/internal/config"
	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	fields := fieldFlags{}
	op := flag.String("op", "", "operation: question, summary, flashcards, quiz, concept_map, chat, speech")
	file := flag.String("file", "", "path of the study document")
	out := flag.String("out", "", "write the result to a file (.xlsx for flashcards and quiz, .wav for speech)")
	remote := flag.Bool("nats", false, "send the request to a worker over NATS instead of running it locally")
	flag.Var(fields, "field", "form field as key=value, repeatable")
	flag.Parse()

	kind, ok := domain.ParseOperationKind(*op)
	if !ok {
		color.Red("unknown operation %q", *op)
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.New(logging.Options{Service: "cli", Level: "warn", File: cfg.LogFile, Console: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := loadFile(*file)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	var envelope []byte
	if *remote {
		queue, err := bootstrap.NewQueue(cfg, logger)
		if err != nil {
			color.Red("%v", err)
			os.Exit(1)
		}
		defer queue.Close()
		envelope, err = queue.Request(ctx, kind, fields, handle)
		if err != nil {
			color.Red("%s", domain.UserMessage(err))
			os.Exit(1)
		}
	} else {
		app, err := bootstrap.New(ctx, cfg, nil, logger)
		if err != nil {
			color.Red("%v", err)
			os.Exit(1)
		}
		defer app.Close()
		envelope, err = json.Marshal(app.Dispatcher.Handle(ctx, kind, fields, handle))
		if err != nil {
			color.Red("encode result: %v", err)
			os.Exit(1)
		}
	}

	if err := render(os.Stdout, kind, envelope, *out); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}
