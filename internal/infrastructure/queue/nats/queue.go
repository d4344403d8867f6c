package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/studymate/internal/core/domain"
	"github.com/kirillkom/studymate/internal/core/ports"
	"github.com/kirillkom/studymate/internal/infrastructure/resilience"
)

const workerGroup = "studymate-workers"

// Queue carries action requests over NATS request/reply.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

// MessageHooks observe each handled message; both are optional.
type MessageHooks struct {
	Start  func()
	Finish func(outcome string)
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("studymate"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Request sends one action and waits for the reply envelope.
func (q *Queue) Request(ctx context.Context, kind domain.OperationKind, fields map[string]string, file domain.FileHandle) ([]byte, error) {
	payload, err := EncodeRequest(kind, fields, file)
	if err != nil {
		return nil, err
	}

	call := func(ctx context.Context) ([]byte, error) {
		msg, err := q.conn.RequestWithContext(ctx, q.subject, payload)
		if err != nil {
			return nil, fmt.Errorf("nats request: %w", err)
		}
		return msg.Data, nil
	}

	var reply []byte
	if q.executor != nil {
		reply, err = resilience.Call(ctx, q.executor, "nats.request", call, classifyNATSError)
	} else {
		reply, err = call(ctx)
	}
	if err != nil {
		return nil, resilience.MarkTemporary("nats request", err, classifyNATSError)
	}
	return reply, nil
}

// Serve answers action requests until ctx is done, then drains the subscription.
func (q *Queue) Serve(ctx context.Context, dispatcher ports.ActionDispatcher, hooks MessageHooks) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		if hooks.Start != nil {
			hooks.Start()
		}

		reply, outcome := handleMessage(ctx, dispatcher, msg.Data)
		if msg.Reply != "" {
			if err := msg.Respond(reply); err != nil {
				q.logger.Error("nats_reply_failed", "subject", msg.Subject, "error", err)
				outcome = outcomeReplyError
			}
		}
		if hooks.Finish != nil {
			hooks.Finish(outcome)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	q.logger.Info("nats_serving", "subject", q.subject, "group", workerGroup)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
