package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

const (
	headerPublishedAt = "Invoice-Published-At"
	workerGroup       = "invoice-workers"
)

type Queue struct {
	conn        *nats.Conn
	subject     string
	executor    *resilience.Executor
	logger      *slog.Logger
	lagObserver func(time.Duration)
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
	// LagObserver receives the time between publish and delivery of every
	// message handed to a subscriber.
	LagObserver func(time.Duration)
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
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

	conn, err := nats.Connect(
		url,
		nats.Name("invoice-assistant"),
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
		conn:        conn,
		subject:     subject,
		executor:    options.ResilienceExecutor,
		logger:      logger,
		lagObserver: options.LagObserver,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishInvoiceIngested(ctx context.Context, invoiceID string) error {
	msg := newIngestedMessage(q.subject, invoiceID, time.Now())
	err := q.executor.Execute(ctx, "nats.publish", func(_ context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	return wrapTemporaryIfNeeded(err)
}

// SubscribeInvoiceIngested blocks until ctx is done, handing every invoice id
// to handler. Workers share the subject through one queue group.
func (q *Queue) SubscribeInvoiceIngested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		invoiceID := strings.TrimSpace(string(msg.Data))
		if lag, ok := deliveryLag(msg, time.Now()); ok && q.lagObserver != nil {
			q.lagObserver(lag)
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, invoiceID); err != nil {
			q.logger.Error("worker_handler_failed", "invoice_id", invoiceID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func newIngestedMessage(subject, invoiceID string, now time.Time) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = []byte(invoiceID)
	msg.Header.Set(headerPublishedAt, now.UTC().Format(time.RFC3339Nano))
	return msg
}

func deliveryLag(msg *nats.Msg, now time.Time) (time.Duration, bool) {
	if msg.Header == nil {
		return 0, false
	}
	published, err := time.Parse(time.RFC3339Nano, msg.Header.Get(headerPublishedAt))
	if err != nil {
		return 0, false
	}
	lag := now.Sub(published)
	if lag < 0 {
		lag = 0
	}
	return lag, true
}
