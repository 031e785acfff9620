package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/resilience"
)

const DefaultLeadSubject = "facade.leads"

type publisher interface {
	Publish(subject string, data []byte) error
}

// LeadQueue publishes leads for sales and lets the intake worker consume them.
type LeadQueue struct {
	conn     *nats.Conn
	pub      publisher
	subject  string
	executor *resilience.Executor
	policy   resilience.Policy
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Policy               *resilience.Policy
}

func New(url, subject string) (*LeadQueue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*LeadQueue, error) {
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
		nats.Name("facade-estimator"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	q := newLeadQueue(conn, subject, options.ResilienceExecutor, options.Policy)
	q.conn = conn
	return q, nil
}

func newLeadQueue(pub publisher, subject string, executor *resilience.Executor, policy *resilience.Policy) *LeadQueue {
	if subject == "" {
		subject = DefaultLeadSubject
	}
	p := resilience.DefaultPolicy()
	if policy != nil {
		p = *policy
	}
	p.Classifier = classifyNATSError
	return &LeadQueue{pub: pub, subject: subject, executor: executor, policy: p}
}

func (q *LeadQueue) Subject() string {
	return q.subject
}

func (q *LeadQueue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *LeadQueue) PublishLead(ctx context.Context, lead domain.Lead) error {
	payload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	call := func(_ context.Context) error {
		if err := q.pub.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish_lead", call, q.policy)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	slog.Info("lead_published", "lead_id", lead.ID, "quote_id", lead.QuoteID, "subject", q.subject)
	return nil
}

// SubscribeLeads blocks until ctx is done, handing every decoded lead to
// handler. Malformed messages are logged and dropped.
func (q *LeadQueue) SubscribeLeads(ctx context.Context, handler func(context.Context, domain.Lead) error) error {
	if q.conn == nil {
		return fmt.Errorf("nats subscribe: not connected")
	}
	sub, err := q.conn.QueueSubscribe(q.subject, "lead-intake", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		lead, err := decodeLead(msg.Data)
		if err != nil {
			slog.Error("lead_decode_failed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, lead); err != nil {
			slog.Error("lead_handler_failed", "lead_id", lead.ID, "error", err)
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

func decodeLead(data []byte) (domain.Lead, error) {
	var lead domain.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return domain.Lead{}, fmt.Errorf("decode lead: %w", err)
	}
	if lead.ID == "" {
		return domain.Lead{}, fmt.Errorf("decode lead: missing id")
	}
	return lead, nil
}

func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
