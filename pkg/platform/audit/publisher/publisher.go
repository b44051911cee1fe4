// Package publisher fans audit events out to a primary store and optional
// secondary sinks, synchronously or through a bounded buffer.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "storefront/pkg/domain"
	audit "storefront/pkg/platform/audit"
	"storefront/pkg/requestcontext"
)

var ErrBufferFull = errors.New("audit buffer full")

// Sink receives every published event after the primary store.
type Sink interface {
	Append(ctx context.Context, event audit.Event) error
}

type lister interface {
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]audit.Event, error)
}

// Publisher enriches events with request metadata and hands them to the
// primary store. Secondary sink failures are logged, never returned.
type Publisher struct {
	store  audit.Store
	sinks  []Sink
	logger *slog.Logger

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue into a buffer of size n drained by one
// goroutine. Close drains what is left.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

func WithSink(s Sink) Option {
	return func(p *Publisher) {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one event. Missing timestamp, category and request metadata
// are filled from ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = enrich(ctx, event)
	if p.buffer == nil {
		return p.write(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.WarnContext(ctx, "audit buffer full, dropping event",
		"action", event.Action,
		"tenant_id", event.TenantID,
	)
	return ErrBufferFull
}

// List returns the tenant's events when the primary store can list them.
func (p *Publisher) List(ctx context.Context, tenantID id.TenantID) ([]audit.Event, error) {
	l, ok := p.store.(lister)
	if !ok {
		return nil, nil
	}
	return l.ListByTenant(ctx, tenantID)
}

// Close stops the async drainer after flushing buffered events. Safe to call
// more than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.write(ctx, event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"error", err,
			)
		}
		cancel()
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, s := range p.sinks {
		if err := s.Append(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

func enrich(ctx context.Context, event audit.Event) audit.Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	return event
}
