package audit

import (
	"context"
	"log/slog"
)

// Sink receives audit events. Implemented by Publisher, KafkaPublisher and
// AsyncPublisher so deployments can compose sync and async delivery.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// Tee fans an event out to every sink, stopping at the first failure.
type Tee []Sink

func (t Tee) Emit(ctx context.Context, event Event) error {
	for _, sink := range t {
		if err := sink.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// AsyncPublisher enqueues events for a Worker to drain, decoupling request
// latency from slow sinks.
type AsyncPublisher struct {
	inbox chan Event
}

func NewAsyncPublisher(buffer int) *AsyncPublisher {
	return &AsyncPublisher{inbox: make(chan Event, buffer)}
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the inbox for a Worker.
func (p *AsyncPublisher) Events() <-chan Event {
	return p.inbox
}

// Worker drains queued audit events into a sink. Sink failures are logged
// and skipped; audit delivery trouble must not take the service down.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Emit(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to deliver audit event",
					"action", event.Action,
					"treasury_id", event.TreasuryID,
					"error", err,
				)
			}
		}
	}
}
