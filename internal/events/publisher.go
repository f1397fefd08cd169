package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher accepts events from domain logic. Emission is best-effort and must
// never fail or block a committed operation.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Sink is where the worker delivers envelopes. Implementations: MemorySink for
// tests and default wiring, KafkaSink for the real event stream.
type Sink interface {
	Write(ctx context.Context, env Envelope) error
}

// MemorySink collects envelopes in memory.
type MemorySink struct {
	mu   sync.RWMutex
	envs []Envelope
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events(_ context.Context) []Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Envelope{}, s.envs...)
}

// ChannelPublisher decouples emission from delivery with a buffered channel and
// a background worker. A full buffer drops the event with a warning: the event
// log is observability, the committed state is the source of truth.
type ChannelPublisher struct {
	inbox  chan Envelope
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		inbox:  make(chan Envelope, buffer),
		logger: logger,
	}
}

func (p *ChannelPublisher) Emit(_ context.Context, event Event) {
	env := Envelope{Type: event.EventType(), At: time.Now().UTC(), Payload: event}
	select {
	case p.inbox <- env:
	default:
		p.logger.Warn("event buffer full, dropping event", "type", env.Type)
	}
}

// Worker drains the publisher's inbox into a sink.
type Worker struct {
	sink   Sink
	inbox  <-chan Envelope
	logger *slog.Logger
}

func NewWorker(p *ChannelPublisher, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: p.inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-w.inbox:
			if err := w.sink.Write(ctx, env); err != nil {
				w.logger.Error("event delivery failed", "type", env.Type, "error", err)
			}
		}
	}
}

// SyncPublisher writes straight to a sink. Tests use it with a MemorySink to
// assert on emitted events without a worker goroutine.
type SyncPublisher struct {
	sink   Sink
	logger *slog.Logger
}

func NewSyncPublisher(sink Sink, logger *slog.Logger) *SyncPublisher {
	return &SyncPublisher{sink: sink, logger: logger}
}

func (p *SyncPublisher) Emit(ctx context.Context, event Event) {
	env := Envelope{Type: event.EventType(), At: time.Now().UTC(), Payload: event}
	if err := p.sink.Write(ctx, env); err != nil {
		p.logger.Error("event delivery failed", "type", env.Type, "error", err)
	}
}
