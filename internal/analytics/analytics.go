// Package analytics records usage events as structured log entries. Recording
// never blocks or fails the caller; a sink that cannot keep up drops events.
package analytics

import (
	"time"

	"go.uber.org/zap"
)

// Event is one recorded occurrence.
type Event struct {
	Name     string
	Language string
	Format   string
	Pages    int
	Duration time.Duration
	Error    string
}

// Recorder accepts events.
type Recorder interface {
	Record(e Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(Event) {}

// Logger writes events through zap on a buffered channel so the export
// pipeline never waits on logging.
type Logger struct {
	log    *zap.Logger
	events chan Event
	done   chan struct{}
}

// NewLogger starts the drain goroutine. Close releases it.
func NewLogger(log *zap.Logger) *Logger {
	l := &Logger{
		log:    log,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go l.drain()
	return l
}

// Record enqueues an event, dropping it when the buffer is full.
func (l *Logger) Record(e Event) {
	select {
	case l.events <- e:
	default:
	}
}

// Close stops accepting events and waits for the queue to drain.
func (l *Logger) Close() {
	close(l.events)
	<-l.done
}

func (l *Logger) drain() {
	defer close(l.done)
	for e := range l.events {
		fields := []zap.Field{
			zap.String("event", e.Name),
		}
		if e.Language != "" {
			fields = append(fields, zap.String("language", e.Language))
		}
		if e.Format != "" {
			fields = append(fields, zap.String("format", e.Format))
		}
		if e.Pages > 0 {
			fields = append(fields, zap.Int("pages", e.Pages))
		}
		if e.Duration > 0 {
			fields = append(fields, zap.Duration("duration", e.Duration))
		}
		if e.Error != "" {
			fields = append(fields, zap.String("error", e.Error))
			l.log.Warn("analytics", fields...)
			continue
		}
		l.log.Info("analytics", fields...)
	}
}
