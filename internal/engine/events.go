package engine

import "github.com/rs/zerolog"

// Event represents a bridge lifecycle event.
// Minimal and stable: name plus optional fields via key/values.
type Event struct {
	Name   string
	Fields map[string]any
}

// EventPublisher receives events from the bridge. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// ZerologPublisher renders events as structured log lines.
type ZerologPublisher struct {
	log zerolog.Logger
}

// NewZerologPublisher wraps l as an EventPublisher.
func NewZerologPublisher(l zerolog.Logger) *ZerologPublisher {
	return &ZerologPublisher{log: l}
}

func (p *ZerologPublisher) Publish(e Event) {
	ev := p.log.Info().Str("event", e.Name)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("bridge event")
}
