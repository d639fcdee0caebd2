package sinks

import (
	"log/slog"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// Dispatcher fans out lifecycle events to the sinks named on an incident
// card. Grounded on original_source/mcp_sentinel/sinks/__init__.py's
// SinkDispatcher.
type Dispatcher struct {
	sinks map[string]Sink
}

// NewDispatcher builds a Dispatcher from configured sinks. A duplicate sink
// name keeps the first definition and logs a warning; a sink that fails to
// construct is skipped with a logged error, same as the Python source.
func NewDispatcher(configs []models.SinkConfig) *Dispatcher {
	registry := make(map[string]Sink, len(configs))
	for _, cfg := range configs {
		if _, exists := registry[cfg.Name]; exists {
			slog.Warn("duplicate sink definition, keeping first instance", "sink", cfg.Name)
			continue
		}
		sink, err := buildSink(cfg)
		if err != nil {
			slog.Error("failed to initialize sink, skipping",
				"sink", cfg.Name, "sink_type", cfg.Type, "error", err)
			continue
		}
		registry[cfg.Name] = sink
	}
	return &Dispatcher{sinks: registry}
}

// Register adds or replaces a sink under name. Used to wire sink types that
// aren't built from configuration, such as test doubles.
func (d *Dispatcher) Register(name string, sink Sink) {
	d.sinks[name] = sink
}

// Emit delivers event to every named sink. Missing sinks are logged and
// skipped; a panicking or misbehaving sink never propagates to the caller.
func (d *Dispatcher) Emit(sinkNames []string, event models.SinkEvent) {
	for _, name := range sinkNames {
		sink, ok := d.sinks[name]
		if !ok {
			slog.Warn("no sink configured for card entry, event skipped",
				"sink", name, "event_type", event.Type, "card", event.CardName, "resource", event.ResourceName)
			continue
		}
		d.emitSafely(name, sink, event)
	}
}

func (d *Dispatcher) emitSafely(name string, sink Sink, event models.SinkEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sink emission panicked",
				"sink", name, "event_type", event.Type, "card", event.CardName,
				"resource", event.ResourceName, "panic", r)
		}
	}()
	sink.Emit(event)
}
