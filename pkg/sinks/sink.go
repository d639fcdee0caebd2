// Package sinks fans out incident lifecycle events to named, configured
// audit sinks. A failing sink never aborts the emission loop and never
// bubbles an error back to the caller.
package sinks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// Sink is the interface implemented by every sink type.
type Sink interface {
	Emit(event models.SinkEvent)
}

// LoggingSink writes events via structured logging at its configured level.
// Grounded on original_source/mcp_sentinel/sinks/__init__.py's LoggingSink.
type LoggingSink struct {
	config models.SinkConfig
}

// NewLoggingSink constructs a LoggingSink.
func NewLoggingSink(config models.SinkConfig) *LoggingSink {
	return &LoggingSink{config: config}
}

// Emit writes the event at the sink's configured level.
func (s *LoggingSink) Emit(event models.SinkEvent) {
	log := slog.With(
		"sink", s.config.Name,
		"channel", s.config.Channel,
		"event_type", event.Type,
		"resource", event.ResourceName,
		"card", event.CardName,
	)

	level := parseLevel(s.config.Level)
	log.Log(context.Background(), level, event.Message, "payload", event.Payload)
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func buildSink(config models.SinkConfig) (Sink, error) {
	switch config.Type {
	case "logger":
		return NewLoggingSink(config), nil
	default:
		return nil, fmt.Errorf("unsupported sink type %q", config.Type)
	}
}
