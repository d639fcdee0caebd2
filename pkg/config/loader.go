package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// Load reads, env-expands, unwraps an optional top-level "sentinel:" key,
// decodes, merges in defaults, and validates a settings file. path may be
// YAML or JSON (JSON is a YAML subset, handled by the same decoder).
//
// Grounded on tarsy's pkg/config/loader.go Initialize/load two-step entry
// point and configLoader.loadYAML read-then-expand-then-unmarshal pattern.
func Load(path string) (*models.SentinelSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	cfg, err := decode(data)
	if err != nil {
		return nil, NewLoadError(path, err)
	}

	settings := applyDefaults(cfg)

	if err := Validate(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	warnOnDuplicateCards(settings.IncidentCards)

	return settings, nil
}

// decode unwraps the optional "sentinel:" envelope (original_source's
// config.py: `data.get("sentinel", data)`) and parses the remainder into
// fileConfig.
func decode(data []byte) (*fileConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSyntax, err)
	}

	target := &doc
	if len(doc.Content) > 0 {
		target = doc.Content[0]
	}

	if target.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(target.Content); i += 2 {
			if target.Content[i].Value == "sentinel" {
				target = target.Content[i+1]
				break
			}
		}
	}

	// Re-marshal the unwrapped node and decode it through a KnownFields
	// decoder so unexpected top-level keys are rejected (spec.md §6).
	unwrapped, err := yaml.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSyntax, err)
	}

	var cfg fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(unwrapped))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownField, err)
	}
	return &cfg, nil
}

// applyDefaults merges parsed dispatcher/runtime settings over the spec's
// documented defaults using mergo, mirroring tarsy's
// mergo.Merge(queueConfig, tarsyConfig.Queue, mergo.WithOverride) pattern.
func applyDefaults(cfg *fileConfig) *models.SentinelSettings {
	dispatcher := models.DefaultDispatcherSettings()
	if cfg.Dispatcher != nil {
		override := models.DispatcherSettings{
			QueueSize:         cfg.Dispatcher.QueueSize,
			DedupeTTLSeconds:  cfg.Dispatcher.DedupeTTLSeconds,
			WorkerConcurrency: cfg.Dispatcher.WorkerConcurrency,
		}
		if err := mergo.Merge(&dispatcher, override, mergo.WithOverride); err != nil {
			slog.Warn("failed to merge dispatcher settings, using defaults", "error", err)
		}
	}

	runtime := models.DefaultRuntimeSettings()
	if cfg.Runtime != nil {
		if err := mergo.Merge(&runtime, *cfg.Runtime, mergo.WithOverride); err != nil {
			slog.Warn("failed to merge runtime settings, using defaults", "error", err)
		}
	}

	watchers := make([]models.WatcherConfig, 0, len(cfg.Watchers))
	for _, w := range cfg.Watchers {
		watchers = append(watchers, w.toModel())
	}

	cards := make([]models.IncidentCard, len(cfg.IncidentCards))
	copy(cards, cfg.IncidentCards)
	for i := range cards {
		if cards[i].MaxIterations == 0 {
			cards[i].MaxIterations = 6
		}
	}
	cfg.IncidentCards = cards

	return &models.SentinelSettings{
		IncidentCards:       cfg.IncidentCards,
		ResourceDefinitions: cfg.ResourceDefinitions,
		Watchers:            watchers,
		ToolServers:         cfg.ToolServers,
		Sinks:               cfg.Sinks,
		Dispatcher:          dispatcher,
		Runtime:             runtime,
	}
}

// warnOnDuplicateCards surfaces a configuration warning when more than one
// card targets the same resource (spec.md §9: "SHOULD surface a
// configuration warning when duplicates are detected").
func warnOnDuplicateCards(cards []models.IncidentCard) {
	seen := make(map[string]string, len(cards))
	for _, card := range cards {
		if existing, ok := seen[card.Resource]; ok {
			slog.Warn("multiple incident cards target the same resource; first one wins",
				"resource", card.Resource, "kept_card", existing, "ignored_card", card.Name)
			continue
		}
		seen[card.Resource] = card.Name
	}
}
