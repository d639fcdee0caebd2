package config

import "github.com/jneo8/mcp-sentinel/pkg/models"

// fileConfig mirrors the on-disk YAML/JSON schema. Watcher duration fields
// use the Seconds type so both "5s" and bare 5 are accepted (spec.md §6).
// Top-level "sentinel:" wrapping is unwrapped before decoding into this
// struct (see Load).
type fileConfig struct {
	IncidentCards       []models.IncidentCard       `yaml:"incident_cards"`
	ResourceDefinitions []models.ResourceDefinition `yaml:"resource_definitions"`
	Watchers            []rawWatcherConfig          `yaml:"watchers"`
	ToolServers         []models.ToolServerConfig   `yaml:"tool_servers"`
	Sinks               []models.SinkConfig         `yaml:"sinks"`
	Dispatcher          *rawDispatcherSettings      `yaml:"dispatcher"`
	Runtime             *models.RuntimeSettings     `yaml:"runtime"`
}

type rawWatcherConfig struct {
	Name                string   `yaml:"name"`
	Endpoint            string   `yaml:"endpoint"`
	PollIntervalSeconds Seconds  `yaml:"poll_interval_seconds"`
	TimeoutSeconds      Seconds  `yaml:"timeout_seconds"`
	Resources           []string `yaml:"resources"`
}

type rawDispatcherSettings struct {
	QueueSize         int `yaml:"queue_size"`
	DedupeTTLSeconds  int `yaml:"dedupe_ttl_seconds"`
	WorkerConcurrency int `yaml:"worker_concurrency"`
}

func (w rawWatcherConfig) toModel() models.WatcherConfig {
	return models.WatcherConfig{
		Name:                w.Name,
		Endpoint:            w.Endpoint,
		PollIntervalSeconds: int(w.PollIntervalSeconds),
		TimeoutSeconds:      int(w.TimeoutSeconds),
		Resources:           w.Resources,
	}
}
