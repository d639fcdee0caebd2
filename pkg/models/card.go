package models

// IncidentCard is the declarative recipe for handling incidents on a given
// resource. At most one card may be bound to a given Resource name; see the
// dispatcher's card index.
type IncidentCard struct {
	Name          string   `yaml:"name" validate:"required"`
	Resource      string   `yaml:"resource" validate:"required"`
	PromptTemplate string  `yaml:"prompt_template" validate:"required"`
	Model         string   `yaml:"model"`
	Tools         []string `yaml:"tools"`
	Sinks         []string `yaml:"sinks"`
	MaxIterations int      `yaml:"max_iterations" validate:"min=1,max=20"`
}

// ResourceDefinition is a declarative selector used by watchers to decide
// which alerts map to which Resource.
type ResourceDefinition struct {
	Name        string            `yaml:"name" validate:"required"`
	Type        string            `yaml:"type"`
	Filters     map[string]string `yaml:"filters"`
	Annotations map[string]string `yaml:"annotations"`
}

// WatcherConfig describes one polling watcher.
type WatcherConfig struct {
	Name                string   `yaml:"name" validate:"required"`
	Endpoint            string   `yaml:"endpoint" validate:"required"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds" validate:"min=1"`
	TimeoutSeconds      int      `yaml:"timeout_seconds" validate:"min=1"`
	Resources           []string `yaml:"resources"`
}

// ToolServerConfig describes an MCP tool server reachable over streamable
// HTTP. At least one of ServerURL or ConnectorID must be set.
type ToolServerConfig struct {
	Name               string            `yaml:"name" validate:"required"`
	ServerLabel        string            `yaml:"server_label"`
	ServerURL          string            `yaml:"server_url"`
	ConnectorID        string            `yaml:"connector_id"`
	Authorization      string            `yaml:"authorization"`
	Headers            map[string]string `yaml:"headers"`
	DefaultAllowedTools []string         `yaml:"default_allowed_tools"`
	RequireApproval    string            `yaml:"require_approval"`
	Description        string            `yaml:"description"`
}

// SinkConfig describes a named lifecycle-event sink.
type SinkConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Type    string `yaml:"type" validate:"required"`
	Level   string `yaml:"level"`
	Channel string `yaml:"channel"`
}

// DispatcherSettings tunes the bounded queue, dedup cache and worker pool.
type DispatcherSettings struct {
	QueueSize         int `yaml:"queue_size" validate:"min=1,max=1000"`
	DedupeTTLSeconds  int `yaml:"dedupe_ttl_seconds" validate:"min=10,max=3600"`
	WorkerConcurrency int `yaml:"worker_concurrency" validate:"min=1,max=32"`
}

// DefaultDispatcherSettings returns the spec's documented defaults.
func DefaultDispatcherSettings() DispatcherSettings {
	return DispatcherSettings{
		QueueSize:         100,
		DedupeTTLSeconds:  600,
		WorkerConcurrency: 4,
	}
}

// RuntimeSettings controls the default model/temperature used by the agent
// orchestrator when an IncidentCard does not override them. Supplemented
// from original_source/models.py's OpenAISettings (renamed to stay runtime
// agnostic, matching AgentRuntime's own decoupling from any one provider).
type RuntimeSettings struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
}

// DefaultRuntimeSettings mirrors original_source/models.py's OpenAISettings
// defaults.
func DefaultRuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		Model:       "gpt-4.1-mini",
		Temperature: 0.2,
	}
}

// DispatcherResult is returned synchronously from Dispatcher.Dispatch.
type DispatcherResult struct {
	Status       string
	Detail       string
	IncidentCard *IncidentCard
}

// Dispatch outcome statuses.
const (
	StatusQueued    = "queued"
	StatusDuplicate = "duplicate"
	StatusDropped   = "dropped"
)

// SinkEvent is an immutable lifecycle event fanned out by the SinkDispatcher.
type SinkEvent struct {
	Type         string
	CardName     string
	ResourceName string
	Message      string
	Payload      map[string]any
}
