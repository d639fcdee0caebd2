package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jneo8/mcp-sentinel/pkg/models"
	"github.com/jneo8/mcp-sentinel/pkg/prompt"
	"github.com/jneo8/mcp-sentinel/pkg/sinks"
	"github.com/jneo8/mcp-sentinel/pkg/toolserver"
)

// Resolver resolves an incident card's tool identifiers into tool-server
// handles. Implemented by *toolserver.Registry.
type Resolver interface {
	Resolve(identifiers []string) []toolserver.ServerHandle
}

// Orchestrator ties the prompt repository/renderer, tool-server registry,
// sink dispatcher and agent runtime together for a single incident.
// Grounded on original_source/mcp_sentinel/orchestrator.py's run_incident.
type Orchestrator struct {
	repository *prompt.Repository
	renderer   *prompt.Renderer
	registry   Resolver
	sinkBus    *sinks.Dispatcher
	runtime    Runtime
	settings   models.RuntimeSettings
}

// NewOrchestrator builds an Orchestrator from its collaborators.
func NewOrchestrator(repository *prompt.Repository, renderer *prompt.Renderer, registry Resolver, sinkBus *sinks.Dispatcher, runtime Runtime, settings models.RuntimeSettings) *Orchestrator {
	return &Orchestrator{
		repository: repository,
		renderer:   renderer,
		registry:   registry,
		sinkBus:    sinkBus,
		runtime:    runtime,
		settings:   settings,
	}
}

// RunIncident executes the full incident-handling sequence for a single
// notification under card. It returns an error on runtime or connection
// failure; tool-server cleanup is guaranteed on every exit path via defer.
func (o *Orchestrator) RunIncident(ctx context.Context, card models.IncidentCard, notification models.IncidentNotification) error {
	rawTemplate := o.repository.Load(card.PromptTemplate)
	instructions := o.renderer.Render(rawTemplate, notification)

	o.sinkBus.Emit(card.Sinks, sinks.IncidentStartEvent(card, notification))

	handles := o.registry.Resolve(card.Tools)

	defer func() {
		for _, handle := range handles {
			if err := handle.Cleanup(); err != nil {
				slog.Error("tool server cleanup failed", "server", handle.Name(), "error", err)
			}
		}
	}()

	for _, handle := range handles {
		if err := handle.Connect(ctx); err != nil {
			o.sinkBus.Emit(card.Sinks, sinks.IncidentCompletionEvent(card, notification, "failure", map[string]any{"error": err.Error()}))
			return fmt.Errorf("connect tool server %q for card %q: %w", handle.Name(), card.Name, err)
		}
	}

	model := card.Model
	if model == "" {
		model = o.settings.Model
	}

	spec := AgentSpec{
		Name:          card.Name + "-agent",
		Instructions:  instructions,
		LocalTools:    nil,
		RemoteServers: handles,
		Model:         model,
	}

	initialInput := prompt.BuildInitialInput(notification)

	runConfig := RunConfig{
		WorkflowName: "incident::" + card.Name,
		TraceMetadata: map[string]any{
			"resource": notification.Resource.Name,
			"card":     card.Name,
			"trace_id": uuid.NewString(),
		},
	}

	result, err := o.runtime.Run(ctx, spec, initialInput, card.MaxIterations, runConfig)
	if err != nil {
		o.sinkBus.Emit(card.Sinks, sinks.IncidentCompletionEvent(card, notification, "failure", map[string]any{"error": err.Error()}))
		return fmt.Errorf("run incident for card %q: %w", card.Name, err)
	}

	o.sinkBus.Emit(card.Sinks, sinks.IncidentCompletionEvent(card, notification, "success", map[string]any{
		"final_output": result.FinalOutput,
		"turn_count":   result.TurnCount,
	}))
	return nil
}
