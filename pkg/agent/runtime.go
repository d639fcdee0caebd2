// Package agent composes the resolved prompt, tool-server sessions and
// model settings into a single agent run and guarantees tool-server
// cleanup. Grounded on tarsy's pkg/agent/tool_executor.go interface
// shape and original_source/mcp_sentinel/orchestrator.py's run_incident.
package agent

import (
	"context"

	"github.com/jneo8/mcp-sentinel/pkg/toolserver"
)

// AgentSpec describes a single agent invocation. LocalTools is always empty
// in this port: the spec's ToolServerConfig model has no surface for
// declaring tools that aren't behind a remote MCP server, so the
// "local tools" branch of the Registry partition (spec.md §4.4 step 3) never
// has anything to populate it. The field is kept so the contract stays
// faithful to the source design and so a future local-tool provider has
// somewhere to plug in.
//
// RemoteServers carries the connected ServerHandle instances themselves,
// not just their names: a real Runtime needs the live MCP session and the
// AllowedTools() restriction the Registry derived (spec.md §4.3) to
// actually invoke tools through a server, and a card's tools: allow-list
// would otherwise never reach the agent.
type AgentSpec struct {
	Name          string
	Instructions  string
	LocalTools    []string
	RemoteServers []toolserver.ServerHandle
	Model         string
}

// RunConfig carries the workflow identity and trace metadata for a single
// run, mirroring original_source's RunConfig(workflow_name, trace_metadata).
type RunConfig struct {
	WorkflowName string
	TraceMetadata map[string]any
}

// RunResult is returned by a successful Run.
type RunResult struct {
	FinalOutput string
	TurnCount   int
}

// Runtime invokes an agent spec against a configured model/tool backend.
type Runtime interface {
	Run(ctx context.Context, spec AgentSpec, initialInput string, maxTurns int, runConfig RunConfig) (RunResult, error)
}
