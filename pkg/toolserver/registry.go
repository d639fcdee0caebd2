package toolserver

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// groupedTools accumulates the explicit tool names and wildcard flag
// requested for a single server across an incident card's tool list.
type groupedTools struct {
	explicit map[string]struct{}
	wildcard bool
}

// Registry resolves `server` / `server.tool` / `server.*` identifiers into
// ServerHandle instances. Resolve is purely synchronous and never opens a
// network connection; connecting is the orchestrator's job.
type Registry struct {
	servers map[string]models.ToolServerConfig
}

// NewRegistry indexes the configured tool servers by name.
func NewRegistry(servers []models.ToolServerConfig) *Registry {
	indexed := make(map[string]models.ToolServerConfig, len(servers))
	for _, server := range servers {
		indexed[server.Name] = server
	}
	return &Registry{servers: indexed}
}

// Resolve returns one handle per distinct server referenced in identifiers,
// in first-seen order. Unknown servers and servers that resolve to an empty
// tool list are skipped with a warning.
func (r *Registry) Resolve(identifiers []string) []ServerHandle {
	if len(identifiers) == 0 {
		return nil
	}

	order := make([]string, 0, len(identifiers))
	grouped := make(map[string]*groupedTools, len(identifiers))

	for _, raw := range identifiers {
		identifier := strings.TrimSpace(raw)
		if identifier == "" {
			continue
		}
		server, toolName, hasDot := partition(identifier)
		if server == "" {
			slog.Warn("invalid tool identifier, missing server component", "identifier", identifier)
			continue
		}
		group, seen := grouped[server]
		if !seen {
			group = &groupedTools{explicit: map[string]struct{}{}}
			grouped[server] = group
			order = append(order, server)
		}
		if !hasDot || toolName == "" || toolName == "*" {
			group.wildcard = true
			continue
		}
		group.explicit[toolName] = struct{}{}
	}

	handles := make([]ServerHandle, 0, len(order))
	for _, serverName := range order {
		group := grouped[serverName]
		config, ok := r.servers[serverName]
		if !ok {
			slog.Warn("skipping tools for unknown MCP server",
				"server", serverName, "wildcard", group.wildcard, "requested_tools", explicitList(group))
			continue
		}

		allowedTools, empty := deriveAllowedTools(config, group)
		if empty {
			slog.Warn("no tools resolved for server", "server", serverName)
			continue
		}

		handles = append(handles, newMCPServerHandle(config, allowedTools))
	}

	return handles
}

// partition splits "server.tool" into its components. hasDot reports
// whether a "." separator was present at all (a bare "server" identifier is
// a wildcard by omission, not by an explicit "*").
func partition(identifier string) (server, tool string, hasDot bool) {
	idx := strings.IndexByte(identifier, '.')
	if idx < 0 {
		return identifier, "", false
	}
	return identifier[:idx], identifier[idx+1:], true
}

func explicitList(group *groupedTools) []string {
	if len(group.explicit) == 0 {
		return nil
	}
	names := make([]string, 0, len(group.explicit))
	for name := range group.explicit {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// deriveAllowedTools returns the allowed-tools list (nil meaning "all tools
// the server exposes") and whether the derived list is the empty list,
// which is distinct from nil and causes the caller to skip the server.
func deriveAllowedTools(config models.ToolServerConfig, group *groupedTools) (allowed []string, empty bool) {
	if group.wildcard || len(group.explicit) == 0 {
		if len(config.DefaultAllowedTools) > 0 {
			return dedupePreserveOrder(config.DefaultAllowedTools), false
		}
		return nil, false
	}

	names := explicitList(group)
	return names, len(names) == 0
}

func dedupePreserveOrder(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
