package toolserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

func grafanaServer(defaultAllowed ...string) models.ToolServerConfig {
	return models.ToolServerConfig{
		Name:                "grafana",
		ServerURL:           "https://grafana.example.com/mcp",
		DefaultAllowedTools: defaultAllowed,
	}
}

func TestResolveWildcardWithNoDefaultAllowsEverything(t *testing.T) {
	registry := NewRegistry([]models.ToolServerConfig{grafanaServer()})
	handles := registry.Resolve([]string{"grafana.*"})

	require.Len(t, handles, 1)
	assert.Equal(t, "grafana", handles[0].Name())
	assert.Nil(t, handles[0].AllowedTools())
}

func TestResolveExplicitToolsAreSortedAndDeduped(t *testing.T) {
	registry := NewRegistry([]models.ToolServerConfig{grafanaServer()})
	handles := registry.Resolve([]string{"grafana.alerts", "grafana.search", "grafana.alerts"})

	require.Len(t, handles, 1)
	assert.Equal(t, []string{"alerts", "search"}, handles[0].AllowedTools())
}

func TestResolveBareServerIsWildcard(t *testing.T) {
	registry := NewRegistry([]models.ToolServerConfig{grafanaServer("alerts", "search")})
	handles := registry.Resolve([]string{"grafana"})

	require.Len(t, handles, 1)
	assert.Equal(t, []string{"alerts", "search"}, handles[0].AllowedTools())
}

func TestResolveUnknownServerSkippedWithoutError(t *testing.T) {
	registry := NewRegistry(nil)
	handles := registry.Resolve([]string{"missing.tool"})
	assert.Empty(t, handles)
}

func TestResolveEmptyIdentifierIgnored(t *testing.T) {
	registry := NewRegistry([]models.ToolServerConfig{grafanaServer()})
	handles := registry.Resolve([]string{"", "  "})
	assert.Empty(t, handles)
}

func TestResolveDuplicateServerIdentifiersCollapseToOneHandle(t *testing.T) {
	registry := NewRegistry([]models.ToolServerConfig{grafanaServer()})
	handles := registry.Resolve([]string{"grafana.alerts", "grafana.dashboards"})
	require.Len(t, handles, 1)
	assert.Equal(t, []string{"alerts", "dashboards"}, handles[0].AllowedTools())
}

func TestResolveEmptyIdentifierListReturnsNil(t *testing.T) {
	registry := NewRegistry([]models.ToolServerConfig{grafanaServer()})
	assert.Nil(t, registry.Resolve(nil))
}
