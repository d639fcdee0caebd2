// Package toolserver resolves the textual tool identifiers declared on an
// incident card into live MCP server sessions, with connect/cleanup
// lifecycle management. Grounded on
// original_source/mcp_sentinel/services/registry.py's ToolRegistry, adapted
// to the spec's simpler static-allowlist model (no hosted-discovery client)
// and transported with github.com/modelcontextprotocol/go-sdk/mcp, the same
// SDK tarsy's pkg/mcp/client.go uses for streamable-HTTP sessions.
package toolserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// clientSessionTimeout is the fixed MCP client-session timeout mandated by
// the registry contract.
const clientSessionTimeout = 30 * time.Second

// ServerHandle is a resolved, not-yet-connected remote tool-server session.
// The orchestrator connects it before building the agent spec and always
// cleans it up afterward, connected or not.
type ServerHandle interface {
	// Name is the configured server name.
	Name() string
	// AllowedTools is nil when the server should expose every tool it has;
	// otherwise it is the card's explicit tool names (sorted, deduped) or,
	// for a wildcard, the server's default_allowed_tools (deduped, in
	// configured order).
	AllowedTools() []string
	// Connect opens the underlying MCP client session.
	Connect(ctx context.Context) error
	// Cleanup closes the session. Safe to call even if Connect was never
	// called or failed.
	Cleanup() error
}

// mcpServerHandle is the concrete ServerHandle backed by the MCP SDK's
// streamable-HTTP client transport.
type mcpServerHandle struct {
	config       models.ToolServerConfig
	allowedTools []string

	client  *mcp.Client
	session *mcp.ClientSession
}

func newMCPServerHandle(config models.ToolServerConfig, allowedTools []string) *mcpServerHandle {
	return &mcpServerHandle{config: config, allowedTools: allowedTools}
}

func (h *mcpServerHandle) Name() string {
	return h.config.Name
}

func (h *mcpServerHandle) AllowedTools() []string {
	return h.allowedTools
}

func (h *mcpServerHandle) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, clientSessionTimeout)
	defer cancel()

	headers := http.Header{}
	for k, v := range h.config.Headers {
		headers.Set(k, v)
	}
	if h.config.Authorization != "" {
		headers.Set("Authorization", h.config.Authorization)
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint: h.config.ServerURL,
		HTTPClient: &http.Client{
			Transport: &headerRoundTripper{headers: headers, next: http.DefaultTransport},
		},
	}

	h.client = mcp.NewClient(&mcp.Implementation{Name: "mcp-sentinel", Version: "0.1.0"}, nil)

	session, err := h.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connect to tool server %q: %w", h.config.Name, err)
	}
	h.session = session

	slog.Info("connected to tool server", "server", h.config.Name, "url", h.config.ServerURL)
	return nil
}

func (h *mcpServerHandle) Cleanup() error {
	if h.session == nil {
		return nil
	}
	err := h.session.Close()
	h.session = nil
	if err != nil {
		return fmt.Errorf("close tool server session %q: %w", h.config.Name, err)
	}
	return nil
}

// headerRoundTripper injects static headers (auth, custom) on every request,
// since the MCP SDK's streamable transport does not accept them directly.
type headerRoundTripper struct {
	headers http.Header
	next    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, values := range rt.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	return rt.next.RoundTrip(req)
}
