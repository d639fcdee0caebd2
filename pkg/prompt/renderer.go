package prompt

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// Renderer substitutes ${...} placeholders in a template using context
// derived from an IncidentNotification. Rendering never raises: any
// substitution failure falls back to returning the raw template text.
//
// Grounded on original_source/mcp_sentinel/prompts.py's
// PromptRenderer.render/_build_context (the Python source's extra
// format_map fallback for bare {var} placeholders is not ported; spec.md
// §4.5 only specifies ${...} substitution).
type Renderer struct{}

// NewRenderer constructs a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render substitutes placeholders in template using notification's derived
// context. Missing placeholders render as empty strings.
func (r *Renderer) Render(template string, notification models.IncidentNotification) (rendered string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("prompt rendering panicked, returning raw template", "panic", rec)
			rendered = template
		}
	}()

	context := buildContext(notification)
	return os.Expand(template, func(key string) string {
		if value, ok := context[key]; ok {
			return value
		}
		return ""
	})
}

func buildContext(notification models.IncidentNotification) map[string]string {
	resource := notification.Resource

	state := resource.State
	if state == "" {
		state = "unknown"
	}

	return map[string]string{
		"resource_name":        resource.Name,
		"resource_type":        resource.Type,
		"resource_state":       state,
		"resource_value":       resource.Value,
		"resource_timestamp":   resource.Timestamp,
		"resource_labels":      joinPairs(resource.Labels),
		"resource_annotations": joinPairs(resource.Annotations),
		"raw_payload":          fmt.Sprint(notification.RawPayload),
	}
}

func joinPairs(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	return strings.Join(pairs, ", ")
}
