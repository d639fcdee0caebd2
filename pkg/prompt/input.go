package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

const rawPayloadTruncateLen = 480

// BuildInitialInput constructs the newline-joined plaintext block handed to
// the agent runtime as its initial user input. Grounded on spec.md §4.5.
func BuildInitialInput(notification models.IncidentNotification) string {
	resource := notification.Resource

	state := resource.State
	if state == "" {
		state = "unknown"
	}

	lines := []string{
		fmt.Sprintf("Incident resource %s (%s)", resource.Name, resource.Type),
		fmt.Sprintf("State: %s | Value: %s", state, resource.Value),
	}

	if labels := joinPairs(resource.Labels); labels != "" {
		lines = append(lines, "Labels: "+labels)
	}
	if annotations := joinPairs(resource.Annotations); annotations != "" {
		lines = append(lines, "Annotations: "+annotations)
	}
	if len(notification.RawPayload) > 0 {
		lines = append(lines, "Raw payload: "+truncatedJSON(notification.RawPayload))
	}

	return strings.Join(lines, "\n")
}

func truncatedJSON(payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	if len(data) > rawPayloadTruncateLen {
		return string(data[:rawPayloadTruncateLen])
	}
	return string(data)
}
