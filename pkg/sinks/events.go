package sinks

import "github.com/jneo8/mcp-sentinel/pkg/models"

// IncidentStartEvent builds the "incident.started" event emitted when the
// orchestrator begins processing a notification.
func IncidentStartEvent(card models.IncidentCard, notification models.IncidentNotification) models.SinkEvent {
	resource := notification.Resource
	return models.SinkEvent{
		Type:         "incident.started",
		CardName:     card.Name,
		ResourceName: resource.Name,
		Message:      "Incident processing started",
		Payload: map[string]any{
			"state":       resource.State,
			"value":       resource.Value,
			"labels":      resource.Labels,
			"annotations": resource.Annotations,
		},
	}
}

// IncidentCompletionEvent builds the "incident.<outcome>" event emitted
// after the agent runtime returns or raises.
func IncidentCompletionEvent(card models.IncidentCard, notification models.IncidentNotification, outcome string, resultPayload map[string]any) models.SinkEvent {
	message := "Incident processing failed"
	if outcome == "success" {
		message = "Incident processing completed"
	}
	return models.SinkEvent{
		Type:         "incident." + outcome,
		CardName:     card.Name,
		ResourceName: notification.Resource.Name,
		Message:      message,
		Payload:      resultPayload,
	}
}
