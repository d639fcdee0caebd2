package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

func notificationFixture() models.IncidentNotification {
	return models.IncidentNotification{
		Resource: models.Resource{
			Type:   "prometheus_alert",
			Name:   "web-tier",
			State:  "firing",
			Value:  "95.2",
			Labels: map[string]string{"alertname": "HighLatency", "severity": "page"},
		},
		RawPayload: map[string]any{"alertname": "HighLatency"},
	}
}

func TestRendererSubstitutesPlaceholders(t *testing.T) {
	r := NewRenderer()
	out := r.Render("Resource ${resource_name} is ${resource_state}", notificationFixture())
	assert.Equal(t, "Resource web-tier is firing", out)
}

func TestRendererMissingPlaceholderRendersEmpty(t *testing.T) {
	r := NewRenderer()
	out := r.Render("Value: [${does_not_exist}]", notificationFixture())
	assert.Equal(t, "Value: []", out)
}

func TestRendererUnknownStateFallback(t *testing.T) {
	r := NewRenderer()
	n := notificationFixture()
	n.Resource.State = ""
	out := r.Render("${resource_state}", n)
	assert.Equal(t, "unknown", out)
}

func TestBuildInitialInputOmitsEmptySections(t *testing.T) {
	n := models.IncidentNotification{
		Resource: models.Resource{Type: "prometheus_alert", Name: "web-tier"},
	}
	out := BuildInitialInput(n)
	assert.Equal(t, "Incident resource web-tier (prometheus_alert)\nState: unknown | Value: ", out)
}

func TestBuildInitialInputIncludesLabelsAndPayload(t *testing.T) {
	out := BuildInitialInput(notificationFixture())
	assert.Contains(t, out, "Labels: alertname=HighLatency, severity=page")
	assert.Contains(t, out, "Raw payload: {")
}

func TestRepositoryFallsBackToInlineWhenFileMissing(t *testing.T) {
	repo := NewRepository()
	out := repo.Load("not a real prompt, just inline text")
	assert.Equal(t, "not a real prompt, just inline text", out)
}
