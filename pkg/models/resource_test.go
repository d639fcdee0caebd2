package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceDedupeKeyDeterministic(t *testing.T) {
	tests := []struct {
		name string
		a    Resource
		b    Resource
	}{
		{
			name: "label order does not matter",
			a: Resource{
				Type: "prometheus_alert", Name: "web-tier",
				Labels: map[string]string{"alertname": "HighLatency", "severity": "page"},
			},
			b: Resource{
				Type: "prometheus_alert", Name: "web-tier",
				Labels: map[string]string{"severity": "page", "alertname": "HighLatency"},
			},
		},
		{
			name: "annotation order does not matter",
			a: Resource{
				Type: "prometheus_alert", Name: "web-tier",
				Annotations: map[string]string{"summary": "s", "runbook": "r"},
			},
			b: Resource{
				Type: "prometheus_alert", Name: "web-tier",
				Annotations: map[string]string{"runbook": "r", "summary": "s"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.a.DedupeKey(), tt.b.DedupeKey())
		})
	}
}

func TestResourceDedupeKeySkipsEmptyParts(t *testing.T) {
	r := Resource{Type: "prometheus_alert", Name: "web-tier"}
	assert.Equal(t, "prometheus_alert|web-tier", r.DedupeKey())
}

func TestResourceDedupeKeyIncludesTimestampWhenPresent(t *testing.T) {
	withTS := Resource{Type: "t", Name: "n", Timestamp: "2026-01-01T00:00:00Z"}
	withoutTS := Resource{Type: "t", Name: "n"}
	assert.NotEqual(t, withTS.DedupeKey(), withoutTS.DedupeKey())
	assert.Equal(t, "t|n|2026-01-01T00:00:00Z", withTS.DedupeKey())
}

func TestResourceDedupeKeyDiffersByContent(t *testing.T) {
	a := Resource{Type: "t", Name: "n", Labels: map[string]string{"a": "1"}}
	b := Resource{Type: "t", Name: "n", Labels: map[string]string{"a": "2"}}
	assert.NotEqual(t, a.DedupeKey(), b.DedupeKey())
}
