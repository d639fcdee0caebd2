package watcher

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

type stubDispatcher struct {
	results []models.DispatcherResult
	calls   []models.IncidentNotification
}

func (d *stubDispatcher) Dispatch(notification models.IncidentNotification) models.DispatcherResult {
	d.calls = append(d.calls, notification)
	if len(d.results) == 0 {
		return models.DispatcherResult{Status: models.StatusQueued}
	}
	result := d.results[0]
	d.results = d.results[1:]
	return result
}

func TestDeriveAlertsURL(t *testing.T) {
	cases := map[string]string{
		"http://prom:9090/":       "http://prom:9090/alerts",
		"http://prom:9090":        "http://prom:9090/alerts",
		"http://prom:9090/alerts": "http://prom:9090/alerts",
		"http://prom:9090/alerts/": "http://prom:9090/alerts",
	}
	for in, want := range cases {
		assert.Equal(t, want, deriveAlertsURL(in), in)
	}
}

func TestMatchesFiltersEmptyMatchesAll(t *testing.T) {
	assert.True(t, matchesFilters(map[string]string{"a": "1"}, nil))
}

func TestMatchesFiltersRequiresExactEquality(t *testing.T) {
	labels := map[string]string{"alertname": "HighLatency", "severity": "page"}
	assert.True(t, matchesFilters(labels, map[string]string{"alertname": "HighLatency"}))
	assert.False(t, matchesFilters(labels, map[string]string{"alertname": "Other"}))
	assert.False(t, matchesFilters(labels, map[string]string{"missing": "x"}))
}

func TestPollOnceDispatchesMatchingAlertsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"alerts": [
					{"labels": {"alertname": "HighLatency"}, "status": {"state": "firing"}, "startsAt": "t1"},
					{"labels": {"alertname": "Other"}, "status": "resolved"}
				]
			}
		}`))
	}))
	defer server.Close()

	dispatcher := &stubDispatcher{}
	config := models.WatcherConfig{
		Name:                "prom",
		Endpoint:            server.URL,
		PollIntervalSeconds: 5,
		TimeoutSeconds:      5,
		Resources:           []string{"web-tier"},
	}
	resourceDefs := []models.ResourceDefinition{
		{Name: "web-tier", Type: "prometheus_alert", Filters: map[string]string{"alertname": "HighLatency"}},
	}

	w := New(config, dispatcher, indexOf(resourceDefs), server.Client())
	count, err := w.PollOnce()

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, "firing", dispatcher.calls[0].Resource.State)
	assert.Equal(t, "t1", dispatcher.calls[0].Resource.Timestamp)
}

func TestPollOnceNoMatchDispatchesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"alerts": [{"labels": {"alertname": "Unrelated"}, "status": "firing"}]}}`))
	}))
	defer server.Close()

	dispatcher := &stubDispatcher{}
	config := models.WatcherConfig{Name: "prom", Endpoint: server.URL, PollIntervalSeconds: 5, TimeoutSeconds: 5, Resources: []string{"web-tier"}}
	resourceDefs := []models.ResourceDefinition{{Name: "web-tier", Filters: map[string]string{"alertname": "HighLatency"}}}

	w := New(config, dispatcher, indexOf(resourceDefs), server.Client())
	count, err := w.PollOnce()

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, dispatcher.calls)
}

func TestPollOnceTransportErrorYieldsEmptyList(t *testing.T) {
	dispatcher := &stubDispatcher{}
	config := models.WatcherConfig{Name: "prom", Endpoint: "http://127.0.0.1:0", PollIntervalSeconds: 5, TimeoutSeconds: 1, Resources: []string{"web-tier"}}
	resourceDefs := []models.ResourceDefinition{{Name: "web-tier"}}

	w := New(config, dispatcher, indexOf(resourceDefs), &http.Client{})
	count, err := w.PollOnce()

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUnknownResourceNameSubstitutesSyntheticDefinition(t *testing.T) {
	dispatcher := &stubDispatcher{}
	config := models.WatcherConfig{Name: "prom", Endpoint: "http://example.invalid", Resources: []string{"ghost"}}

	w := New(config, dispatcher, map[string]models.ResourceDefinition{}, &http.Client{})

	require.Len(t, w.resourceDefs, 1)
	assert.Equal(t, map[string]string{"alertname": "ghost"}, w.resourceDefs[0].Filters)
}

func TestStartStopIsIdempotentAndStoppable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"alerts": []}}`))
	}))
	defer server.Close()

	dispatcher := &stubDispatcher{}
	config := models.WatcherConfig{Name: "prom", Endpoint: server.URL, PollIntervalSeconds: 1, TimeoutSeconds: 1, Resources: []string{"web-tier"}}
	resourceDefs := []models.ResourceDefinition{{Name: "web-tier"}}

	w := New(config, dispatcher, indexOf(resourceDefs), server.Client())
	w.Start()
	w.Start()
	time.Sleep(10 * time.Millisecond)
	w.Stop()
	w.Stop()
}

func indexOf(defs []models.ResourceDefinition) map[string]models.ResourceDefinition {
	idx := make(map[string]models.ResourceDefinition, len(defs))
	for _, d := range defs {
		idx[d.Name] = d
	}
	return idx
}
