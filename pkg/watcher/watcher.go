// Package watcher periodically polls an alert source and forwards matching
// alerts to the dispatcher as IncidentNotifications. Grounded on
// original_source/mcp_sentinel/watchers/prometheus.py's PrometheusWatcher,
// with the interruptible-sleep poll loop adapted from tarsy's
// pkg/queue/worker.go run()/sleep() idioms.
package watcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// Dispatcher is the admission surface a Watcher dispatches notifications
// through. Implemented by *dispatcher.Dispatcher.
type Dispatcher interface {
	Dispatch(notification models.IncidentNotification) models.DispatcherResult
}

// Watcher polls a single configured alert endpoint and dispatches matching
// alerts for the resource definitions bound to it.
type Watcher struct {
	config       models.WatcherConfig
	dispatcher   Dispatcher
	resourceDefs []models.ResourceDefinition
	httpClient   *http.Client
	alertsURL    string

	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastPollAt time.Time
}

// Status is a point-in-time liveness snapshot, surfaced by the CLI's
// /healthz endpoint.
type Status struct {
	Name       string    `json:"name"`
	Running    bool      `json:"running"`
	LastPollAt time.Time `json:"last_poll_at,omitempty"`
}

// Status returns the watcher's current liveness snapshot.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{Name: w.config.Name, Running: w.running, LastPollAt: w.lastPollAt}
}

// New builds a Watcher. resourceIndex maps resource definition name to
// definition; a name referenced by config.Resources but absent from the
// index is tolerated by substituting a synthetic alertname-filter
// definition, with a warning.
func New(config models.WatcherConfig, dispatcher Dispatcher, resourceIndex map[string]models.ResourceDefinition, httpClient *http.Client) *Watcher {
	defs := make([]models.ResourceDefinition, 0, len(config.Resources))
	for _, name := range config.Resources {
		def, ok := resourceIndex[name]
		if !ok {
			slog.Warn("watcher references unknown resource; defaulting to alertname filter",
				"watcher", config.Name, "resource", name)
			def = models.ResourceDefinition{Name: name, Filters: map[string]string{"alertname": name}}
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		slog.Warn("watcher configured without resources; no alerts will be dispatched", "watcher", config.Name)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Watcher{
		config:       config,
		dispatcher:   dispatcher,
		resourceDefs: defs,
		httpClient:   httpClient,
		alertsURL:    deriveAlertsURL(config.Endpoint),
	}
}

// Start begins the poll loop in a background goroutine. Idempotent.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.pollLoop()
	slog.Info("watcher started", "watcher", w.config.Name)
}

// Stop signals the poll loop to exit and waits for it. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	slog.Info("watcher stopped", "watcher", w.config.Name)
}

func (w *Watcher) pollLoop() {
	defer close(w.doneCh)

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("watcher poll panicked", "watcher", w.config.Name, "panic", r)
				}
			}()
			if _, err := w.PollOnce(); err != nil {
				slog.Warn("watcher poll failed", "watcher", w.config.Name, "error", err)
			}
			w.mu.Lock()
			w.lastPollAt = time.Now()
			w.mu.Unlock()
		}()

		if !w.sleepInterruptible(time.Duration(w.config.PollIntervalSeconds) * time.Second) {
			return
		}
	}
}

// sleepInterruptible blocks for d or until Stop is called, whichever comes
// first. It reports whether the sleep ran to completion (false means Stop
// fired).
func (w *Watcher) sleepInterruptible(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// PollOnce fetches alerts once and dispatches any matches, returning the
// number of notifications that were accepted into the queue.
func (w *Watcher) PollOnce() (int, error) {
	alerts := w.fetchAlerts()
	if len(alerts) == 0 || len(w.resourceDefs) == 0 {
		return 0, nil
	}

	dispatched := 0
	for _, a := range alerts {
		dispatched += w.handleAlert(a)
	}
	if dispatched > 0 {
		slog.Debug("dispatched incidents from poll", "watcher", w.config.Name, "dispatched", dispatched)
	}
	return dispatched, nil
}

func (w *Watcher) fetchAlerts() []alert {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.config.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.alertsURL, nil)
	if err != nil {
		slog.Warn("failed to build watcher request", "watcher", w.config.Name, "error", err)
		return nil
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		slog.Warn("watcher request failed", "watcher", w.config.Name, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("watcher endpoint responded with error status", "watcher", w.config.Name, "status_code", resp.StatusCode)
		return nil
	}

	var payload alertsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		slog.Warn("failed to decode watcher response", "watcher", w.config.Name, "error", err)
		return nil
	}

	alerts := make([]alert, 0, len(payload.Data.Alerts))
	for _, raw := range payload.Data.Alerts {
		a, ok := decodeAlert(raw)
		if !ok {
			slog.Warn("skipping alert with unexpected shape", "watcher", w.config.Name)
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

func (w *Watcher) handleAlert(a alert) int {
	dispatched := 0
	for _, def := range w.resourceDefs {
		if !matchesFilters(a.typed.Labels, def.Filters) {
			continue
		}

		resource := buildResource(def, a.typed)
		notification := models.IncidentNotification{Resource: resource, RawPayload: a.raw}
		result := w.dispatcher.Dispatch(notification)
		slog.Debug("watcher dispatched notification", "watcher", w.config.Name, "resource", def.Name, "status", result.Status)
		if result.Status == models.StatusQueued {
			dispatched++
		}
	}
	return dispatched
}

func matchesFilters(labels map[string]string, filters map[string]string) bool {
	if len(filters) == 0 {
		return true
	}
	for key, expected := range filters {
		if labels[key] != expected {
			return false
		}
	}
	return true
}

func buildResource(def models.ResourceDefinition, alert alertPayload) models.Resource {
	annotations := make(map[string]string, len(def.Annotations)+len(alert.Annotations))
	for k, v := range def.Annotations {
		annotations[k] = v
	}
	for k, v := range alert.Annotations {
		annotations[k] = v
	}

	return models.Resource{
		Type:        def.Type,
		Name:        def.Name,
		Labels:      alert.Labels,
		Annotations: annotations,
		State:       alert.state(),
		Value:       alert.stringValue(),
		Timestamp:   alert.timestamp(),
	}
}
