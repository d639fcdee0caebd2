package watcher

import (
	"log/slog"
	"net/http"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// Service coordinates every configured Watcher. Grounded on
// original_source/mcp_sentinel/watchers/prometheus.py's
// PrometheusWatcherService.
type Service struct {
	watchers []*Watcher
}

// NewService builds one Watcher per configured WatcherConfig, sharing a
// single HTTP client.
func NewService(configs []models.WatcherConfig, resourceDefs []models.ResourceDefinition, dispatcher Dispatcher) *Service {
	resourceIndex := make(map[string]models.ResourceDefinition, len(resourceDefs))
	for _, def := range resourceDefs {
		resourceIndex[def.Name] = def
	}

	httpClient := &http.Client{}
	watchers := make([]*Watcher, 0, len(configs))
	for _, config := range configs {
		watchers = append(watchers, New(config, dispatcher, resourceIndex, httpClient))
	}

	return &Service{watchers: watchers}
}

// Start starts every watcher.
func (s *Service) Start() {
	if len(s.watchers) == 0 {
		slog.Info("no watchers configured; skipping startup")
		return
	}
	for _, w := range s.watchers {
		w.Start()
	}
}

// Stop stops every watcher.
func (s *Service) Stop() {
	for _, w := range s.watchers {
		w.Stop()
	}
}

// Statuses returns a liveness snapshot for every configured watcher, used
// by the CLI's /healthz endpoint.
func (s *Service) Statuses() []Status {
	statuses := make([]Status, 0, len(s.watchers))
	for _, w := range s.watchers {
		statuses = append(statuses, w.Status())
	}
	return statuses
}

// PollOnce triggers a single poll across all configured watchers. Useful
// for tests and for a one-shot CLI invocation.
func (s *Service) PollOnce() int {
	dispatched := 0
	for _, w := range s.watchers {
		count, err := w.PollOnce()
		if err != nil {
			slog.Warn("watcher poll failed", "watcher", w.config.Name, "error", err)
			continue
		}
		dispatched += count
	}
	return dispatched
}
