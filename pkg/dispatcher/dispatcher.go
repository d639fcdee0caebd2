// Package dispatcher admits watcher notifications through a dedup TTL
// cache and card index, then fans them out to a bounded worker pool that
// invokes the agent orchestrator. Grounded on
// original_source/mcp_sentinel/dispatcher/prometheus.py's PrometheusDispatcher
// algorithm, with the worker-pool lifecycle idioms (idempotent Start/Stop,
// stopCh-based cancellation) adapted from tarsy's pkg/queue/pool.go and
// worker.go.
package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

// IncidentRunner processes a single incident. Implemented by
// *agent.Orchestrator.
type IncidentRunner interface {
	RunIncident(ctx context.Context, card models.IncidentCard, notification models.IncidentNotification) error
}

// Dispatcher admits, deduplicates and queues incident notifications for a
// bounded pool of workers.
type Dispatcher struct {
	runner   IncidentRunner
	settings models.DispatcherSettings

	cardIndex map[string]models.IncidentCard
	queue     chan models.IncidentNotification

	mu     sync.Mutex
	dedupe map[string]time.Time

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New builds a Dispatcher from the incident cards and dispatcher settings
// drawn from configuration. Cards that share a resource collapse to the
// first one, with a warning for every later duplicate.
func New(cards []models.IncidentCard, settings models.DispatcherSettings, runner IncidentRunner) *Dispatcher {
	index := make(map[string]models.IncidentCard, len(cards))
	for _, card := range cards {
		if _, exists := index[card.Resource]; exists {
			slog.Warn("duplicate incident card for resource, keeping first", "resource", card.Resource, "card", card.Name)
			continue
		}
		index[card.Resource] = card
	}

	return &Dispatcher{
		runner:    runner,
		settings:  settings,
		cardIndex: index,
		queue:     make(chan models.IncidentNotification, settings.QueueSize),
		dedupe:    make(map[string]time.Time),
	}
}

// Start spawns worker_concurrency workers reading from the internal queue.
// Idempotent: a second call while already running is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})

	slog.Info("starting dispatcher", "concurrency", d.settings.WorkerConcurrency, "queue_size", d.settings.QueueSize)
	for i := 0; i < d.settings.WorkerConcurrency; i++ {
		d.wg.Add(1)
		go d.workerLoop(i)
	}
}

// Stop cancels all workers and waits for them to terminate. Any items still
// in the queue are dropped. Idempotent.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()

	for {
		select {
		case <-d.queue:
		default:
			return
		}
	}
}

// Dispatch is the synchronous admission decision for a notification. It
// never blocks waiting for queue space. The dedupe check, the enqueue
// attempt and the dedupe insert all happen inside a single critical
// section: concurrent calls from multiple watcher goroutines (§5) must
// observe and mutate the cache serially, or two notifications for the same
// resource could both pass the duplicate check before either is enqueued.
func (d *Dispatcher) Dispatch(notification models.IncidentNotification) models.DispatcherResult {
	now := time.Now()
	key := notification.Resource.DedupeKey()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.purgeExpiredLocked(now)

	if expiresAt, ok := d.dedupe[key]; ok && expiresAt.After(now) {
		slog.Debug("dropping duplicate alert", "resource", notification.Resource.Name, "dedupe_key", key)
		return models.DispatcherResult{Status: models.StatusDuplicate, Detail: "dedupe cache hit"}
	}

	card, ok := d.cardIndex[notification.Resource.Name]
	if !ok {
		slog.Warn("no incident card mapped for resource", "resource", notification.Resource.Name)
		return models.DispatcherResult{Status: models.StatusDropped, Detail: "no incident card"}
	}

	select {
	case d.queue <- notification:
	default:
		slog.Error("dispatcher queue full, dropping alert", "queue_size", len(d.queue), "resource", notification.Resource.Name)
		return models.DispatcherResult{Status: models.StatusDropped, Detail: "queue full"}
	}

	d.dedupe[key] = now.Add(time.Duration(d.settings.DedupeTTLSeconds) * time.Second)

	slog.Info("queued notification for processing", "resource", notification.Resource.Name, "incident_card", card.Name)
	return models.DispatcherResult{Status: models.StatusQueued, IncidentCard: &card}
}

// Status is a point-in-time liveness snapshot, surfaced by the CLI's
// /healthz endpoint.
type Status struct {
	Running           bool `json:"running"`
	QueueDepth        int  `json:"queue_depth"`
	QueueCapacity     int  `json:"queue_capacity"`
	WorkerConcurrency int  `json:"worker_concurrency"`
	DedupeCacheSize   int  `json:"dedupe_cache_size"`
}

// Status returns the dispatcher's current liveness snapshot.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:           d.running,
		QueueDepth:        len(d.queue),
		QueueCapacity:     d.settings.QueueSize,
		WorkerConcurrency: d.settings.WorkerConcurrency,
		DedupeCacheSize:   len(d.dedupe),
	}
}

func (d *Dispatcher) purgeExpiredLocked(now time.Time) {
	purged := 0
	for key, expiresAt := range d.dedupe {
		if !expiresAt.After(now) {
			delete(d.dedupe, key)
			purged++
		}
	}
	if purged > 0 {
		slog.Debug("purged expired dedupe entries", "count", purged)
	}
}

func (d *Dispatcher) workerLoop(workerID int) {
	defer d.wg.Done()
	slog.Debug("worker loop started", "worker_id", workerID)

	for {
		select {
		case <-d.stopCh:
			slog.Debug("worker stopping", "worker_id", workerID)
			return
		case notification := <-d.queue:
			d.handleNotification(workerID, notification)
		}
	}
}

func (d *Dispatcher) handleNotification(workerID int, notification models.IncidentNotification) {
	card, ok := d.cardIndex[notification.Resource.Name]
	if !ok {
		slog.Warn("skipping notification due to missing card", "resource", notification.Resource.Name, "worker_id", workerID)
		return
	}

	slog.Info("dispatching incident to agent", "incident_card", card.Name, "resource", notification.Resource.Name, "worker_id", workerID)

	if err := d.runner.RunIncident(context.Background(), card, notification); err != nil {
		slog.Error("unhandled error while processing notification", "worker_id", workerID, "resource", notification.Resource.Name, "error", err)
	}
}
