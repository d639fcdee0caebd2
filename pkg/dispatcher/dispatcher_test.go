package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jneo8/mcp-sentinel/pkg/models"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls []models.IncidentNotification
	done  chan struct{}
}

func newRecordingRunner(expected int) *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, expected)}
}

func (r *recordingRunner) RunIncident(_ context.Context, _ models.IncidentCard, notification models.IncidentNotification) error {
	r.mu.Lock()
	r.calls = append(r.calls, notification)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func webTierCard() models.IncidentCard {
	return models.IncidentCard{Name: "web-tier-card", Resource: "web-tier", PromptTemplate: "p", MaxIterations: 6}
}

func testSettings() models.DispatcherSettings {
	return models.DispatcherSettings{QueueSize: 1, DedupeTTLSeconds: 600, WorkerConcurrency: 1}
}

func notificationFor(name string) models.IncidentNotification {
	return models.IncidentNotification{Resource: models.Resource{Name: name, Type: "prometheus_alert", State: "firing"}}
}

func TestDispatchWithNoCardIsDropped(t *testing.T) {
	d := New(nil, testSettings(), newRecordingRunner(0))
	result := d.Dispatch(notificationFor("unknown"))
	assert.Equal(t, models.StatusDropped, result.Status)
	assert.Equal(t, "no incident card", result.Detail)
}

func TestDispatchDuplicateWithinTTLIsDeduped(t *testing.T) {
	runner := newRecordingRunner(1)
	d := New([]models.IncidentCard{webTierCard()}, testSettings(), runner)

	first := d.Dispatch(notificationFor("web-tier"))
	second := d.Dispatch(notificationFor("web-tier"))

	assert.Equal(t, models.StatusQueued, first.Status)
	assert.Equal(t, models.StatusDuplicate, second.Status)
	assert.Equal(t, "dedupe cache hit", second.Detail)
}

func TestDispatchQueueFullDropsWithoutInsertingDedupeEntry(t *testing.T) {
	settings := testSettings()
	settings.QueueSize = 1
	runner := newRecordingRunner(0)
	d := New([]models.IncidentCard{webTierCard()}, settings, runner)

	// Fill the queue without starting workers so nothing drains it.
	first := d.Dispatch(notificationFor("web-tier"))
	require.Equal(t, models.StatusQueued, first.Status)

	// A new activation of the same resource has a distinct dedupe key, so it
	// passes the dedupe check and reaches the full queue.
	overflow := notificationFor("web-tier")
	overflow.Resource.Timestamp = "t2"
	second := d.Dispatch(overflow)
	assert.Equal(t, models.StatusDropped, second.Status)
	assert.Equal(t, "queue full", second.Detail)

	// The dropped attempt leaves no dedupe entry behind, so the same alert
	// can be admitted on a later poll; the first successful enqueue's entry
	// remains.
	d.mu.Lock()
	_, droppedCached := d.dedupe[overflow.Resource.DedupeKey()]
	_, stillCached := d.dedupe[notificationFor("web-tier").Resource.DedupeKey()]
	d.mu.Unlock()
	assert.False(t, droppedCached, "the dropped notification's dedupe key should not be cached")
	assert.True(t, stillCached, "the first successful enqueue's dedupe entry should remain")
}

func TestStartProcessesQueuedNotificationsAndStopIsIdempotent(t *testing.T) {
	runner := newRecordingRunner(1)
	d := New([]models.IncidentCard{webTierCard()}, testSettings(), runner)

	d.Start()
	d.Start() // idempotent

	result := d.Dispatch(notificationFor("web-tier"))
	require.Equal(t, models.StatusQueued, result.Status)

	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for worker to process notification")
	}

	assert.Equal(t, 1, runner.count())

	d.Stop()
	d.Stop() // idempotent
}

func TestDispatchSkipsMissingCardInWorkerWhenCardRemovedAfterEnqueue(t *testing.T) {
	runner := newRecordingRunner(0)
	d := New([]models.IncidentCard{webTierCard()}, testSettings(), runner)
	delete(d.cardIndex, "web-tier")

	d.handleNotification(0, notificationFor("web-tier"))
	assert.Equal(t, 0, runner.count())
}
