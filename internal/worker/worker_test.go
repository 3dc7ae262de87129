package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crmdash/internal/events"
	"crmdash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	records  []*models.Activity
}

func (s *fakeStore) Record(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("database is locked")
	}
	s.records = append(s.records, a)
	return nil
}

func (s *fakeStore) Recent(ctx context.Context, limit int) ([]*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, nil
}

func (s *fakeStore) snapshot() (int, []*models.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]*models.Activity(nil), s.records...)
}

var fastRetry = RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(0))
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, p.NextDelay(3))
	assert.Equal(t, time.Second, p.NextDelay(10))
}

func TestRetryPolicy_WaitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryPolicy{InitialDelay: time.Hour, MaxDelay: time.Hour}.wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActivityFromEvent(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	ev, err := events.NewJSONEvent(events.EventAppointmentCancelled, events.MutationPayload{
		Entity:    events.EntityAppointment,
		EntityID:  41,
		Label:     "Jane Doe",
		Detail:    "client asked to reschedule",
		ChangedBy: "ops",
		At:        at,
	})
	require.NoError(t, err)

	a, err := ActivityFromEvent(&ev)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", a.Action)
	assert.Equal(t, "ops", a.Username)
	assert.Equal(t, int64(41), a.EntityID)
	assert.Equal(t, "Jane Doe client asked to reschedule", a.Detail)
	assert.True(t, at.Equal(a.OccurredAt))
}

func TestActivityFromEvent_BadPayload(t *testing.T) {
	_, err := ActivityFromEvent(&events.Event{Type: events.EventClientCreated, Payload: []byte("{")})
	require.Error(t, err)
}

func TestActionName(t *testing.T) {
	assert.Equal(t, "status_changed", actionName(events.EventAppointmentStatusChanged, events.EntityAppointment))
	assert.Equal(t, "updated", actionName(events.EventClientUpdated, events.EntityClient))
}

func TestActivityWorker_RecordsPublishedEvents(t *testing.T) {
	store := &fakeStore{}
	w := NewActivityWorker(store, fastRetry, 0, nil)
	bus := events.NewEventBus()
	w.Subscribe(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventWorkerDeleted, events.MutationPayload{
		Entity: events.EntityWorker, EntityID: 5, ChangedBy: "admin",
	}))

	assert.Eventually(t, func() bool {
		_, recs := store.snapshot()
		return len(recs) == 1
	}, time.Second, 5*time.Millisecond)

	_, recs := store.snapshot()
	assert.Equal(t, "deleted", recs[0].Action)
	assert.Equal(t, events.EntityWorker, recs[0].Entity)
}

func TestActivityWorker_RetriesThenSucceeds(t *testing.T) {
	store := &fakeStore{failures: 2}
	w := NewActivityWorker(store, fastRetry, 0, nil)

	w.process(context.Background(), &models.Activity{Action: "created"})

	calls, recs := store.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, recs, 1)
}

func TestActivityWorker_DropsAfterMaxRetries(t *testing.T) {
	store := &fakeStore{failures: 10}
	w := NewActivityWorker(store, fastRetry, 0, nil)

	w.process(context.Background(), &models.Activity{Action: "created"})

	calls, recs := store.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, recs)
}

func TestActivityWorker_EnqueueFull(t *testing.T) {
	w := NewActivityWorker(&fakeStore{}, fastRetry, 1, nil)

	require.NoError(t, w.Enqueue(&models.Activity{}))
	assert.ErrorIs(t, w.Enqueue(&models.Activity{}), ErrQueueFull)
}

func TestActivityWorker_FlushesOnShutdown(t *testing.T) {
	store := &fakeStore{}
	w := NewActivityWorker(store, fastRetry, 4, nil)
	require.NoError(t, w.Enqueue(&models.Activity{Action: "a"}))
	require.NoError(t, w.Enqueue(&models.Activity{Action: "b"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	_, recs := store.snapshot()
	assert.Len(t, recs, 2)
}
