// Package worker moves audit trail writes off the request path. Mutation
// events are queued by the bus handler and written by a single goroutine
// with exponential backoff.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmdash/internal/domain"
	"crmdash/internal/events"
	"crmdash/internal/models"

	"github.com/rs/zerolog"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
	flushTimeout     = 3 * time.Second
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("activity queue full")

type ActivityWorker struct {
	store       domain.ActivityLog
	retryPolicy RetryPolicy
	queue       chan *models.Activity
	logger      *zerolog.Logger
}

func NewActivityWorker(store domain.ActivityLog, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *ActivityWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ActivityWorker{
		store:       store,
		retryPolicy: retry.withDefaults(),
		queue:       make(chan *models.Activity, queueSize),
		logger:      logger,
	}
}

// Subscribe queues every dashboard mutation published on bus.
func (w *ActivityWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(func(ev *events.Event) error {
		a, err := ActivityFromEvent(ev)
		if err != nil {
			return err
		}
		return w.Enqueue(a)
	}, events.AllTypes...)
}

// Enqueue never blocks the publisher.
func (w *ActivityWorker) Enqueue(a *models.Activity) error {
	select {
	case w.queue <- a:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start consumes the queue until ctx is done, then flushes what is left.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("activity worker started")
	defer w.logger.Info().Msg("activity worker stopped")

	for {
		select {
		case <-ctx.Done():
			w.flush()
			return
		case a := <-w.queue:
			w.process(ctx, a)
		}
	}
}

func (w *ActivityWorker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case a := <-w.queue:
			if err := w.write(ctx, a); err != nil {
				w.logger.Error().Err(err).Str("action", a.Action).Msg("activity lost on shutdown")
			}
		default:
			return
		}
	}
}

func (w *ActivityWorker) process(ctx context.Context, a *models.Activity) {
	var err error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		if err = w.write(ctx, a); err == nil {
			return
		}
		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		w.logger.Warn().Err(err).Int("attempt", attempt).Msg("activity write failed, retrying")
		if w.retryPolicy.wait(ctx, attempt) != nil {
			break
		}
	}
	w.logger.Error().Err(err).
		Str("entity", a.Entity).
		Int64("entity_id", a.EntityID).
		Str("action", a.Action).
		Msg("activity dropped")
}

func (w *ActivityWorker) write(ctx context.Context, a *models.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return w.store.Record(ctx, a)
}

// ActivityFromEvent turns a mutation event into an audit trail entry.
func ActivityFromEvent(ev *events.Event) (*models.Activity, error) {
	p, err := events.DecodeMutation(ev)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ev.Type, err)
	}
	at := p.At
	if at.IsZero() {
		at = ev.CreatedAt
	}
	detail := p.Label
	if p.Detail != "" {
		detail = strings.TrimSpace(detail + " " + p.Detail)
	}
	return &models.Activity{
		OccurredAt: at,
		Username:   p.ChangedBy,
		Action:     actionName(ev.Type, p.Entity),
		Entity:     p.Entity,
		EntityID:   p.EntityID,
		Detail:     detail,
	}, nil
}

// actionName turns "appointment_completed" into "completed".
func actionName(eventType, entity string) string {
	return strings.TrimPrefix(eventType, entity+"_")
}
