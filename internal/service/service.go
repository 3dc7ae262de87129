// Package service runs the dashboard's mutations against the remote CRM and
// announces each successful one on the event bus.
package service

import (
	"time"

	"crmdash/internal/domain"
	"crmdash/internal/events"

	"github.com/rs/zerolog"
)

// Actor identifies who made a change, for the audit trail.
type Actor struct {
	Username string
}

type notifier struct {
	bus    domain.EventPublisher
	logger *zerolog.Logger
	now    func() time.Time
}

func newNotifier(bus domain.EventPublisher, logger *zerolog.Logger) notifier {
	return notifier{bus: bus, logger: logger, now: time.Now}
}

// publish never fails the caller: the remote change already happened.
func (n notifier) publish(eventType string, actor Actor, p events.MutationPayload) {
	if n.bus == nil {
		return
	}
	p.ChangedBy = actor.Username
	if p.At.IsZero() {
		p.At = n.now()
	}
	if err := n.bus.PublishJSON(eventType, p); err != nil {
		n.logger.Error().Err(err).Str("event", eventType).Int64("entity_id", p.EntityID).Msg("Failed to publish event")
	}
}
