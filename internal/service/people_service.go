package service

import (
	"context"

	"crmdash/internal/domain"
	"crmdash/internal/events"
	"crmdash/internal/models"

	"github.com/rs/zerolog"
)

// PeopleService handles client and service worker records.
type PeopleService struct {
	notifier
}

func NewPeopleService(bus domain.EventPublisher, logger *zerolog.Logger) *PeopleService {
	return &PeopleService{notifier: newNotifier(bus, logger)}
}

func clientEvent(c *models.Client) events.MutationPayload {
	return events.MutationPayload{Entity: events.EntityClient, EntityID: c.ID, Label: c.DisplayName(), Status: c.Status}
}

func workerEvent(w *models.ServiceWorker) events.MutationPayload {
	return events.MutationPayload{Entity: events.EntityWorker, EntityID: w.ID, Label: w.DisplayName(), Status: w.Status}
}

func (s *PeopleService) CreateClient(ctx context.Context, gw domain.Gateway, actor Actor, payload any) (*models.Client, error) {
	c, err := gw.CreateClient(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventClientCreated, actor, clientEvent(c))
	return c, nil
}

func (s *PeopleService) UpdateClient(ctx context.Context, gw domain.Gateway, actor Actor, id int64, payload any) (*models.Client, error) {
	c, err := gw.UpdateClient(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventClientUpdated, actor, clientEvent(c))
	return c, nil
}

func (s *PeopleService) DeleteClient(ctx context.Context, gw domain.Gateway, actor Actor, id int64, label string) error {
	if err := gw.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.publish(events.EventClientDeleted, actor, events.MutationPayload{Entity: events.EntityClient, EntityID: id, Label: label})
	return nil
}

func (s *PeopleService) CreateWorker(ctx context.Context, gw domain.Gateway, actor Actor, payload any) (*models.ServiceWorker, error) {
	w, err := gw.CreateWorker(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventWorkerCreated, actor, workerEvent(w))
	return w, nil
}

func (s *PeopleService) UpdateWorker(ctx context.Context, gw domain.Gateway, actor Actor, id int64, payload any) (*models.ServiceWorker, error) {
	w, err := gw.UpdateWorker(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventWorkerUpdated, actor, workerEvent(w))
	return w, nil
}

func (s *PeopleService) DeleteWorker(ctx context.Context, gw domain.Gateway, actor Actor, id int64, label string) error {
	if err := gw.DeleteWorker(ctx, id); err != nil {
		return err
	}
	s.publish(events.EventWorkerDeleted, actor, events.MutationPayload{Entity: events.EntityWorker, EntityID: id, Label: label})
	return nil
}
