package service

import (
	"context"
	"fmt"

	"crmdash/internal/domain"
	"crmdash/internal/events"
	"crmdash/internal/filter"
	"crmdash/internal/models"

	"github.com/rs/zerolog"
)

type AppointmentService struct {
	notifier
}

func NewAppointmentService(bus domain.EventPublisher, logger *zerolog.Logger) *AppointmentService {
	return &AppointmentService{notifier: newNotifier(bus, logger)}
}

// List loads the appointments for the page's date facet. The text search is
// applied by the caller.
func (s *AppointmentService) List(ctx context.Context, gw domain.Gateway, q filter.AppointmentQuery) ([]models.Appointment, error) {
	switch q.Source() {
	case filter.SourceToday:
		return gw.TodayAppointments(ctx)
	case filter.SourceUpcoming:
		return gw.UpcomingAppointments(ctx)
	default:
		page, err := gw.ListAppointments(ctx, q.Params())
		if err != nil {
			return nil, err
		}
		return page.Results, nil
	}
}

func (s *AppointmentService) Create(ctx context.Context, gw domain.Gateway, actor Actor, payload any) (*models.Appointment, error) {
	a, err := gw.CreateAppointment(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventAppointmentCreated, actor, appointmentPayload(a, ""))
	return a, nil
}

func (s *AppointmentService) Update(ctx context.Context, gw domain.Gateway, actor Actor, id int64, payload any) (*models.Appointment, error) {
	a, err := gw.UpdateAppointment(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventAppointmentUpdated, actor, appointmentPayload(a, ""))
	return a, nil
}

func (s *AppointmentService) Delete(ctx context.Context, gw domain.Gateway, actor Actor, id int64, label string) error {
	if err := gw.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.publish(events.EventAppointmentDeleted, actor, events.MutationPayload{
		Entity:   events.EntityAppointment,
		EntityID: id,
		Label:    label,
	})
	return nil
}

func (s *AppointmentService) Complete(ctx context.Context, gw domain.Gateway, actor Actor, id int64, notes string) (*models.Appointment, error) {
	a, err := gw.CompleteAppointment(ctx, id, notes)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventAppointmentCompleted, actor, appointmentPayload(a, notes))
	return a, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, gw domain.Gateway, actor Actor, id int64, reason string) (*models.Appointment, error) {
	a, err := gw.CancelAppointment(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	s.publish(events.EventAppointmentCancelled, actor, appointmentPayload(a, reason))
	return a, nil
}

// ChangeStatus routes a status pick to the matching remote action. Completed
// and cancelled have their own endpoints; anything else is a plain PATCH.
// Transition rules are left to the remote service.
func (s *AppointmentService) ChangeStatus(ctx context.Context, gw domain.Gateway, actor Actor, id int64, status, reason string) (*models.Appointment, error) {
	switch status {
	case models.StatusCompleted:
		return s.Complete(ctx, gw, actor, id, reason)
	case models.StatusCancelled:
		return s.Cancel(ctx, gw, actor, id, reason)
	}
	if !models.IsAppointmentStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	a, err := gw.UpdateAppointment(ctx, id, map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	s.publish(events.EventAppointmentStatusChanged, actor, appointmentPayload(a, ""))
	return a, nil
}

func appointmentPayload(a *models.Appointment, detail string) events.MutationPayload {
	return events.MutationPayload{
		Entity:   events.EntityAppointment,
		EntityID: a.ID,
		Label:    a.ClientName,
		Status:   a.Status,
		Detail:   detail,
	}
}
