package crmapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"crmdash/internal/models"
)

func (c *Conn) ListAppointments(ctx context.Context, params url.Values) (*models.Page[models.Appointment], error) {
	var page models.Page[models.Appointment]
	if err := c.do(ctx, http.MethodGet, "/appointments/", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Conn) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	var appt models.Appointment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/appointments/%d/", id), nil, nil, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *Conn) CreateAppointment(ctx context.Context, payload any) (*models.Appointment, error) {
	var appt models.Appointment
	if err := c.write(ctx, http.MethodPost, "/appointments/", payload, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *Conn) UpdateAppointment(ctx context.Context, id int64, payload any) (*models.Appointment, error) {
	var appt models.Appointment
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/appointments/%d/", id), payload, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *Conn) DeleteAppointment(ctx context.Context, id int64) error {
	return c.write(ctx, http.MethodDelete, fmt.Sprintf("/appointments/%d/", id), nil, nil)
}

func (c *Conn) TodayAppointments(ctx context.Context) ([]models.Appointment, error) {
	var page models.Page[models.Appointment]
	if err := c.do(ctx, http.MethodGet, "/appointments/today/", nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *Conn) UpcomingAppointments(ctx context.Context) ([]models.Appointment, error) {
	var page models.Page[models.Appointment]
	if err := c.do(ctx, http.MethodGet, "/appointments/upcoming/", nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *Conn) AppointmentStats(ctx context.Context) (*models.AppointmentStats, error) {
	var stats models.AppointmentStats
	if err := c.getStats(ctx, statsAppointments, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

type completeRequest struct {
	CompletionNotes string `json:"completion_notes,omitempty"`
}

type cancelRequest struct {
	Notes string `json:"notes,omitempty"`
}

// CompleteAppointment asks the remote service to mark the appointment done.
func (c *Conn) CompleteAppointment(ctx context.Context, id int64, completionNotes string) (*models.Appointment, error) {
	var appt models.Appointment
	body := completeRequest{CompletionNotes: completionNotes}
	if err := c.write(ctx, http.MethodPost, fmt.Sprintf("/appointments/%d/complete/", id), body, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// CancelAppointment asks the remote service to cancel, with an optional reason.
func (c *Conn) CancelAppointment(ctx context.Context, id int64, notes string) (*models.Appointment, error) {
	var appt models.Appointment
	body := cancelRequest{Notes: notes}
	if err := c.write(ctx, http.MethodPost, fmt.Sprintf("/appointments/%d/cancel/", id), body, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// CheckConflicts returns the remote service's view of clashes for a worker on
// date. The shape is owned by the remote service and passed through.
func (c *Conn) CheckConflicts(ctx context.Context, date string, workerID int64) (json.RawMessage, error) {
	var out json.RawMessage
	q := url.Values{"date": {date}, "worker_id": {strconv.FormatInt(workerID, 10)}}
	if err := c.do(ctx, http.MethodGet, "/appointments/conflicts/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
