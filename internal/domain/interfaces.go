package domain

import (
	"context"
	"encoding/json"
	"net/url"

	"crmdash/internal/models"
	"crmdash/internal/session"
)

// Gateway is the remote CRM service as seen through one user's session.
// crmapi.Conn implements it.
type Gateway interface {
	ListClients(ctx context.Context, params url.Values) (*models.Page[models.Client], error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	CreateClient(ctx context.Context, payload any) (*models.Client, error)
	UpdateClient(ctx context.Context, id int64, payload any) (*models.Client, error)
	DeleteClient(ctx context.Context, id int64) error
	ClientStats(ctx context.Context) (*models.ClientStats, error)

	ListWorkers(ctx context.Context, params url.Values) (*models.Page[models.ServiceWorker], error)
	GetWorker(ctx context.Context, id int64) (*models.ServiceWorker, error)
	CreateWorker(ctx context.Context, payload any) (*models.ServiceWorker, error)
	UpdateWorker(ctx context.Context, id int64, payload any) (*models.ServiceWorker, error)
	DeleteWorker(ctx context.Context, id int64) error
	WorkerStats(ctx context.Context) (*models.WorkerStats, error)
	WorkerAvailability(ctx context.Context, id int64, date string) (json.RawMessage, error)

	ListAppointments(ctx context.Context, params url.Values) (*models.Page[models.Appointment], error)
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, payload any) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, payload any) (*models.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	TodayAppointments(ctx context.Context) ([]models.Appointment, error)
	UpcomingAppointments(ctx context.Context) ([]models.Appointment, error)
	AppointmentStats(ctx context.Context) (*models.AppointmentStats, error)
	CompleteAppointment(ctx context.Context, id int64, completionNotes string) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, id int64, notes string) (*models.Appointment, error)
	CheckConflicts(ctx context.Context, date string, workerID int64) (json.RawMessage, error)
}

// SessionRepository persists browser sessions. Get returns nil, nil when the
// id is unknown or expired.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ActivityLog is the local audit trail of dashboard mutations.
type ActivityLog interface {
	Record(ctx context.Context, entry *models.Activity) error
	Recent(ctx context.Context, limit int) ([]*models.Activity, error)
}
