package service

import (
	"context"
	"encoding/json"
	"net/url"

	"crmdash/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func ptrOrNil[T any](args mock.Arguments) *T {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*T)
}

func (m *mockGateway) ListClients(ctx context.Context, p url.Values) (*models.Page[models.Client], error) {
	args := m.Called(ctx, p)
	return ptrOrNil[models.Page[models.Client]](args), args.Error(1)
}
func (m *mockGateway) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	return ptrOrNil[models.Client](args), args.Error(1)
}
func (m *mockGateway) CreateClient(ctx context.Context, payload any) (*models.Client, error) {
	args := m.Called(ctx, payload)
	return ptrOrNil[models.Client](args), args.Error(1)
}
func (m *mockGateway) UpdateClient(ctx context.Context, id int64, payload any) (*models.Client, error) {
	args := m.Called(ctx, id, payload)
	return ptrOrNil[models.Client](args), args.Error(1)
}
func (m *mockGateway) DeleteClient(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockGateway) ClientStats(ctx context.Context) (*models.ClientStats, error) {
	args := m.Called(ctx)
	return ptrOrNil[models.ClientStats](args), args.Error(1)
}

func (m *mockGateway) ListWorkers(ctx context.Context, p url.Values) (*models.Page[models.ServiceWorker], error) {
	args := m.Called(ctx, p)
	return ptrOrNil[models.Page[models.ServiceWorker]](args), args.Error(1)
}
func (m *mockGateway) GetWorker(ctx context.Context, id int64) (*models.ServiceWorker, error) {
	args := m.Called(ctx, id)
	return ptrOrNil[models.ServiceWorker](args), args.Error(1)
}
func (m *mockGateway) CreateWorker(ctx context.Context, payload any) (*models.ServiceWorker, error) {
	args := m.Called(ctx, payload)
	return ptrOrNil[models.ServiceWorker](args), args.Error(1)
}
func (m *mockGateway) UpdateWorker(ctx context.Context, id int64, payload any) (*models.ServiceWorker, error) {
	args := m.Called(ctx, id, payload)
	return ptrOrNil[models.ServiceWorker](args), args.Error(1)
}
func (m *mockGateway) DeleteWorker(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockGateway) WorkerStats(ctx context.Context) (*models.WorkerStats, error) {
	args := m.Called(ctx)
	return ptrOrNil[models.WorkerStats](args), args.Error(1)
}
func (m *mockGateway) WorkerAvailability(ctx context.Context, id int64, date string) (json.RawMessage, error) {
	args := m.Called(ctx, id, date)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockGateway) ListAppointments(ctx context.Context, p url.Values) (*models.Page[models.Appointment], error) {
	args := m.Called(ctx, p)
	return ptrOrNil[models.Page[models.Appointment]](args), args.Error(1)
}
func (m *mockGateway) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	return ptrOrNil[models.Appointment](args), args.Error(1)
}
func (m *mockGateway) CreateAppointment(ctx context.Context, payload any) (*models.Appointment, error) {
	args := m.Called(ctx, payload)
	return ptrOrNil[models.Appointment](args), args.Error(1)
}
func (m *mockGateway) UpdateAppointment(ctx context.Context, id int64, payload any) (*models.Appointment, error) {
	args := m.Called(ctx, id, payload)
	return ptrOrNil[models.Appointment](args), args.Error(1)
}
func (m *mockGateway) DeleteAppointment(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockGateway) TodayAppointments(ctx context.Context) ([]models.Appointment, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Appointment)
	return list, args.Error(1)
}
func (m *mockGateway) UpcomingAppointments(ctx context.Context) ([]models.Appointment, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Appointment)
	return list, args.Error(1)
}
func (m *mockGateway) AppointmentStats(ctx context.Context) (*models.AppointmentStats, error) {
	args := m.Called(ctx)
	return ptrOrNil[models.AppointmentStats](args), args.Error(1)
}
func (m *mockGateway) CompleteAppointment(ctx context.Context, id int64, notes string) (*models.Appointment, error) {
	args := m.Called(ctx, id, notes)
	return ptrOrNil[models.Appointment](args), args.Error(1)
}
func (m *mockGateway) CancelAppointment(ctx context.Context, id int64, notes string) (*models.Appointment, error) {
	args := m.Called(ctx, id, notes)
	return ptrOrNil[models.Appointment](args), args.Error(1)
}
func (m *mockGateway) CheckConflicts(ctx context.Context, date string, workerID int64) (json.RawMessage, error) {
	args := m.Called(ctx, date, workerID)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}
