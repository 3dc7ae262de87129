package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"crmdash/internal/crmapi"
	"crmdash/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockActivity struct {
	mock.Mock
}

func (m *mockActivity) Record(ctx context.Context, a *models.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockActivity) Recent(ctx context.Context, limit int) ([]*models.Activity, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]*models.Activity)
	return list, args.Error(1)
}

func TestDashboardService_Load(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("all fetches succeed", func(t *testing.T) {
		gw := new(mockGateway)
		gw.On("AppointmentStats", mock.Anything).Return(&models.AppointmentStats{Total: 9, Today: 2}, nil)
		gw.On("ClientStats", mock.Anything).Return(&models.ClientStats{Total: 4, Potential: 1}, nil)
		gw.On("WorkerStats", mock.Anything).Return(&models.WorkerStats{Total: 3, OnLeave: 1}, nil)
		gw.On("TodayAppointments", mock.Anything).Return([]models.Appointment{{ID: 1}, {ID: 2}}, nil)

		act := new(mockActivity)
		act.On("Recent", ctx, models.RecentActivityLimit).Return([]*models.Activity{{ID: 1, Action: "created"}}, nil)

		d, err := NewDashboardService(act, &logger).Load(ctx, gw)
		require.NoError(t, err)
		assert.False(t, d.Failed)
		assert.Equal(t, 9, d.Appointments.Total)
		assert.Equal(t, 1, d.Clients.Potential)
		assert.Equal(t, 1, d.Workers.OnLeave)
		assert.Len(t, d.Today, 2)
		assert.Len(t, d.Activity, 1)
		gw.AssertExpectations(t)
	})

	t.Run("one failure zeroes everything", func(t *testing.T) {
		gw := new(mockGateway)
		gw.On("AppointmentStats", mock.Anything).Return(&models.AppointmentStats{Total: 9}, nil).Maybe()
		gw.On("ClientStats", mock.Anything).Return(nil, &crmapi.APIError{Status: 500}).Maybe()
		gw.On("WorkerStats", mock.Anything).Return(&models.WorkerStats{Total: 3}, nil).Maybe()
		gw.On("TodayAppointments", mock.Anything).Return([]models.Appointment{{ID: 1}}, nil).Maybe()

		d, err := NewDashboardService(nil, &logger).Load(ctx, gw)
		require.NoError(t, err)
		assert.True(t, d.Failed)
		assert.Zero(t, d.Appointments.Total)
		assert.Zero(t, d.Workers.Total)
		assert.Empty(t, d.Today)
	})

	t.Run("expired session is returned", func(t *testing.T) {
		gw := new(mockGateway)
		expired := fmt.Errorf("refresh: %w", crmapi.ErrSessionExpired)
		gw.On("AppointmentStats", mock.Anything).Return(nil, expired).Maybe()
		gw.On("ClientStats", mock.Anything).Return(nil, expired).Maybe()
		gw.On("WorkerStats", mock.Anything).Return(nil, expired).Maybe()
		gw.On("TodayAppointments", mock.Anything).Return(nil, expired).Maybe()

		d, err := NewDashboardService(nil, &logger).Load(ctx, gw)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, crmapi.ErrSessionExpired)
	})

	t.Run("activity failure is not fatal", func(t *testing.T) {
		gw := new(mockGateway)
		gw.On("AppointmentStats", mock.Anything).Return(&models.AppointmentStats{}, nil)
		gw.On("ClientStats", mock.Anything).Return(&models.ClientStats{}, nil)
		gw.On("WorkerStats", mock.Anything).Return(&models.WorkerStats{}, nil)
		gw.On("TodayAppointments", mock.Anything).Return([]models.Appointment{}, nil)

		act := new(mockActivity)
		act.On("Recent", ctx, models.RecentActivityLimit).Return(nil, errors.New("locked"))

		d, err := NewDashboardService(act, &logger).Load(ctx, gw)
		require.NoError(t, err)
		assert.False(t, d.Failed)
		assert.Nil(t, d.Activity)
	})
}
