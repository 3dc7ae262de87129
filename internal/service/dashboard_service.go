package service

import (
	"context"
	"errors"

	"crmdash/internal/crmapi"
	"crmdash/internal/domain"
	"crmdash/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Dashboard is everything the landing page shows.
type Dashboard struct {
	Appointments models.AppointmentStats
	Clients      models.ClientStats
	Workers      models.WorkerStats
	Today        []models.Appointment
	Activity     []*models.Activity
	// Failed is set when the remote figures could not be loaded and zeros
	// are shown instead.
	Failed bool
}

type DashboardService struct {
	activity domain.ActivityLog
	logger   *zerolog.Logger
}

// NewDashboardService accepts a nil activity log.
func NewDashboardService(activity domain.ActivityLog, logger *zerolog.Logger) *DashboardService {
	return &DashboardService{activity: activity, logger: logger}
}

// Load fetches the three stats blocks and today's appointments in parallel.
// A failure of any fetch yields an all-zero dashboard; only an expired
// session is returned as an error so the caller can send the user to login.
func (s *DashboardService) Load(ctx context.Context, gw domain.Gateway) (*Dashboard, error) {
	var (
		apptStats   *models.AppointmentStats
		clientStats *models.ClientStats
		workerStats *models.WorkerStats
		today       []models.Appointment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		apptStats, err = gw.AppointmentStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		clientStats, err = gw.ClientStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		workerStats, err = gw.WorkerStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		today, err = gw.TodayAppointments(gctx)
		return err
	})

	d := &Dashboard{}
	if err := g.Wait(); err != nil {
		if errors.Is(err, crmapi.ErrSessionExpired) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("Failed to load dashboard data")
		d.Failed = true
	} else {
		if apptStats != nil {
			d.Appointments = *apptStats
		}
		if clientStats != nil {
			d.Clients = *clientStats
		}
		if workerStats != nil {
			d.Workers = *workerStats
		}
		d.Today = today
	}

	if s.activity != nil {
		recent, err := s.activity.Recent(ctx, models.RecentActivityLimit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to read recent activity")
		}
		d.Activity = recent
	}
	return d, nil
}
