// Package web is the dashboard's HTTP surface: server-rendered pages over
// the remote CRM, one browser session per signed-in user.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"crmdash/internal/config"
	"crmdash/internal/crmapi"
	"crmdash/internal/domain"
	"crmdash/internal/logging"
	"crmdash/internal/models"
	"crmdash/internal/service"

	"github.com/rs/zerolog"
)

// Authenticator exchanges credentials for tokens and binds a token holder to
// a gateway. crmapi.Client implements it through ClientAuth.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Gateway(holder crmapi.TokenHolder) domain.Gateway
}

// ClientAuth adapts crmapi.Client to Authenticator.
type ClientAuth struct {
	*crmapi.Client
}

func (c ClientAuth) Gateway(holder crmapi.TokenHolder) domain.Gateway {
	return c.Conn(holder)
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Config       *config.Config
	Auth         Authenticator
	Sessions     domain.SessionRepository
	Appointments *service.AppointmentService
	People       *service.PeopleService
	Dashboard    *service.DashboardService
	Ready        []ReadinessCheck
	Logger       *zerolog.Logger
}

type Server struct {
	cfg          *config.Config
	auth         Authenticator
	sessions     domain.SessionRepository
	appointments *service.AppointmentService
	people       *service.PeopleService
	dashboard    *service.DashboardService
	ready        []ReadinessCheck
	logger       *zerolog.Logger
	renderer     *renderer
	limiter      *loginLimiter
	loc          *time.Location
	now          func() time.Time

	server *http.Server
}

func NewServer(d Deps) (*Server, error) {
	if d.Config == nil || d.Auth == nil || d.Sessions == nil {
		return nil, fmt.Errorf("web: config, auth and sessions are required")
	}
	logger := logging.Component(d.Logger, "web")

	r, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:          d.Config,
		auth:         d.Auth,
		sessions:     d.Sessions,
		appointments: d.Appointments,
		people:       d.People,
		dashboard:    d.Dashboard,
		ready:        d.Ready,
		logger:       logger,
		renderer:     r,
		limiter:      newLoginLimiter(d.Config.LoginRateLimit),
		loc:          d.Config.Location(),
		now:          time.Now,
	}
	if s.appointments == nil {
		s.appointments = service.NewAppointmentService(nil, logger)
	}
	if s.people == nil {
		s.people = service.NewPeopleService(nil, logger)
	}
	if s.dashboard == nil {
		s.dashboard = service.NewDashboardService(nil, logger)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", d.Config.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Dashboard listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
