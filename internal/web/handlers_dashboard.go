package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crmdash/internal/crmapi"
	"crmdash/internal/domain"
	"crmdash/internal/service"
	"crmdash/internal/session"
)

func (s *Server) gateway(r *http.Request) domain.Gateway {
	return s.auth.Gateway(sessionFrom(r.Context()))
}

func actor(r *http.Request) service.Actor {
	if sess := sessionFrom(r.Context()); sess != nil {
		return service.Actor{Username: sess.User.Username}
	}
	return service.Actor{}
}

type dashboardPage struct {
	*service.Dashboard
	Greeting string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Load(r.Context(), s.gateway(r))
	if errors.Is(err, crmapi.ErrSessionExpired) {
		s.expired(w, r)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if d.Failed {
		s.flash(r, session.KindError, "Failed to load dashboard data")
	}

	sess := sessionFrom(r.Context())
	s.render(w, r, http.StatusOK, "dashboard.html", "Dashboard", dashboardPage{
		Dashboard: d,
		Greeting:  sess.User.DisplayName(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

const readyTimeout = 2 * time.Second

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(s.ready))
	status := http.StatusOK
	for _, c := range s.ready {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}
