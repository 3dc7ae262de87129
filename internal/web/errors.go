package web

import (
	"errors"
	"net/http"

	"crmdash/internal/access"
	"crmdash/internal/crmapi"
	"crmdash/internal/logging"
	"crmdash/internal/session"
)

type errorPage struct {
	Status  int
	Heading string
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	s.render(w, r, status, "error.html", heading, errorPage{Status: status, Heading: heading, Message: message})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.renderError(w, r, http.StatusNotFound, "Not found", "The page you are looking for does not exist.")
}

func (s *Server) csrfFailed(w http.ResponseWriter, r *http.Request) {
	logging.FromContext(r.Context(), s.logger).Warn().Str("path", r.URL.Path).Msg("CSRF check failed")
	http.Error(w, "Forbidden - invalid or missing CSRF token", http.StatusForbidden)
}

// allow checks the action table and answers 403 when the role lacks it.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, action access.Action) bool {
	sess := sessionFrom(r.Context())
	if sess != nil && sess.Can(action) {
		return true
	}
	if wantsJSON(r) {
		writeError(w, http.StatusForbidden, "permission denied")
		return false
	}
	if sess != nil {
		sess.AddFlash(session.KindError, "You do not have permission to perform this action")
	}
	s.renderError(w, r, http.StatusForbidden, "Access denied", "Your role does not allow this action.")
	return false
}

// expired ends the session after the remote service refused to refresh it.
func (s *Server) expired(w http.ResponseWriter, r *http.Request) {
	s.endSession(r)
	s.clearCookie(w)
	if wantsJSON(r) {
		writeError(w, http.StatusUnauthorized, crmapi.Message(crmapi.ErrSessionExpired))
		return
	}
	http.Redirect(w, r, "/login?expired=1", http.StatusSeeOther)
}

// endSession deletes the request's session. It is marked clean so the
// response does not save it again.
func (s *Server) endSession(r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess == nil {
		return
	}
	sess.MarkClean()
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		logging.FromContext(r.Context(), s.logger).Error().Err(err).Msg("Failed to delete session")
	}
}

// handled deals with the error cases every handler shares. It returns true
// when a response was written.
func (s *Server) handled(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, crmapi.ErrSessionExpired):
		s.expired(w, r)
		return true
	case crmapi.IsNotFound(err):
		s.renderError(w, r, http.StatusNotFound, "Not found", crmapi.Message(err))
		return true
	}
	return false
}

// failBack flashes the error and returns the user to where they were.
func (s *Server) failBack(w http.ResponseWriter, r *http.Request, err error, back string) {
	if errors.Is(err, crmapi.ErrSessionExpired) {
		s.expired(w, r)
		return
	}
	logging.FromContext(r.Context(), s.logger).Warn().Err(err).Str("path", r.URL.Path).Msg("Remote action failed")
	s.flash(r, session.KindError, crmapi.Message(err))
	s.redirect(w, r, safeRedirect(r.PostFormValue("return_to"), back))
}

func (s *Server) flash(r *http.Request, kind, msg string) {
	if sess := sessionFrom(r.Context()); sess != nil {
		sess.AddFlash(kind, msg)
	}
}

// formStatus is the status of a form re-rendered after a remote failure.
func formStatus(err error) int {
	var apiErr *crmapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// jsonFailure answers a JSON endpoint whose remote call failed.
func (s *Server) jsonFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, crmapi.ErrSessionExpired) {
		s.expired(w, r)
		return
	}
	status := http.StatusBadGateway
	var apiErr *crmapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		status = apiErr.Status
	}
	writeError(w, status, crmapi.Message(err))
}
