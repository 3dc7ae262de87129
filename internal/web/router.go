package web

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
)

// Handler builds the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	r.Use(s.metricsMiddleware)
	r.Use(s.sessionMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(s.staticHandler())

	r.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	app := r.NewRoute().Subrouter()
	app.Use(s.requireAuth)

	app.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	app.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	app.HandleFunc("/clients", s.handleClients).Methods(http.MethodGet)
	app.HandleFunc("/clients", s.handleClientCreate).Methods(http.MethodPost)
	app.HandleFunc("/clients/new", s.handleClientNew).Methods(http.MethodGet)
	app.HandleFunc("/clients/{id:[0-9]+}", s.handleClientDetail).Methods(http.MethodGet)
	app.HandleFunc("/clients/{id:[0-9]+}", s.handleClientUpdate).Methods(http.MethodPost)
	app.HandleFunc("/clients/{id:[0-9]+}/edit", s.handleClientEdit).Methods(http.MethodGet)
	app.HandleFunc("/clients/{id:[0-9]+}/delete", s.handleClientDelete).Methods(http.MethodPost)

	app.HandleFunc("/workers", s.handleWorkers).Methods(http.MethodGet)
	app.HandleFunc("/workers", s.handleWorkerCreate).Methods(http.MethodPost)
	app.HandleFunc("/workers/new", s.handleWorkerNew).Methods(http.MethodGet)
	app.HandleFunc("/workers/{id:[0-9]+}", s.handleWorkerDetail).Methods(http.MethodGet)
	app.HandleFunc("/workers/{id:[0-9]+}", s.handleWorkerUpdate).Methods(http.MethodPost)
	app.HandleFunc("/workers/{id:[0-9]+}/edit", s.handleWorkerEdit).Methods(http.MethodGet)
	app.HandleFunc("/workers/{id:[0-9]+}/delete", s.handleWorkerDelete).Methods(http.MethodPost)
	app.HandleFunc("/workers/{id:[0-9]+}/availability", s.handleWorkerAvailability).Methods(http.MethodGet)

	app.HandleFunc("/appointments", s.handleAppointments).Methods(http.MethodGet)
	app.HandleFunc("/appointments", s.handleAppointmentCreate).Methods(http.MethodPost)
	app.HandleFunc("/appointments/new", s.handleAppointmentNew).Methods(http.MethodGet)
	app.HandleFunc("/appointments/conflicts", s.handleConflicts).Methods(http.MethodGet)
	app.HandleFunc("/appointments/{id:[0-9]+}", s.handleAppointmentDetail).Methods(http.MethodGet)
	app.HandleFunc("/appointments/{id:[0-9]+}", s.handleAppointmentUpdate).Methods(http.MethodPost)
	app.HandleFunc("/appointments/{id:[0-9]+}/edit", s.handleAppointmentEdit).Methods(http.MethodGet)
	app.HandleFunc("/appointments/{id:[0-9]+}/status", s.handleAppointmentStatus).Methods(http.MethodPost)
	app.HandleFunc("/appointments/{id:[0-9]+}/complete", s.handleAppointmentComplete).Methods(http.MethodPost)
	app.HandleFunc("/appointments/{id:[0-9]+}/cancel", s.handleAppointmentCancel).Methods(http.MethodPost)
	app.HandleFunc("/appointments/{id:[0-9]+}/delete", s.handleAppointmentDelete).Methods(http.MethodPost)

	var h http.Handler = r
	if key := s.cfg.Server.CSRFKey; key != "" {
		protect := csrf.Protect([]byte(key),
			csrf.Secure(s.cfg.Server.SecureCookies),
			csrf.Path("/"),
			csrf.FieldName(csrfFieldName),
			csrf.ErrorHandler(http.HandlerFunc(s.csrfFailed)),
		)
		h = protect(h)
		if !s.cfg.Server.SecureCookies {
			h = plaintextHTTP(h)
		}
	}
	return s.requestLogger(s.recoverer(h))
}

func (s *Server) staticHandler() http.Handler {
	if dir := s.cfg.Server.StaticDir; dir != "" {
		return http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	}
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// plaintextHTTP tells the CSRF middleware the dashboard is served without
// TLS, so it skips the HTTPS-only referer check.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
