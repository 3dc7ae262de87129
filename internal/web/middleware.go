package web

import (
	"context"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"crmdash/internal/logging"
	"crmdash/internal/metrics"
	"crmdash/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey int

const sessionKey ctxKey = iota

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// requestLogger tags every request with a request id and logs it on the way
// out.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		l := s.logger.With().Str("request_id", id).Logger()
		r = r.WithContext(l.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := l.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(r.Context(), s.logger).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.IncHTTP(route, rec.status)
	})
}

// sessionMiddleware attaches the browser's session, if any, to the context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.cfg.Session.CookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.sessions.Get(r.Context(), c.Value)
		if err != nil {
			logging.FromContext(r.Context(), s.logger).Error().Err(err).Msg("Failed to load session")
		}
		if sess == nil {
			s.clearCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		l := logging.FromContext(r.Context(), s.logger).With().Str("user", sess.User.Username).Logger()
		ctx := context.WithValue(l.WithContext(r.Context()), sessionKey, sess)
		r = r.WithContext(ctx)

		sw := &savingWriter{ResponseWriter: w, save: func() { s.persist(r) }}
		next.ServeHTTP(sw, r)
		s.persist(r)
	})
}

// savingWriter stores a changed session right before the response starts,
// whichever handler path produced it. Refreshed tokens and queued flashes
// depend on it.
type savingWriter struct {
	http.ResponseWriter
	save    func()
	started bool
}

func (w *savingWriter) WriteHeader(status int) {
	if !w.started {
		w.started = true
		w.save()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *savingWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// requireAuth sends anonymous browsers to the login page and anonymous JSON
// callers a 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if wantsJSON(r) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		target := "/login"
		if r.Method == http.MethodGet && r.URL.Path != "/" {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasSuffix(r.URL.Path, "/conflicts") ||
		strings.HasSuffix(r.URL.Path, "/availability")
}

// safeRedirect accepts only same-site absolute paths.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
