package web

import (
	"net/http"
	"strings"

	"crmdash/internal/crmapi"
	"crmdash/internal/logging"
	"crmdash/internal/session"
)

type loginPage struct {
	Username string
	Next     string
	Error    string
	Notice   string
}

func (s *Server) setCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	page := loginPage{Next: safeRedirect(r.URL.Query().Get("next"), "")}
	if r.URL.Query().Get("expired") != "" {
		page.Notice = crmapi.Message(crmapi.ErrSessionExpired)
	}
	s.render(w, r, http.StatusOK, "login.html", "Sign in", page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.logger)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Form error: "+err.Error(), http.StatusBadRequest)
		return
	}
	page := loginPage{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Next:     safeRedirect(r.PostForm.Get("next"), ""),
	}
	password := r.PostForm.Get("password")

	if !s.limiter.Allow(r) {
		log.Warn().Str("ip", clientIP(r)).Msg("Login rate limit exceeded")
		page.Error = "Too many login attempts, please try again later"
		s.render(w, r, http.StatusTooManyRequests, "login.html", "Sign in", page)
		return
	}
	if page.Username == "" || password == "" {
		page.Error = "Please enter your username and password"
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Sign in", page)
		return
	}

	auth, err := s.auth.Login(r.Context(), page.Username, password)
	if err != nil {
		log.Info().Err(err).Str("username", page.Username).Msg("Login failed")
		page.Error = crmapi.Message(err)
		s.render(w, r, http.StatusUnauthorized, "login.html", "Sign in", page)
		return
	}

	// A browser signing in again replaces its previous session.
	s.endSession(r)

	sess := session.New(auth, s.cfg.SessionTTL(), s.now())
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.internalError(w, r, err)
		return
	}
	sess.MarkClean()
	s.setCookie(w, sess)

	log.Info().Str("username", auth.User.Username).Str("role", string(sess.Role())).Msg("User signed in")
	http.Redirect(w, r, safeRedirect(page.Next, "/dashboard"), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.endSession(r)
	s.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
