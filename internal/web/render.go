package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"crmdash/internal/access"
	"crmdash/internal/logging"
	"crmdash/internal/models"
	"crmdash/internal/session"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const csrfFieldName = "csrf_token"

// Raw HTML in notes is escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var statusClasses = map[string]string{
	models.StatusScheduled:  "badge-blue",
	models.StatusInProgress: "badge-amber",
	models.StatusCompleted:  "badge-green",
	models.StatusCancelled:  "badge-red",
	models.StatusNoShow:     "badge-grey",
	models.ClientActive:     "badge-green",
	models.ClientInactive:   "badge-grey",
	models.ClientPotential:  "badge-blue",
	models.WorkerOnLeave:    "badge-amber",
}

var funcs = template.FuncMap{
	"markdown":    renderMarkdown,
	"statusLabel": models.StatusLabel,
	"typeLabel":   models.TypeLabel,
	"statusClass": func(s string) string {
		if c, ok := statusClasses[s]; ok {
			return c
		}
		return "badge-grey"
	},
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"formatDateTime": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"longDate": func(s string) string {
		t, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return s
		}
		return t.Format("Monday, January 2, 2006")
	},
	"join": strings.Join,
}

type renderer struct {
	pages map[string]*template.Template
}

// newRenderer parses every page once together with the layout.
func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		page := strings.TrimPrefix(name, "templates/")
		if page == "layout.html" {
			continue
		}
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = tpl
	}
	return r, nil
}

// View is what every page template receives.
type View struct {
	Title     string
	Nav       string
	User      *models.User
	CSRFField template.HTML
	CSRFToken string
	Flash     []session.Notification
	Data      any

	role access.Role
}

func (v *View) Can(action string) bool {
	if v.User == nil {
		return false
	}
	return access.Can(v.role, access.Action(action))
}

func (v *View) Allows(perm string) bool {
	if v.User == nil {
		return false
	}
	return access.Allows(v.role, access.Permission(perm))
}

func (v *View) RoleName() string {
	switch v.role {
	case access.RoleAdmin:
		return "Admin"
	case access.RoleStaffViewer:
		return "Staff"
	default:
		return ""
	}
}

// render executes page into a buffer and writes the response. Flash messages
// queued before the call are shown and consumed.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	v := &View{
		Title:     title,
		Nav:       navFor(r.URL.Path),
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Data:      data,
	}
	if sess := sessionFrom(r.Context()); sess != nil {
		u := sess.User
		v.User = &u
		v.role = sess.Role()
		v.Flash = sess.PopFlash()
	}

	tpl, ok := s.renderer.pages[page]
	if !ok {
		s.internalError(w, r, fmt.Errorf("unknown template %s", page))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		s.internalError(w, r, fmt.Errorf("render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func navFor(path string) string {
	for _, section := range []string{"clients", "workers", "appointments"} {
		if strings.HasPrefix(path, "/"+section) {
			return section
		}
	}
	return "dashboard"
}

// persist saves the request's session when it changed. The save outlives a
// client that hung up, since the remote may already have rotated the tokens.
func (s *Server) persist(r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess == nil || !sess.Dirty() {
		return
	}
	if err := s.sessions.Save(context.WithoutCancel(r.Context()), sess); err != nil {
		logging.FromContext(r.Context(), s.logger).Error().Err(err).Msg("Failed to save session")
		return
	}
	sess.MarkClean()
}

// redirect answers 303, so a POST is never replayed.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// internalError logs the real error and returns a generic message.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), s.logger).Error().Err(err).Msg("internal error")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeRawJSON(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
