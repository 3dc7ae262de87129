package web

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"crmdash/internal/access"
	"crmdash/internal/crmapi"
	"crmdash/internal/export"
	"crmdash/internal/filter"
	"crmdash/internal/forms"
	"crmdash/internal/models"
	"crmdash/internal/session"

	"github.com/gorilla/mux"
)

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

type clientListPage struct {
	Query   filter.PeopleQuery
	Facets  []filter.Facet
	Clients []models.Client
	Total   int
}

type clientDetailPage struct {
	Client       *models.Client
	Appointments []models.Appointment
}

type clientFormPage struct {
	ID       int64
	Form     forms.ClientForm
	Errors   forms.Errors
	Statuses []string
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewClients) {
		return
	}
	q := filter.ParseClientQuery(r.URL.Query())

	var all []models.Client
	page, err := s.gateway(r).ListClients(r.Context(), q.Params())
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
	} else {
		all = page.Results
	}
	list := filter.Clients(all, q.Search)

	if r.URL.Query().Get("export") == "xlsx" {
		s.sendXLSX(w, r, "clients", func(w io.Writer) error { return export.ClientsXLSX(w, list) })
		return
	}

	s.render(w, r, http.StatusOK, "clients_list.html", "Clients", clientListPage{
		Query:   q,
		Facets:  filter.ClientStatusFacets,
		Clients: list,
		Total:   len(all),
	})
}

func (s *Server) handleClientDetail(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewClients) {
		return
	}
	id := pathID(r)
	gw := s.gateway(r)

	c, err := gw.GetClient(r.Context(), id)
	if err != nil {
		if !s.handled(w, r, err) {
			s.failBack(w, r, err, "/clients")
		}
		return
	}

	var appts []models.Appointment
	page, err := gw.ListAppointments(r.Context(), url.Values{"client": {strconv.FormatInt(id, 10)}})
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
	} else {
		appts = page.Results
	}

	s.render(w, r, http.StatusOK, "client_detail.html", c.DisplayName(), clientDetailPage{Client: c, Appointments: appts})
}

func (s *Server) renderClientForm(w http.ResponseWriter, r *http.Request, status int, p clientFormPage) {
	p.Statuses = models.ClientStatuses
	title := "Add New Client"
	if p.ID != 0 {
		title = "Edit Client"
	}
	s.render(w, r, status, "client_form.html", title, p)
}

func (s *Server) handleClientNew(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CreateClient) {
		return
	}
	s.renderClientForm(w, r, http.StatusOK, clientFormPage{Form: forms.NewClientForm()})
}

func (s *Server) handleClientEdit(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditClient) {
		return
	}
	c, err := s.gateway(r).GetClient(r.Context(), pathID(r))
	if err != nil {
		if !s.handled(w, r, err) {
			s.failBack(w, r, err, "/clients")
		}
		return
	}
	s.renderClientForm(w, r, http.StatusOK, clientFormPage{ID: c.ID, Form: forms.ClientFormFrom(c)})
}

func (s *Server) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CreateClient) {
		return
	}
	s.saveClient(w, r, 0)
}

func (s *Server) handleClientUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditClient) {
		return
	}
	s.saveClient(w, r, pathID(r))
}

func (s *Server) saveClient(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Form error: "+err.Error(), http.StatusBadRequest)
		return
	}
	f := forms.ParseClientForm(r.PostForm)
	if errs := f.Validate(); errs.Any() {
		s.flash(r, session.KindError, f.FirstError(errs))
		s.renderClientForm(w, r, http.StatusUnprocessableEntity, clientFormPage{ID: id, Form: f, Errors: errs})
		return
	}

	var (
		c   *models.Client
		err error
		msg string
	)
	if id == 0 {
		c, err = s.people.CreateClient(r.Context(), s.gateway(r), actor(r), f.Payload())
		msg = "Client created successfully"
	} else {
		c, err = s.people.UpdateClient(r.Context(), s.gateway(r), actor(r), id, f.Payload())
		msg = "Client updated successfully"
	}
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
		s.renderClientForm(w, r, formStatus(err), clientFormPage{ID: id, Form: f, Errors: remoteErrors(err)})
		return
	}

	s.flash(r, session.KindSuccess, msg)
	s.redirect(w, r, "/clients/"+strconv.FormatInt(c.ID, 10))
}

func (s *Server) handleClientDelete(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.DeleteClient) {
		return
	}
	name := r.PostFormValue("name")
	if err := s.people.DeleteClient(r.Context(), s.gateway(r), actor(r), pathID(r), name); err != nil {
		s.failBack(w, r, err, "/clients")
		return
	}
	s.flash(r, session.KindSuccess, deletedMessage(name))
	s.redirect(w, r, "/clients")
}

func deletedMessage(name string) string {
	if name == "" {
		return "Deleted successfully"
	}
	return name + " has been deleted successfully"
}

// remoteErrors maps field errors from the remote service onto the form.
func remoteErrors(err error) forms.Errors {
	errs := forms.Errors{}
	var apiErr *crmapi.APIError
	if !errors.As(err, &apiErr) {
		return errs
	}
	for field := range apiErr.Fields {
		if msg := apiErr.FieldError(field); msg != "" {
			errs.Add(field, msg)
		}
	}
	return errs
}
