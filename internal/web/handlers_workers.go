package web

import (
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
)

type workerListPage struct {
	Query   filter.PeopleQuery
	Facets  []filter.Facet
	Workers []models.ServiceWorker
	Total   int
}

type workerDetailPage struct {
	Worker       *models.ServiceWorker
	Appointments []models.Appointment
}

type workerFormPage struct {
	ID       int64
	Form     forms.WorkerForm
	Errors   forms.Errors
	Statuses []string
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewWorkers) {
		return
	}
	q := filter.ParseWorkerQuery(r.URL.Query())

	var all []models.ServiceWorker
	page, err := s.gateway(r).ListWorkers(r.Context(), q.Params())
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
	} else {
		all = page.Results
	}
	list := filter.Workers(all, q.Search)

	if r.URL.Query().Get("export") == "xlsx" {
		s.sendXLSX(w, r, "workers", func(w io.Writer) error { return export.WorkersXLSX(w, list) })
		return
	}

	s.render(w, r, http.StatusOK, "workers_list.html", "Service Workers", workerListPage{
		Query:   q,
		Facets:  filter.WorkerStatusFacets,
		Workers: list,
		Total:   len(all),
	})
}

func (s *Server) handleWorkerDetail(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewWorkers) {
		return
	}
	id := pathID(r)
	gw := s.gateway(r)

	wk, err := gw.GetWorker(r.Context(), id)
	if err != nil {
		if !s.handled(w, r, err) {
			s.failBack(w, r, err, "/workers")
		}
		return
	}

	var appts []models.Appointment
	page, err := gw.ListAppointments(r.Context(), url.Values{"worker": {strconv.FormatInt(id, 10)}})
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
	} else {
		appts = page.Results
	}

	s.render(w, r, http.StatusOK, "worker_detail.html", wk.DisplayName(), workerDetailPage{Worker: wk, Appointments: appts})
}

func (s *Server) renderWorkerForm(w http.ResponseWriter, r *http.Request, status int, p workerFormPage) {
	p.Statuses = models.WorkerStatuses
	title := "Add New Worker"
	if p.ID != 0 {
		title = "Edit Worker"
	}
	s.render(w, r, status, "worker_form.html", title, p)
}

func (s *Server) handleWorkerNew(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CreateWorker) {
		return
	}
	s.renderWorkerForm(w, r, http.StatusOK, workerFormPage{Form: forms.NewWorkerForm()})
}

func (s *Server) handleWorkerEdit(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditWorker) {
		return
	}
	wk, err := s.gateway(r).GetWorker(r.Context(), pathID(r))
	if err != nil {
		if !s.handled(w, r, err) {
			s.failBack(w, r, err, "/workers")
		}
		return
	}
	s.renderWorkerForm(w, r, http.StatusOK, workerFormPage{ID: wk.ID, Form: forms.WorkerFormFrom(wk)})
}

func (s *Server) handleWorkerCreate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CreateWorker) {
		return
	}
	s.saveWorker(w, r, 0)
}

func (s *Server) handleWorkerUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditWorker) {
		return
	}
	s.saveWorker(w, r, pathID(r))
}

func (s *Server) saveWorker(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Form error: "+err.Error(), http.StatusBadRequest)
		return
	}
	f := forms.ParseWorkerForm(r.PostForm)
	if errs := f.Validate(); errs.Any() {
		s.flash(r, session.KindError, f.FirstError(errs))
		s.renderWorkerForm(w, r, http.StatusUnprocessableEntity, workerFormPage{ID: id, Form: f, Errors: errs})
		return
	}

	var (
		wk  *models.ServiceWorker
		err error
		msg string
	)
	if id == 0 {
		wk, err = s.people.CreateWorker(r.Context(), s.gateway(r), actor(r), f.Payload())
		msg = "Worker created successfully"
	} else {
		wk, err = s.people.UpdateWorker(r.Context(), s.gateway(r), actor(r), id, f.Payload())
		msg = "Worker updated successfully"
	}
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
		s.renderWorkerForm(w, r, formStatus(err), workerFormPage{ID: id, Form: f, Errors: remoteErrors(err)})
		return
	}

	s.flash(r, session.KindSuccess, msg)
	s.redirect(w, r, "/workers/"+strconv.FormatInt(wk.ID, 10))
}

func (s *Server) handleWorkerDelete(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.DeleteWorker) {
		return
	}
	name := r.PostFormValue("name")
	if err := s.people.DeleteWorker(r.Context(), s.gateway(r), actor(r), pathID(r), name); err != nil {
		s.failBack(w, r, err, "/workers")
		return
	}
	s.flash(r, session.KindSuccess, deletedMessage(name))
	s.redirect(w, r, "/workers")
}

// handleWorkerAvailability passes the remote availability answer through
// unchanged for the appointment form.
func (s *Server) handleWorkerAvailability(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewWorkers) {
		return
	}
	raw, err := s.gateway(r).WorkerAvailability(r.Context(), pathID(r), r.URL.Query().Get("date"))
	if err != nil {
		s.jsonFailure(w, r, err)
		return
	}
	writeRawJSON(w, raw)
}
