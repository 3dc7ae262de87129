package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"crmdash/internal/access"
	"crmdash/internal/crmapi"
	"crmdash/internal/export"
	"crmdash/internal/filter"
	"crmdash/internal/forms"
	"crmdash/internal/logging"
	"crmdash/internal/models"
	"crmdash/internal/service"
	"crmdash/internal/session"

	"golang.org/x/sync/errgroup"
)

type appointmentListPage struct {
	Query        filter.AppointmentQuery
	StatusFacets []filter.Facet
	DateFacets   []filter.Facet
	Appointments []models.Appointment
	Stats        filter.QuickStats
}

type appointmentDetailPage struct {
	Appointment *models.Appointment
	Statuses    []string
}

type appointmentFormPage struct {
	ID           int64
	Form         forms.AppointmentForm
	Errors       forms.Errors
	Clients      []models.Client
	Chosen       []models.ServiceWorker
	Options      []filter.WorkerOption
	WorkerSearch string
	Types        []string
	Statuses     []string

	fillLocation bool
}

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewAppointments) {
		return
	}
	q := filter.ParseAppointmentQuery(r.URL.Query())

	all, err := s.appointments.List(r.Context(), s.gateway(r), q)
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
	}
	list := filter.Appointments(all, q.Search)

	switch r.URL.Query().Get("export") {
	case "xlsx":
		s.sendXLSX(w, r, "appointments", func(w io.Writer) error { return export.AppointmentsXLSX(w, list) })
		return
	case "ics":
		name := export.Filename("appointments", "ics", s.now())
		s.sendFile(w, r, name, export.ContentTypeICS, func(w io.Writer) error {
			return export.AppointmentsICS(w, list, s.loc, r.Host, s.now())
		})
		return
	}

	s.render(w, r, http.StatusOK, "appointments_list.html", "Appointments", appointmentListPage{
		Query:        q,
		StatusFacets: filter.AppointmentStatusFacets,
		DateFacets:   filter.DateFacets,
		Appointments: list,
		Stats:        filter.Summarize(all),
	})
}

func (s *Server) handleAppointmentDetail(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewAppointments) {
		return
	}
	a, err := s.gateway(r).GetAppointment(r.Context(), pathID(r))
	if err != nil {
		if !s.handled(w, r, err) {
			s.failBack(w, r, err, "/appointments")
		}
		return
	}
	s.render(w, r, http.StatusOK, "appointment_detail.html", "Appointment Details", appointmentDetailPage{
		Appointment: a,
		Statuses:    models.AppointmentStatuses,
	})
}

// pickerData loads the clients and workers the appointment form chooses from.
func (s *Server) pickerData(r *http.Request) ([]models.Client, []models.ServiceWorker, error) {
	var (
		clients []models.Client
		workers []models.ServiceWorker
	)
	gw := s.gateway(r)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		page, err := gw.ListClients(ctx, nil)
		if err == nil {
			clients = page.Results
		}
		return err
	})
	g.Go(func() error {
		page, err := gw.ListWorkers(ctx, nil)
		if err == nil {
			workers = page.Results
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clients, workers, nil
}

func (s *Server) renderAppointmentForm(w http.ResponseWriter, r *http.Request, status int, p appointmentFormPage) {
	clients, workers, err := s.pickerData(r)
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		logging.FromContext(r.Context(), s.logger).Warn().Err(err).Msg("Failed to load clients and workers")
		s.flash(r, session.KindError, "Failed to load clients and workers")
	}
	p.Clients = clients
	if p.fillLocation {
		p.Form.FillLocation(clients)
	}
	p.Chosen = p.Form.Workers.Chosen(workers)
	p.Options = p.Form.Workers.Options(workers, p.WorkerSearch)
	p.Types = models.AppointmentTypes
	p.Statuses = models.AppointmentStatuses

	title := "New Appointment"
	if p.ID != 0 {
		title = "Edit Appointment"
	}
	s.render(w, r, status, "appointment_form.html", title, p)
}

func (s *Server) handleAppointmentNew(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CreateAppointment) {
		return
	}
	f := forms.NewAppointmentForm()
	if id, err := strconv.ParseInt(r.URL.Query().Get("client"), 10, 64); err == nil && id > 0 {
		f.Client = id
	}
	if d := r.URL.Query().Get("date"); d != "" {
		f.ScheduledDate = d
	}
	s.renderAppointmentForm(w, r, http.StatusOK, appointmentFormPage{Form: f})
}

func (s *Server) handleAppointmentEdit(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditAppointment) {
		return
	}
	a, err := s.gateway(r).GetAppointment(r.Context(), pathID(r))
	if err != nil {
		if !s.handled(w, r, err) {
			s.failBack(w, r, err, "/appointments")
		}
		return
	}
	s.renderAppointmentForm(w, r, http.StatusOK, appointmentFormPage{ID: a.ID, Form: forms.AppointmentFormFrom(a)})
}

func (s *Server) handleAppointmentCreate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CreateAppointment) {
		return
	}
	s.saveAppointment(w, r, 0)
}

func (s *Server) handleAppointmentUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditAppointment) {
		return
	}
	s.saveAppointment(w, r, pathID(r))
}

func (s *Server) saveAppointment(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Form error: "+err.Error(), http.StatusBadRequest)
		return
	}
	f := forms.ParseAppointmentForm(r.PostForm)
	page := appointmentFormPage{ID: id, Form: f, WorkerSearch: r.PostForm.Get("worker_search")}

	if forms.PickerAction(r.PostForm) {
		page.fillLocation = true
		s.renderAppointmentForm(w, r, http.StatusOK, page)
		return
	}
	if page.Form.Location == "" && page.Form.Client != forms.NoClient {
		if c, err := s.gateway(r).GetClient(r.Context(), page.Form.Client); err == nil {
			page.Form.FillLocation([]models.Client{*c})
		}
	}

	if errs := page.Form.Validate(); errs.Any() {
		s.flash(r, session.KindError, page.Form.FirstError(errs))
		page.Errors = errs
		s.renderAppointmentForm(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	var (
		a   *models.Appointment
		err error
		msg string
	)
	if id == 0 {
		a, err = s.appointments.Create(r.Context(), s.gateway(r), actor(r), page.Form.Payload())
		msg = "Appointment created successfully"
	} else {
		a, err = s.appointments.Update(r.Context(), s.gateway(r), actor(r), id, page.Form.Payload())
		msg = "Appointment updated successfully"
	}
	if err != nil {
		if s.handled(w, r, err) {
			return
		}
		s.flash(r, session.KindError, crmapi.Message(err))
		page.Errors = remoteErrors(err)
		s.renderAppointmentForm(w, r, formStatus(err), page)
		return
	}

	s.flash(r, session.KindSuccess, msg)
	s.redirect(w, r, "/appointments/"+strconv.FormatInt(a.ID, 10))
}

func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.EditAppointment) {
		return
	}
	id := pathID(r)
	back := "/appointments/" + strconv.FormatInt(id, 10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Form error: "+err.Error(), http.StatusBadRequest)
		return
	}
	f := forms.ParseStatusForm(r.PostForm)

	_, err := s.appointments.ChangeStatus(r.Context(), s.gateway(r), actor(r), id, f.Status, f.Reason)
	if errors.Is(err, service.ErrUnknownStatus) {
		s.flash(r, session.KindError, "Unknown appointment status")
		s.redirect(w, r, safeRedirect(r.PostFormValue("return_to"), back))
		return
	}
	if err != nil {
		s.failBack(w, r, err, back)
		return
	}
	s.flash(r, session.KindSuccess, "Status updated successfully")
	s.redirect(w, r, safeRedirect(r.PostFormValue("return_to"), back))
}

func (s *Server) handleAppointmentComplete(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CompleteAppointment) {
		return
	}
	id := pathID(r)
	back := "/appointments/" + strconv.FormatInt(id, 10)
	if _, err := s.appointments.Complete(r.Context(), s.gateway(r), actor(r), id, r.PostFormValue("completion_notes")); err != nil {
		s.failBack(w, r, err, back)
		return
	}
	s.flash(r, session.KindSuccess, "Appointment marked as completed")
	s.redirect(w, r, safeRedirect(r.PostFormValue("return_to"), back))
}

func (s *Server) handleAppointmentCancel(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.CancelAppointment) {
		return
	}
	id := pathID(r)
	back := "/appointments/" + strconv.FormatInt(id, 10)
	if _, err := s.appointments.Cancel(r.Context(), s.gateway(r), actor(r), id, r.PostFormValue("reason")); err != nil {
		s.failBack(w, r, err, back)
		return
	}
	s.flash(r, session.KindSuccess, "Appointment cancelled")
	s.redirect(w, r, safeRedirect(r.PostFormValue("return_to"), back))
}

func (s *Server) handleAppointmentDelete(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.DeleteAppointment) {
		return
	}
	if err := s.appointments.Delete(r.Context(), s.gateway(r), actor(r), pathID(r), r.PostFormValue("name")); err != nil {
		s.failBack(w, r, err, "/appointments")
		return
	}
	s.flash(r, session.KindSuccess, "Appointment deleted successfully")
	s.redirect(w, r, "/appointments")
}

// handleConflicts passes the remote conflict check through for the form.
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, access.ViewAppointments) {
		return
	}
	date := r.URL.Query().Get("date")
	workerID, err := strconv.ParseInt(r.URL.Query().Get("worker_id"), 10, 64)
	if date == "" || err != nil || workerID <= 0 {
		writeError(w, http.StatusBadRequest, "date and worker_id are required")
		return
	}
	raw, err := s.gateway(r).CheckConflicts(r.Context(), date, workerID)
	if err != nil {
		s.jsonFailure(w, r, err)
		return
	}
	writeRawJSON(w, raw)
}
