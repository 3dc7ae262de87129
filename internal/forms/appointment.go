package forms

import (
	"fmt"
	"net/url"
	"time"

	"crmdash/internal/filter"
	"crmdash/internal/models"
)

// NoClient is the client value of a form where nothing is picked yet.
const NoClient int64 = -1

const (
	MsgSelectClient  = "Please select a client"
	MsgSelectWorkers = "Please select at least one service worker"
	MsgDateTime      = "Please select date and time"
)

type AppointmentForm struct {
	Client          int64
	Workers         filter.WorkerSelection
	AppointmentType string
	Status          string
	ScheduledDate   string
	ScheduledTime   string
	DurationMinutes int
	Location        string
	Description     string
	Notes           string
}

// AppointmentPayload is the body of appointment create and update requests.
type AppointmentPayload struct {
	Client          int64   `json:"client"`
	ServiceWorkers  []int64 `json:"service_workers"`
	AppointmentType string  `json:"appointment_type"`
	Status          string  `json:"status"`
	ScheduledDate   string  `json:"scheduled_date"`
	ScheduledTime   string  `json:"scheduled_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Location        string  `json:"location"`
	Description     string  `json:"description"`
	Notes           string  `json:"notes"`
}

var appointmentFieldOrder = []string{"client", "service_workers", "scheduled_date", "duration_minutes", "appointment_type", "status"}

func NewAppointmentForm() AppointmentForm {
	return AppointmentForm{
		Client:          NoClient,
		AppointmentType: models.TypeService,
		Status:          models.StatusScheduled,
		DurationMinutes: models.DefaultDurationMinutes,
	}
}

func AppointmentFormFrom(a *models.Appointment) AppointmentForm {
	return AppointmentForm{
		Client:          a.Client,
		Workers:         filter.WorkerSelection{Selected: a.WorkerIDs()},
		AppointmentType: a.AppointmentType,
		Status:          a.Status,
		ScheduledDate:   a.ScheduledDate,
		ScheduledTime:   a.ShortTime(),
		DurationMinutes: a.DurationMinutes,
		Location:        a.Location,
		Description:     a.Description,
		Notes:           a.Notes,
	}
}

// ParseAppointmentForm reads the posted form. service_workers may repeat;
// the toggle and remove fields let the picker be driven without scripts.
func ParseAppointmentForm(v url.Values) AppointmentForm {
	f := NewAppointmentForm()
	f.Client = parseInt(v.Get("client"), NoClient)
	if f.Client <= 0 {
		f.Client = NoClient
	}

	for _, raw := range v["service_workers"] {
		if id := parseInt(raw, 0); id > 0 && !f.Workers.Has(id) {
			f.Workers = f.Workers.Toggle(id)
		}
	}
	if id := parseInt(v.Get("toggle_worker"), 0); id > 0 {
		f.Workers = f.Workers.Toggle(id)
	}
	if id := parseInt(v.Get("remove_worker"), 0); id > 0 {
		f.Workers = f.Workers.Remove(id)
	}

	if t := field(v, "appointment_type"); t != "" {
		f.AppointmentType = t
	}
	if s := field(v, "status"); s != "" {
		f.Status = s
	}
	f.ScheduledDate = field(v, "scheduled_date")
	f.ScheduledTime = field(v, "scheduled_time")
	if d := field(v, "duration_minutes"); d != "" {
		f.DurationMinutes = int(parseInt(d, 0))
	}
	f.Location = field(v, "location")
	f.Description = v.Get("description")
	f.Notes = v.Get("notes")
	return f
}

// PickerAction reports whether the post only adjusted the worker picker and
// should re-render the form instead of submitting it.
func PickerAction(v url.Values) bool {
	return v.Get("toggle_worker") != "" || v.Get("remove_worker") != "" || v.Get("refresh") != ""
}

// FillLocation copies the client's service location, else their address,
// into an empty location field.
func (f *AppointmentForm) FillLocation(clients []models.Client) {
	if f.Location != "" || f.Client == NoClient {
		return
	}
	for i := range clients {
		if clients[i].ID == f.Client {
			f.Location = clients[i].DefaultLocation()
			return
		}
	}
}

// Validate checks in the order the user sees the messages.
func (f AppointmentForm) Validate() Errors {
	errs := Errors{}
	if f.Client == NoClient {
		errs.Add("client", MsgSelectClient)
	}
	if len(f.Workers.Selected) == 0 {
		errs.Add("service_workers", MsgSelectWorkers)
	}
	if f.ScheduledDate == "" || f.ScheduledTime == "" {
		errs.Add("scheduled_date", MsgDateTime)
	} else {
		if _, err := time.Parse(models.DateLayout, f.ScheduledDate); err != nil {
			errs.Add("scheduled_date", "Date must be YYYY-MM-DD")
		}
		if _, err := time.Parse(models.TimeLayout, f.ScheduledTime); err != nil {
			errs.Add("scheduled_date", "Time must be HH:MM")
		}
	}
	if f.DurationMinutes < models.MinDurationMinutes || f.DurationMinutes%models.DurationStepMinutes != 0 {
		errs.Add("duration_minutes", fmt.Sprintf("Duration must be at least %d minutes in steps of %d",
			models.MinDurationMinutes, models.DurationStepMinutes))
	}
	if !models.IsAppointmentType(f.AppointmentType) {
		errs.Add("appointment_type", "Unknown appointment type")
	}
	if !models.IsAppointmentStatus(f.Status) {
		errs.Add("status", "Unknown appointment status")
	}
	return errs
}

func (f AppointmentForm) FirstError(errs Errors) string {
	return errs.First(appointmentFieldOrder...)
}

func (f AppointmentForm) Payload() AppointmentPayload {
	return AppointmentPayload{
		Client:          f.Client,
		ServiceWorkers:  append([]int64{}, f.Workers.Selected...),
		AppointmentType: f.AppointmentType,
		Status:          f.Status,
		ScheduledDate:   f.ScheduledDate,
		ScheduledTime:   f.ScheduledTime,
		DurationMinutes: f.DurationMinutes,
		Location:        f.Location,
		Description:     f.Description,
		Notes:           f.Notes,
	}
}

// StatusForm is the body of the quick status change and cancel actions.
type StatusForm struct {
	Status string
	Reason string
}

func ParseStatusForm(v url.Values) StatusForm {
	return StatusForm{Status: field(v, "status"), Reason: field(v, "reason")}
}
