package forms

import (
	"net/url"

	"crmdash/internal/models"
)

type WorkerForm struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Skills            string
	Status            string
	AvailabilityNotes string
	Notes             string
}

// WorkerPayload is the body of worker create and update requests.
type WorkerPayload struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Skills            string `json:"skills"`
	Status            string `json:"status"`
	AvailabilityNotes string `json:"availability_notes"`
	Notes             string `json:"notes"`
}

var workerFieldOrder = []string{"first_name", "last_name", "phone", "status"}

func NewWorkerForm() WorkerForm {
	return WorkerForm{Status: models.WorkerActive}
}

func WorkerFormFrom(w *models.ServiceWorker) WorkerForm {
	return WorkerForm{
		FirstName:         w.FirstName,
		LastName:          w.LastName,
		Email:             w.Email,
		Phone:             w.Phone,
		Skills:            w.Skills,
		Status:            w.Status,
		AvailabilityNotes: w.AvailabilityNotes,
		Notes:             w.Notes,
	}
}

func ParseWorkerForm(v url.Values) WorkerForm {
	f := WorkerForm{
		FirstName:         field(v, "first_name"),
		LastName:          field(v, "last_name"),
		Email:             field(v, "email"),
		Phone:             field(v, "phone"),
		Skills:            field(v, "skills"),
		Status:            field(v, "status"),
		AvailabilityNotes: v.Get("availability_notes"),
		Notes:             v.Get("notes"),
	}
	if f.Status == "" {
		f.Status = models.WorkerActive
	}
	return f
}

func (f WorkerForm) Validate() Errors {
	errs := Errors{}
	required(errs, "first_name", f.FirstName, "First name is required")
	required(errs, "last_name", f.LastName, "Last name is required")
	required(errs, "phone", f.Phone, "Phone is required")
	if !models.IsWorkerStatus(f.Status) {
		errs.Add("status", "Unknown worker status")
	}
	return errs
}

func (f WorkerForm) FirstError(errs Errors) string {
	return errs.First(workerFieldOrder...)
}

func (f WorkerForm) Payload() WorkerPayload {
	return WorkerPayload(f)
}
