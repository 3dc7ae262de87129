package models

import "time"

// ServiceWorker is a staff member that can be assigned to appointments.
type ServiceWorker struct {
	ID                   int64     `json:"id"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email,omitempty"`
	Phone                string    `json:"phone"`
	Skills               string    `json:"skills,omitempty"`
	Status               string    `json:"status"`
	AvailabilityNotes    string    `json:"availability_notes,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	UpcomingAppointments int       `json:"upcoming_appointments,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (w *ServiceWorker) DisplayName() string {
	if w.FullName != "" {
		return w.FullName
	}
	return joinName(w.FirstName, w.LastName)
}

func (w *ServiceWorker) IsActive() bool {
	return w.Status == WorkerActive
}
