package models

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment links a client with one or more service workers.
//
// Older payloads carry a single service_worker/worker_name pair; newer ones
// carry the service_workers/worker_names lists. Both are kept as sent.
type Appointment struct {
	ID              int64      `json:"id"`
	Client          int64      `json:"client"`
	ClientName      string     `json:"client_name"`
	ServiceWorker   *int64     `json:"service_worker,omitempty"`
	ServiceWorkers  []int64    `json:"service_workers,omitempty"`
	WorkerName      string     `json:"worker_name,omitempty"`
	WorkerNames     []string   `json:"worker_names,omitempty"`
	AppointmentType string     `json:"appointment_type"`
	Status          string     `json:"status"`
	ScheduledDate   string     `json:"scheduled_date"`
	ScheduledTime   string     `json:"scheduled_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Location        string     `json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletionNotes string     `json:"completion_notes,omitempty"`
	IsUpcoming      bool       `json:"is_upcoming"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// WorkerIDs returns every assigned worker id without duplicates.
func (a *Appointment) WorkerIDs() []int64 {
	ids := make([]int64, 0, len(a.ServiceWorkers)+1)
	seen := make(map[int64]bool, len(a.ServiceWorkers)+1)
	for _, id := range a.ServiceWorkers {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if a.ServiceWorker != nil && !seen[*a.ServiceWorker] {
		ids = append(ids, *a.ServiceWorker)
	}
	return ids
}

// Workers is the display string for the assigned workers.
func (a *Appointment) Workers() string {
	if len(a.WorkerNames) > 0 {
		return strings.Join(a.WorkerNames, ", ")
	}
	if a.WorkerName != "" {
		return a.WorkerName
	}
	return "Unassigned"
}

// ShortTime trims seconds from the HH:MM:SS value the server returns.
func (a *Appointment) ShortTime() string {
	if len(a.ScheduledTime) >= 5 {
		return a.ScheduledTime[:5]
	}
	return a.ScheduledTime
}

// StartsAt combines date and time in loc. ok is false when either part is
// missing or malformed.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.ScheduledDate+" "+a.ShortTime(), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// CanCompleteOrCancel reports whether the quick actions are offered.
func (a *Appointment) CanCompleteOrCancel() bool {
	return a.Status == StatusScheduled
}

func (a *Appointment) TypeLabel() string   { return TypeLabel(a.AppointmentType) }
func (a *Appointment) StatusLabel() string { return StatusLabel(a.Status) }
