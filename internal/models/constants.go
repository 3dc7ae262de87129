package models

// Client statuses.
const (
	ClientActive    = "active"
	ClientInactive  = "inactive"
	ClientPotential = "potential"
)

// Service worker statuses.
const (
	WorkerActive   = "active"
	WorkerInactive = "inactive"
	WorkerOnLeave  = "on_leave"
)

// Appointment statuses. Transitions between them are decided by the remote
// service; the dashboard only forwards what the user picked.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// Appointment types.
const (
	TypeService      = "service"
	TypeConsultation = "consultation"
	TypeFollowUp     = "follow_up"
	TypeEmergency    = "emergency"
)

// FilterAll is the facet value that disables a status or date filter.
const FilterAll = "all"

// Date facets for the appointment list.
const (
	DateToday    = "today"
	DateUpcoming = "upcoming"
)

const (
	// DefaultDurationMinutes is the length of a new appointment.
	DefaultDurationMinutes = 60

	// MinDurationMinutes is the shortest appointment the form accepts.
	MinDurationMinutes = 15

	// DurationStepMinutes is the duration picker's step.
	DurationStepMinutes = 15

	// RecentActivityLimit is how many activity entries the dashboard shows.
	RecentActivityLimit = 10
)

var (
	ClientStatuses      = []string{ClientActive, ClientInactive, ClientPotential}
	WorkerStatuses      = []string{WorkerActive, WorkerInactive, WorkerOnLeave}
	AppointmentStatuses = []string{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}
	AppointmentTypes    = []string{TypeService, TypeConsultation, TypeFollowUp, TypeEmergency}
)

var typeLabels = map[string]string{
	TypeService:      "Service Call",
	TypeConsultation: "Consultation",
	TypeFollowUp:     "Follow-up",
	TypeEmergency:    "Emergency",
}

var statusLabels = map[string]string{
	StatusScheduled:  "Scheduled",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
	StatusNoShow:     "No Show",
	WorkerOnLeave:    "On Leave",
	ClientActive:     "Active",
	ClientInactive:   "Inactive",
	ClientPotential:  "Potential",
}

// TypeLabel returns the human label for an appointment type, or the raw value.
func TypeLabel(t string) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return t
}

// StatusLabel returns the human label for any entity status, or the raw value.
func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func IsClientStatus(s string) bool      { return contains(ClientStatuses, s) }
func IsWorkerStatus(s string) bool      { return contains(WorkerStatuses, s) }
func IsAppointmentStatus(s string) bool { return contains(AppointmentStatuses, s) }
func IsAppointmentType(s string) bool   { return contains(AppointmentTypes, s) }
