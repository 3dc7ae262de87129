package filter

import (
	"net/url"
	"strings"

	"crmdash/internal/models"
)

// Source says which remote endpoint feeds the appointment list.
type Source int

const (
	SourceList Source = iota
	SourceToday
	SourceUpcoming
)

// AppointmentQuery is the state of the appointments list page.
type AppointmentQuery struct {
	Search string
	Status string
	Date   string
}

func isDateFacet(v string) bool {
	return v == models.DateToday || v == models.DateUpcoming
}

func ParseAppointmentQuery(q url.Values) AppointmentQuery {
	return AppointmentQuery{
		Search: q.Get("q"),
		Status: pick(q.Get("status"), models.IsAppointmentStatus),
		Date:   pick(q.Get("date"), isDateFacet),
	}
}

// Source picks the endpoint. The today and upcoming endpoints take no
// parameters, so the status facet is ignored for them.
func (q AppointmentQuery) Source() Source {
	switch q.Date {
	case models.DateToday:
		return SourceToday
	case models.DateUpcoming:
		return SourceUpcoming
	default:
		return SourceList
	}
}

func (q AppointmentQuery) Params() url.Values {
	if q.Source() != SourceList {
		return url.Values{}
	}
	return statusParams(q.Status)
}

// Encode renders the query back into URL form, dropping defaults.
func (q AppointmentQuery) Encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Status != models.FilterAll && q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Date != models.FilterAll && q.Date != "" {
		v.Set("date", q.Date)
	}
	return v.Encode()
}

// Appointments matches the client name, any worker name and the description.
func Appointments(list []models.Appointment, search string) []models.Appointment {
	out := make([]models.Appointment, 0, len(list))
	lower := strings.ToLower(search)
	for i := range list {
		if search == "" || matchAppointment(&list[i], lower) {
			out = append(out, list[i])
		}
	}
	return out
}

func matchAppointment(a *models.Appointment, lower string) bool {
	if containsFold(a.ClientName, lower) || containsFold(a.Description, lower) {
		return true
	}
	if containsFold(a.WorkerName, lower) {
		return true
	}
	for _, n := range a.WorkerNames {
		if containsFold(n, lower) {
			return true
		}
	}
	return false
}

// QuickStats are the counters above the appointments table. They describe
// the loaded list before the text search is applied.
type QuickStats struct {
	Scheduled  int
	Completed  int
	InProgress int
	Upcoming   int
}

func Summarize(list []models.Appointment) QuickStats {
	var s QuickStats
	for i := range list {
		switch list[i].Status {
		case models.StatusScheduled:
			s.Scheduled++
		case models.StatusCompleted:
			s.Completed++
		case models.StatusInProgress:
			s.InProgress++
		}
		if list[i].IsUpcoming {
			s.Upcoming++
		}
	}
	return s
}
