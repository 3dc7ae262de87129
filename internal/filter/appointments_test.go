package filter

import (
	"net/url"
	"testing"

	"crmdash/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentQuery_Source(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		wantSource Source
		wantParams url.Values
	}{
		{"default list", url.Values{}, SourceList, url.Values{}},
		{"status on list", url.Values{"status": {"completed"}}, SourceList, url.Values{"status": {"completed"}}},
		{"today ignores status", url.Values{"date": {"today"}, "status": {"completed"}}, SourceToday, url.Values{}},
		{"upcoming", url.Values{"date": {"upcoming"}}, SourceUpcoming, url.Values{}},
		{"unknown facets fall back", url.Values{"date": {"yesterday"}, "status": {"lost"}}, SourceList, url.Values{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseAppointmentQuery(tt.query)
			assert.Equal(t, tt.wantSource, q.Source())
			assert.Equal(t, tt.wantParams, q.Params())
		})
	}
}

func TestAppointmentQuery_Encode(t *testing.T) {
	q := AppointmentQuery{Search: "jane", Status: models.FilterAll, Date: models.DateToday}
	assert.Equal(t, "date=today&q=jane", q.Encode())
	assert.Empty(t, AppointmentQuery{Status: models.FilterAll, Date: models.FilterAll}.Encode())
}

func TestAppointments_Search(t *testing.T) {
	list := []models.Appointment{
		{ID: 1, ClientName: "Jane Doe", WorkerNames: []string{"Mike Ross", "Rachel Zane"}},
		{ID: 2, ClientName: "Bob Stone", WorkerName: "Harvey Specter", Description: "Boiler repair"},
		{ID: 3, ClientName: "Ann Lee"},
	}
	pick := func(search string) []int64 {
		var out []int64
		for _, a := range Appointments(list, search) {
			out = append(out, a.ID)
		}
		return out
	}
	assert.Equal(t, []int64{1, 2, 3}, pick(""))
	assert.Equal(t, []int64{1}, pick("zane"))
	assert.Equal(t, []int64{2}, pick("HARVEY"))
	assert.Equal(t, []int64{2}, pick("boiler"))
	assert.Equal(t, []int64{3}, pick("ann"))
}

func TestSummarize(t *testing.T) {
	list := []models.Appointment{
		{Status: models.StatusScheduled, IsUpcoming: true},
		{Status: models.StatusScheduled},
		{Status: models.StatusCompleted},
		{Status: models.StatusInProgress, IsUpcoming: true},
		{Status: models.StatusCancelled},
	}
	assert.Equal(t, QuickStats{Scheduled: 2, Completed: 1, InProgress: 1, Upcoming: 2}, Summarize(list))
	assert.Equal(t, QuickStats{}, Summarize(nil))
}
