package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Unmarshal(t *testing.T) {
	t.Run("Envelope", func(t *testing.T) {
		var p Page[Client]
		raw := `{"count": 2, "next": "http://x/?page=2", "previous": null, "results": [{"id": 1}, {"id": 2}]}`
		require.NoError(t, json.Unmarshal([]byte(raw), &p))
		assert.Equal(t, 2, p.Count)
		require.NotNil(t, p.Next)
		assert.Nil(t, p.Previous)
		assert.Len(t, p.Results, 2)
	})

	t.Run("BareArray", func(t *testing.T) {
		var p Page[Appointment]
		require.NoError(t, json.Unmarshal([]byte(` [{"id": 7}] `), &p))
		assert.Equal(t, 1, p.Count)
		assert.Equal(t, int64(7), p.Results[0].ID)
	})

	t.Run("EmptyEnvelope", func(t *testing.T) {
		var p Page[ServiceWorker]
		require.NoError(t, json.Unmarshal([]byte(`{"count": 0}`), &p))
		assert.NotNil(t, p.Results)
		assert.Empty(t, p.Results)
	})

	t.Run("Invalid", func(t *testing.T) {
		var p Page[Client]
		assert.Error(t, json.Unmarshal([]byte(`"nope"`), &p))
	})
}

func TestAppointment_Helpers(t *testing.T) {
	w1, w2 := int64(1), int64(2)
	a := &Appointment{
		ServiceWorker:   &w1,
		ServiceWorkers:  []int64{w2, w1, w2},
		ScheduledDate:   "2025-03-04",
		ScheduledTime:   "09:30:00",
		DurationMinutes: 90,
		Status:          StatusScheduled,
		AppointmentType: TypeFollowUp,
	}

	assert.Equal(t, []int64{2, 1}, a.WorkerIDs())
	assert.Equal(t, "09:30", a.ShortTime())
	assert.Equal(t, 90*time.Minute, a.Duration())
	assert.True(t, a.CanCompleteOrCancel())
	assert.Equal(t, "Follow-up", a.TypeLabel())
	assert.Equal(t, "Scheduled", a.StatusLabel())

	start, ok := a.StartsAt(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC), start)

	a.ScheduledDate = "bad"
	_, ok = a.StartsAt(time.UTC)
	assert.False(t, ok)

	a.Status = StatusCompleted
	assert.False(t, a.CanCompleteOrCancel())
}

func TestAppointment_Workers(t *testing.T) {
	assert.Equal(t, "Unassigned", (&Appointment{}).Workers())
	assert.Equal(t, "Ann", (&Appointment{WorkerName: "Ann"}).Workers())
	assert.Equal(t, "Ann, Bob", (&Appointment{WorkerName: "Ann", WorkerNames: []string{"Ann", "Bob"}}).Workers())
}

func TestNames(t *testing.T) {
	c := &Client{FirstName: "Jane", LastName: "Doe", Address: "1 Main St"}
	assert.Equal(t, "Jane Doe", c.DisplayName())
	assert.Equal(t, "1 Main St", c.DefaultLocation())
	c.ServiceLocation = "Site B"
	assert.Equal(t, "Site B", c.DefaultLocation())

	w := &ServiceWorker{FullName: "Bob Stone", Status: WorkerOnLeave}
	assert.Equal(t, "Bob Stone", w.DisplayName())
	assert.False(t, w.IsActive())

	u := &User{Username: "admin"}
	assert.Equal(t, "admin", u.DisplayName())
	u.FirstName = "Ada"
	assert.Equal(t, "Ada", u.DisplayName())
}

func TestLabelsAndSets(t *testing.T) {
	assert.Equal(t, "Service Call", TypeLabel(TypeService))
	assert.Equal(t, "weird", TypeLabel("weird"))
	assert.Equal(t, "No Show", StatusLabel(StatusNoShow))
	assert.Equal(t, "On Leave", StatusLabel(WorkerOnLeave))

	assert.True(t, IsClientStatus(ClientPotential))
	assert.False(t, IsClientStatus(WorkerOnLeave))
	assert.True(t, IsWorkerStatus(WorkerOnLeave))
	assert.True(t, IsAppointmentStatus(StatusNoShow))
	assert.False(t, IsAppointmentStatus("done"))
	assert.True(t, IsAppointmentType(TypeEmergency))
}
