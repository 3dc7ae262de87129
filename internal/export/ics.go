package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"crmdash/internal/models"

	"github.com/emersion/go-ical"
)

const prodID = "-//crmdash//appointments//EN"

// AppointmentsICS writes one VEVENT per appointment. Appointments whose date
// or time cannot be parsed are skipped. loc is the business time zone the
// scheduled date and time are expressed in.
func AppointmentsICS(w io.Writer, list []models.Appointment, loc *time.Location, host string, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	for i := range list {
		ev, ok := appointmentEvent(&list[i], loc, host, now)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func appointmentEvent(a *models.Appointment, loc *time.Location, host string, now time.Time) (*ical.Event, bool) {
	start, ok := a.StartsAt(loc)
	if !ok {
		return nil, false
	}
	end := start.Add(a.Duration())

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, fmt.Sprintf("appointment-%d@%s", a.ID, host))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	ev.Props.SetText(ical.PropSummary, Summary(a))
	if a.Location != "" {
		ev.Props.SetText(ical.PropLocation, a.Location)
	}
	if desc := description(a); desc != "" {
		ev.Props.SetText(ical.PropDescription, desc)
	}
	ev.Props.SetText(ical.PropStatus, eventStatus(a.Status))
	return ev, true
}

// Summary is the event title: type label and client name.
func Summary(a *models.Appointment) string {
	return a.TypeLabel() + " — " + a.ClientName
}

func description(a *models.Appointment) string {
	var parts []string
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	parts = append(parts, "Workers: "+a.Workers())
	return strings.Join(parts, "\n")
}

func eventStatus(status string) string {
	if status == models.StatusCancelled {
		return "CANCELLED"
	}
	return "CONFIRMED"
}
