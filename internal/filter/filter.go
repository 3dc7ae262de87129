// Package filter narrows loaded lists the way the dashboard's list pages do:
// a free-text search applied locally and status/date facets sent upstream.
package filter

import (
	"net/url"
	"strings"

	"crmdash/internal/models"
)

// Facet is one option of a filter dropdown.
type Facet struct {
	Value string
	Label string
}

func facets(values ...string) []Facet {
	out := []Facet{{Value: models.FilterAll, Label: "All"}}
	for _, v := range values {
		out = append(out, Facet{Value: v, Label: models.StatusLabel(v)})
	}
	return out
}

var (
	ClientStatusFacets      = facets(models.ClientStatuses...)
	WorkerStatusFacets      = facets(models.WorkerStatuses...)
	AppointmentStatusFacets = facets(models.AppointmentStatuses...)
	DateFacets              = []Facet{
		{Value: models.FilterAll, Label: "All Dates"},
		{Value: models.DateToday, Label: "Today"},
		{Value: models.DateUpcoming, Label: "Upcoming"},
	}
)

// pick returns v when valid accepts it, otherwise FilterAll.
func pick(v string, valid func(string) bool) string {
	v = strings.TrimSpace(v)
	if valid(v) {
		return v
	}
	return models.FilterAll
}

// statusParams is the upstream query for a status facet.
func statusParams(status string) url.Values {
	params := url.Values{}
	if status != "" && status != models.FilterAll {
		params.Set("status", status)
	}
	return params
}

func containsFold(haystack, needleLower string) bool {
	return strings.Contains(strings.ToLower(haystack), needleLower)
}

// PeopleQuery is the state of the clients or workers list page.
type PeopleQuery struct {
	Search string
	Status string
}

func ParseClientQuery(q url.Values) PeopleQuery {
	return PeopleQuery{
		Search: q.Get("q"),
		Status: pick(q.Get("status"), models.IsClientStatus),
	}
}

func ParseWorkerQuery(q url.Values) PeopleQuery {
	return PeopleQuery{
		Search: q.Get("q"),
		Status: pick(q.Get("status"), models.IsWorkerStatus),
	}
}

// Params is what goes to the remote list endpoint.
func (p PeopleQuery) Params() url.Values {
	return statusParams(p.Status)
}

// matchPerson matches names and email case-insensitively; the phone is
// matched as typed.
func matchPerson(search, first, last, email, phone string) bool {
	if search == "" {
		return true
	}
	lower := strings.ToLower(search)
	return containsFold(first, lower) ||
		containsFold(last, lower) ||
		containsFold(email, lower) ||
		strings.Contains(phone, search)
}

func Clients(list []models.Client, search string) []models.Client {
	out := make([]models.Client, 0, len(list))
	for _, c := range list {
		if matchPerson(search, c.FirstName, c.LastName, c.Email, c.Phone) {
			out = append(out, c)
		}
	}
	return out
}

func Workers(list []models.ServiceWorker, search string) []models.ServiceWorker {
	out := make([]models.ServiceWorker, 0, len(list))
	for _, w := range list {
		if matchPerson(search, w.FirstName, w.LastName, w.Email, w.Phone) {
			out = append(out, w)
		}
	}
	return out
}
