package filter

import (
	"fmt"
	"strings"

	"crmdash/internal/models"
)

const NoWorkerHint = "At least one worker is required"

// WorkerSelection is the state of the multi-worker picker on the appointment
// form. Selected keeps the order in which ids were picked.
type WorkerSelection struct {
	Selected []int64
}

func (s WorkerSelection) Has(id int64) bool {
	for _, v := range s.Selected {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle removes id when present and appends it otherwise.
func (s WorkerSelection) Toggle(id int64) WorkerSelection {
	if s.Has(id) {
		return s.Remove(id)
	}
	next := append(append([]int64(nil), s.Selected...), id)
	return WorkerSelection{Selected: next}
}

func (s WorkerSelection) Remove(id int64) WorkerSelection {
	next := make([]int64, 0, len(s.Selected))
	for _, v := range s.Selected {
		if v != id {
			next = append(next, v)
		}
	}
	return WorkerSelection{Selected: next}
}

// Label is the summary under the picker.
func (s WorkerSelection) Label() string {
	return fmt.Sprintf("%d worker(s) selected", len(s.Selected))
}

// Hint is shown while nothing is selected.
func (s WorkerSelection) Hint() string {
	if len(s.Selected) == 0 {
		return NoWorkerHint
	}
	return ""
}

// Chosen returns the selected workers in the order of workers.
func (s WorkerSelection) Chosen(workers []models.ServiceWorker) []models.ServiceWorker {
	var out []models.ServiceWorker
	for _, w := range workers {
		if s.Has(w.ID) {
			out = append(out, w)
		}
	}
	return out
}

// WorkerOption is one row of the picker.
type WorkerOption struct {
	Worker   models.ServiceWorker
	Selected bool
}

// Options lists the active workers that match search over full name and
// skills.
func (s WorkerSelection) Options(workers []models.ServiceWorker, search string) []WorkerOption {
	lower := strings.ToLower(strings.TrimSpace(search))
	var out []WorkerOption
	for _, w := range workers {
		if !w.IsActive() {
			continue
		}
		if lower != "" && !containsFold(w.DisplayName(), lower) && !containsFold(w.Skills, lower) {
			continue
		}
		out = append(out, WorkerOption{Worker: w, Selected: s.Has(w.ID)})
	}
	return out
}
