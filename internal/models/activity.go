package models

import "time"

// Activity is one row of the local audit trail.
type Activity struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
}
