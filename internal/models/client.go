package models

import "time"

// Client is a customer record mirrored from the remote service.
type Client struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	ServiceLocation  string    `json:"service_location,omitempty"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	AppointmentCount int       `json:"appointment_count,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName prefers the server-computed full name.
func (c *Client) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return joinName(c.FirstName, c.LastName)
}

// DefaultLocation is what a new appointment for this client is held at.
func (c *Client) DefaultLocation() string {
	if c.ServiceLocation != "" {
		return c.ServiceLocation
	}
	return c.Address
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
