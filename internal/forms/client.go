package forms

import (
	"net/url"

	"crmdash/internal/models"
)

type ClientForm struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	ServiceLocation string
	Status          string
	Notes           string
}

// ClientPayload is the body of client create and update requests.
type ClientPayload struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	ServiceLocation string `json:"service_location"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
}

var clientFieldOrder = []string{"first_name", "last_name", "phone", "address", "status"}

func NewClientForm() ClientForm {
	return ClientForm{Status: models.ClientActive}
}

func ClientFormFrom(c *models.Client) ClientForm {
	return ClientForm{
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Phone:           c.Phone,
		Address:         c.Address,
		ServiceLocation: c.ServiceLocation,
		Status:          c.Status,
		Notes:           c.Notes,
	}
}

func ParseClientForm(v url.Values) ClientForm {
	f := ClientForm{
		FirstName:       field(v, "first_name"),
		LastName:        field(v, "last_name"),
		Email:           field(v, "email"),
		Phone:           field(v, "phone"),
		Address:         field(v, "address"),
		ServiceLocation: field(v, "service_location"),
		Status:          field(v, "status"),
		Notes:           v.Get("notes"),
	}
	if f.Status == "" {
		f.Status = models.ClientActive
	}
	return f
}

func (f ClientForm) Validate() Errors {
	errs := Errors{}
	required(errs, "first_name", f.FirstName, "First name is required")
	required(errs, "last_name", f.LastName, "Last name is required")
	required(errs, "phone", f.Phone, "Phone is required")
	required(errs, "address", f.Address, "Address is required")
	if !models.IsClientStatus(f.Status) {
		errs.Add("status", "Unknown client status")
	}
	return errs
}

func (f ClientForm) FirstError(errs Errors) string {
	return errs.First(clientFieldOrder...)
}

func (f ClientForm) Payload() ClientPayload {
	return ClientPayload(f)
}
