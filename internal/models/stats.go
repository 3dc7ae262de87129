package models

type AppointmentStats struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
}

type ClientStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
	Potential int `json:"potential"`
}

type WorkerStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	OnLeave  int `json:"on_leave"`
}
