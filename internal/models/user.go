package models

// User is the account returned by the remote login endpoint.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	IsStaff     bool     `json:"is_staff,omitempty"`
	IsSuperuser bool     `json:"is_superuser,omitempty"`
	Groups      []string `json:"groups,omitempty"`
}

func (u *User) DisplayName() string {
	if n := joinName(u.FirstName, u.LastName); n != "" {
		return n
	}
	return u.Username
}

func (u *User) InGroup(name string) bool {
	return contains(u.Groups, name)
}

// AuthResponse is the body of a successful login.
type AuthResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// LoginCredentials is the body of a login request.
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
