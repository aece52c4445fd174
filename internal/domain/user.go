package domain

// User is the backend account shape shared by employees and clients.
type User struct {
	IDKey       int64  `json:"id_key"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number"`
	Active      bool   `json:"active"`
	FirstLogin  bool   `json:"first_login,omitempty"`
}

// Employee is a staff account.
type Employee struct {
	User
}

// Key implements Record.
func (e Employee) Key() int64 { return e.IDKey }

// Kind implements Record.
func (Employee) Kind() Kind { return KindEmployee }

// Label implements Record.
func (e Employee) Label() string { return e.FullName }

// Client is a customer account.
type Client struct {
	User
}

// Key implements Record.
func (c Client) Key() int64 { return c.IDKey }

// Kind implements Record.
func (Client) Kind() Kind { return KindClient }

// Label implements Record.
func (c Client) Label() string { return c.FullName }

// UserInput is the create/update payload for employees and clients.
type UserInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password,omitempty"`
	Active      bool   `json:"active"`
}

// ProfileInput updates the signed-in user through /user/update/token.
type ProfileInput struct {
	FullName    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password,omitempty"`
}
