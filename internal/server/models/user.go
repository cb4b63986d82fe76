// Package models defines the user record shared by the repositories,
// services and transports.
package models

// User is one stored record. Password holds the bcrypt hash and is never
// sent back to clients; use Public before encoding a response.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Public returns a copy of u without the password hash.
func (u User) Public() User {
	u.Password = ""
	return u
}

// HasPassword reports whether a hash is stored.
func (u User) HasPassword() bool {
	return u.Password != ""
}

// UserInput carries client-supplied fields. A nil field was not supplied.
type UserInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Empty reports whether no field was supplied.
func (in UserInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Password == nil
}

// Page is one slice of the user list.
type Page struct {
	Users      []User `json:"users"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// PublicUsers strips password hashes from every record.
func PublicUsers(users []User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}
