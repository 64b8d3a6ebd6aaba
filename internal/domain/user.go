package domain

// User is the logged in account cached in the local store.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Token string `json:"token"`
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}
