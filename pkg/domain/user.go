package domain

// User is a registered ReadHub reader. The password is write-only: it
// travels in login/signup payloads and never comes back from the API.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
