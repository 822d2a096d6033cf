package models

// Identity is the verified caller of a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
