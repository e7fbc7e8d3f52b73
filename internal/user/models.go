package user

import "time"

// User is the credential record owned by the store. The event pipeline only
// reads derived fields from it; it never mutates a row.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RegisterRequest is the public registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the public login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateRequest is the authenticated user-creation payload. The row is
// stored with a placeholder password; the account cannot log in until it
// registers properly.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Info is the caller-safe projection of a User.
type Info struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ToInfo strips credential material from a User.
func (u User) ToInfo() Info {
	return Info{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
