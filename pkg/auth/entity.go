package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered print-shop customer.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Lastname     string
	Commission   string
	Legajo       string
	CreatedAt    time.Time
}

// Profile is the public view of a User, without the credential hash.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Lastname   string    `json:"lastname"`
	Commission string    `json:"commission"`
	Legajo     string    `json:"legajo"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Lastname:   u.Lastname,
		Commission: u.Commission,
		Legajo:     u.Legajo,
		CreatedAt:  u.CreatedAt,
	}
}
