package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

// Profile is the public view of an account. It never carries the password hash.
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewProfile(u *userDatamodel.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
