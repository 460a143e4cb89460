package auth

import "github.com/frahmantamala/expense-tracker/internal/core/common/validation"

type SignupDTO struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

func (d SignupDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(254)
	v.Field("password", d.Password).Required().MaxLength(72)
	v.Field("name", d.Name).MaxLength(200)
	if err := v.Validate("Invalid user data"); err != nil {
		return err
	}
	return nil
}

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
