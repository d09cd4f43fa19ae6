package forms

import (
	"strings"

	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/internal/utils"
	"github.com/jrsteele09/fee-portal/users"
)

type LoginForm struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required,min=6"`
	Redirect string `schema:"redirect"`
}

func (f LoginForm) Credentials() backend.Credentials {
	return backend.Credentials{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}

// ProfileForm holds the editable profile fields. Blank fields are left unchanged.
type ProfileForm struct {
	FirstName string `schema:"firstName" validate:"omitempty,max=50"`
	LastName  string `schema:"lastName" validate:"omitempty,max=50"`
	Email     string `schema:"email" validate:"omitempty,email"`
	Phone     string `schema:"phone" validate:"omitempty,max=20"`
	Avatar    string `schema:"avatar" validate:"omitempty,url"`
}

func (f ProfileForm) Update() users.ProfileUpdate {
	return users.ProfileUpdate{
		FirstName: utils.NonEmpty(strings.TrimSpace(f.FirstName)),
		LastName:  utils.NonEmpty(strings.TrimSpace(f.LastName)),
		Email:     utils.NonEmpty(strings.TrimSpace(f.Email)),
		Phone:     utils.NonEmpty(strings.TrimSpace(f.Phone)),
		Avatar:    utils.NonEmpty(strings.TrimSpace(f.Avatar)),
	}
}
