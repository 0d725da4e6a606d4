// Package validation checks registration input against the identity
// service's format rules before anything is sent over the network.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// Lengths count Unicode code points (the validator's min/max on strings use
// utf8.RuneCountInString), not bytes or UTF-16 units. An emoji is one
// character.
const (
	MinPasswordLength = 8
	MaxBioLength      = 160
)

const (
	ReasonInvalidEmail    = "invalid email domain"
	ReasonPasswordShort   = "password must be at least 8 characters"
	ReasonInvalidUsername = "username may only contain letters, digits and underscores"
	ReasonBioTooLong      = "bio must be at most 160 characters"
)

var (
	studentEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@stud\.noroff\.no$`)
	username     = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// rule is one field check. Rules run in slice order and the first failure
// wins, so an input with a bad email and a short password reports the email.
type rule struct {
	field  string
	value  func(domain.RegistrationProfile) string
	tag    string
	reason string
}

var rules = []rule{
	{"email", func(p domain.RegistrationProfile) string { return p.Email }, "noroff_email", ReasonInvalidEmail},
	{"password", func(p domain.RegistrationProfile) string { return p.Password }, "min=8", ReasonPasswordShort},
	{"username", func(p domain.RegistrationProfile) string { return p.Username }, "venue_username", ReasonInvalidUsername},
	{"bio", func(p domain.RegistrationProfile) string { return p.Bio }, "max=160", ReasonBioTooLong},
}

// ProfileValidator runs the registration rules on go-playground/validator.
type ProfileValidator struct {
	v *validator.Validate
}

// NewProfileValidator registers the custom tags and returns a validator.
func NewProfileValidator() *ProfileValidator {
	v := validator.New()
	_ = v.RegisterValidation("noroff_email", func(fl validator.FieldLevel) bool {
		return studentEmail.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("venue_username", func(fl validator.FieldLevel) bool {
		return username.MatchString(fl.Field().String())
	})
	return &ProfileValidator{v: v}
}

// Validate returns a *domain.ValidationError for the first failing rule, or nil.
func (pv *ProfileValidator) Validate(profile domain.RegistrationProfile) error {
	for _, r := range rules {
		if err := pv.v.Var(r.value(profile), r.tag); err != nil {
			return &domain.ValidationError{Field: r.field, Reason: r.reason}
		}
	}
	return nil
}
