package domain

// Credentials are the email/password pair submitted on sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Complete reports whether both fields are present.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != ""
}

// RegistrationProfile is built from the sign-up form at submission time.
// It is never persisted.
type RegistrationProfile struct {
	Username string
	Email    string
	Password string
	Bio      string
}

// Media is an avatar or banner reference sent with a registration.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}
