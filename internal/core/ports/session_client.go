package ports

import (
	"context"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// SessionClient issues the remote identity calls. Each method performs
// exactly one outbound request and reports failures through the result tag.
type SessionClient interface {
	Login(ctx context.Context, creds domain.Credentials) domain.LoginResult
	Register(ctx context.Context, profile domain.RegistrationProfile) domain.RegisterResult
	CreateAPIKey(ctx context.Context, registrationToken string) domain.ProvisionResult
}
