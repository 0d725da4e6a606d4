package ports

import (
	"context"
	"time"

	"github.com/holidaze/venue-auth/internal/core/domain"
)

// AuthWorkflow is the entry point used by UI event handlers.
type AuthWorkflow interface {
	SignIn(ctx context.Context, creds domain.Credentials) domain.WorkflowResult
	SignUp(ctx context.Context, profile domain.RegistrationProfile) domain.WorkflowResult
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (domain.SessionState, error)
	State() domain.SessionState
	Session() (domain.Session, bool)
}

// ProfileValidator checks a registration profile before any network call.
type ProfileValidator interface {
	Validate(profile domain.RegistrationProfile) error
}

// Operation names a workflow entry point for telemetry.
type Operation string

const (
	OperationSignIn  Operation = "sign_in"
	OperationSignUp  Operation = "sign_up"
	OperationLogout  Operation = "logout"
	OperationRestore Operation = "restore"
)

// OperationOutcome describes one finished workflow operation.
type OperationOutcome struct {
	Operation Operation
	Kind      domain.ResultKind
	Reason    string
	Duration  time.Duration
}

// OutcomeRecorder receives every finished sign-in and sign-up.
type OutcomeRecorder interface {
	Record(outcome OperationOutcome)
}
