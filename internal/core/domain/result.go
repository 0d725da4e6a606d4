package domain

import "fmt"

// CallOutcome tags the result of a single remote call.
type CallOutcome int

const (
	CallSucceeded CallOutcome = iota
	CallRejected
	CallTransportError
)

func (o CallOutcome) String() string {
	switch o {
	case CallSucceeded:
		return "succeeded"
	case CallRejected:
		return "rejected"
	case CallTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// LoginResult is the tagged outcome of POST /auth/login.
//   - CallSucceeded:      AccessToken is set.
//   - CallRejected:       Message carries the remote error message.
//   - CallTransportError: Message carries the network or decode failure.
type LoginResult struct {
	Outcome     CallOutcome
	AccessToken string
	StatusCode  int
	Message     string
}

// RegisterResult is the tagged outcome of POST /auth/register.
// RegistrationToken is only valid for the provisioning call that follows.
type RegisterResult struct {
	Outcome           CallOutcome
	RegistrationToken string
	StatusCode        int
	Message           string
}

// ProvisionResult is the tagged outcome of POST /auth/create-api-key.
type ProvisionResult struct {
	Outcome    CallOutcome
	APIKey     string
	StatusCode int
	Message    string
}

// ResultKind discriminates a WorkflowResult.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultValidationFailed
	ResultRemoteRejected
	ResultProvisioningFailed
	ResultTransportError
	ResultBusy
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultValidationFailed:
		return "validation_failed"
	case ResultRemoteRejected:
		return "remote_rejected"
	case ResultProvisioningFailed:
		return "provisioning_failed"
	case ResultTransportError:
		return "transport_error"
	case ResultBusy:
		return "busy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// WorkflowResult is the outcome of a sign-in or sign-up. Exactly one variant
// is active: Session is only set for ResultSuccess, Reason only for failures.
type WorkflowResult struct {
	Kind    ResultKind
	Session *Session
	Reason  string
}

func Success(s Session) WorkflowResult {
	return WorkflowResult{Kind: ResultSuccess, Session: &s}
}

func ValidationFailed(reason string) WorkflowResult {
	return WorkflowResult{Kind: ResultValidationFailed, Reason: reason}
}

func RemoteRejected(reason string) WorkflowResult {
	return WorkflowResult{Kind: ResultRemoteRejected, Reason: reason}
}

func ProvisioningFailed(reason string) WorkflowResult {
	return WorkflowResult{Kind: ResultProvisioningFailed, Reason: reason}
}

func TransportError(detail string) WorkflowResult {
	return WorkflowResult{Kind: ResultTransportError, Reason: detail}
}

func Busy() WorkflowResult {
	return WorkflowResult{Kind: ResultBusy, Reason: ErrBusy.Error()}
}

// OK reports whether the result is a Success.
func (r WorkflowResult) OK() bool {
	return r.Kind == ResultSuccess
}

// Err converts a failure variant into a *ResultError wrapping the matching
// sentinel. It returns nil for Success.
func (r WorkflowResult) Err() error {
	switch r.Kind {
	case ResultSuccess:
		return nil
	case ResultValidationFailed, ResultRemoteRejected, ResultProvisioningFailed, ResultTransportError, ResultBusy:
		return &ResultError{Result: r}
	default:
		return fmt.Errorf("unknown workflow result kind %d", int(r.Kind))
	}
}

// ResultError carries a failed WorkflowResult through error returns.
// errors.Is matches it against the sentinel of its kind.
type ResultError struct {
	Result WorkflowResult
}

func (e *ResultError) Error() string {
	sentinel := e.Unwrap()
	if e.Result.Reason == "" || e.Result.Kind == ResultBusy {
		return sentinel.Error()
	}
	return fmt.Sprintf("%s: %s", sentinel, e.Result.Reason)
}

func (e *ResultError) Unwrap() error {
	switch e.Result.Kind {
	case ResultValidationFailed:
		return ErrValidationFailed
	case ResultRemoteRejected:
		return ErrRemoteRejected
	case ResultProvisioningFailed:
		return ErrProvisioningFailed
	case ResultBusy:
		return ErrBusy
	default:
		return ErrTransport
	}
}

// UserMessage is the text shown to the person filling in the form.
func (r WorkflowResult) UserMessage() string {
	switch r.Kind {
	case ResultSuccess:
		return ""
	case ResultValidationFailed:
		return r.Reason
	case ResultRemoteRejected:
		return "The request was refused: " + r.Reason + ". Please check your details and try again."
	case ResultProvisioningFailed:
		return "Your account was created, but setup could not be completed. Please sign in with your new account."
	case ResultBusy:
		return "Please wait for the current request to finish."
	default:
		return "An error occurred. Please try again later."
	}
}
