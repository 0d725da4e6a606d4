package domain

import "errors"

var ErrValidationFailed = errors.New("validation failed")
var ErrRemoteRejected = errors.New("remote service rejected the request")
var ErrProvisioningFailed = errors.New("api key provisioning failed")
var ErrTransport = errors.New("transport error")
var ErrBusy = errors.New("authentication already in progress")
var ErrNotAuthenticated = errors.New("not authenticated")
var ErrAPIKeyMissing = errors.New("api key not provisioned")

// ValidationError names the first registration field that failed a rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Unwrap lets callers match any ValidationError with ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
