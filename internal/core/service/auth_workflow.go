package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/holidaze/venue-auth/internal/core/domain"
	"github.com/holidaze/venue-auth/internal/core/ports"
)

const reasonMissingCredentials = "email and password are required"

// AuthWorkflow implements ports.AuthWorkflow. It owns the session and the
// Anonymous/Authenticating/Authenticated state machine for one session context.
type AuthWorkflow struct {
	client    ports.SessionClient
	validator ports.ProfileValidator
	store     ports.SessionStore
	recorder  ports.OutcomeRecorder
	log       zerolog.Logger

	// opMu serializes sign-in, sign-up, logout and restore, and with them
	// every write to the store.
	opMu sync.Mutex

	mu       sync.RWMutex
	state    domain.SessionState
	session  domain.Session
	observer func(domain.SessionState)
}

// NewAuthWorkflow returns a workflow in the Anonymous state. recorder may be nil.
func NewAuthWorkflow(
	client ports.SessionClient,
	validator ports.ProfileValidator,
	store ports.SessionStore,
	recorder ports.OutcomeRecorder,
	log zerolog.Logger,
) *AuthWorkflow {
	return &AuthWorkflow{
		client:    client,
		validator: validator,
		store:     store,
		recorder:  recorder,
		log:       log,
		state:     domain.StateAnonymous,
	}
}

// OnStateChange registers fn to be called after every state transition.
func (w *AuthWorkflow) OnStateChange(fn func(domain.SessionState)) {
	w.mu.Lock()
	w.observer = fn
	w.mu.Unlock()
}

// State returns the current state. It reports Authenticating while an
// operation is in flight.
func (w *AuthWorkflow) State() domain.SessionState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Session returns a copy of the current session and whether one exists.
func (w *AuthWorkflow) Session() (domain.Session, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.session, w.session.Valid()
}

// SignIn authenticates with email and password. A second call while any
// operation is in flight returns Busy.
func (w *AuthWorkflow) SignIn(ctx context.Context, creds domain.Credentials) domain.WorkflowResult {
	if !w.opMu.TryLock() {
		return w.finish(ports.OperationSignIn, domain.Busy(), time.Now())
	}
	defer w.opMu.Unlock()

	start := time.Now()
	return w.finish(ports.OperationSignIn, w.signIn(ctx, creds), start)
}

func (w *AuthWorkflow) signIn(ctx context.Context, creds domain.Credentials) domain.WorkflowResult {
	// 1. Local guard, no network.
	if !creds.Complete() {
		return domain.ValidationFailed(reasonMissingCredentials)
	}

	prev := w.begin()
	// Dispatched requests are never abandoned.
	ctx = context.WithoutCancel(ctx)

	// 2. Remote login.
	res := w.client.Login(ctx, creds)
	switch res.Outcome {
	case domain.CallSucceeded:
	case domain.CallRejected:
		w.setState(prev)
		return domain.RemoteRejected(res.Message)
	default:
		w.setState(prev)
		return domain.TransportError(res.Message)
	}

	// 3. Persist the token-only session.
	sess := domain.Session{AccessToken: res.AccessToken}
	if err := w.persist(ctx, sess); err != nil {
		w.log.Error().Err(err).Msg("persist session after sign-in failed")
		w.setState(prev)
		return domain.TransportError(err.Error())
	}

	w.authenticate(sess)
	return domain.Success(sess)
}

// SignUp validates the profile, registers the account and provisions an API
// key. The session is only established when both remote calls succeed.
func (w *AuthWorkflow) SignUp(ctx context.Context, profile domain.RegistrationProfile) domain.WorkflowResult {
	if !w.opMu.TryLock() {
		return w.finish(ports.OperationSignUp, domain.Busy(), time.Now())
	}
	defer w.opMu.Unlock()

	start := time.Now()
	return w.finish(ports.OperationSignUp, w.signUp(ctx, profile), start)
}

func (w *AuthWorkflow) signUp(ctx context.Context, profile domain.RegistrationProfile) domain.WorkflowResult {
	// 1. Validate before any network call.
	if err := w.validator.Validate(profile); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return domain.ValidationFailed(ve.Reason)
		}
		return domain.ValidationFailed(err.Error())
	}

	prev := w.begin()
	ctx = context.WithoutCancel(ctx)

	// 2. Register. Failure here leaves nothing behind.
	reg := w.client.Register(ctx, profile)
	switch reg.Outcome {
	case domain.CallSucceeded:
	case domain.CallRejected:
		w.setState(prev)
		return domain.RemoteRejected(reg.Message)
	default:
		w.setState(prev)
		return domain.TransportError(reg.Message)
	}

	// 3. Provision the API key. From here on the account exists remotely, so
	// every failure is ProvisioningFailed and the user must sign in manually.
	key := w.client.CreateAPIKey(ctx, reg.RegistrationToken)
	if key.Outcome != domain.CallSucceeded {
		w.log.Warn().
			Str("outcome", key.Outcome.String()).
			Int("status", key.StatusCode).
			Msg("account registered but api key provisioning failed")
		w.setState(prev)
		return domain.ProvisioningFailed(key.Message)
	}

	// 4. Persist token and key as a pair.
	sess := domain.Session{AccessToken: reg.RegistrationToken, APIKey: key.APIKey}
	if err := w.persist(ctx, sess); err != nil {
		w.log.Error().Err(err).Msg("persist session after sign-up failed")
		w.setState(prev)
		return domain.ProvisioningFailed(err.Error())
	}

	w.authenticate(sess)
	return domain.Success(sess)
}

// Logout clears the persisted session and always leaves the workflow
// Anonymous. It waits for an in-flight operation to finish first, so a
// sign-in that started earlier cannot re-create the session afterwards.
func (w *AuthWorkflow) Logout(ctx context.Context) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	err := w.store.Delete(ctx, domain.SlotToken, domain.SlotAPIKey)
	if err != nil {
		w.log.Error().Err(err).Msg("clear persisted session failed")
		err = fmt.Errorf("logout: %w", err)
	}

	w.transition(domain.StateAnonymous, &domain.Session{})
	return err
}

// Restore loads a previously persisted session, if any.
func (w *AuthWorkflow) Restore(ctx context.Context) (domain.SessionState, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	token, ok, err := w.store.Read(ctx, domain.SlotToken)
	if err != nil {
		return w.State(), fmt.Errorf("restore session: read token: %w", err)
	}
	if !ok || token == "" {
		return w.State(), nil
	}

	apiKey, _, err := w.store.Read(ctx, domain.SlotAPIKey)
	if err != nil {
		return w.State(), fmt.Errorf("restore session: read api key: %w", err)
	}

	w.authenticate(domain.Session{AccessToken: token, APIKey: apiKey})
	w.log.Info().Bool("api_key", apiKey != "").Msg("session restored")
	return domain.StateAuthenticated, nil
}

// persist replaces the stored session with sess. Slots sess does not carry,
// such as the key of a provisioned session replaced by a sign-in, are
// dropped by the same write.
func (w *AuthWorkflow) persist(ctx context.Context, sess domain.Session) error {
	if err := w.store.Write(ctx, sess.Slots()); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// begin enters Authenticating and returns the state to fall back to.
func (w *AuthWorkflow) begin() domain.SessionState {
	prev := w.State()
	w.setState(domain.StateAuthenticating)
	return prev
}

func (w *AuthWorkflow) authenticate(sess domain.Session) {
	w.transition(domain.StateAuthenticated, &sess)
}

func (w *AuthWorkflow) setState(s domain.SessionState) {
	w.transition(s, nil)
}

// transition moves to s and, when sess is non-nil, replaces the session in
// the same critical section. The observer runs outside the lock.
func (w *AuthWorkflow) transition(s domain.SessionState, sess *domain.Session) {
	w.mu.Lock()
	changed := w.state != s
	w.state = s
	if sess != nil {
		w.session = *sess
	}
	observer := w.observer
	w.mu.Unlock()

	if changed && observer != nil {
		observer(s)
	}
}

func (w *AuthWorkflow) finish(op ports.Operation, res domain.WorkflowResult, start time.Time) domain.WorkflowResult {
	if w.recorder != nil {
		w.recorder.Record(ports.OperationOutcome{
			Operation: op,
			Kind:      res.Kind,
			Reason:    res.Reason,
			Duration:  time.Since(start),
		})
	}
	return res
}
