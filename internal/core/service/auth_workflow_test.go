package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/holidaze/venue-auth/internal/core/domain"
	"github.com/holidaze/venue-auth/internal/core/ports"
	"github.com/holidaze/venue-auth/internal/core/validation"
	"github.com/holidaze/venue-auth/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubClient struct {
	mu    sync.Mutex
	calls []string

	login    domain.LoginResult
	register domain.RegisterResult
	apiKey   domain.ProvisionResult

	gotProvisionToken string
	// block, when set, is waited on inside Login and Register.
	block chan struct{}
}

func (c *stubClient) record(name string) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.mu.Unlock()
}

func (c *stubClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *stubClient) Login(ctx context.Context, _ domain.Credentials) domain.LoginResult {
	c.record("login")
	if c.block != nil {
		<-c.block
	}
	if ctx.Err() != nil {
		return domain.LoginResult{Outcome: domain.CallTransportError, Message: ctx.Err().Error()}
	}
	return c.login
}

func (c *stubClient) Register(_ context.Context, _ domain.RegistrationProfile) domain.RegisterResult {
	c.record("register")
	if c.block != nil {
		<-c.block
	}
	return c.register
}

func (c *stubClient) CreateAPIKey(_ context.Context, token string) domain.ProvisionResult {
	c.record("create_api_key")
	c.gotProvisionToken = token
	return c.apiKey
}

type countingStore struct {
	*memory.SessionStore
	writeErr error
	writes   int
	deletes  int
}

func (s *countingStore) Write(ctx context.Context, values map[domain.Slot]string) error {
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	return s.SessionStore.Write(ctx, values)
}

func (s *countingStore) Delete(ctx context.Context, slots ...domain.Slot) error {
	s.deletes++
	return s.SessionStore.Delete(ctx, slots...)
}

type stubRecorder struct {
	mu       sync.Mutex
	outcomes []ports.OperationOutcome
}

func (r *stubRecorder) Record(o ports.OperationOutcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

func successClient() *stubClient {
	return &stubClient{
		login:    domain.LoginResult{Outcome: domain.CallSucceeded, AccessToken: "login-token"},
		register: domain.RegisterResult{Outcome: domain.CallSucceeded, RegistrationToken: "reg-token"},
		apiKey:   domain.ProvisionResult{Outcome: domain.CallSucceeded, APIKey: "api-key"},
	}
}

func newWorkflow(client *stubClient) (*AuthWorkflow, *countingStore, *stubRecorder) {
	store := &countingStore{SessionStore: memory.NewSessionStore()}
	rec := &stubRecorder{}
	w := NewAuthWorkflow(client, validation.NewProfileValidator(), store, rec, zerolog.Nop())
	return w, store, rec
}

func validProfile() domain.RegistrationProfile {
	return domain.RegistrationProfile{
		Username: "a_b1",
		Email:    "a@stud.noroff.no",
		Password: "12345678",
		Bio:      "",
	}
}

func readSlot(t *testing.T, s ports.SessionStore, slot domain.Slot) (string, bool) {
	t.Helper()
	v, ok, err := s.Read(context.Background(), slot)
	require.NoError(t, err)
	return v, ok
}

// ---------------------------------------------------------------------------
// SignUp
// ---------------------------------------------------------------------------

func TestSignUp_Success(t *testing.T) {
	client := successClient()
	w, store, rec := newWorkflow(client)

	res := w.SignUp(context.Background(), validProfile())

	require.Equal(t, domain.ResultSuccess, res.Kind)
	require.NotNil(t, res.Session)
	require.Equal(t, "reg-token", res.Session.AccessToken)
	require.Equal(t, "api-key", res.Session.APIKey)
	require.Equal(t, domain.StateAuthenticated, w.State())
	require.Equal(t, []string{"register", "create_api_key"}, client.Calls())
	require.Equal(t, "reg-token", client.gotProvisionToken)

	tok, _ := readSlot(t, store, domain.SlotToken)
	key, _ := readSlot(t, store, domain.SlotAPIKey)
	require.Equal(t, "reg-token", tok)
	require.Equal(t, "api-key", key)
	require.Equal(t, 1, store.writes)

	sess, ok := w.Session()
	require.True(t, ok)
	require.Equal(t, *res.Session, sess)

	require.Len(t, rec.outcomes, 1)
	require.Equal(t, ports.OperationSignUp, rec.outcomes[0].Operation)
	require.Equal(t, domain.ResultSuccess, rec.outcomes[0].Kind)
}

func TestSignUp_ValidationFailureMakesNoCalls(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RegistrationProfile)
		reason string
	}{
		{"email", func(p *domain.RegistrationProfile) { p.Email = "bad@gmail.com" }, "invalid email domain"},
		{"password", func(p *domain.RegistrationProfile) { p.Password = "1234567" }, validation.ReasonPasswordShort},
		{"username", func(p *domain.RegistrationProfile) { p.Username = "a b" }, validation.ReasonInvalidUsername},
		{"bio", func(p *domain.RegistrationProfile) {
			p.Bio = string(make([]byte, 161))
		}, validation.ReasonBioTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := successClient()
			w, store, _ := newWorkflow(client)

			p := validProfile()
			tt.mutate(&p)
			res := w.SignUp(context.Background(), p)

			require.Equal(t, domain.ResultValidationFailed, res.Kind)
			require.Equal(t, tt.reason, res.Reason)
			require.Nil(t, res.Session)
			require.Empty(t, client.Calls())
			require.Zero(t, store.writes)
			require.Equal(t, domain.StateAnonymous, w.State())
			require.ErrorIs(t, res.Err(), domain.ErrValidationFailed)
		})
	}
}

func TestSignUp_EmailErrorWinsOverPassword(t *testing.T) {
	w, _, _ := newWorkflow(successClient())

	p := validProfile()
	p.Email = "bad@gmail.com"
	p.Password = "short"

	res := w.SignUp(context.Background(), p)
	require.Equal(t, domain.ResultValidationFailed, res.Kind)
	require.Equal(t, "invalid email domain", res.Reason)
}

func TestSignUp_RegisterConflict(t *testing.T) {
	client := successClient()
	client.register = domain.RegisterResult{Outcome: domain.CallRejected, StatusCode: 409, Message: "Profile already exists"}
	w, store, _ := newWorkflow(client)

	res := w.SignUp(context.Background(), validProfile())

	require.Equal(t, domain.ResultRemoteRejected, res.Kind)
	require.Equal(t, "Profile already exists", res.Reason)
	require.Equal(t, domain.StateAnonymous, w.State())
	require.Equal(t, []string{"register"}, client.Calls())
	require.Zero(t, store.writes)
	require.ErrorIs(t, res.Err(), domain.ErrRemoteRejected)
}

func TestSignUp_RegisterTransportError(t *testing.T) {
	client := successClient()
	client.register = domain.RegisterResult{Outcome: domain.CallTransportError, Message: "connection reset"}
	w, store, _ := newWorkflow(client)

	res := w.SignUp(context.Background(), validProfile())

	require.Equal(t, domain.ResultTransportError, res.Kind)
	require.Equal(t, []string{"register"}, client.Calls())
	require.Equal(t, domain.StateAnonymous, w.State())
	require.Zero(t, store.writes)
}

func TestSignUp_ProvisioningFailureLeavesNoSession(t *testing.T) {
	for _, outcome := range []domain.CallOutcome{domain.CallRejected, domain.CallTransportError} {
		t.Run(outcome.String(), func(t *testing.T) {
			client := successClient()
			client.apiKey = domain.ProvisionResult{Outcome: outcome, Message: "key service unavailable"}
			w, store, _ := newWorkflow(client)

			res := w.SignUp(context.Background(), validProfile())

			require.Equal(t, domain.ResultProvisioningFailed, res.Kind)
			require.Equal(t, "key service unavailable", res.Reason)
			require.Equal(t, domain.StateAnonymous, w.State())
			require.Equal(t, []string{"register", "create_api_key"}, client.Calls())

			_, hasToken := readSlot(t, store, domain.SlotToken)
			require.False(t, hasToken)
			_, ok := w.Session()
			require.False(t, ok)
			require.ErrorIs(t, res.Err(), domain.ErrProvisioningFailed)
			require.NotErrorIs(t, res.Err(), domain.ErrRemoteRejected)
		})
	}
}

func TestSignUp_PersistFailureIsProvisioningFailure(t *testing.T) {
	w, store, _ := newWorkflow(successClient())
	store.writeErr = errors.New("disk full")

	res := w.SignUp(context.Background(), validProfile())

	require.Equal(t, domain.ResultProvisioningFailed, res.Kind)
	require.Contains(t, res.Reason, "disk full")
	require.Equal(t, domain.StateAnonymous, w.State())
}

// ---------------------------------------------------------------------------
// SignIn
// ---------------------------------------------------------------------------

func TestSignIn_Success(t *testing.T) {
	client := successClient()
	w, store, _ := newWorkflow(client)

	res := w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "goodpass"})

	require.True(t, res.OK())
	require.Equal(t, "login-token", res.Session.AccessToken)
	require.Empty(t, res.Session.APIKey)
	require.Equal(t, domain.StateAuthenticated, w.State())

	tok, _ := readSlot(t, store, domain.SlotToken)
	require.Equal(t, "login-token", tok)
	_, hasKey := readSlot(t, store, domain.SlotAPIKey)
	require.False(t, hasKey)
}

func TestSignIn_EmptyFieldsRejectedLocally(t *testing.T) {
	for _, creds := range []domain.Credentials{
		{Email: "", Password: "password"},
		{Email: "x@stud.noroff.no", Password: ""},
		{},
	} {
		client := successClient()
		w, _, _ := newWorkflow(client)

		res := w.SignIn(context.Background(), creds)

		require.Equal(t, domain.ResultValidationFailed, res.Kind)
		require.Empty(t, client.Calls())
		require.Equal(t, domain.StateAnonymous, w.State())
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	client := successClient()
	client.login = domain.LoginResult{Outcome: domain.CallRejected, StatusCode: 401, Message: "Invalid email or password"}
	w, store, _ := newWorkflow(client)

	res := w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "wrongpass"})

	require.Equal(t, domain.ResultRemoteRejected, res.Kind)
	require.Equal(t, domain.StateAnonymous, w.State())
	_, hasToken := readSlot(t, store, domain.SlotToken)
	require.False(t, hasToken)
	require.Zero(t, store.writes)
}

func TestSignIn_TransportError(t *testing.T) {
	client := successClient()
	client.login = domain.LoginResult{Outcome: domain.CallTransportError, Message: "timeout"}
	w, _, _ := newWorkflow(client)

	res := w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})

	require.Equal(t, domain.ResultTransportError, res.Kind)
	require.Equal(t, "timeout", res.Reason)
	require.ErrorIs(t, res.Err(), domain.ErrTransport)
}

func TestSignIn_FailureKeepsExistingSession(t *testing.T) {
	client := successClient()
	w, _, _ := newWorkflow(client)
	require.True(t, w.SignUp(context.Background(), validProfile()).OK())

	client.login = domain.LoginResult{Outcome: domain.CallRejected, Message: "nope"}
	res := w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})

	require.Equal(t, domain.ResultRemoteRejected, res.Kind)
	require.Equal(t, domain.StateAuthenticated, w.State())
	sess, ok := w.Session()
	require.True(t, ok)
	require.Equal(t, "api-key", sess.APIKey)
}

func TestSignIn_ReplacingKeyedSessionDropsStaleKey(t *testing.T) {
	client := successClient()
	w, store, _ := newWorkflow(client)
	require.True(t, w.SignUp(context.Background(), validProfile()).OK())

	res := w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})
	require.True(t, res.OK())

	_, hasKey := readSlot(t, store, domain.SlotAPIKey)
	require.False(t, hasKey)
	tok, _ := readSlot(t, store, domain.SlotToken)
	require.Equal(t, "login-token", tok)
}

func TestSignIn_PersistFailureKeepsStoredKey(t *testing.T) {
	client := successClient()
	w, store, _ := newWorkflow(client)
	require.True(t, w.SignUp(context.Background(), validProfile()).OK())

	store.writeErr = errors.New("disk full")
	res := w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})

	require.Equal(t, domain.ResultTransportError, res.Kind)
	require.Equal(t, domain.StateAuthenticated, w.State())
	sess, ok := w.Session()
	require.True(t, ok)
	require.Equal(t, "api-key", sess.APIKey)

	// Memory and store still agree, so a restart restores the same session.
	key, hasKey := readSlot(t, store, domain.SlotAPIKey)
	require.True(t, hasKey)
	require.Equal(t, "api-key", key)
	tok, _ := readSlot(t, store, domain.SlotToken)
	require.Equal(t, "reg-token", tok)
	require.Zero(t, store.deletes)
}

// ---------------------------------------------------------------------------
// Logout / Restore
// ---------------------------------------------------------------------------

func TestLogout_Idempotent(t *testing.T) {
	w, store, _ := newWorkflow(successClient())
	require.True(t, w.SignUp(context.Background(), validProfile()).OK())

	require.NoError(t, w.Logout(context.Background()))
	require.Equal(t, domain.StateAnonymous, w.State())
	require.NoError(t, w.Logout(context.Background()))
	require.Equal(t, domain.StateAnonymous, w.State())
	require.Equal(t, 2, store.deletes)

	_, hasToken := readSlot(t, store, domain.SlotToken)
	_, hasKey := readSlot(t, store, domain.SlotAPIKey)
	require.False(t, hasToken)
	require.False(t, hasKey)
	_, ok := w.Session()
	require.False(t, ok)
}

func TestRestore(t *testing.T) {
	store := memory.NewSessionStore()
	require.NoError(t, store.Write(context.Background(), map[domain.Slot]string{
		domain.SlotToken:  "persisted",
		domain.SlotAPIKey: "persisted-key",
	}))
	w := NewAuthWorkflow(successClient(), validation.NewProfileValidator(), store, nil, zerolog.Nop())

	state, err := w.Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StateAuthenticated, state)

	sess, ok := w.Session()
	require.True(t, ok)
	require.Equal(t, domain.Session{AccessToken: "persisted", APIKey: "persisted-key"}, sess)
}

func TestRestore_EmptyStore(t *testing.T) {
	w, _, _ := newWorkflow(successClient())

	state, err := w.Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StateAnonymous, state)
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestSignIn_BusyWhileInFlight(t *testing.T) {
	client := successClient()
	client.block = make(chan struct{})
	w, _, rec := newWorkflow(client)

	done := make(chan domain.WorkflowResult)
	go func() {
		done <- w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})
	}()

	require.Eventually(t, func() bool { return w.State() == domain.StateAuthenticating }, time.Second, time.Millisecond)

	second := w.SignUp(context.Background(), validProfile())
	require.Equal(t, domain.ResultBusy, second.Kind)
	require.ErrorIs(t, second.Err(), domain.ErrBusy)

	close(client.block)
	first := <-done
	require.True(t, first.OK())
	require.Equal(t, []string{"login"}, client.Calls())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.outcomes, 2)
}

func TestLogout_WaitsForInFlightSignIn(t *testing.T) {
	client := successClient()
	client.block = make(chan struct{})
	w, store, _ := newWorkflow(client)

	signedIn := make(chan struct{})
	go func() {
		w.SignIn(context.Background(), domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})
		close(signedIn)
	}()
	require.Eventually(t, func() bool { return w.State() == domain.StateAuthenticating }, time.Second, time.Millisecond)

	loggedOut := make(chan struct{})
	go func() {
		_ = w.Logout(context.Background())
		close(loggedOut)
	}()

	select {
	case <-loggedOut:
		t.Fatalf("logout must wait for the in-flight sign-in")
	case <-time.After(20 * time.Millisecond):
	}

	close(client.block)
	<-signedIn
	<-loggedOut

	require.Equal(t, domain.StateAnonymous, w.State())
	_, hasToken := readSlot(t, store, domain.SlotToken)
	require.False(t, hasToken)
}

func TestSignIn_IgnoresCallerCancellation(t *testing.T) {
	client := successClient()
	w, _, _ := newWorkflow(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := w.SignIn(ctx, domain.Credentials{Email: "x@stud.noroff.no", Password: "password"})
	require.True(t, res.OK())
}

func TestOnStateChange(t *testing.T) {
	w, _, _ := newWorkflow(successClient())

	var mu sync.Mutex
	var seen []domain.SessionState
	w.OnStateChange(func(s domain.SessionState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.True(t, w.SignUp(context.Background(), validProfile()).OK())
	require.NoError(t, w.Logout(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []domain.SessionState{
		domain.StateAuthenticating,
		domain.StateAuthenticated,
		domain.StateAnonymous,
	}, seen)
}
