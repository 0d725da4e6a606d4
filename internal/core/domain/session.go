package domain

// SessionState is the lifecycle state of an AuthWorkflow.
type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
)

// Slot names a persisted session value.
type Slot string

const (
	SlotToken  Slot = "token"
	SlotAPIKey Slot = "apiKey"
)

// AllSlots lists every persisted slot.
var AllSlots = []Slot{SlotToken, SlotAPIKey}

// Session is the authenticated client's credential bundle.
type Session struct {
	AccessToken string `json:"-"`
	// APIKey is empty for sessions created by sign-in.
	APIKey string `json:"-"`
}

// Valid reports whether the session carries an access token.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

// HasAPIKey reports whether provisioning issued a key for this session.
func (s Session) HasAPIKey() bool {
	return s.APIKey != ""
}

// Slots returns the values to persist. A session without an API key only
// writes the token slot.
func (s Session) Slots() map[Slot]string {
	slots := map[Slot]string{SlotToken: s.AccessToken}
	if s.APIKey != "" {
		slots[SlotAPIKey] = s.APIKey
	}
	return slots
}
