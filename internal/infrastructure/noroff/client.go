// Package noroff is the HTTP SessionClient for the Noroff v2 identity API.
package noroff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holidaze/venue-auth/internal/api/metrics"
	"github.com/holidaze/venue-auth/internal/core/domain"
)

const (
	DefaultBaseURL = "https://v2.api.noroff.dev"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20

	endpointLogin        = "/auth/login"
	endpointRegister     = "/auth/register"
	endpointCreateAPIKey = "/auth/create-api-key"
)

// Config captures the settings for talking to the identity service.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements ports.SessionClient over HTTP. It never retries and
// never caches.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a Client. An empty BaseURL falls back to DefaultBaseURL.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, http: hc, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	Bio          string       `json:"bio"`
	Avatar       domain.Media `json:"avatar"`
	Banner       domain.Media `json:"banner"`
	VenueManager bool         `json:"venueManager"`
}

type loginResponse struct {
	Data struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
}

type registerResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	Data        struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
}

func (r registerResponse) token() string {
	switch {
	case r.Token != "":
		return r.Token
	case r.AccessToken != "":
		return r.AccessToken
	default:
		return r.Data.AccessToken
	}
}

type apiKeyResponse struct {
	Key  string `json:"key"`
	Data struct {
		Key string `json:"key"`
	} `json:"data"`
}

func (r apiKeyResponse) key() string {
	if r.Key != "" {
		return r.Key
	}
	return r.Data.Key
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) domain.LoginResult {
	call := c.post(ctx, endpointLogin, "", loginRequest{Email: creds.Email, Password: creds.Password})
	if call.outcome != domain.CallSucceeded {
		return domain.LoginResult{Outcome: call.outcome, StatusCode: call.status, Message: call.message}
	}

	var resp loginResponse
	if err := json.Unmarshal(call.body, &resp); err != nil {
		return domain.LoginResult{Outcome: domain.CallTransportError, StatusCode: call.status, Message: "decode login response: " + err.Error()}
	}
	if resp.Data.AccessToken == "" {
		return domain.LoginResult{Outcome: domain.CallTransportError, StatusCode: call.status, Message: "login response missing access token"}
	}
	return domain.LoginResult{Outcome: domain.CallSucceeded, StatusCode: call.status, AccessToken: resp.Data.AccessToken}
}

// Register creates a venue-manager account.
func (c *Client) Register(ctx context.Context, profile domain.RegistrationProfile) domain.RegisterResult {
	payload := registerRequest{
		Name:         profile.Username,
		Email:        profile.Email,
		Password:     profile.Password,
		Bio:          profile.Bio,
		VenueManager: true,
	}
	call := c.post(ctx, endpointRegister, "", payload)
	if call.outcome != domain.CallSucceeded {
		return domain.RegisterResult{Outcome: call.outcome, StatusCode: call.status, Message: call.message}
	}

	var resp registerResponse
	if err := json.Unmarshal(call.body, &resp); err != nil {
		return domain.RegisterResult{Outcome: domain.CallTransportError, StatusCode: call.status, Message: "decode register response: " + err.Error()}
	}
	token := resp.token()
	if token == "" {
		return domain.RegisterResult{Outcome: domain.CallTransportError, StatusCode: call.status, Message: "register response missing token"}
	}
	return domain.RegisterResult{Outcome: domain.CallSucceeded, StatusCode: call.status, RegistrationToken: token}
}

// CreateAPIKey issues an API key authorised by the registration token.
func (c *Client) CreateAPIKey(ctx context.Context, registrationToken string) domain.ProvisionResult {
	call := c.post(ctx, endpointCreateAPIKey, registrationToken, struct{}{})
	if call.outcome != domain.CallSucceeded {
		return domain.ProvisionResult{Outcome: call.outcome, StatusCode: call.status, Message: call.message}
	}

	var resp apiKeyResponse
	if err := json.Unmarshal(call.body, &resp); err != nil {
		return domain.ProvisionResult{Outcome: domain.CallTransportError, StatusCode: call.status, Message: "decode api key response: " + err.Error()}
	}
	key := resp.key()
	if key == "" {
		return domain.ProvisionResult{Outcome: domain.CallTransportError, StatusCode: call.status, Message: "api key response missing key"}
	}
	return domain.ProvisionResult{Outcome: domain.CallSucceeded, StatusCode: call.status, APIKey: key}
}

type callResult struct {
	outcome domain.CallOutcome
	status  int
	body    []byte
	message string
}

func (c *Client) post(ctx context.Context, endpoint, bearer string, payload any) callResult {
	start := time.Now()
	res := c.send(ctx, endpoint, bearer, payload)

	metrics.RemoteCallsTotal.WithLabelValues(endpoint, res.outcome.String()).Inc()
	metrics.RemoteCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	evt := c.log.Debug()
	if res.outcome == domain.CallTransportError {
		evt = c.log.Warn()
	}
	evt.Str("endpoint", endpoint).
		Int("status", res.status).
		Str("outcome", res.outcome.String()).
		Dur("duration", time.Since(start)).
		Msg("identity call finished")

	return res
}

func (c *Client) send(ctx context.Context, endpoint, bearer string, payload any) callResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return callResult{outcome: domain.CallTransportError, message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return callResult{outcome: domain.CallTransportError, message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return callResult{outcome: domain.CallTransportError, message: fmt.Sprintf("%s: %v", endpoint, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return callResult{outcome: domain.CallTransportError, status: resp.StatusCode, message: fmt.Sprintf("read response: %v", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return callResult{outcome: domain.CallSucceeded, status: resp.StatusCode, body: raw}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return callResult{outcome: domain.CallRejected, status: resp.StatusCode, message: errorMessage(resp.StatusCode, raw)}
	default:
		return callResult{
			outcome: domain.CallTransportError,
			status:  resp.StatusCode,
			message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, errorMessage(resp.StatusCode, raw)),
		}
	}
}

// errorMessage extracts the first message of a Noroff error envelope,
// falling back to the HTTP status text.
func errorMessage(status int, raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		for _, e := range er.Errors {
			if e.Message != "" {
				return e.Message
			}
		}
		if er.Message != "" {
			return er.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("status %d", status)
}
