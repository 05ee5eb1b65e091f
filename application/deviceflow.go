package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/markpeek/remotes/domain"
)

const (
	defaultAuthTimeout  = 30 * time.Second
	defaultPollInterval = 5 * time.Second
	defaultFlowLifetime = 15 * time.Minute
	slowDownBackoff     = 5 * time.Second
	grantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"
)

// Device access token error codes from RFC 8628 section 3.5.
const (
	errAuthorizationPending = "authorization_pending"
	errSlowDown             = "slow_down"
	errExpiredToken         = "expired_token"
	errAccessDenied         = "access_denied"
)

// ErrSessionNotFound reports a device flow session id the authenticator does
// not know, either because it never existed or because the process restarted
// and the in-memory sessions died with it.
var ErrSessionNotFound = errors.New("device flow session not found")

// DeviceFlowConfig carries the OAuth application settings for the device
// authorization grant. OpenBrowser overrides how the verification page is
// opened; nil means the user's default browser.
type DeviceFlowConfig struct {
	ClientID    string
	Scopes      []string
	Endpoint    oauth2.Endpoint
	HTTPClient  *http.Client
	OpenBrowser func(url string) error
}

// deviceFlowState is the mutable server-side half of a session. The embedded
// session snapshot is what callers see; the device code is the only secret
// and is destroyed the moment the session turns terminal.
type deviceFlowState struct {
	session    domain.DeviceFlowSession
	deviceCode string
	nextPollAt time.Time
	polling    bool
	cancelPoll context.CancelFunc
}

// DeviceFlowAuthenticator runs the OAuth device authorization grant against
// GitHub. Sessions live in memory only; tokens land in the credential store
// and never travel through this API, so callers that need one read it back
// from the store after a session succeeds.
type DeviceFlowAuthenticator struct {
	mu       sync.Mutex
	config   DeviceFlowConfig
	store    domain.CredentialStore
	sessions map[string]*deviceFlowState

	openBrowser func(string) error
	now         func() time.Time
}

// NewDeviceFlowAuthenticator creates an authenticator with the given OAuth
// application settings. A zero endpoint defaults to GitHub's.
func NewDeviceFlowAuthenticator(
	config DeviceFlowConfig,
	store domain.CredentialStore,
) *DeviceFlowAuthenticator {
	if config.Endpoint.DeviceAuthURL == "" {
		config.Endpoint = endpoints.GitHub
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: defaultAuthTimeout}
	}
	openBrowser := config.OpenBrowser
	if openBrowser == nil {
		openBrowser = browser.OpenURL
	}
	return &DeviceFlowAuthenticator{
		config:      config,
		store:       store,
		sessions:    make(map[string]*deviceFlowState),
		openBrowser: openBrowser,
		now:         time.Now,
	}
}

// Initiate requests a device and user code pair from the provider, registers
// a pending session, and opens the verification page in the user's browser.
// The browser step is best effort: when it fails the user can still type the
// URI from the returned session by hand.
func (a *DeviceFlowAuthenticator) Initiate(
	ctx context.Context,
	provider domain.Provider,
) (domain.DeviceFlowSession, error) {
	if provider != domain.ProviderGitHub {
		return domain.DeviceFlowSession{}, &domain.Error{
			Kind: domain.KindUnsupportedProvider,
			Message: fmt.Sprintf(
				"%s does not support the device flow, use a personal access token instead",
				provider,
			),
		}
	}
	if a.config.ClientID == "" {
		return domain.DeviceFlowSession{},
			domain.NewAuthFailed("no GitHub OAuth client id is configured", nil)
	}

	oauthConfig := &oauth2.Config{
		ClientID: a.config.ClientID,
		Scopes:   a.config.Scopes,
		Endpoint: a.config.Endpoint,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.config.HTTPClient)

	grant, err := oauthConfig.DeviceAuth(ctx)
	if err != nil {
		return domain.DeviceFlowSession{},
			fmt.Errorf("failed to initiate the device authorization: %w", mapDeviceAuthError(err))
	}

	interval := time.Duration(grant.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	expiresAt := grant.Expiry
	if expiresAt.IsZero() {
		expiresAt = a.now().Add(defaultFlowLifetime)
	}

	session := domain.DeviceFlowSession{
		ID:              uuid.NewString(),
		Provider:        provider,
		UserCode:        grant.UserCode,
		VerificationURI: grant.VerificationURI,
		ExpiresAt:       expiresAt,
		Interval:        interval,
		Status:          domain.DeviceFlowPending,
	}

	a.mu.Lock()
	a.sessions[session.ID] = &deviceFlowState{
		session:    session,
		deviceCode: grant.DeviceCode,
		nextPollAt: a.now().Add(interval),
	}
	a.mu.Unlock()

	target := grant.VerificationURIComplete
	if target == "" {
		target = grant.VerificationURI
	}
	if openErr := a.openBrowser(target); openErr != nil {
		logger.Debugf("could not open the verification page in a browser: %v", openErr)
	}

	return session, nil
}

// CheckStatus advances a session by at most one poll and returns a snapshot.
// Calls that land between polls, or while another poll is still in flight,
// return the current snapshot without touching the network, so an eager UI
// cannot drive the token endpoint faster than the provider's interval.
func (a *DeviceFlowAuthenticator) CheckStatus(
	ctx context.Context,
	sessionID string,
) (domain.DeviceFlowSession, error) {
	a.mu.Lock()
	state, ok := a.sessions[sessionID]
	if !ok {
		a.mu.Unlock()
		return domain.DeviceFlowSession{}, ErrSessionNotFound
	}
	if state.session.Status.Terminal() {
		snapshot := state.session
		a.mu.Unlock()
		return snapshot, nil
	}

	now := a.now()
	if now.After(state.session.ExpiresAt) {
		a.finishLocked(state, domain.DeviceFlowExpired,
			"the device code expired before authorization completed")
		snapshot := state.session
		a.mu.Unlock()
		return snapshot, nil
	}
	if state.polling || now.Before(state.nextPollAt) {
		snapshot := state.session
		a.mu.Unlock()
		return snapshot, nil
	}

	state.polling = true
	pollCtx, cancel := context.WithCancel(ctx)
	state.cancelPoll = cancel
	deviceCode := state.deviceCode
	a.mu.Unlock()

	result, err := a.poll(pollCtx, deviceCode)
	cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	state.polling = false
	state.cancelPoll = nil

	switch {
	case state.session.Status.Terminal():
		// Cancelled or expired while the poll was in flight; the outcome of
		// the poll no longer matters.
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			logger.Warnf("device flow poll failed, will retry: %v", err)
		}
	default:
		a.applyPollResultLocked(state, result)
	}

	// A slow-down answer has already grown the interval at this point, so
	// the next poll waits the full, updated duration.
	state.nextPollAt = a.now().Add(state.session.Interval)
	return state.session, nil
}

// Cancel moves a pending session to cancelled and aborts any in-flight poll.
// GitHub has no revocation endpoint for unredeemed device codes, so the
// cancellation is local and the code simply ages out on the provider side.
func (a *DeviceFlowAuthenticator) Cancel(sessionID string) (domain.DeviceFlowSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, ok := a.sessions[sessionID]
	if !ok {
		return domain.DeviceFlowSession{}, ErrSessionNotFound
	}
	if state.session.Status.Terminal() {
		return state.session, nil
	}
	a.finishLocked(state, domain.DeviceFlowCancelled, "authorization cancelled")
	return state.session, nil
}

// Run drives a full authorization interactively: initiate, hand the user
// code to the prompter, then poll until the flow resolves. On success the
// token is already persisted, so callers read it back from the credential
// store instead of receiving it here.
func (a *DeviceFlowAuthenticator) Run(
	ctx context.Context,
	provider domain.Provider,
	prompter domain.Prompter,
) error {
	session, err := a.Initiate(ctx, provider)
	if err != nil {
		return err
	}
	if prompter != nil {
		prompter.PromptDeviceAuthorization(session)
	}

	for {
		select {
		case <-ctx.Done():
			if _, cancelErr := a.Cancel(session.ID); cancelErr != nil {
				logger.Debugf("failed to cancel the device flow session: %v", cancelErr)
			}
			return domain.NewCancelled(ctx.Err())
		case <-time.After(session.Interval):
		}

		session, err = a.CheckStatus(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to check the device flow status: %w", err)
		}

		switch session.Status {
		case domain.DeviceFlowSucceeded:
			return nil
		case domain.DeviceFlowFailed, domain.DeviceFlowExpired:
			return domain.NewAuthFailed(session.Message, nil)
		case domain.DeviceFlowCancelled:
			return domain.NewCancelled(nil)
		case domain.DeviceFlowPending:
			// Keep polling.
		}
	}
}

// tokenResponse is the device access token response. GitHub answers 200 for
// pending, slow-down, and success alike, so the decoded body rather than the
// HTTP status drives the state machine.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Interval         int64  `json:"interval"`
}

func (a *DeviceFlowAuthenticator) poll(ctx context.Context, deviceCode string) (*tokenResponse, error) {
	form := url.Values{
		"client_id":   {a.config.ClientID},
		"device_code": {deviceCode},
		"grant_type":  {grantTypeDeviceCode},
	}
	request, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.config.Endpoint.TokenURL, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build the token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := a.config.HTTPClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	var decoded tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode the token response: %w", err)
	}
	return &decoded, nil
}

func (a *DeviceFlowAuthenticator) applyPollResultLocked(state *deviceFlowState, result *tokenResponse) {
	if result.AccessToken != "" {
		var expiresAt *time.Time
		if result.ExpiresIn > 0 {
			expiry := a.now().Add(time.Duration(result.ExpiresIn) * time.Second)
			expiresAt = &expiry
		}
		if err := a.store.StoreToken(state.session.Provider, result.AccessToken, expiresAt); err != nil {
			logger.Errorf("failed to store the OAuth token: %v", err)
			a.finishLocked(state, domain.DeviceFlowFailed, "the token could not be stored securely")
			return
		}
		a.finishLocked(state, domain.DeviceFlowSucceeded, "")
		return
	}

	switch result.Error {
	case "", errAuthorizationPending:
		// The user has not finished yet; keep waiting.
	case errSlowDown:
		next := state.session.Interval + slowDownBackoff
		if server := time.Duration(result.Interval) * time.Second; server > next {
			next = server
		}
		state.session.Interval = next
	case errExpiredToken:
		a.finishLocked(state, domain.DeviceFlowExpired,
			"the device code expired before authorization completed")
	case errAccessDenied:
		a.finishLocked(state, domain.DeviceFlowFailed, "the authorization request was denied")
	default:
		message := result.ErrorDescription
		if message == "" {
			message = fmt.Sprintf("the provider reported %q", result.Error)
		}
		a.finishLocked(state, domain.DeviceFlowFailed, message)
	}
}

// finishLocked moves a session to a terminal status and destroys the device
// code, the only secret a pending session holds. Terminal sessions stay in
// memory so late status polls keep getting a coherent answer.
func (a *DeviceFlowAuthenticator) finishLocked(
	state *deviceFlowState,
	status domain.DeviceFlowStatus,
	message string,
) {
	state.session.Status = status
	state.session.Message = message
	state.deviceCode = ""
	if state.cancelPoll != nil {
		state.cancelPoll()
		state.cancelPoll = nil
	}
}

func mapDeviceAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return domain.NewAuthFailed("the provider rejected the device authorization request", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.NewCancelled(err)
	}
	return domain.NewNetworkUnreachable("could not reach the authorization endpoint", err)
}
