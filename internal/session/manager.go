// Package session owns the client-side session lifecycle: what gets
// persisted at sign-in, how validity is judged at startup, and what gets
// torn down at sign-out.
package session

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"hunter/internal/identity"
	"hunter/internal/settings"
)

// Storage keys. theme lives alongside the session keys but deliberately
// survives sign-out.
const (
	KeyToken             = "token"
	KeySignInTime        = "signInTime"
	KeyExpiresIn         = "expiresIn"
	KeyTheme             = "theme"
	KeyOAuthRefreshToken = "oauth_refresh_token"
	KeyUsername          = "username"
	KeyEmail             = "email"
)

// sessionKeys is everything cleared at sign-out.
var sessionKeys = []string{KeyToken, KeySignInTime, KeyExpiresIn, KeyOAuthRefreshToken, KeyUsername, KeyEmail}

// ErrNotSignedIn reports an operation that needs a live session.
var ErrNotSignedIn = errors.New("session: not signed in")

// API is the slice of the identity client the manager drives.
type API interface {
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SignUp(ctx context.Context, email, password, username string) (identity.SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignOut(ctx context.Context, accessToken string) error
	UpdateUsername(ctx context.Context, accessToken, username string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, password string) error
	RevokeToken(ctx context.Context, clientID, refreshToken string) error
}

// State is what the rest of the client needs to know about the session.
type State struct {
	SignedIn bool
	Email    string
	Username string
}

// Manager coordinates the identity API and the settings store.
type Manager struct {
	logger        *zap.Logger
	store         settings.Store
	api           API
	clock         Clock
	oauthClientID string
}

func NewManager(logger *zap.Logger, store settings.Store, api API, clock Clock, oauthClientID string) *Manager {
	if clock == nil {
		clock = RealClock{}
	}
	return &Manager{
		logger:        logger,
		store:         store,
		api:           api,
		clock:         clock,
		oauthClientID: oauthClientID,
	}
}

// BootstrapValidity decides at startup whether the persisted session is
// still usable. An expired or unreadable session is torn down, server-side
// included when possible, and reported as signed out. Storage failures
// never produce a signed-in state.
func (m *Manager) BootstrapValidity(ctx context.Context) State {
	token, err := m.store.Get(ctx, KeyToken)
	if errors.Is(err, settings.ErrNotFound) {
		return State{}
	}
	if err != nil {
		m.logger.Warn("session read failed", zap.Error(err))
		return State{}
	}

	signInTime, _ := m.store.Get(ctx, KeySignInTime)
	expiresIn, _ := m.store.Get(ctx, KeyExpiresIn)
	if IsExpired(signInTime, expiresIn, m.clock.Now()) {
		m.logger.Info("stored session expired, signing out")
		m.revokeRemote(ctx, token)
		m.clearLocal(ctx)
		return State{}
	}

	state := State{SignedIn: true}
	state.Email, _ = m.store.Get(ctx, KeyEmail)
	state.Username, _ = m.store.Get(ctx, KeyUsername)
	return state
}

// SignIn authenticates and persists the session. The sign-in timestamp is
// recorded in epoch milliseconds.
func (m *Manager) SignIn(ctx context.Context, email, password string) (State, error) {
	session, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		return State{}, err
	}

	values := map[string]string{
		KeyToken:      session.AccessToken,
		KeySignInTime: strconv.FormatInt(m.clock.Now().UnixMilli(), 10),
		KeyExpiresIn:  strconv.FormatInt(session.ExpiresIn, 10),
		KeyEmail:      session.Email,
		KeyUsername:   session.Username,
	}
	if session.RefreshToken != "" {
		values[KeyOAuthRefreshToken] = session.RefreshToken
	}
	for key, value := range values {
		if err := m.store.Set(ctx, key, value); err != nil {
			// A half-written session must not survive.
			m.clearLocal(ctx)
			return State{}, err
		}
	}

	return State{SignedIn: true, Email: session.Email, Username: session.Username}, nil
}

// SignInFederated persists the outcome of a provider code exchange. No
// native access token exists on this path; the refresh token is what
// sign-out later revokes.
func (m *Manager) SignInFederated(ctx context.Context, fs identity.FederatedSession) error {
	if fs.RefreshToken == "" {
		return errors.New("session: provider granted no refresh token")
	}
	values := map[string]string{KeyOAuthRefreshToken: fs.RefreshToken}
	if fs.Email != "" {
		values[KeyEmail] = fs.Email
	}
	for key, value := range values {
		if err := m.store.Set(ctx, key, value); err != nil {
			m.clearLocal(ctx)
			return err
		}
	}
	return nil
}

func (m *Manager) SignUp(ctx context.Context, email, password, username string) (identity.SignUpResult, error) {
	return m.api.SignUp(ctx, email, password, username)
}

func (m *Manager) ConfirmSignUp(ctx context.Context, email, code string) error {
	return m.api.ConfirmSignUp(ctx, email, code)
}

func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	return m.api.ForgotPassword(ctx, email)
}

func (m *Manager) ResetPassword(ctx context.Context, email, code, password string) error {
	return m.api.ResetPassword(ctx, email, code, password)
}

// SignOut tears the session down. The server-side revocations are best
// effort: local state is cleared even when the network or the tokens have
// already gone bad.
func (m *Manager) SignOut(ctx context.Context) error {
	token, err := m.store.Get(ctx, KeyToken)
	if err == nil && token != "" {
		m.revokeRemote(ctx, token)
	} else {
		// A federated session may hold a refresh token without a
		// native access token. It still gets revoked.
		m.revokeRefresh(ctx)
	}
	return m.clearLocal(ctx)
}

// UpdateUsername changes the preferred username and keeps the stored copy
// in sync. A rejected token clears the session so the caller lands back at
// sign-in.
func (m *Manager) UpdateUsername(ctx context.Context, username string) error {
	token, err := m.store.Get(ctx, KeyToken)
	if err != nil || token == "" {
		return ErrNotSignedIn
	}

	if err := m.api.UpdateUsername(ctx, token, username); err != nil {
		var authErr *identity.AuthError
		if errors.As(err, &authErr) {
			switch authErr.Kind {
			case identity.KindTokenExpired, identity.KindTokenRevoked, identity.KindNotAuthorized:
				m.clearLocal(ctx)
			}
		}
		return err
	}

	if err := m.store.Set(ctx, KeyUsername, username); err != nil {
		m.logger.Warn("persisting username failed", zap.Error(err))
	}
	return nil
}

// AccessToken returns the stored token if the session is still valid.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	token, err := m.store.Get(ctx, KeyToken)
	if err != nil || token == "" {
		return "", ErrNotSignedIn
	}
	signInTime, _ := m.store.Get(ctx, KeySignInTime)
	expiresIn, _ := m.store.Get(ctx, KeyExpiresIn)
	if IsExpired(signInTime, expiresIn, m.clock.Now()) {
		return "", ErrNotSignedIn
	}
	return token, nil
}

// revokeRemote invalidates the access token and, for federated sessions,
// the provider refresh token. Failures are logged, never propagated.
func (m *Manager) revokeRemote(ctx context.Context, token string) {
	if err := m.api.SignOut(ctx, token); err != nil {
		m.logger.Warn("remote sign out failed", zap.Error(err))
	}
	m.revokeRefresh(ctx)
}

// revokeRefresh invalidates a stored provider refresh token, if any.
func (m *Manager) revokeRefresh(ctx context.Context) {
	refresh, err := m.store.Get(ctx, KeyOAuthRefreshToken)
	if err != nil || refresh == "" || m.oauthClientID == "" {
		return
	}
	if err := m.api.RevokeToken(ctx, m.oauthClientID, refresh); err != nil {
		m.logger.Warn("refresh token revoke failed", zap.Error(err))
	}
}

func (m *Manager) clearLocal(ctx context.Context) error {
	if err := m.store.Remove(ctx, sessionKeys...); err != nil {
		m.logger.Error("clearing session failed", zap.Error(err))
		return err
	}
	return nil
}
