package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/shared"
	"golang.org/x/sync/singleflight"
)

// State is the resolution state of a [Session].
type State int

const (
	Unauthenticated State = iota
	Resolving
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is a snapshot of the authentication state.
type Session struct {
	State State
	Token string
	User  *models.User
}

// Authenticated reports whether the session carries a resolved user.
func (s Session) Authenticated() bool {
	return s.State == Authenticated
}

// TokenPersister stores the session token durably.
type TokenPersister interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Manager is the single writer of the session state and the persisted token.
type Manager struct {
	auth    Authenticator
	tokens  TokenPersister
	logger  *log.Logger
	changes chan Session
	group   singleflight.Group

	mu         sync.Mutex
	current    Session
	generation uint64
	waiters    map[string]int
}

// NewManager creates a [Manager] in the Unauthenticated state. Call [Manager.Restore] to pick up a stored token.
func NewManager(auth Authenticator, tokens TokenPersister, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		auth:    auth,
		tokens:  tokens,
		logger:  shared.WithLogger(logger, "component", "session"),
		changes: make(chan Session, 16),
		waiters: make(map[string]int),
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Token returns the current bearer token, or "" when there is none.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Token
}

// Changes delivers a snapshot after every transition. Snapshots are dropped when the buffer is full.
func (m *Manager) Changes() <-chan Session {
	return m.changes
}

// Restore resolves the stored token, if any.
//
// Without a stored token the session becomes Unauthenticated without any network call.
// Any failure to resolve the token clears it, but a restore abandoned by its caller keeps it.
// A restore that joins an identical pending resolution shares its result.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	token, err := m.tokens.Load()
	if err != nil {
		m.logger.Warn("failed to read stored token", "error", err)
		token = ""
	}

	m.mu.Lock()
	if token == "" {
		m.generation++
		m.transition(Session{State: Unauthenticated})
		s := m.snapshot()
		m.mu.Unlock()
		return s, nil
	}

	if m.current.State != Resolving || m.current.Token != token {
		m.generation++
		m.transition(Session{State: Resolving, Token: token})
	}
	gen := m.generation
	m.mu.Unlock()

	m.logger.Debug("resolving stored token")
	return m.resolve(ctx, gen, token, true)
}

// Login exchanges credentials for a token, persists it and resolves the user.
//
// If the token cannot be obtained the session is left as it was. If the user cannot be resolved, or the caller gives up
// while it is being resolved, the token is cleared and the session becomes Unauthenticated.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	creds, err := credentials(email, password)
	if err != nil {
		return m.Current(), err
	}

	tok, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.Info("login rejected", "email", creds.Email, "error", err)
		return m.Current(), err
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	if err := m.tokens.Save(tok.AccessToken); err != nil {
		m.transition(Session{State: Unauthenticated})
		s := m.snapshot()
		m.mu.Unlock()
		return s, fmt.Errorf("failed to persist token: %w", err)
	}
	m.transition(Session{State: Resolving, Token: tok.AccessToken})
	m.mu.Unlock()

	return m.resolve(ctx, gen, tok.AccessToken, false)
}

// Signup creates an account and then logs in with the same credentials.
func (m *Manager) Signup(ctx context.Context, email, password string) (Session, error) {
	creds, err := credentials(email, password)
	if err != nil {
		return m.Current(), err
	}

	if _, err := m.auth.Signup(ctx, creds); err != nil {
		m.logger.Info("signup rejected", "email", creds.Email, "error", err)
		return m.Current(), err
	}

	m.logger.Info("account created", "email", creds.Email)
	return m.Login(ctx, creds.Email, creds.Password)
}

// Logout clears the token and user. A resolution still in flight is discarded when it completes.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.transition(Session{State: Unauthenticated})

	if err := m.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Reject de-authenticates the session if token is still the current one.
// Called when a request carrying token was answered with 401.
func (m *Manager) Reject(token string) bool {
	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Token != token {
		return false
	}

	m.logger.Warn("token rejected by backend, signing out")
	m.generation++
	m.transition(Session{State: Unauthenticated})
	if err := m.tokens.Clear(); err != nil {
		m.logger.Error("failed to clear rejected token", "error", err)
	}
	return true
}

// resolve waits for the user behind token. The lookup is shared by every caller resolving the same token and runs
// detached from their contexts, so one caller giving up does not fail the others.
//
// A caller that gives up while others still wait leaves the session Resolving. The last one out ends it: Restore
// (keepToken) leaves the stored token for the next start, Login clears it.
func (m *Manager) resolve(ctx context.Context, gen uint64, token string, keepToken bool) (Session, error) {
	m.mu.Lock()
	m.waiters[token]++
	m.mu.Unlock()

	ch := m.group.DoChan(token, func() (any, error) {
		return m.auth.Me(context.WithoutCancel(ctx), token)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return m.abandon(ctx.Err(), gen, token, keepToken)
	}
	if res.Shared {
		m.logger.Debug("shared pending resolution")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.leave(token)

	if m.generation != gen {
		return m.snapshot(), ErrSessionReplaced
	}

	if res.Err != nil {
		m.generation++
		m.transition(Session{State: Unauthenticated})
		if clearErr := m.tokens.Clear(); clearErr != nil {
			m.logger.Error("failed to clear token", "error", clearErr)
		}
		m.logger.Info("session resolution failed", "error", res.Err)
		return m.snapshot(), fmt.Errorf("failed to resolve session: %w", res.Err)
	}

	user := *res.Val.(*models.User)
	m.transition(Session{State: Authenticated, Token: token, User: &user})
	m.logger.Info("session resolved", "email", user.Email)
	return m.snapshot(), nil
}

func (m *Manager) abandon(err error, gen uint64, token string, keepToken bool) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leave(token)

	if m.generation != gen {
		return m.snapshot(), err
	}
	if keepToken && m.waiters[token] > 0 {
		return m.snapshot(), err
	}

	m.generation++
	m.transition(Session{State: Unauthenticated})
	if !keepToken {
		if clearErr := m.tokens.Clear(); clearErr != nil {
			m.logger.Error("failed to clear token", "error", clearErr)
		}
	}
	m.logger.Info("session resolution abandoned", "error", err, "token_kept", keepToken)
	return m.snapshot(), err
}

// leave drops one waiter for token. Callers hold m.mu.
func (m *Manager) leave(token string) {
	if m.waiters[token]--; m.waiters[token] <= 0 {
		delete(m.waiters, token)
	}
}

// transition replaces the session and publishes it. Callers hold m.mu.
func (m *Manager) transition(s Session) {
	m.current = s
	select {
	case m.changes <- m.snapshot():
	default:
	}
}

// snapshot copies the session so callers cannot mutate the user. Callers hold m.mu.
func (m *Manager) snapshot() Session {
	s := m.current
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func credentials(email, password string) (models.Credentials, error) {
	creds := models.Credentials{Email: strings.TrimSpace(email), Password: password}
	if creds.Email == "" || creds.Password == "" {
		return creds, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}
	return creds, nil
}

// ErrSessionReplaced is returned by a resolution whose result was discarded because the session changed first.
var ErrSessionReplaced = shared.ErrSessionReplaced
