package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/metrics"
	"github.com/Domenick1991/skyclient/internal/remote"
)

// Authenticator is the part of the remote API the session needs.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (remote.AuthResponse, error)
	Register(ctx context.Context, fullName, email, password string) (remote.AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}

// Store is one persisted record. *storage.Record satisfies it.
type Store[T any] interface {
	Get(ctx context.Context) (*T, error)
	Persist(ctx context.Context, value T) error
	Delete(ctx context.Context) error
}

type SessionUseCase interface {
	Bootstrap(ctx context.Context) State
	SignIn(ctx context.Context, email, password string) (State, error)
	Register(ctx context.Context, fullName, email, password string) (State, error)
	SignOut(ctx context.Context) (State, error)
	UpdatePreference(ctx context.Context, key domain.PreferenceKey, value string) (State, error)
	ClearError() State
	State() State
	Subscribe() (<-chan State, func())
}

type envelope struct {
	action  Action
	applied chan State
}

// Machine owns the session. All state changes go through Reduce on a single
// goroutine, in the order they are dispatched. Remote and storage calls run
// on the caller's goroutine, so two sign-ins may overlap; the one whose
// result is dispatched last wins.
type Machine struct {
	api         Authenticator
	credentials Store[domain.Credential]
	preferences Store[domain.Preferences]
	logger      logger.Logger

	queue   chan envelope
	quit    chan struct{}
	stopped chan struct{}
	closeMu sync.Once

	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int

	bootOnce      sync.Once
	booted        chan struct{}
	autoBootstrap bool

	// serializes read-modify-write of the preference record with sign-in
	// and sign-out
	prefMu sync.Mutex
}

var _ SessionUseCase = (*Machine)(nil)

type MachineOption func(*Machine)

// WithoutAutoBootstrap leaves the startup check to an explicit Bootstrap call.
func WithoutAutoBootstrap() MachineOption {
	return func(m *Machine) {
		m.autoBootstrap = false
	}
}

// NewMachine starts the machine and, unless WithoutAutoBootstrap is given,
// begins bootstrapping in the background with ctx.
func NewMachine(
	ctx context.Context,
	api Authenticator,
	credentials Store[domain.Credential],
	preferences Store[domain.Preferences],
	log logger.Logger,
	opts ...MachineOption,
) *Machine {
	m := &Machine{
		api:           api,
		credentials:   credentials,
		preferences:   preferences,
		logger:        log.WithFields(map[string]interface{}{"component": "session"}),
		queue:         make(chan envelope),
		quit:          make(chan struct{}),
		stopped:       make(chan struct{}),
		state:         initialState(),
		subs:          make(map[int]chan State),
		booted:        make(chan struct{}),
		autoBootstrap: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.loop()
	if m.autoBootstrap {
		go m.Bootstrap(ctx)
	}
	return m
}

func (m *Machine) loop() {
	defer close(m.stopped)
	for {
		select {
		case env := <-m.queue:
			m.mu.Lock()
			prev := m.state
			next := Reduce(prev, env.action)
			m.state = next
			m.mu.Unlock()

			metrics.SessionTransitions.WithLabelValues(env.action.Name(), next.Status.String()).Inc()
			if prev.Status != next.Status || prev.Loading != next.Loading {
				m.logger.Info("session transition", map[string]interface{}{
					"action":  env.action.Name(),
					"from":    prev.Status.String(),
					"to":      next.Status.String(),
					"loading": next.Loading,
				})
			}
			m.publish(next)
			env.applied <- next
		case <-m.quit:
			return
		}
	}
}

func (m *Machine) dispatch(a Action) State {
	env := envelope{action: a, applied: make(chan State, 1)}
	select {
	case m.queue <- env:
	case <-m.stopped:
		return m.State()
	}
	select {
	case s := <-env.applied:
		return s
	case <-m.stopped:
		return m.State()
	}
}

// Close stops the dispatch loop and closes every subscription.
func (m *Machine) Close() error {
	m.closeMu.Do(func() {
		close(m.quit)
		<-m.stopped
		m.subMu.Lock()
		for id, ch := range m.subs {
			close(ch)
			delete(m.subs, id)
		}
		m.subMu.Unlock()
	})
	return nil
}

func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe returns a channel that always yields the latest state; stale
// snapshots a slow reader has not taken yet are dropped. The current state
// is delivered first.
func (m *Machine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- m.State()
	m.subMu.Unlock()

	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if c, ok := m.subs[id]; ok {
			close(c)
			delete(m.subs, id)
		}
	}
}

func (m *Machine) publish(s State) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Bootstrap restores the persisted session and checks its token with the
// server. It runs once per Machine; later calls wait for that run and return
// the current state. Sign-in, registration and sign-out call it first.
func (m *Machine) Bootstrap(ctx context.Context) State {
	m.bootOnce.Do(func() {
		defer close(m.booted)
		m.dispatch(m.bootstrap(ctx))
	})
	return m.State()
}

// Ready blocks until bootstrap has finished or ctx is done.
func (m *Machine) Ready(ctx context.Context) (State, error) {
	select {
	case <-m.booted:
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

func (m *Machine) bootstrap(ctx context.Context) Action {
	cred, err := m.credentials.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaCorruption) {
			m.logger.Warn("persisted credential was corrupted and removed", map[string]interface{}{"error": err})
			return Bootstrapped{Preferences: domain.DefaultPreferences()}
		}
		return Failed{Err: fmt.Errorf("read credential: %w", err)}
	}
	prefs, err := m.loadPreferences(ctx)
	if err != nil {
		return Failed{Err: err}
	}
	if cred == nil {
		return Bootstrapped{Preferences: domain.DefaultPreferences()}
	}

	valid, err := m.api.ValidateToken(ctx, cred.Token)
	if err != nil {
		return Failed{Err: fmt.Errorf("validate token: %w", err)}
	}
	if !valid {
		m.logger.Info("persisted token rejected by server, signing out", map[string]interface{}{"email": cred.Email})
		if err := m.credentials.Delete(ctx); err != nil {
			return Failed{Err: fmt.Errorf("remove rejected credential: %w", err)}
		}
		return Bootstrapped{Preferences: domain.DefaultPreferences()}
	}

	if prefs == nil {
		d := domain.DefaultPreferences()
		if err := m.preferences.Persist(ctx, d); err != nil {
			return Failed{Err: fmt.Errorf("persist default preferences: %w", err)}
		}
		prefs = &d
	}
	return Bootstrapped{Credential: cred, Preferences: *prefs}
}

// loadPreferences treats a corrupted record as absent; it has already been
// deleted by the store.
func (m *Machine) loadPreferences(ctx context.Context) (*domain.Preferences, error) {
	prefs, err := m.preferences.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaCorruption) {
			m.logger.Warn("persisted preferences were corrupted and removed", map[string]interface{}{"error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	return prefs, nil
}

func (m *Machine) SignIn(ctx context.Context, email, password string) (State, error) {
	m.Bootstrap(ctx)
	m.dispatch(LoadingStarted{})

	resp, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		cause := &SignInError{Op: "sign in", Err: err}
		return m.dispatch(Failed{Err: cause}), cause
	}
	return m.establish(ctx, resp)
}

func (m *Machine) Register(ctx context.Context, fullName, email, password string) (State, error) {
	m.Bootstrap(ctx)
	m.dispatch(LoadingStarted{})

	resp, err := m.api.Register(ctx, fullName, email, password)
	if err != nil {
		cause := &SignInError{Op: "register", Err: err}
		return m.dispatch(Failed{Err: cause}), cause
	}
	return m.establish(ctx, resp)
}

// establish persists the credential and makes sure a preference record
// exists. If the second step fails the credential is removed again so no
// half-written session survives a restart.
func (m *Machine) establish(ctx context.Context, resp remote.AuthResponse) (State, error) {
	username := resp.FullName
	if username == "" {
		username = resp.Email
	}
	cred := domain.Credential{Email: resp.Email, Username: username, Token: resp.Token}

	if err := m.credentials.Persist(ctx, cred); err != nil {
		err = fmt.Errorf("persist credential: %w", err)
		return m.dispatch(Failed{Err: err}), err
	}

	m.prefMu.Lock()
	prefs, err := m.ensurePreferences(ctx)
	m.prefMu.Unlock()
	if err != nil {
		if derr := m.credentials.Delete(ctx); derr != nil {
			m.logger.Error("failed to roll back credential", map[string]interface{}{"error": derr})
			err = errors.Join(err, derr)
		}
		return m.dispatch(Failed{Err: err}), err
	}

	return m.dispatch(SignedIn{Credential: cred, Preferences: prefs}), nil
}

func (m *Machine) ensurePreferences(ctx context.Context) (domain.Preferences, error) {
	prefs, err := m.loadPreferences(ctx)
	if err != nil {
		return domain.Preferences{}, err
	}
	if prefs != nil {
		return *prefs, nil
	}
	d := domain.DefaultPreferences()
	if err := m.preferences.Persist(ctx, d); err != nil {
		return domain.Preferences{}, fmt.Errorf("persist default preferences: %w", err)
	}
	return d, nil
}

// SignOut removes the credential. The preference record is kept and applied
// again at the next sign-in. A preference update started meanwhile waits
// and then sees the signed-out state.
func (m *Machine) SignOut(ctx context.Context) (State, error) {
	m.Bootstrap(ctx)

	m.prefMu.Lock()
	defer m.prefMu.Unlock()
	m.dispatch(LoadingStarted{})

	if err := m.credentials.Delete(ctx); err != nil {
		err = fmt.Errorf("remove credential: %w", err)
		return m.dispatch(Failed{Err: err}), err
	}
	return m.dispatch(SignedOut{}), nil
}

// UpdatePreference does nothing unless signed in. An unknown key or value is
// returned as a validation error without touching state.
func (m *Machine) UpdatePreference(ctx context.Context, key domain.PreferenceKey, value string) (State, error) {
	m.prefMu.Lock()
	defer m.prefMu.Unlock()

	current := m.State()
	if !current.SignedIn() {
		return current, nil
	}
	next, err := current.Preferences.With(key, value)
	if err != nil {
		return current, err
	}
	if next == current.Preferences {
		return current, nil
	}

	if err := m.preferences.Persist(ctx, next); err != nil {
		err = fmt.Errorf("persist preferences: %w", err)
		return m.dispatch(PreferenceSaveFailed{Err: err}), err
	}
	return m.dispatch(PreferencesChanged{Preferences: next}), nil
}

func (m *Machine) ClearError() State {
	return m.dispatch(ErrorCleared{})
}

// Token returns the credential token of a signed-in session.
func (m *Machine) Token() (string, error) {
	cred, err := m.State().Credential()
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}
