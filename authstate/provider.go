package authstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrEthical07/deviceauth"
)

// Engine is the subset of *deviceauth.Engine used by Provider.
type Engine interface {
	RestoreSession(ctx context.Context) (*deviceauth.User, error)
	Login(ctx context.Context, identifier, password string) (deviceauth.LoginResult, error)
	BiometricLogin(ctx context.Context, reason string) (deviceauth.LoginResult, error)
	Register(ctx context.Context, data deviceauth.RegistrationData) (deviceauth.User, error)
	Logout(ctx context.Context) error
}

// State is an immutable snapshot handed to subscribers.
type State struct {
	User            *deviceauth.User
	IsAuthenticated bool
	IsLoading       bool
}

// Listener receives every state change.
type Listener func(State)

// Provider tracks the signed-in user. It starts in the loading state until
// Load completes.
type Provider struct {
	engine Engine
	logger *slog.Logger

	mu        sync.Mutex
	user      *deviceauth.User
	loading   bool
	nextID    int
	listeners map[int]Listener
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for restore failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(engine Engine, opts ...Option) *Provider {
	p := &Provider{
		engine:    engine,
		logger:    slog.New(slog.DiscardHandler),
		loading:   true,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Provider) stateLocked() State {
	var user *deviceauth.User
	if p.user != nil {
		u := *p.user
		user = &u
	}
	return State{
		User:            user,
		IsAuthenticated: p.user != nil,
		IsLoading:       p.loading,
	}
}

// Subscribe registers fn for state changes and returns a function removing it.
func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// set applies mut under the lock and notifies listeners outside it.
func (p *Provider) set(mut func()) {
	p.mu.Lock()
	mut()
	state := p.stateLocked()
	listeners := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Load restores the persisted session and clears the loading flag. A restore
// error is logged and leaves the user signed out.
func (p *Provider) Load(ctx context.Context) {
	user, err := p.engine.RestoreSession(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "session restore failed", "error", err)
		user = nil
	}
	p.set(func() {
		p.user = user
		p.loading = false
	})
}

// Login runs a credential login and signs the user in on success.
func (p *Provider) Login(ctx context.Context, identifier, password string) (deviceauth.LoginResult, error) {
	res, err := p.engine.Login(ctx, identifier, password)
	p.adopt(res, err)
	return res, err
}

// BiometricLogin runs a biometric login and signs the user in on success.
func (p *Provider) BiometricLogin(ctx context.Context, reason string) (deviceauth.LoginResult, error) {
	res, err := p.engine.BiometricLogin(ctx, reason)
	p.adopt(res, err)
	return res, err
}

func (p *Provider) adopt(res deviceauth.LoginResult, err error) {
	if err != nil || !res.Success || res.User == nil {
		return
	}
	user := *res.User
	p.set(func() { p.user = &user })
}

// Register creates the account and treats the new user as signed in for the
// rest of this process. No session is persisted until the next Login.
func (p *Provider) Register(ctx context.Context, data deviceauth.RegistrationData) (deviceauth.User, error) {
	user, err := p.engine.Register(ctx, data)
	if err != nil {
		return deviceauth.User{}, err
	}
	u := user
	p.set(func() { p.user = &u })
	return user, nil
}

// Logout removes the session and signs the user out. The in-memory state is
// cleared even when the engine reports a storage fault.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.engine.Logout(ctx)
	p.set(func() { p.user = nil })
	return err
}
