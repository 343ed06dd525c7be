// File: internal/services/session/manager.go

// Package session arbitrates the single shared automation session. The
// remote client tolerates exactly one driver at a time, so every task
// that needs it runs under WithSession; the manager guarantees release
// on every exit path and exposes its state instead of side flags.
package session

import (
	"context"
	"sync"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
)

// Status is the manager's externally visible state.
type Status string

const (
	StatusIdle  Status = "idle"
	StatusHeld  Status = "held"
	StatusLogin Status = "login"
)

// Logger defines the logging interface used by the manager.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Manager owns the session mutex. It is not reentrant: a holder that
// calls back into WithSession deadlocks, so bodies must never nest.
type Manager struct {
	factory source.Factory
	config  *Config
	logger  Logger

	mu sync.Mutex // serializes session ownership

	stateMu      sync.Mutex
	status       Status
	loginPending bool
}

func NewManager(factory source.Factory, config *Config, logger Logger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, &SessionError{Type: ErrTypeConfig, Operation: "config", Message: err.Error()}
	}
	return &Manager{
		factory: factory,
		config:  config,
		logger:  logger,
		status:  StatusIdle,
	}, nil
}

// Status reports the current state without blocking on the session. A
// pending login reports as login even while another holder still owns
// the lock, so the session reads as reserved from the moment the login
// was requested.
func (m *Manager) Status() Status {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.loginPending {
		return StatusLogin
	}
	return m.status
}

// InLogin reports whether an interactive login is in progress or
// waiting for the session. The periodic scheduler skips its cycle while
// this holds, so a login is never starved by background work queueing
// behind the mutex, and duplicate login requests are rejected while one
// is still pending.
func (m *Manager) InLogin() bool {
	return m.Status() == StatusLogin
}

// WithSession runs fn with exclusive ownership of an open session.
// Callers queue behind whichever holder is active. A session-open
// failure is returned as-is so callers can tell it apart from errors
// raised by fn; in both cases the lock is released.
func (m *Manager) WithSession(ctx context.Context, fn func(ctx context.Context, sess source.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run(ctx, StatusHeld, fn)
}

// TryWithSession is the non-blocking variant: when the session is held
// or a login is in progress it returns ErrSessionBusy immediately.
func (m *Manager) TryWithSession(ctx context.Context, fn func(ctx context.Context, sess source.Session) error) error {
	if m.InLogin() {
		return ErrSessionBusy
	}
	if !m.mu.TryLock() {
		return ErrSessionBusy
	}
	defer m.mu.Unlock()
	return m.run(ctx, StatusHeld, fn)
}

// Login performs one interactive login attempt: opening a session
// forces the bridge to restore the profile or wait for the QR scan, so
// a successful open is a successful login. The pending flag reserves
// the session before the lock is acquired: new TryWithSession callers
// back off immediately, so the login only waits on the current holder,
// never on a queue. A timeout fails only this attempt; later cycles
// are unaffected.
func (m *Manager) Login(ctx context.Context) error {
	m.setLoginPending(true)
	defer m.setLoginPending(false)

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.config.LoginTimeout)
	defer cancel()

	err := m.run(ctx, StatusLogin, func(ctx context.Context, sess source.Session) error {
		return nil
	})
	if err != nil {
		return &SessionError{Type: ErrTypeLogin, Operation: "login", Message: "interactive login failed", Cause: err}
	}
	m.logger.Info("interactive login completed")
	return nil
}

// run executes fn under an already-acquired mutex, managing status
// transitions and session lifecycle. Cleanup uses its own context so
// the session is closed even after the caller's deadline has passed.
func (m *Manager) run(ctx context.Context, status Status, fn func(ctx context.Context, sess source.Session) error) error {
	m.setStatus(status)
	defer m.setStatus(StatusIdle)

	sess, err := m.factory.Open(ctx)
	if err != nil {
		m.logger.Error("could not open automation session", "error", err)
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), m.config.CloseTimeout)
		defer cancel()
		if err := sess.Close(closeCtx); err != nil {
			m.logger.Warn("session close failed", "error", err)
		}
	}()

	return fn(ctx, sess)
}

func (m *Manager) setStatus(status Status) {
	m.stateMu.Lock()
	m.status = status
	m.stateMu.Unlock()
}

func (m *Manager) setLoginPending(pending bool) {
	m.stateMu.Lock()
	m.loginPending = pending
	m.stateMu.Unlock()
}
