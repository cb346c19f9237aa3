package erpsync

import (
	"context"
	"sync"

	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/workflow"
)

// SessionSource hands out the ERP session the handlers reconcile with.
type SessionSource interface {
	Session(ctx context.Context) (*workflow.Session, error)
	// Current returns the cached session without logging in.
	Current() *workflow.Session
	Reset()
}

type LoginFunc func(ctx context.Context, st config.OdooSettings) (*workflow.Session, error)

// LoginCache authenticates on first use and keeps the session until Reset.
type LoginCache struct {
	settings config.OdooSettings
	login    LoginFunc
	mu       sync.Mutex
	session  *workflow.Session
}

func NewLoginCache(settings config.OdooSettings, login LoginFunc) *LoginCache {
	if login == nil {
		login = workflow.Login
	}
	return &LoginCache{settings: settings, login: login}
}

func (lc *LoginCache) Session(ctx context.Context) (*workflow.Session, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.session.Valid() {
		return lc.session, nil
	}
	sess, err := lc.login(ctx, lc.settings)
	if err != nil {
		return nil, err
	}
	lc.session = sess
	return sess, nil
}

func (lc *LoginCache) Current() *workflow.Session {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.session
}

func (lc *LoginCache) Reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.session = nil
}
