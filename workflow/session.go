package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/odoo"
)

var (
	ErrNoSession = errors.New("no active erp session")
	ErrRemote    = errors.New("erp request failed")
)

// SearchReader is the single ERP capability the pipeline needs.
type SearchReader interface {
	SearchRead(ctx context.Context, model string, domain odoo.Domain, fields []string, opts odoo.Options, out any) error
}

// Session is an authenticated ERP identity plus the company it is scoped to.
type Session struct {
	URL         string `json:"url"`
	DB          string `json:"db"`
	UID         int64  `json:"uid"`
	APIKey      string `json:"-"`
	CompanyID   int64  `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

func (s *Session) Valid() bool {
	return s != nil && s.UID > 0 && s.APIKey != ""
}

// Connector turns a session into a SearchReader.
type Connector func(sess Session) (SearchReader, error)

// OdooConnector keeps one JSON-RPC client per ERP URL and database, so the
// call rate limit holds across runs, and binds each session's credentials.
func OdooConnector(st config.OdooSettings) Connector {
	var mu sync.Mutex
	clients := map[string]*odoo.Client{}
	return func(sess Session) (SearchReader, error) {
		mu.Lock()
		defer mu.Unlock()
		key := sess.URL + "|" + sess.DB
		c, ok := clients[key]
		if !ok {
			var err error
			c, err = odoo.NewClient(sess.URL, sess.DB, st.Timeout)
			if err != nil {
				return nil, err
			}
			clients[key] = c.WithRateLimit(st.RateLimitPerMin)
		}
		return c.As(sess.UID, sess.APIKey), nil
	}
}

// Login authenticates with the configured credentials and returns a session.
func Login(ctx context.Context, st config.OdooSettings) (*Session, error) {
	if !st.Configured() {
		return nil, ErrNoSession
	}
	c, err := odoo.NewClient(st.URL, st.DB, st.Timeout)
	if err != nil {
		return nil, err
	}
	uid, err := c.WithRateLimit(st.RateLimitPerMin).Authenticate(ctx, st.Login, st.APIKey)
	if err != nil {
		return nil, err
	}
	return &Session{
		URL:         st.URL,
		DB:          st.DB,
		UID:         uid,
		APIKey:      st.APIKey,
		CompanyID:   st.CompanyID,
		CompanyName: st.CompanyName,
	}, nil
}
