package erpsync

import (
	"context"
	"errors"
	"testing"

	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/odoo"
	"github.com/gaorsystempe-cpu/operacionesFeet/workflow"
)

func TestLoginCache(t *testing.T) {
	logins := 0
	fail := false
	lc := NewLoginCache(config.OdooSettings{CompanyID: 3}, func(_ context.Context, st config.OdooSettings) (*workflow.Session, error) {
		logins++
		if fail {
			return nil, odoo.ErrAuthFailed
		}
		return &workflow.Session{UID: 9, APIKey: "key", CompanyID: st.CompanyID}, nil
	})

	if lc.Current() != nil {
		t.Fatalf("expected no session before first use")
	}
	for i := 0; i < 2; i++ {
		sess, err := lc.Session(context.Background())
		if err != nil || sess.UID != 9 || sess.CompanyID != 3 {
			t.Fatalf("unexpected session %+v (%v)", sess, err)
		}
	}
	if logins != 1 {
		t.Fatalf("expected one login, got %d", logins)
	}

	lc.Reset()
	fail = true
	if _, err := lc.Session(context.Background()); !errors.Is(err, odoo.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if lc.Current() != nil || logins != 2 {
		t.Fatalf("expected failed login not cached, logins=%d", logins)
	}
}
