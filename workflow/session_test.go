package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/odoo"
)

func newERPServer(t *testing.T, uid string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params struct {
				Service string `json:"service"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Params.Service == "common" {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + uid + `}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":2,"result":[{"id":1}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin(t *testing.T) {
	srv := newERPServer(t, "7")
	st := config.OdooSettings{URL: srv.URL, DB: "feet", Login: "admin", APIKey: "key", CompanyID: 3, Timeout: time.Second, RateLimitPerMin: 6000}

	sess, err := Login(context.Background(), st)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if !sess.Valid() || sess.UID != 7 || sess.CompanyID != 3 {
		t.Fatalf("unexpected session %+v", sess)
	}

	if _, err := Login(context.Background(), config.OdooSettings{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for unconfigured settings, got %v", err)
	}

	rejected := newERPServer(t, "false")
	st.URL = rejected.URL
	if _, err := Login(context.Background(), st); !errors.Is(err, odoo.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestOdooConnectorSharesRateLimit(t *testing.T) {
	srv := newERPServer(t, "7")
	// 600 per minute is one call every 100ms
	connect := OdooConnector(config.OdooSettings{Timeout: time.Second, RateLimitPerMin: 600})
	sess := Session{URL: srv.URL, DB: "feet", UID: 7, APIKey: "key"}

	first, err := connect(sess)
	if err != nil {
		t.Fatalf("connect error: %v", err)
	}
	second, err := connect(sess)
	if err != nil {
		t.Fatalf("connect error: %v", err)
	}

	start := time.Now()
	for i, erp := range []SearchReader{first, second} {
		var rows []struct {
			ID int64 `json:"id"`
		}
		if err := erp.SearchRead(context.Background(), ModelOrder, nil, nil, odoo.Options{}, &rows); err != nil || len(rows) != 1 {
			t.Fatalf("SearchRead %d: rows=%v err=%v", i, rows, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Fatalf("expected both sessions to share one limiter, 2 calls took %s", elapsed)
	}

	if _, err := connect(Session{URL: " ", DB: "feet"}); !errors.Is(err, odoo.ErrEmptyURL) {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}
}
