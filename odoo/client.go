// Package odoo talks to the ERP over its JSON-RPC endpoint.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/sirupsen/logrus"
)

const jsonRPCPath = "/jsonrpc"

var (
	ErrAuthFailed = errors.New("odoo authentication failed")
	ErrEmptyURL   = errors.New("odoo url is empty")
)

// RemoteError is an error object returned inside a JSON-RPC response.
type RemoteError struct {
	Code    int
	Message string
	Name    string
	Detail  string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.Name != "" {
		return fmt.Sprintf("odoo error %d (%s): %s", e.Code, e.Name, msg)
	}
	return fmt.Sprintf("odoo error %d: %s", e.Code, msg)
}

// IsAccessDenied reports whether the ERP rejected the credentials, either at
// login or on a later call with a revoked key.
func IsAccessDenied(err error) bool {
	if errors.Is(err, ErrAuthFailed) {
		return true
	}
	var remote *RemoteError
	return errors.As(err, &remote) && strings.HasSuffix(remote.Name, "AccessDenied")
}

type Client struct {
	baseURL string
	db      string
	http    *http.Client
	limiter <-chan time.Time
	nextID  atomic.Int64
	logger  *logrus.Logger
}

func NewClient(baseURL string, db string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		db:      db,
		http:    &http.Client{Timeout: timeout},
		logger:  config.GetLogger(),
	}, nil
}

// WithRateLimit spaces calls at most perMin per minute. Zero disables it.
func (c *Client) WithRateLimit(perMin int) *Client {
	if perMin > 0 {
		c.limiter = time.Tick(time.Minute / time.Duration(perMin))
	}
	return c
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		} `json:"data"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, service string, method string, args []any) (json.RawMessage, error) {
	if c.limiter != nil {
		select {
		case <-c.limiter:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+jsonRPCPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("odoo http error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed rpcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode odoo response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &RemoteError{
			Code:    parsed.Error.Code,
			Message: parsed.Error.Message,
			Name:    parsed.Error.Data.Name,
			Detail:  parsed.Error.Data.Message,
		}
	}
	return parsed.Result, nil
}

// Authenticate exchanges a login and API key for the numeric user id. The ERP
// answers false on bad credentials, which maps to ErrAuthFailed.
func (c *Client) Authenticate(ctx context.Context, login string, apiKey string) (int64, error) {
	result, err := c.call(ctx, "common", "authenticate", []any{c.db, login, apiKey, map[string]any{}})
	if err != nil {
		return 0, err
	}
	var uid int64
	if err := json.Unmarshal(result, &uid); err != nil || uid <= 0 {
		return 0, ErrAuthFailed
	}
	c.logger.WithFields(logrus.Fields{"db": c.db, "uid": uid}).Info("odoo authenticated")
	return uid, nil
}

// As binds credentials so callers only name the model and query.
func (c *Client) As(uid int64, apiKey string) *Caller {
	return &Caller{client: c, uid: uid, apiKey: apiKey}
}

type Caller struct {
	client *Client
	uid    int64
	apiKey string
}

// SearchRead runs execute_kw search_read and decodes the record array into out.
func (c *Caller) SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts Options, out any) error {
	if domain == nil {
		domain = Domain{}
	}
	started := time.Now()
	result, err := c.client.call(ctx, "object", "execute_kw", []any{
		c.client.db, c.uid, c.apiKey, model, "search_read", []any{domain}, opts.kwargs(fields),
	})
	if err != nil {
		return fmt.Errorf("%s search_read: %w", model, err)
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("%s search_read decode: %w", model, err)
	}
	c.client.logger.WithFields(logrus.Fields{
		"model":   model,
		"bytes":   len(result),
		"latency": time.Since(started).String(),
	}).Debug("odoo search_read")
	return nil
}
