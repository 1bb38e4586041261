package metabase

// In this file: lazy session establishment for username/password mode.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"metabasemcp/auth"
)

type sessionRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

// ensureSession makes sure the client holds a usable credential.  In API
// key mode this is a no-op: the key travels as a static header and no
// network call is ever made.  In username/password mode the first call
// exchanges the credentials for a session token via POST /api/session and
// memoises it for the lifetime of the process; the token is never
// refreshed.  A failed login is not cached, so the next call retries from
// scratch.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.prov.Type() == auth.TypeAPIKey {
		return nil
	}
	if c.token() != "" {
		return nil
	}
	return c.login(ctx)
}

// login performs the session exchange.  It is serialised so that
// concurrent first requests produce at most one observable login call.
func (c *Client) login(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if c.token() != "" {
		// Another request logged in while we were waiting.
		return nil
	}

	username, password := c.prov.Credentials()
	c.logger.DebugContext(ctx, "metabase: establishing session", "username", username)

	raw, err := c.roundTrip(ctx, http.MethodPost, "/api/session", nil, sessionRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return &auth.Error{Err: err, Msg: fmt.Sprintf("login as %q failed: %v", username, err)}
	}
	var sr sessionResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return &auth.Error{Err: err, Msg: "malformed session response"}
	}
	if sr.ID == "" {
		return &auth.Error{Err: errors.New("empty session id"), Msg: "session response carried no token"}
	}

	c.setToken(sr.ID)
	c.logger.InfoContext(ctx, "metabase: session established", "username", username)
	return nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = tok
}
