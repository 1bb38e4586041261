package metabase

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metabasemcp/auth"
)

// userPassServer starts a fake backend and returns a client in
// username/password mode.
func userPassServer(t *testing.T, h http.Handler) (*Client, *requestLog) {
	t.Helper()
	rl := &requestLog{}
	srv := httptest.NewServer(rl.wrap(h))
	t.Cleanup(srv.Close)
	prov, err := auth.NewUserPass("bob@example.com", "hunter2")
	require.NoError(t, err)
	cl, err := New(srv.URL, prov)
	require.NoError(t, err)
	return cl, rl
}

func TestEnsureSession_apiKeyNeverLogsIn(t *testing.T) {
	cl, rl := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	for range 3 {
		_, err := cl.ListDashboards(t.Context())
		require.NoError(t, err)
	}
	assert.Zero(t, rl.count("POST /api/session"))
	assert.Equal(t, 3, rl.count("GET /api/dashboard"))
}

func TestEnsureSession_loginOnce(t *testing.T) {
	var gotSession []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, r *http.Request) {
		var sr sessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sr))
		assert.Equal(t, "bob@example.com", sr.Username)
		assert.Equal(t, "hunter2", sr.Password)
		assert.Empty(t, r.Header.Get(hdrSession), "login request must not carry a session")
		w.Write([]byte(`{"id":"sess-token-1"}`))
	})
	mux.HandleFunc("GET /api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		gotSession = append(gotSession, r.Header.Get(hdrSession))
		w.Write([]byte(`[]`))
	})
	cl, rl := userPassServer(t, mux)

	for range 3 {
		_, err := cl.ListDashboards(t.Context())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, rl.count("POST /api/session"), "token must be reused across calls")
	assert.Equal(t, []string{"sess-token-1", "sess-token-1", "sess-token-1"}, gotSession)
}

func TestEnsureSession_concurrentFirstUse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"sess-token-1"}`))
	})
	mux.HandleFunc("GET /api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	cl, rl := userPassServer(t, mux)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cl.ListDashboards(t.Context())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, rl.count("POST /api/session"))
}

func TestEnsureSession_failedLoginNotCached(t *testing.T) {
	var ok bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Password: did not match stored password"}`))
			return
		}
		w.Write([]byte(`{"id":"sess-token-2"}`))
	})
	mux.HandleFunc("GET /api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	cl, rl := userPassServer(t, mux)

	_, err := cl.ListDashboards(t.Context())
	require.Error(t, err)
	var authErr *auth.Error
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, rl.count("GET /api/dashboard"), "no API call after a failed login")

	// credentials fixed on the backend: the next call retries the login
	ok = true
	_, err = cl.ListDashboards(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, rl.count("POST /api/session"))
}

func TestEnsureSession_malformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty id", `{"id":""}`},
		{"no id", `{}`},
		{"not json", `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			cl, _ := userPassServer(t, mux)

			_, err := cl.ListDashboards(t.Context())
			require.Error(t, err)
			var authErr *auth.Error
			assert.ErrorAs(t, err, &authErr)
		})
	}
}
