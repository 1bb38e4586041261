// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metabasemcp/auth"
	"metabasemcp/internal/metabase"
)

// newTestServer starts a fake Metabase backend and returns an MCP server
// connected to it, together with the backend URL and a request log.
func newTestServer(t *testing.T, h http.Handler) (*Server, string, *requestLog) {
	t.Helper()
	rl := &requestLog{}
	srv := httptest.NewServer(rl.wrap(h))
	t.Cleanup(srv.Close)
	prov, err := auth.NewAPIKey("mb_test_key")
	require.NoError(t, err)
	mb, err := metabase.New(srv.URL, prov)
	require.NoError(t, err)
	return New(mb), srv.URL, rl
}

// requestLog records "METHOD /path" for every request the fake backend
// receives.
type requestLog struct {
	mu   sync.Mutex
	reqs []string
}

func (rl *requestLog) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl.mu.Lock()
		rl.reqs = append(rl.reqs, r.Method+" "+r.URL.Path)
		rl.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (rl *requestLog) all() []string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return append([]string(nil), rl.reqs...)
}

// toolReq builds a tool call request with the given arguments.
func toolReq(args map[string]any) mcplib.CallToolRequest {
	var req mcplib.CallToolRequest
	req.Params.Arguments = args
	return req
}

// textOf extracts the single text content of a tool result.
func textOf(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestNew_catalog(t *testing.T) {
	s, _, _ := newTestServer(t, http.NotFoundHandler())
	assert.Len(t, s.tools(), 19)

	seen := make(map[string]bool)
	for _, tool := range s.tools() {
		assert.False(t, seen[tool.Tool.Name], "duplicate tool %q", tool.Tool.Name)
		seen[tool.Tool.Name] = true
	}
}

func TestInstructions(t *testing.T) {
	s, baseURL, _ := newTestServer(t, http.NotFoundHandler())
	got := instructions(s.mb)
	assert.Contains(t, got, baseURL)
	assert.Contains(t, got, "metabase://dashboard/{id}")
}

func Test_idArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    int
		wantErr string
	}{
		{"ok", map[string]any{"dashboard_id": float64(5)}, 5, ""},
		{"int", map[string]any{"dashboard_id": 5}, 5, ""},
		{"missing", map[string]any{}, 0, "dashboard_id is required"},
		{"nil args", nil, 0, "dashboard_id is required"},
		{"zero", map[string]any{"dashboard_id": float64(0)}, 0, "dashboard_id must be a positive integer"},
		{"negative", map[string]any{"dashboard_id": float64(-1)}, 0, "dashboard_id must be a positive integer"},
		{"string", map[string]any{"dashboard_id": "5"}, 0, "dashboard_id must be a positive integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idArg(toolReq(tt.args), "dashboard_id")
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_argHelpers(t *testing.T) {
	req := toolReq(map[string]any{
		"name":    "Revenue",
		"num":     float64(3),
		"flag":    true,
		"obj":     map[string]any{"a": "b"},
		"arr":     []any{"x"},
		"badType": 42,
	})

	s, ok := stringArg(req, "name")
	assert.True(t, ok)
	assert.Equal(t, "Revenue", s)
	_, ok = stringArg(req, "absent")
	assert.False(t, ok)
	_, ok = stringArg(req, "badType")
	assert.False(t, ok)

	assert.Equal(t, 3, intArg(req, "num", 0))
	assert.Equal(t, 7, intArg(req, "absent", 7))
	assert.True(t, boolArg(req, "flag", false))
	assert.False(t, boolArg(req, "absent", false))

	m, ok := objArg(req, "obj")
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"a": "b"}, m)

	a, ok := arrArg(req, "arr")
	assert.True(t, ok)
	assert.Equal(t, []any{"x"}, a)
}

func Test_otherFields(t *testing.T) {
	req := toolReq(map[string]any{
		"dashboard_id": float64(5),
		"name":         "Revenue",
		"description":  "quarterly",
	})
	got := otherFields(req, "dashboard_id")
	assert.Equal(t, map[string]any{"name": "Revenue", "description": "quarterly"}, got)

	// the request arguments are left untouched
	assert.Contains(t, req.GetArguments(), "dashboard_id")
}

func Test_prettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", prettyJSON([]byte(`{"a":1}`)))
	assert.Equal(t, "not json", prettyJSON([]byte("not json")))
}

func TestWithDeepLink(t *testing.T) {
	s, baseURL, _ := newTestServer(t, http.NotFoundHandler())

	res := s.withDeepLink([]byte(`{"id":12,"name":"Revenue"}`), "question", `Card "Revenue" created.`)
	text := textOf(t, res)
	assert.False(t, res.IsError)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &m))
	assert.Equal(t, baseURL+"/question/12", m["_link"])
	msg, _ := m["_message"].(string)
	assert.True(t, strings.HasPrefix(msg, `Card "Revenue" created.`))
	assert.Equal(t, "Revenue", m["name"])
}

func TestWithDeepLink_noID(t *testing.T) {
	s, _, _ := newTestServer(t, http.NotFoundHandler())
	text := textOf(t, s.withDeepLink([]byte(`{"name":"Revenue"}`), "question", "created"))
	assert.NotContains(t, text, "_link")
	assert.Contains(t, text, "Revenue")
}
