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

// In this file: MCP server construction, transport management, and
// argument/result helpers shared by the tool handlers.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"metabasemcp/internal/metabase"
)

const (
	serverName    = "metabase-mcp"
	serverVersion = "1.0.0"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout for communication (default, suitable
	// for local agent integrations such as Claude Desktop).
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP transport (suitable for remote
	// agents or when multiple concurrent clients are needed).
	TransportHTTP Transport = "http"
)

// Server wraps an MCP server and the Metabase client it delegates to.
type Server struct {
	mcp    *mcpsrv.MCPServer
	mb     *metabase.Client
	logger *slog.Logger

	// dashboard resource URIs registered by the last sync, so that
	// dashboards deleted on the Metabase side drop out of the listing.
	syncMu sync.Mutex
	synced map[string]struct{}
}

// Option is a functional option for New.
type Option func(*Server)

// WithLogger sets the logger.  A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// New creates a new MCP server backed by the given Metabase client.  The
// server is populated with all tools and resource templates but does not
// start listening until one of the Serve* methods is called.
func New(mb *metabase.Client, opt ...Option) *Server {
	s := &Server{
		mb:     mb,
		logger: slog.Default(),
		synced: make(map[string]struct{}),
	}
	for _, o := range opt {
		o(s)
	}

	hooks := &mcpsrv.Hooks{}
	hooks.AddBeforeListResources(s.syncDashboardResources)

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions(mb)),
		mcpsrv.WithResourceCapabilities(false, true),
		mcpsrv.WithHooks(hooks),
	)

	s.mcp = mcpServer

	// Register all tools.
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}
	s.registerResourceTemplates()

	return s
}

// instructions returns the server instructions that describe the Metabase
// instance to the connecting agent.
func instructions(mb *metabase.Client) string {
	site := ""
	if mb != nil {
		site = mb.SiteURL()
	}
	return fmt.Sprintf(`You are connected to a Metabase MCP server for the instance at %s.

Available tools allow you to:
- List and read dashboards, cards (saved questions), databases and collections
- Execute saved cards and run native SQL or MongoDB queries
- Create, update, archive and delete cards and dashboards
- Place, move and remove cards on dashboard grids

Dashboards, cards and databases are also exposed as resources under
metabase://dashboard/{id}, metabase://card/{id} and metabase://database/{id}.

Mutating tools change the remote Metabase instance immediately; deletions
default to archiving unless hard_delete is set.
`, site)
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
// This is the standard transport used by local agent integrations.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled.  addr should be a host:port string such as "127.0.0.1:8486".
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)

	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// resultText is a helper that wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr is a helper that wraps an error in a CallToolResult with
// IsError=true.  Downstream API failures are reported this way, in-band;
// argument validation failures are returned as handler errors instead.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON is a helper that serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// resultRaw wraps a raw Metabase response in a CallToolResult,
// pretty-printed.
func resultRaw(raw json.RawMessage) *mcplib.CallToolResult {
	return resultText(prettyJSON(raw))
}

// prettyJSON indents a raw JSON payload for readability.  Payloads that do
// not indent cleanly are returned as-is.
func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts a named int argument from a tool call request.  The MCP
// protocol serialises numbers as float64, so we convert accordingly.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}

// boolArg extracts a named bool argument from a tool call request.
func boolArg(req mcplib.CallToolRequest, name string, defaultVal bool) bool {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// idArg extracts a required positive integer identifier argument.  The
// returned error is a handler error: validation failures surface at the
// protocol level before any API call is made.
func idArg(req mcplib.CallToolRequest, name string) (int, error) {
	args := req.GetArguments()
	if args == nil {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	var id int
	switch n := v.(type) {
	case float64:
		id = int(n)
	case int:
		id = n
	default:
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// objArg extracts a named object argument from a tool call request.
func objArg(req mcplib.CallToolRequest, name string) (map[string]any, bool) {
	args := req.GetArguments()
	if args == nil {
		return nil, false
	}
	v, ok := args[name]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// arrArg extracts a named array argument from a tool call request.
func arrArg(req mcplib.CallToolRequest, name string) ([]any, bool) {
	args := req.GetArguments()
	if args == nil {
		return nil, false
	}
	v, ok := args[name]
	if !ok {
		return nil, false
	}
	a, ok := v.([]any)
	return a, ok
}

// otherFields returns a copy of the request arguments with the named keys
// removed.  Used by the update tools, which pass all remaining fields
// through to the API verbatim.
func otherFields(req mcplib.CallToolRequest, exclude ...string) map[string]any {
	args := req.GetArguments()
	fields := make(map[string]any, len(args))
	for k, v := range args {
		fields[k] = v
	}
	for _, k := range exclude {
		delete(fields, k)
	}
	return fields
}
