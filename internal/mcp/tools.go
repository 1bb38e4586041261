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

// In this file: the static tool catalog.  Handler implementations live in
// the tools_*.go files, grouped by API area.

import (
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

// tools returns all MCP tools that this server exposes.  The catalog is
// fixed: it is identical for every invocation and does not depend on the
// state of the Metabase instance.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		// dashboards
		s.toolListDashboards(),
		s.toolGetDashboardCards(),
		s.toolCreateDashboard(),
		s.toolUpdateDashboard(),
		s.toolDeleteDashboard(),
		// cards
		s.toolListCards(),
		s.toolCreateCard(),
		s.toolUpdateCard(),
		s.toolDeleteCard(),
		s.toolExecuteCard(),
		// databases and collections
		s.toolListDatabases(),
		s.toolGetDatabase(),
		s.toolGetDatabaseMetadata(),
		s.toolListCollections(),
		// query execution
		s.toolExecuteQuery(),
		// dashboard card placement
		s.toolAddCardToDashboard(),
		s.toolUpdateDashboardCard(),
		s.toolRemoveCardFromDashboard(),
		s.toolCreateDashboardOnlyCard(),
	}
}

// AddTool adds an additional tool to the MCP server.  This can be called
// after New but before serving starts.
func (s *Server) AddTool(tool mcpsrv.ServerTool) {
	s.mcp.AddTool(tool.Tool, tool.Handler)
}

// withDeepLink augments a create response with a convenience _link into the
// Metabase web application and a human readable _message, alongside the raw
// response fields.  kindPath is the web app path segment ("question",
// "dashboard").  Responses without an id are returned unaugmented.
func (s *Server) withDeepLink(raw json.RawMessage, kindPath, message string) *mcplib.CallToolResult {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return resultRaw(raw)
	}
	id, ok := m["id"].(float64)
	if !ok {
		return resultRaw(raw)
	}
	link := fmt.Sprintf("%s/%s/%d", s.mb.SiteURL(), kindPath, int(id))
	m["_link"] = link
	m["_message"] = fmt.Sprintf("%s View it at %s", message, link)
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return resultRaw(raw)
	}
	return resultText(string(out))
}
