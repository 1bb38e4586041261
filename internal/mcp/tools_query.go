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

// In this file: the execute_query tool.  The one piece of real branching
// in the tool set: the database engine is inspected first, and MongoDB
// queries are shaped differently from SQL ones.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"metabasemcp/internal/metabase"
)

// ─── execute_query ────────────────────────────────────────────────────────────

func (s *Server) toolExecuteQuery() mcpsrv.ServerTool {
	tool := mcplib.NewTool("execute_query",
		mcplib.WithDescription(`Execute a native query against a database.

For SQL databases pass the SQL text as the query. For MongoDB databases pass
an aggregation pipeline as a JSON string (e.g. "[{\"$limit\":10}]") and name
the target collection.`),
		mcplib.WithNumber("database_id",
			mcplib.Description("ID of the database to query"),
			mcplib.Required(),
		),
		mcplib.WithString("query",
			mcplib.Description("The native query text: SQL, or a MongoDB aggregation pipeline as JSON"),
			mcplib.Required(),
		),
		mcplib.WithString("collection",
			mcplib.Description("Target collection; required for MongoDB databases, ignored otherwise"),
		),
		mcplib.WithArray("native_parameters",
			mcplib.Description("Optional query parameters (defaults to none)"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleExecuteQuery}
}

func (s *Server) handleExecuteQuery(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	databaseID, err := idArg(req, "database_id")
	if err != nil {
		return nil, err
	}
	query, ok := stringArg(req, "query")
	if !ok || query == "" {
		return nil, errors.New("query is required")
	}
	collection, _ := stringArg(req, "collection")
	parameters, _ := arrArg(req, "native_parameters")

	raw, err := s.mb.ExecuteQuery(ctx, databaseID, query, collection, parameters)
	if err != nil {
		if errors.Is(err, metabase.ErrNoCollection) {
			// Missing collection is an argument problem, not an API
			// failure: surface it at the protocol level.
			return nil, err
		}
		return resultErr(fmt.Errorf("execute_query: %w", err)), nil
	}
	return resultRaw(raw), nil
}
