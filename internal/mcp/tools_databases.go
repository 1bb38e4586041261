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

// In this file: database and collection tool definitions and handler
// implementations.

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

// ─── list_databases ───────────────────────────────────────────────────────────

func (s *Server) toolListDatabases() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_databases",
		mcplib.WithDescription("List all databases configured in the Metabase instance. Returns database IDs, names and engines."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListDatabases}
}

func (s *Server) handleListDatabases(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	raw, err := s.mb.ListDatabases(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("list_databases: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── get_database ─────────────────────────────────────────────────────────────

func (s *Server) toolGetDatabase() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_database",
		mcplib.WithDescription("Get details of a database: name, engine, connection features."),
		mcplib.WithNumber("database_id",
			mcplib.Description("ID of the database"),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetDatabase}
}

func (s *Server) handleGetDatabase(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	databaseID, err := idArg(req, "database_id")
	if err != nil {
		return nil, err
	}
	raw, err := s.mb.GetDatabase(ctx, databaseID)
	if err != nil {
		return resultErr(fmt.Errorf("get_database: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── get_database_metadata ────────────────────────────────────────────────────

func (s *Server) toolGetDatabaseMetadata() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_database_metadata",
		mcplib.WithDescription("Get the table and field structure of a database, reduced to IDs, names and field types. Use this to discover what can be queried."),
		mcplib.WithNumber("database_id",
			mcplib.Description("ID of the database"),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetDatabaseMetadata}
}

func (s *Server) handleGetDatabaseMetadata(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	databaseID, err := idArg(req, "database_id")
	if err != nil {
		return nil, err
	}
	md, err := s.mb.GetDatabaseMetadata(ctx, databaseID)
	if err != nil {
		return resultErr(fmt.Errorf("get_database_metadata: %w", err)), nil
	}
	result, err := resultJSON(md)
	if err != nil {
		return resultErr(fmt.Errorf("get_database_metadata: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── list_collections ─────────────────────────────────────────────────────────

func (s *Server) toolListCollections() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_collections",
		mcplib.WithDescription("List all collections in the Metabase instance. Collections organise cards and dashboards."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListCollections}
}

func (s *Server) handleListCollections(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	raw, err := s.mb.ListCollections(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("list_collections: %w", err)), nil
	}
	return resultRaw(raw), nil
}
