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

// In this file: dashboard tool definitions and handler implementations.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

// ─── list_dashboards ──────────────────────────────────────────────────────────

func (s *Server) toolListDashboards() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_dashboards",
		mcplib.WithDescription("List all dashboards in the Metabase instance. Returns dashboard IDs, names and descriptions."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListDashboards}
}

func (s *Server) handleListDashboards(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	raw, err := s.mb.ListDashboards(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("list_dashboards: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── get_dashboard_cards ──────────────────────────────────────────────────────

func (s *Server) toolGetDashboardCards() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_dashboard_cards",
		mcplib.WithDescription("Get all card placements (dashcards) of a dashboard: card references, grid positions, sizes and visualization settings."),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard"),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetDashboardCards}
}

func (s *Server) handleGetDashboardCards(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}
	cards, err := s.mb.Dashcards(ctx, dashboardID)
	if err != nil {
		return resultErr(fmt.Errorf("get_dashboard_cards: %w", err)), nil
	}
	result, err := resultJSON(cards)
	if err != nil {
		return resultErr(fmt.Errorf("get_dashboard_cards: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── create_dashboard ─────────────────────────────────────────────────────────

func (s *Server) toolCreateDashboard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_dashboard",
		mcplib.WithDescription("Create a new empty dashboard. Use add_card_to_dashboard or create_dashboard_only_card to place cards on it."),
		mcplib.WithString("name",
			mcplib.Description("Name of the dashboard"),
			mcplib.Required(),
		),
		mcplib.WithString("description",
			mcplib.Description("Optional description of the dashboard"),
		),
		mcplib.WithArray("parameters",
			mcplib.Description("Optional dashboard filter parameters"),
		),
		mcplib.WithNumber("collection_id",
			mcplib.Description("Optional ID of the collection to place the dashboard in"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateDashboard}
}

func (s *Server) handleCreateDashboard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name, ok := stringArg(req, "name")
	if !ok || name == "" {
		return nil, errors.New("name is required")
	}

	// Only the fields the caller supplied go into the body; optional
	// fields are never sent as null placeholders.
	fields := map[string]any{"name": name}
	if desc, ok := stringArg(req, "description"); ok {
		fields["description"] = desc
	}
	if params, ok := arrArg(req, "parameters"); ok {
		fields["parameters"] = params
	}
	if id := intArg(req, "collection_id", 0); id > 0 {
		fields["collection_id"] = id
	}

	raw, err := s.mb.CreateDashboard(ctx, fields)
	if err != nil {
		return resultErr(fmt.Errorf("create_dashboard: %w", err)), nil
	}
	return s.withDeepLink(raw, "dashboard", fmt.Sprintf("Dashboard %q created.", name)), nil
}

// ─── update_dashboard ─────────────────────────────────────────────────────────

func (s *Server) toolUpdateDashboard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("update_dashboard",
		mcplib.WithDescription(`Update an existing dashboard. All arguments other than dashboard_id are sent to Metabase verbatim as the fields to update; at least one is required (e.g. name, description, parameters, collection_id).`),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard to update"),
			mcplib.Required(),
		),
		mcplib.WithString("name",
			mcplib.Description("New name of the dashboard"),
		),
		mcplib.WithString("description",
			mcplib.Description("New description of the dashboard"),
		),
		mcplib.WithArray("parameters",
			mcplib.Description("New dashboard filter parameters"),
		),
		mcplib.WithNumber("collection_id",
			mcplib.Description("ID of the collection to move the dashboard to"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleUpdateDashboard}
}

func (s *Server) handleUpdateDashboard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}
	fields := otherFields(req, "dashboard_id")
	if len(fields) == 0 {
		return nil, errors.New("at least one field to update is required")
	}

	raw, err := s.mb.UpdateDashboard(ctx, dashboardID, fields)
	if err != nil {
		return resultErr(fmt.Errorf("update_dashboard: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── delete_dashboard ─────────────────────────────────────────────────────────

func (s *Server) toolDeleteDashboard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("delete_dashboard",
		mcplib.WithDescription("Delete a dashboard. By default the dashboard is archived and can be restored; set hard_delete to permanently destroy it."),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard to delete"),
			mcplib.Required(),
		),
		mcplib.WithBoolean("hard_delete",
			mcplib.Description("Permanently delete instead of archiving (default false)"),
		),
		mcplib.WithDestructiveHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDeleteDashboard}
}

func (s *Server) handleDeleteDashboard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}

	if boolArg(req, "hard_delete", false) {
		if err := s.mb.DeleteDashboard(ctx, dashboardID); err != nil {
			return resultErr(fmt.Errorf("delete_dashboard: %w", err)), nil
		}
		return resultText(fmt.Sprintf("Dashboard %d permanently deleted.", dashboardID)), nil
	}

	raw, err := s.mb.ArchiveDashboard(ctx, dashboardID)
	if err != nil {
		return resultErr(fmt.Errorf("delete_dashboard: %w", err)), nil
	}
	msg := fmt.Sprintf("Dashboard %d archived.", dashboardID)
	if len(raw) > 0 {
		msg += "\n" + prettyJSON(raw)
	}
	return resultText(msg), nil
}
