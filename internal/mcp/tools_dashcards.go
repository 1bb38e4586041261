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

// In this file: dashboard card placement tools.  The Metabase placement
// endpoint replaces the whole dashcard collection, so add and update read
// the current list, modify it, and write the entire list back.  Removal
// has its own per-card endpoint.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"metabasemcp/internal/metabase"
)

// ─── add_card_to_dashboard ────────────────────────────────────────────────────

func (s *Server) toolAddCardToDashboard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("add_card_to_dashboard",
		mcplib.WithDescription("Place an existing card on a dashboard grid. Existing placements are preserved."),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard"),
			mcplib.Required(),
		),
		mcplib.WithNumber("card_id",
			mcplib.Description("ID of the card to place"),
			mcplib.Required(),
		),
		mcplib.WithNumber("row",
			mcplib.Description("Grid row of the placement (default 0)"),
		),
		mcplib.WithNumber("col",
			mcplib.Description("Grid column of the placement (default 0)"),
		),
		mcplib.WithNumber("size_x",
			mcplib.Description("Width of the placement in grid units (default 4)"),
		),
		mcplib.WithNumber("size_y",
			mcplib.Description("Height of the placement in grid units (default 4)"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleAddCardToDashboard}
}

func (s *Server) handleAddCardToDashboard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}
	cardID, err := idArg(req, "card_id")
	if err != nil {
		return nil, err
	}

	cards, err := s.mb.Dashcards(ctx, dashboardID)
	if err != nil {
		return resultErr(fmt.Errorf("add_card_to_dashboard: %w", err)), nil
	}

	cards = append(cards, metabase.DashCard{
		ID:     metabase.PlaceholderID,
		CardID: &cardID,
		Row:    intArg(req, "row", 0),
		Col:    intArg(req, "col", 0),
		SizeX:  intArg(req, "size_x", metabase.DefaultSizeX),
		SizeY:  intArg(req, "size_y", metabase.DefaultSizeY),
	})

	raw, err := s.mb.ReplaceDashcards(ctx, dashboardID, cards)
	if err != nil {
		return resultErr(fmt.Errorf("add_card_to_dashboard: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── update_dashboard_card ────────────────────────────────────────────────────

func (s *Server) toolUpdateDashboardCard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("update_dashboard_card",
		mcplib.WithDescription("Update an existing card placement on a dashboard: move it, resize it, or change its settings. Only the supplied fields change."),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard"),
			mcplib.Required(),
		),
		mcplib.WithNumber("dashcard_id",
			mcplib.Description("ID of the card placement (dashcard) to update, as returned by get_dashboard_cards"),
			mcplib.Required(),
		),
		mcplib.WithNumber("card_id",
			mcplib.Description("New card ID to bind the placement to"),
		),
		mcplib.WithNumber("row",
			mcplib.Description("New grid row"),
		),
		mcplib.WithNumber("col",
			mcplib.Description("New grid column"),
		),
		mcplib.WithNumber("size_x",
			mcplib.Description("New width in grid units"),
		),
		mcplib.WithNumber("size_y",
			mcplib.Description("New height in grid units"),
		),
		mcplib.WithObject("visualization_settings",
			mcplib.Description("New visualization settings for the placement"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleUpdateDashboardCard}
}

func (s *Server) handleUpdateDashboardCard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}
	dashcardID, err := idArg(req, "dashcard_id")
	if err != nil {
		return nil, err
	}

	cards, err := s.mb.Dashcards(ctx, dashboardID)
	if err != nil {
		return resultErr(fmt.Errorf("update_dashboard_card: %w", err)), nil
	}

	args := req.GetArguments()
	found := false
	for i := range cards {
		if cards[i].ID != dashcardID {
			continue
		}
		found = true
		if id := intArg(req, "card_id", 0); id > 0 {
			cards[i].CardID = &id
		}
		if _, ok := args["row"]; ok {
			cards[i].Row = intArg(req, "row", cards[i].Row)
		}
		if _, ok := args["col"]; ok {
			cards[i].Col = intArg(req, "col", cards[i].Col)
		}
		if v := intArg(req, "size_x", 0); v > 0 {
			cards[i].SizeX = v
		}
		if v := intArg(req, "size_y", 0); v > 0 {
			cards[i].SizeY = v
		}
		if settings, ok := objArg(req, "visualization_settings"); ok {
			cards[i].VisualizationSettings = settings
		}
		break
	}
	if !found {
		return resultErr(fmt.Errorf("update_dashboard_card: dashcard %d not found on dashboard %d", dashcardID, dashboardID)), nil
	}

	raw, err := s.mb.ReplaceDashcards(ctx, dashboardID, cards)
	if err != nil {
		return resultErr(fmt.Errorf("update_dashboard_card: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── remove_card_from_dashboard ───────────────────────────────────────────────

func (s *Server) toolRemoveCardFromDashboard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("remove_card_from_dashboard",
		mcplib.WithDescription("Remove a card placement from a dashboard. The underlying card is not deleted."),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard"),
			mcplib.Required(),
		),
		mcplib.WithNumber("dashcard_id",
			mcplib.Description("ID of the card placement (dashcard) to remove, as returned by get_dashboard_cards"),
			mcplib.Required(),
		),
		mcplib.WithDestructiveHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleRemoveCardFromDashboard}
}

func (s *Server) handleRemoveCardFromDashboard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}
	dashcardID, err := idArg(req, "dashcard_id")
	if err != nil {
		return nil, err
	}

	if err := s.mb.RemoveDashcard(ctx, dashboardID, dashcardID); err != nil {
		return resultErr(fmt.Errorf("remove_card_from_dashboard: %w", err)), nil
	}
	return resultText(fmt.Sprintf("Dashcard %d removed from dashboard %d.", dashcardID, dashboardID)), nil
}

// ─── create_dashboard_only_card ───────────────────────────────────────────────

func (s *Server) toolCreateDashboardOnlyCard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_dashboard_only_card",
		mcplib.WithDescription(`Create a virtual card that lives only on a dashboard, without a standalone card entity. The card definition (name, display type, settings, query) is embedded directly into the dashboard's placement record.`),
		mcplib.WithNumber("dashboard_id",
			mcplib.Description("ID of the dashboard to place the virtual card on"),
			mcplib.Required(),
		),
		mcplib.WithString("name",
			mcplib.Description("Name of the virtual card"),
			mcplib.Required(),
		),
		mcplib.WithString("display",
			mcplib.Description(`Visualization type (default "table")`),
		),
		mcplib.WithObject("visualization_settings",
			mcplib.Description("Optional visualization settings of the virtual card"),
		),
		mcplib.WithObject("dataset_query",
			mcplib.Description("Optional query definition of the virtual card"),
		),
		mcplib.WithNumber("row",
			mcplib.Description("Grid row of the placement (default 0)"),
		),
		mcplib.WithNumber("col",
			mcplib.Description("Grid column of the placement (default 0)"),
		),
		mcplib.WithNumber("size_x",
			mcplib.Description("Width of the placement in grid units (default 4)"),
		),
		mcplib.WithNumber("size_y",
			mcplib.Description("Height of the placement in grid units (default 4)"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateDashboardOnlyCard}
}

func (s *Server) handleCreateDashboardOnlyCard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	dashboardID, err := idArg(req, "dashboard_id")
	if err != nil {
		return nil, err
	}
	name, ok := stringArg(req, "name")
	if !ok || name == "" {
		return nil, errors.New("name is required")
	}
	display, ok := stringArg(req, "display")
	if !ok || display == "" {
		display = "table"
	}
	settings, _ := objArg(req, "visualization_settings")
	query, _ := objArg(req, "dataset_query")

	cards, err := s.mb.Dashcards(ctx, dashboardID)
	if err != nil {
		return resultErr(fmt.Errorf("create_dashboard_only_card: %w", err)), nil
	}

	cards = append(cards, metabase.NewVirtualDashCard(name, display, settings, query,
		intArg(req, "row", 0),
		intArg(req, "col", 0),
		intArg(req, "size_x", metabase.DefaultSizeX),
		intArg(req, "size_y", metabase.DefaultSizeY),
	))

	raw, err := s.mb.ReplaceDashcards(ctx, dashboardID, cards)
	if err != nil {
		return resultErr(fmt.Errorf("create_dashboard_only_card: %w", err)), nil
	}
	return resultRaw(raw), nil
}
