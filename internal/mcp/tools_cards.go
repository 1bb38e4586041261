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

// In this file: card ("question") tool definitions and handler
// implementations.

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

// ─── list_cards ───────────────────────────────────────────────────────────────

func (s *Server) toolListCards() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_cards",
		mcplib.WithDescription("List saved cards (questions) in the Metabase instance."),
		mcplib.WithString("f",
			mcplib.Description(`Filter to apply: "all" (default), "mine", "bookmarked", "database", "table", "recent", "popular", "archived"`),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListCards}
}

func (s *Server) handleListCards(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	filter, _ := stringArg(req, "f")
	raw, err := s.mb.ListCards(ctx, filter)
	if err != nil {
		return resultErr(fmt.Errorf("list_cards: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── create_card ──────────────────────────────────────────────────────────────

func (s *Server) toolCreateCard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_card",
		mcplib.WithDescription("Create a new card (saved question) from a query definition."),
		mcplib.WithString("name",
			mcplib.Description("Name of the card"),
			mcplib.Required(),
		),
		mcplib.WithObject("dataset_query",
			mcplib.Description(`The query definition, e.g. {"type":"native","native":{"query":"SELECT ..."},"database":1}`),
			mcplib.Required(),
		),
		mcplib.WithString("display",
			mcplib.Description(`Visualization type, e.g. "table", "line", "bar", "scalar"`),
			mcplib.Required(),
		),
		mcplib.WithObject("visualization_settings",
			mcplib.Description("Optional visualization settings (defaults to empty)"),
		),
		mcplib.WithString("description",
			mcplib.Description("Optional description of the card"),
		),
		mcplib.WithNumber("collection_id",
			mcplib.Description("Optional ID of the collection to place the card in"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateCard}
}

func (s *Server) handleCreateCard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name, ok := stringArg(req, "name")
	if !ok || name == "" {
		return nil, errors.New("name is required")
	}
	query, ok := objArg(req, "dataset_query")
	if !ok {
		return nil, errors.New("dataset_query is required")
	}
	display, ok := stringArg(req, "display")
	if !ok || display == "" {
		return nil, errors.New("display is required")
	}

	fields := map[string]any{
		"name":          name,
		"dataset_query": query,
		"display":       display,
	}
	// Metabase rejects a card without visualization settings; default to
	// empty rather than making the caller invent them.
	if settings, ok := objArg(req, "visualization_settings"); ok {
		fields["visualization_settings"] = settings
	} else {
		fields["visualization_settings"] = map[string]any{}
	}
	if desc, ok := stringArg(req, "description"); ok {
		fields["description"] = desc
	}
	if id := intArg(req, "collection_id", 0); id > 0 {
		fields["collection_id"] = id
	}

	raw, err := s.mb.CreateCard(ctx, fields)
	if err != nil {
		return resultErr(fmt.Errorf("create_card: %w", err)), nil
	}
	return s.withDeepLink(raw, "question", fmt.Sprintf("Card %q created.", name)), nil
}

// ─── update_card ──────────────────────────────────────────────────────────────

func (s *Server) toolUpdateCard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("update_card",
		mcplib.WithDescription(`Update an existing card. All arguments other than card_id are sent to Metabase verbatim as the fields to update; at least one is required (e.g. name, dataset_query, display, visualization_settings, description, collection_id).`),
		mcplib.WithNumber("card_id",
			mcplib.Description("ID of the card to update"),
			mcplib.Required(),
		),
		mcplib.WithString("name",
			mcplib.Description("New name of the card"),
		),
		mcplib.WithObject("dataset_query",
			mcplib.Description("New query definition"),
		),
		mcplib.WithString("display",
			mcplib.Description("New visualization type"),
		),
		mcplib.WithObject("visualization_settings",
			mcplib.Description("New visualization settings"),
		),
		mcplib.WithString("description",
			mcplib.Description("New description"),
		),
		mcplib.WithNumber("collection_id",
			mcplib.Description("ID of the collection to move the card to"),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleUpdateCard}
}

func (s *Server) handleUpdateCard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	cardID, err := idArg(req, "card_id")
	if err != nil {
		return nil, err
	}
	fields := otherFields(req, "card_id")
	if len(fields) == 0 {
		return nil, errors.New("at least one field to update is required")
	}

	raw, err := s.mb.UpdateCard(ctx, cardID, fields)
	if err != nil {
		return resultErr(fmt.Errorf("update_card: %w", err)), nil
	}
	return resultRaw(raw), nil
}

// ─── delete_card ──────────────────────────────────────────────────────────────

func (s *Server) toolDeleteCard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("delete_card",
		mcplib.WithDescription("Delete a card. By default the card is archived and can be restored; set hard_delete to permanently destroy it."),
		mcplib.WithNumber("card_id",
			mcplib.Description("ID of the card to delete"),
			mcplib.Required(),
		),
		mcplib.WithBoolean("hard_delete",
			mcplib.Description("Permanently delete instead of archiving (default false)"),
		),
		mcplib.WithDestructiveHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDeleteCard}
}

func (s *Server) handleDeleteCard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	cardID, err := idArg(req, "card_id")
	if err != nil {
		return nil, err
	}

	if boolArg(req, "hard_delete", false) {
		if err := s.mb.DeleteCard(ctx, cardID); err != nil {
			return resultErr(fmt.Errorf("delete_card: %w", err)), nil
		}
		return resultText(fmt.Sprintf("Card %d permanently deleted.", cardID)), nil
	}

	raw, err := s.mb.ArchiveCard(ctx, cardID)
	if err != nil {
		return resultErr(fmt.Errorf("delete_card: %w", err)), nil
	}
	msg := fmt.Sprintf("Card %d archived.", cardID)
	if len(raw) > 0 {
		msg += "\n" + prettyJSON(raw)
	}
	return resultText(msg), nil
}

// ─── execute_card ─────────────────────────────────────────────────────────────

func (s *Server) toolExecuteCard() mcpsrv.ServerTool {
	tool := mcplib.NewTool("execute_card",
		mcplib.WithDescription("Execute the saved query of a card and return the results."),
		mcplib.WithNumber("card_id",
			mcplib.Description("ID of the card to execute"),
			mcplib.Required(),
		),
		mcplib.WithArray("parameters",
			mcplib.Description("Optional parameter values for the card's query (defaults to none)"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleExecuteCard}
}

func (s *Server) handleExecuteCard(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	cardID, err := idArg(req, "card_id")
	if err != nil {
		return nil, err
	}
	parameters, _ := arrArg(req, "parameters")

	raw, err := s.mb.ExecuteCard(ctx, cardID, parameters)
	if err != nil {
		return resultErr(fmt.Errorf("execute_card: %w", err)), nil
	}
	return resultRaw(raw), nil
}
