package metabase

// In this file: dashboard endpoints and the dashboard-card (dashcard)
// placement model.

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListDashboards returns the full dashboard collection.
func (c *Client) ListDashboards(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/dashboard", nil)
}

// GetDashboard returns a single dashboard, including its card placements.
func (c *Client) GetDashboard(ctx context.Context, id int) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/api/dashboard/%d", id), nil)
}

// CreateDashboard creates a dashboard from the given fields.
func (c *Client) CreateDashboard(ctx context.Context, fields map[string]any) (json.RawMessage, error) {
	return c.post(ctx, "/api/dashboard", fields)
}

// UpdateDashboard updates the given fields of a dashboard.
func (c *Client) UpdateDashboard(ctx context.Context, id int, fields map[string]any) (json.RawMessage, error) {
	return c.put(ctx, fmt.Sprintf("/api/dashboard/%d", id), fields)
}

// DeleteDashboard permanently deletes a dashboard.
func (c *Client) DeleteDashboard(ctx context.Context, id int) error {
	_, err := c.del(ctx, fmt.Sprintf("/api/dashboard/%d", id))
	return err
}

// ArchiveDashboard archives a dashboard without destroying it.
func (c *Client) ArchiveDashboard(ctx context.Context, id int) (json.RawMessage, error) {
	return c.put(ctx, fmt.Sprintf("/api/dashboard/%d", id), map[string]any{"archived": true})
}

// PlaceholderID marks a dashcard that has not been assigned an identity by
// Metabase yet; the real id is assigned on write.
const PlaceholderID = -1

// Default grid placement for new dashcards.
const (
	DefaultSizeX = 4
	DefaultSizeY = 4
)

// DashCard is the canonical representation of a card placement on a
// dashboard grid.  CardID is nil for virtual (dashboard-only) cards, whose
// definition lives in VisualizationSettings under the "virtual_card" key.
type DashCard struct {
	ID                    int               `json:"id"`
	CardID                *int              `json:"card_id"`
	Row                   int               `json:"row"`
	Col                   int               `json:"col"`
	SizeX                 int               `json:"size_x"`
	SizeY                 int               `json:"size_y"`
	Series                []json.RawMessage `json:"series"`
	VisualizationSettings map[string]any    `json:"visualization_settings"`
	ParameterMappings     []json.RawMessage `json:"parameter_mappings"`
}

// normalize fills in the empty sub-fields so that the replacement payload
// never carries nulls where Metabase expects collections.
func (dc *DashCard) normalize() {
	if dc.Series == nil {
		dc.Series = []json.RawMessage{}
	}
	if dc.VisualizationSettings == nil {
		dc.VisualizationSettings = map[string]any{}
	}
	if dc.ParameterMappings == nil {
		dc.ParameterMappings = []json.RawMessage{}
	}
}

// NewVirtualDashCard builds a dashboard-only card entry: a dashcard with no
// backing card entity, whose name, display type, settings and query are
// embedded in the visualization settings as a "virtual_card" object.
func NewVirtualDashCard(name, display string, settings, query map[string]any, row, col, sizeX, sizeY int) DashCard {
	if settings == nil {
		settings = map[string]any{}
	}
	if query == nil {
		query = map[string]any{}
	}
	dc := DashCard{
		ID:     PlaceholderID,
		CardID: nil,
		Row:    row,
		Col:    col,
		SizeX:  sizeX,
		SizeY:  sizeY,
		VisualizationSettings: map[string]any{
			"virtual_card": map[string]any{
				"name":                   name,
				"display":                display,
				"visualization_settings": settings,
				"dataset_query":          query,
			},
		},
	}
	dc.normalize()
	return dc
}

// Dashcards returns the canonical dashcard list of a dashboard.  The
// dashboard payload has renamed the list across Metabase versions
// (dashcards, ordered_cards, cards); the first non-empty one wins.
func (c *Client) Dashcards(ctx context.Context, dashboardID int) ([]DashCard, error) {
	raw, err := c.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	var dash struct {
		Dashcards    []DashCard `json:"dashcards"`
		OrderedCards []DashCard `json:"ordered_cards"`
		Cards        []DashCard `json:"cards"`
	}
	if err := json.Unmarshal(raw, &dash); err != nil {
		return nil, fmt.Errorf("metabase: dashboard %d: decode dashcards: %w", dashboardID, err)
	}
	cards := dash.Dashcards
	if len(cards) == 0 {
		cards = dash.OrderedCards
	}
	if len(cards) == 0 {
		cards = dash.Cards
	}
	for i := range cards {
		cards[i].normalize()
	}
	return cards, nil
}

// ReplaceDashcards writes the entire dashcard list of a dashboard back.
// The Metabase placement endpoint is whole-collection replacement: there
// is no per-card update.
func (c *Client) ReplaceDashcards(ctx context.Context, dashboardID int, cards []DashCard) (json.RawMessage, error) {
	if cards == nil {
		cards = []DashCard{}
	}
	for i := range cards {
		cards[i].normalize()
	}
	return c.put(ctx, fmt.Sprintf("/api/dashboard/%d/cards", dashboardID), map[string]any{"cards": cards})
}

// RemoveDashcard removes a single card placement from a dashboard.  Unlike
// add and update, removal has a direct per-card endpoint.
func (c *Client) RemoveDashcard(ctx context.Context, dashboardID, dashcardID int) error {
	_, err := c.del(ctx, fmt.Sprintf("/api/dashboard/%d/cards/%d", dashboardID, dashcardID))
	return err
}
