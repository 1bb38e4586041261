package metabase

// In this file: card ("question") endpoints.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// DefaultCardFilter is the filter applied to card listings when the caller
// does not specify one.
const DefaultCardFilter = "all"

// ListCards returns saved cards matching the given filter ("all", "mine",
// "archived" and friends, as understood by the card endpoint).  An empty
// filter defaults to DefaultCardFilter.
func (c *Client) ListCards(ctx context.Context, filter string) (json.RawMessage, error) {
	if filter == "" {
		filter = DefaultCardFilter
	}
	q := url.Values{"f": []string{filter}}
	return c.get(ctx, "/api/card", q)
}

// GetCard returns a single card.
func (c *Client) GetCard(ctx context.Context, id int) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/api/card/%d", id), nil)
}

// CreateCard creates a card from the given fields.
func (c *Client) CreateCard(ctx context.Context, fields map[string]any) (json.RawMessage, error) {
	return c.post(ctx, "/api/card", fields)
}

// UpdateCard updates the given fields of a card.
func (c *Client) UpdateCard(ctx context.Context, id int, fields map[string]any) (json.RawMessage, error) {
	return c.put(ctx, fmt.Sprintf("/api/card/%d", id), fields)
}

// DeleteCard permanently deletes a card.
func (c *Client) DeleteCard(ctx context.Context, id int) error {
	_, err := c.del(ctx, fmt.Sprintf("/api/card/%d", id))
	return err
}

// ArchiveCard archives a card without destroying it.
func (c *Client) ArchiveCard(ctx context.Context, id int) (json.RawMessage, error) {
	return c.put(ctx, fmt.Sprintf("/api/card/%d", id), map[string]any{"archived": true})
}

// ExecuteCard runs the saved query of a card with the given parameter
// values.
func (c *Client) ExecuteCard(ctx context.Context, id int, parameters []any) (json.RawMessage, error) {
	if parameters == nil {
		parameters = []any{}
	}
	return c.post(ctx, fmt.Sprintf("/api/card/%d/query", id), map[string]any{"parameters": parameters})
}
