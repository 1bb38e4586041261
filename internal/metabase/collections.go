package metabase

// In this file: collection endpoints.

import (
	"context"
	"encoding/json"
)

// ListCollections returns all collections visible to the authenticated
// user.
func (c *Client) ListCollections(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/collection", nil)
}
