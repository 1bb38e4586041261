package metabase

// In this file: database endpoints and the reduced metadata view.

import (
	"context"
	"encoding/json"
	"fmt"
)

// EngineMongo is the engine identifier Metabase uses for MongoDB.  Queries
// against it are aggregation pipelines and must name a target collection.
const EngineMongo = "mongo"

// ListDatabases returns all configured databases.
func (c *Client) ListDatabases(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/database", nil)
}

// GetDatabase returns a single database record.
func (c *Client) GetDatabase(ctx context.Context, id int) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/api/database/%d", id), nil)
}

// Database is the slim typed view of a database record, just enough to
// branch on the engine.
type Database struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Engine string `json:"engine"`
}

// DatabaseInfo returns the typed view of a database record.
func (c *Client) DatabaseInfo(ctx context.Context, id int) (Database, error) {
	raw, err := c.GetDatabase(ctx, id)
	if err != nil {
		return Database{}, err
	}
	var db Database
	if err := json.Unmarshal(raw, &db); err != nil {
		return Database{}, fmt.Errorf("metabase: database %d: decode: %w", id, err)
	}
	return db, nil
}

// DatabaseMetadata is the reduced table/field structure of a database.  The
// raw metadata endpoint is dominated by sync statistics and field
// fingerprints that are useless to an agent; only the naming structure is
// kept.
type DatabaseMetadata struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Tables []TableMetadata `json:"tables"`
}

// TableMetadata is the reduced view of a table.
type TableMetadata struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Fields []FieldMetadata `json:"fields"`
}

// FieldMetadata is the reduced view of a field.
type FieldMetadata struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	BaseType string `json:"base_type"`
}

// GetDatabaseMetadata returns the reduced metadata of a database.
func (c *Client) GetDatabaseMetadata(ctx context.Context, id int) (DatabaseMetadata, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/api/database/%d/metadata", id), nil)
	if err != nil {
		return DatabaseMetadata{}, err
	}
	var md DatabaseMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return DatabaseMetadata{}, fmt.Errorf("metabase: database %d: decode metadata: %w", id, err)
	}
	if md.Tables == nil {
		md.Tables = []TableMetadata{}
	}
	for i := range md.Tables {
		if md.Tables[i].Fields == nil {
			md.Tables[i].Fields = []FieldMetadata{}
		}
	}
	return md, nil
}
