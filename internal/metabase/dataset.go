package metabase

// In this file: native query execution against the dataset endpoint.

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoCollection is returned when a query against a MongoDB database does
// not name a target collection.
var ErrNoCollection = errors.New("collection is required for MongoDB queries")

// NativeQuery is the native part of a dataset request: the raw query
// string in the data source's own dialect, plus the target collection for
// document stores.
type NativeQuery struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
}

type datasetRequest struct {
	Type       string      `json:"type"`
	Native     NativeQuery `json:"native"`
	Parameters []any       `json:"parameters"`
	Database   int         `json:"database"`
}

// ExecuteQuery runs a native query against a database.  The request shape
// depends on the database engine, so the database record is read first:
// MongoDB queries carry the target collection, SQL dialects do not.
func (c *Client) ExecuteQuery(ctx context.Context, databaseID int, query, collection string, parameters []any) (json.RawMessage, error) {
	db, err := c.DatabaseInfo(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	nq := NativeQuery{Query: query}
	if db.Engine == EngineMongo {
		if collection == "" {
			return nil, ErrNoCollection
		}
		nq.Collection = collection
	}
	if parameters == nil {
		parameters = []any{}
	}
	return c.post(ctx, "/api/dataset", datasetRequest{
		Type:       "native",
		Native:     nq,
		Parameters: parameters,
		Database:   databaseID,
	})
}
