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

// In this file: MCP resource templates, dynamic dashboard resource listing,
// and resource reads.

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const mimeJSON = "application/json"

// Resource URI patterns, tried in a fixed order on read.  The kind segment
// makes them mutually exclusive.
var (
	reDashboardURI = regexp.MustCompile(`^metabase://dashboard/(\d+)$`)
	reCardURI      = regexp.MustCompile(`^metabase://card/(\d+)$`)
	reDatabaseURI  = regexp.MustCompile(`^metabase://database/(\d+)$`)
)

// registerResourceTemplates registers the three fixed URI templates.  The
// concrete dashboard resources are synced from the instance on demand, see
// syncDashboardResources.
func (s *Server) registerResourceTemplates() {
	s.mcp.AddResourceTemplate(mcplib.NewResourceTemplate(
		"metabase://dashboard/{id}",
		"Dashboard",
		mcplib.WithTemplateDescription("Get a dashboard by its ID, including its card placements"),
		mcplib.WithTemplateMIMEType(mimeJSON),
	), s.handleReadResource)
	s.mcp.AddResourceTemplate(mcplib.NewResourceTemplate(
		"metabase://card/{id}",
		"Card",
		mcplib.WithTemplateDescription("Get a card (saved question) by its ID"),
		mcplib.WithTemplateMIMEType(mimeJSON),
	), s.handleReadResource)
	s.mcp.AddResourceTemplate(mcplib.NewResourceTemplate(
		"metabase://database/{id}",
		"Database",
		mcplib.WithTemplateDescription("Get a database by its ID"),
		mcplib.WithTemplateMIMEType(mimeJSON),
	), s.handleReadResource)
}

// syncDashboardResources refreshes the concrete resource registry from the
// dashboard collection.  It runs as a before-hook on every resources/list
// request, so the listing always reflects the live instance: new dashboards
// are registered and dashboards gone from the collection are dropped.
// Failures are logged and leave the registry as it was.
func (s *Server) syncDashboardResources(ctx context.Context, _ any, _ *mcplib.ListResourcesRequest) {
	raw, err := s.mb.ListDashboards(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp: resources: list dashboards", "error", err)
		return
	}
	var dashboards []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &dashboards); err != nil {
		s.logger.ErrorContext(ctx, "mcp: resources: decode dashboards", "error", err)
		return
	}
	fresh := make(map[string]struct{}, len(dashboards))
	for _, d := range dashboards {
		uri := fmt.Sprintf("metabase://dashboard/%d", d.ID)
		fresh[uri] = struct{}{}
		s.mcp.AddResource(mcplib.NewResource(
			uri,
			d.Name,
			mcplib.WithResourceDescription(fmt.Sprintf("Dashboard: %s", d.Name)),
			mcplib.WithMIMEType(mimeJSON),
		), s.handleReadResource)
	}

	s.syncMu.Lock()
	var stale []string
	for uri := range s.synced {
		if _, ok := fresh[uri]; !ok {
			stale = append(stale, uri)
		}
	}
	s.synced = fresh
	s.syncMu.Unlock()
	if len(stale) > 0 {
		s.mcp.DeleteResources(stale...)
	}
	s.logger.DebugContext(ctx, "mcp: resources: dashboards synced", "count", len(dashboards), "removed", len(stale))
}

// handleReadResource resolves a metabase:// URI to a single pretty-printed
// JSON content item.  An unrecognised URI fails before any API call is
// made.
func (s *Server) handleReadResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := req.Params.URI

	var (
		re  *regexp.Regexp
		get func(context.Context, int) (json.RawMessage, error)
	)
	switch {
	case reDashboardURI.MatchString(uri):
		re, get = reDashboardURI, s.mb.GetDashboard
	case reCardURI.MatchString(uri):
		re, get = reCardURI, s.mb.GetCard
	case reDatabaseURI.MatchString(uri):
		re, get = reDatabaseURI, s.mb.GetDatabase
	default:
		return nil, fmt.Errorf("invalid resource URI: %q", uri)
	}
	id, err := uriID(re, uri)
	if err != nil {
		// a digit run too long for an int
		return nil, fmt.Errorf("invalid resource URI: %q", uri)
	}
	raw, err := get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     prettyJSON(raw),
		},
	}, nil
}

// uriID extracts the numeric id captured by re.  re must have matched uri.
func uriID(re *regexp.Regexp, uri string) (int, error) {
	m := re.FindStringSubmatch(uri)
	return strconv.Atoi(m[1])
}
