// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the CPI queries for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cpidash/internal/chart"
	"github.com/starford/cpidash/internal/cpiservice"
	"github.com/starford/cpidash/internal/dataset"
)

const overviewURI = "cpi://overview"

// Server wraps the MCP server with the CPI tools.
type Server struct {
	mcp *server.MCPServer
	svc *cpiservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *cpiservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"cpidash",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_dimensions",
		mcp.WithDescription("List the selectable items, regions, years and half-year periods of the loaded CPI dataset. "+
			"Item and region names must be passed to the query tools exactly as listed."),
	), s.listDimensions)

	s.mcp.AddTool(mcp.NewTool("point_query",
		mcp.WithDescription("Consumer price index (2020=100) and year-over-year change (%) for one item, region, year and half-year."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Item name without code, e.g. 総合")),
		mcp.WithString("region", mcp.Required(), mcp.Description("Region name, e.g. 全国")),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Observation year, e.g. 2023")),
		mcp.WithString("period", mcp.Required(), mcp.Enum("H1", "H2"), mcp.Description("H1 = June (上期), H2 = December (下期)")),
	), s.pointQuery)

	s.mcp.AddTool(mcp.NewTool("range_query",
		mcp.WithDescription("Half-yearly CPI series for one item across one or more regions and an inclusive year range."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Item name without code, e.g. 食料")),
		mcp.WithArray("regions", mcp.Required(), mcp.WithStringItems(), mcp.Description("Region names, at least one")),
		mcp.WithNumber("year_min", mcp.Description("First year (inclusive); defaults to the earliest year")),
		mcp.WithNumber("year_max", mcp.Description("Last year (inclusive); defaults to the latest year")),
	), s.rangeQuery)

	s.mcp.AddTool(mcp.NewTool("render_chart",
		mcp.WithDescription("Render a point query as a bar chart or a range query as a line chart and return the SVG markup."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("point", "range")),
		mcp.WithString("item", mcp.Required()),
		mcp.WithString("region", mcp.Description("Region for kind=point")),
		mcp.WithArray("regions", mcp.WithStringItems(), mcp.Description("Regions for kind=range")),
		mcp.WithNumber("year", mcp.Description("Year for kind=point")),
		mcp.WithString("period", mcp.Enum("H1", "H2"), mcp.Description("Half-year for kind=point")),
		mcp.WithNumber("year_min"),
		mcp.WithNumber("year_max"),
	), s.renderChart)

	s.mcp.AddTool(mcp.NewTool("load_history",
		mcp.WithDescription("Recent loads of the source CSV, newest first."),
		mcp.WithNumber("limit", mcp.Description("Max entries (default 20)")),
	), s.loadHistory)

	s.mcp.AddTool(mcp.NewTool("get_overview",
		mcp.WithDescription("Returns the dashboard overview: what the data is and how to read the index and YoY values."),
	), s.getOverview)

	// Resource: dashboard overview.
	s.mcp.AddResource(
		mcp.NewResource(overviewURI, "CPI Dashboard Overview",
			mcp.WithResourceDescription("Introduction to the CPI (2020 base) dataset and the query semantics."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOverviewResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func pointArgs(req mcp.CallToolRequest) (cpiservice.PointQuery, error) {
	var q cpiservice.PointQuery
	var err error
	if q.Item, err = req.RequireString("item"); err != nil {
		return q, err
	}
	if q.Region, err = req.RequireString("region"); err != nil {
		return q, err
	}
	year, err := req.RequireInt("year")
	if err != nil {
		return q, err
	}
	q.Year = year
	p, err := req.RequireString("period")
	if err != nil {
		return q, err
	}
	if q.Period, err = dataset.ParsePeriod(p); err != nil {
		return q, err
	}
	return q, nil
}

func rangeArgs(req mcp.CallToolRequest) (cpiservice.RangeQuery, error) {
	item, err := req.RequireString("item")
	if err != nil {
		return cpiservice.RangeQuery{}, err
	}
	regions, err := req.RequireStringSlice("regions")
	if err != nil {
		return cpiservice.RangeQuery{}, err
	}
	return cpiservice.RangeQuery{
		Item:    item,
		Regions: regions,
		YearMin: req.GetInt("year_min", 0),
		YearMax: req.GetInt("year_max", 0),
	}, nil
}

func (s *Server) listDimensions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta, err := s.svc.Meta(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(meta), nil
}

func (s *Server) pointQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := pointArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Point(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) rangeQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := rangeArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Range(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) renderChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var svg []byte
	switch kind {
	case "point":
		q, err := pointArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := s.svc.Point(ctx, q)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if res.Empty {
			return mcp.NewToolResultText(res.Message), nil
		}
		svg, err = chart.PointBar(res.Records...)
		if err != nil {
			return chartError(err), nil
		}
	case "range":
		q, err := rangeArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := s.svc.Range(ctx, q)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if res.Empty {
			return mcp.NewToolResultText(res.Message), nil
		}
		svg, err = chart.RangeLine(res.Records)
		if err != nil {
			return chartError(err), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown chart kind: %s", kind)), nil
	}
	return mcp.NewToolResultText(string(svg)), nil
}

func chartError(err error) *mcp.CallToolResult {
	if errors.Is(err, chart.ErrNothingToPlot) {
		return mcp.NewToolResultText("all selected values are unpublished (null); nothing to plot")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) loadHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loads, err := s.svc.Loads(ctx, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(loads), nil
}

func (s *Server) getOverview(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.svc.Overview()), nil
}

func (s *Server) readOverviewResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      overviewURI,
			MIMEType: "text/markdown",
			Text:     s.svc.Overview(),
		},
	}, nil
}
