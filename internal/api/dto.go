package api

import (
	"github.com/starford/cpidash/internal/cpiservice"
	"github.com/starford/cpidash/internal/models"
)

// MetaResponse lists selectable dimensions (aliased from the domain layer).
type MetaResponse = cpiservice.Meta

// PointResponse is the point query response (aliased from the domain layer).
type PointResponse = cpiservice.PointResult

// RangeResponse is the range query response (aliased from the domain layer).
type RangeResponse = cpiservice.RangeResult

// LoadsResponse wraps the load history.
type LoadsResponse struct {
	Loads []models.LoadInfo `json:"loads" validate:"required"`
}

// OverviewResponse carries the dashboard introduction as Markdown.
type OverviewResponse struct {
	Markdown string `json:"markdown" validate:"required"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
}
