package handlers

import (
	"github.com/vendaflow/funildash/internal/insights"
	"github.com/vendaflow/funildash/internal/models"
)

// DashboardResponse is the aggregate payload consumed by the dashboard UI.
type DashboardResponse struct {
	Metricas             insights.AggregatedMetrics   `json:"metricas"`
	Performance          insights.Performance         `json:"performance"`
	SeriesTempo          []insights.TimeSeriesPoint   `json:"series_tempo"`
	Hierarquia           []*insights.Node             `json:"hierarquia"`
	ComparativoCriativos []insights.CreativeComparison `json:"comparativo_criativos,omitempty"`
}

// UpsertBatchRequest wraps the batch metric ingestion body.
type UpsertBatchRequest struct {
	Metricas []models.MetricSnapshot `json:"metricas"`
}

// UpsertBatchResponse reports how many snapshots a batch touched.
type UpsertBatchResponse struct {
	Processadas int `json:"processadas"`
}

// PaginationMeta describes the slice of a paginated listing.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Per        int   `json:"per"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// PaginatedSnapshots wraps a metric listing with pagination metadata.
type PaginatedSnapshots struct {
	Data       []models.MetricSnapshot `json:"data"`
	Pagination PaginationMeta          `json:"pagination"`
}
