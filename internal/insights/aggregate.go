// Package insights holds the pure computations behind every dashboard view:
// metric aggregation, performance classification, hierarchy assembly and
// time-series bucketing. Nothing here touches the database directly.
package insights

import "github.com/vendaflow/funildash/internal/models"

// AggregatedMetrics is the sum of raw counters across a set of snapshots
// plus the ratios derived from those sums. Recomputed per request, never
// persisted.
type AggregatedMetrics struct {
	Alcance             int64   `json:"alcance"`
	Impressoes          int64   `json:"impressoes"`
	Cliques             int64   `json:"cliques"`
	VisualizacoesPagina int64   `json:"visualizacoes_pagina"`
	Leads               int64   `json:"leads"`
	Checkouts           int64   `json:"checkouts"`
	Vendas              int64   `json:"vendas"`
	Gasto               float64 `json:"gasto"`
	Receita             float64 `json:"receita"`

	ROAS          float64 `json:"roas"`
	CTR           float64 `json:"ctr"`
	CPM           float64 `json:"cpm"`
	CPC           float64 `json:"cpc"`
	CPL           float64 `json:"cpl"`
	TaxaConversao float64 `json:"taxa_conversao"`
}

// Aggregate sums the raw counters of the given snapshots and derives the
// ratio metrics from the totals. Every division guards its denominator, so
// an empty input yields an all-zero result rather than NaN.
func Aggregate(snapshots []models.MetricSnapshot) AggregatedMetrics {
	var m AggregatedMetrics
	for _, s := range snapshots {
		m.Alcance += s.Alcance
		m.Impressoes += s.Impressoes
		m.Cliques += s.Cliques
		m.VisualizacoesPagina += s.VisualizacoesPagina
		m.Leads += s.Leads
		m.Checkouts += s.Checkouts
		m.Vendas += s.Vendas
		m.Gasto += s.Gasto
		m.Receita += s.Receita
	}

	if m.Gasto > 0 {
		m.ROAS = m.Receita / m.Gasto
	}
	if m.Impressoes > 0 {
		m.CTR = float64(m.Cliques) / float64(m.Impressoes) * 100
		m.CPM = m.Gasto / float64(m.Impressoes) * 1000
	}
	if m.Cliques > 0 {
		m.CPC = m.Gasto / float64(m.Cliques)
	}
	if m.Leads > 0 {
		m.CPL = m.Gasto / float64(m.Leads)
		m.TaxaConversao = float64(m.Vendas) / float64(m.Leads) * 100
	}

	return m
}
