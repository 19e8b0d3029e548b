// Package models defines the persisted entities of the funnel hierarchy.
package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityType discriminates which level of the funnel hierarchy a metric
// snapshot is attached to.
type EntityType string

const (
	EntityFunil    EntityType = "funil"
	EntityCampanha EntityType = "campanha"
	EntityConjunto EntityType = "conjunto"
	EntityCriativo EntityType = "criativo"
)

// Valid reports whether t is one of the four known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityFunil, EntityCampanha, EntityConjunto, EntityCriativo:
		return true
	}
	return false
}

// Empresa is the tenant boundary. Every funnel and user belongs to one.
type Empresa struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	CreatedAt time.Time `json:"created_at"`
}

// Usuario authenticates against the service and resolves to an empresa.
type Usuario struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	EmpresaID uuid.UUID `json:"empresa_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Funil is a top-level marketing initiative grouping campaigns.
type Funil struct {
	ID        uuid.UUID `json:"id"`
	EmpresaID uuid.UUID `json:"empresa_id"`
	Nome      string    `json:"nome"`
	Descricao string    `json:"descricao,omitempty"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Campanha is an advertising campaign inside a funnel, tagged with the
// platform it runs on (free text, e.g. "Meta Ads").
type Campanha struct {
	ID         uuid.UUID `json:"id"`
	FunilID    uuid.UUID `json:"funil_id"`
	Nome       string    `json:"nome"`
	Tipo       string    `json:"tipo"`
	Plataforma string    `json:"plataforma"`
	Ativo      bool      `json:"ativo"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConjuntoAnuncio is an audience-targeted ad set inside a campaign.
type ConjuntoAnuncio struct {
	ID         uuid.UUID `json:"id"`
	CampanhaID uuid.UUID `json:"campanha_id"`
	Nome       string    `json:"nome"`
	Publico    string    `json:"publico,omitempty"`
	Ativo      bool      `json:"ativo"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Criativo is an individual ad asset inside an ad set.
type Criativo struct {
	ID         uuid.UUID `json:"id"`
	ConjuntoID uuid.UUID `json:"conjunto_id"`
	Nome       string    `json:"nome"`
	Tipo       string    `json:"tipo,omitempty"`
	Descricao  string    `json:"descricao,omitempty"`
	Ativo      bool      `json:"ativo"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MetricSnapshot is one periodic measurement for a single entity. The
// (Tipo, ReferenciaID, PeriodoInicio, PeriodoFim) tuple is unique; writing
// the same key again replaces the full counter set.
type MetricSnapshot struct {
	ID                  uuid.UUID  `json:"id"`
	Tipo                EntityType `json:"tipo"`
	ReferenciaID        uuid.UUID  `json:"referencia_id"`
	PeriodoInicio       time.Time  `json:"periodo_inicio"`
	PeriodoFim          time.Time  `json:"periodo_fim"`
	Alcance             int64      `json:"alcance"`
	Impressoes          int64      `json:"impressoes"`
	Cliques             int64      `json:"cliques"`
	VisualizacoesPagina int64      `json:"visualizacoes_pagina"`
	Leads               int64      `json:"leads"`
	Checkouts           int64      `json:"checkouts"`
	Vendas              int64      `json:"vendas"`
	Gasto               float64    `json:"gasto"`
	Receita             float64    `json:"receita"`
}
