package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vendaflow/funildash/internal/database"
	"github.com/vendaflow/funildash/internal/models"
	"github.com/vendaflow/funildash/internal/store"
)

// seedFile mirrors the YAML layout: one company with nested funnels,
// campaigns, ad sets and creatives, each optionally carrying metric
// snapshots.
type seedFile struct {
	Empresa string       `yaml:"empresa"`
	Funis   []seedFunnel `yaml:"funis"`
}

type seedFunnel struct {
	Nome      string         `yaml:"nome"`
	Descricao string         `yaml:"descricao"`
	Campanhas []seedCampaign `yaml:"campanhas"`
	Metricas  []seedMetric   `yaml:"metricas"`
}

type seedCampaign struct {
	Nome       string       `yaml:"nome"`
	Tipo       string       `yaml:"tipo"`
	Plataforma string       `yaml:"plataforma"`
	Conjuntos  []seedAdSet  `yaml:"conjuntos"`
	Metricas   []seedMetric `yaml:"metricas"`
}

type seedAdSet struct {
	Nome      string         `yaml:"nome"`
	Publico   string         `yaml:"publico"`
	Criativos []seedCreative `yaml:"criativos"`
	Metricas  []seedMetric   `yaml:"metricas"`
}

type seedCreative struct {
	Nome      string       `yaml:"nome"`
	Tipo      string       `yaml:"tipo"`
	Descricao string       `yaml:"descricao"`
	Metricas  []seedMetric `yaml:"metricas"`
}

type seedMetric struct {
	PeriodoInicio       string  `yaml:"periodo_inicio"`
	PeriodoFim          string  `yaml:"periodo_fim"`
	Alcance             int64   `yaml:"alcance"`
	Impressoes          int64   `yaml:"impressoes"`
	Cliques             int64   `yaml:"cliques"`
	VisualizacoesPagina int64   `yaml:"visualizacoes_pagina"`
	Leads               int64   `yaml:"leads"`
	Checkouts           int64   `yaml:"checkouts"`
	Vendas              int64   `yaml:"vendas"`
	Gasto               float64 `yaml:"gasto"`
	Receita             float64 `yaml:"receita"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load a dataset from a YAML file",
	Long: `Load a company with its funnel hierarchy and metric snapshots from
a YAML file. Snapshots are upserted, so re-running the same file is safe.

Example:
  funildash seed demo.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}

		var seed seedFile
		if err := yaml.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("failed to parse seed file: %w", err)
		}
		if seed.Empresa == "" {
			return fmt.Errorf("seed file must name an empresa")
		}

		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		return runSeed(cmd.Context(), &seed)
	},
}

func runSeed(ctx context.Context, seed *seedFile) error {
	empresaID, err := findOrCreateEmpresa(seed.Empresa)
	if err != nil {
		return err
	}

	var snapshots []models.MetricSnapshot
	collect := func(tipo models.EntityType, id uuid.UUID, metricas []seedMetric) error {
		for _, m := range metricas {
			s, err := m.toSnapshot(tipo, id)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, s)
		}
		return nil
	}

	entities := 0
	for _, funil := range seed.Funis {
		var funilID uuid.UUID
		err := database.DB.QueryRowContext(ctx, `
			INSERT INTO funis (empresa_id, nome, descricao)
			VALUES ($1, $2, $3) RETURNING id`,
			empresaID, funil.Nome, funil.Descricao).Scan(&funilID)
		if err != nil {
			return fmt.Errorf("failed to seed funnel '%s': %w", funil.Nome, err)
		}
		entities++
		if err := collect(models.EntityFunil, funilID, funil.Metricas); err != nil {
			return err
		}

		for _, campanha := range funil.Campanhas {
			tipo := campanha.Tipo
			if tipo == "" {
				tipo = "leads"
			}
			plataforma := campanha.Plataforma
			if plataforma == "" {
				plataforma = "Meta Ads"
			}

			var campanhaID uuid.UUID
			err := database.DB.QueryRowContext(ctx, `
				INSERT INTO campanhas (funil_id, nome, tipo, plataforma)
				VALUES ($1, $2, $3, $4) RETURNING id`,
				funilID, campanha.Nome, tipo, plataforma).Scan(&campanhaID)
			if err != nil {
				return fmt.Errorf("failed to seed campaign '%s': %w", campanha.Nome, err)
			}
			entities++
			if err := collect(models.EntityCampanha, campanhaID, campanha.Metricas); err != nil {
				return err
			}

			for _, conjunto := range campanha.Conjuntos {
				var conjuntoID uuid.UUID
				err := database.DB.QueryRowContext(ctx, `
					INSERT INTO conjuntos_anuncio (campanha_id, nome, publico)
					VALUES ($1, $2, $3) RETURNING id`,
					campanhaID, conjunto.Nome, conjunto.Publico).Scan(&conjuntoID)
				if err != nil {
					return fmt.Errorf("failed to seed ad set '%s': %w", conjunto.Nome, err)
				}
				entities++
				if err := collect(models.EntityConjunto, conjuntoID, conjunto.Metricas); err != nil {
					return err
				}

				for _, criativo := range conjunto.Criativos {
					var criativoID uuid.UUID
					err := database.DB.QueryRowContext(ctx, `
						INSERT INTO criativos (conjunto_id, nome, tipo, descricao)
						VALUES ($1, $2, $3, $4) RETURNING id`,
						conjuntoID, criativo.Nome, criativo.Tipo, criativo.Descricao).Scan(&criativoID)
					if err != nil {
						return fmt.Errorf("failed to seed creative '%s': %w", criativo.Nome, err)
					}
					entities++
					if err := collect(models.EntityCriativo, criativoID, criativo.Metricas); err != nil {
						return err
					}
				}
			}
		}
	}

	written := 0
	if len(snapshots) > 0 {
		written, err = store.NewMetrics(database.DB).UpsertBatch(ctx, snapshots)
		if err != nil {
			return fmt.Errorf("failed to seed snapshots: %w", err)
		}
	}

	fmt.Printf("✓ Seeded '%s': %d entities, %d snapshots\n", seed.Empresa, entities, written)
	return nil
}

func (m seedMetric) toSnapshot(tipo models.EntityType, id uuid.UUID) (models.MetricSnapshot, error) {
	inicio, err := time.Parse("2006-01-02", m.PeriodoInicio)
	if err != nil {
		return models.MetricSnapshot{}, fmt.Errorf("invalid periodo_inicio '%s': %w", m.PeriodoInicio, err)
	}
	fim, err := time.Parse("2006-01-02", m.PeriodoFim)
	if err != nil {
		return models.MetricSnapshot{}, fmt.Errorf("invalid periodo_fim '%s': %w", m.PeriodoFim, err)
	}
	return models.MetricSnapshot{
		Tipo:                tipo,
		ReferenciaID:        id,
		PeriodoInicio:       inicio,
		PeriodoFim:          fim,
		Alcance:             m.Alcance,
		Impressoes:          m.Impressoes,
		Cliques:             m.Cliques,
		VisualizacoesPagina: m.VisualizacoesPagina,
		Leads:               m.Leads,
		Checkouts:           m.Checkouts,
		Vendas:              m.Vendas,
		Gasto:               m.Gasto,
		Receita:             m.Receita,
	}, nil
}

func init() {
	RootCmd.AddCommand(seedCmd)
}
