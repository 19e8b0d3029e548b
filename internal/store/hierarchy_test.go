package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaflow/funildash/internal/models"
)

func funilRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "empresa_id", "nome", "descricao", "ativo", "created_at", "updated_at"})
}

func TestLoadFunnelTrees_FullDepth(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	empresaID := uuid.New()
	funilID := uuid.New()
	campanhaID := uuid.New()
	conjuntoID := uuid.New()
	criativoID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("FROM funis").
		WithArgs(empresaID).
		WillReturnRows(funilRows().
			AddRow(funilID, empresaID, "Lançamento", "", true, now, now))

	mock.ExpectQuery("FROM campanhas").
		WithArgs(funilID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "funil_id", "nome", "tipo", "plataforma", "ativo", "created_at", "updated_at"}).
			AddRow(campanhaID, funilID, "Captação", "leads", "Meta Ads", true, now, now))

	mock.ExpectQuery("FROM conjuntos_anuncio").
		WithArgs(campanhaID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campanha_id", "nome", "publico", "ativo", "created_at", "updated_at"}).
			AddRow(conjuntoID, campanhaID, "Lookalike 1%", "frio", true, now, now))

	mock.ExpectQuery("FROM criativos").
		WithArgs(conjuntoID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conjunto_id", "nome", "tipo", "descricao", "ativo", "created_at", "updated_at"}).
			AddRow(criativoID, conjuntoID, "Video A", "video", "", true, now, now))

	h := NewHierarchy(db)
	trees, err := h.LoadFunnelTrees(context.Background(), empresaID)

	require.NoError(t, err)
	require.Len(t, trees, 1)
	require.Len(t, trees[0].Campanhas, 1)
	require.Len(t, trees[0].Campanhas[0].Conjuntos, 1)
	require.Len(t, trees[0].Campanhas[0].Conjuntos[0].Criativos, 1)
	assert.Equal(t, criativoID, trees[0].Campanhas[0].Conjuntos[0].Criativos[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFunnelTrees_NoFunnelsShortCircuits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	empresaID := uuid.New()
	mock.ExpectQuery("FROM funis").
		WithArgs(empresaID).
		WillReturnRows(funilRows())

	h := NewHierarchy(db)
	trees, err := h.LoadFunnelTrees(context.Background(), empresaID)

	require.NoError(t, err)
	assert.Empty(t, trees)
	// No campaign/ad set/creative queries were issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFunnelTree_InactiveIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	funilID := uuid.New()
	mock.ExpectQuery("FROM funis").
		WithArgs(funilID).
		WillReturnError(sql.ErrNoRows)

	h := NewHierarchy(db)
	_, err = h.LoadFunnelTree(context.Background(), funilID)

	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestResolveLineage_Criativo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	criativoID := uuid.New()
	conjuntoID := uuid.New()
	campanhaID := uuid.New()
	funilID := uuid.New()
	empresaID := uuid.New()

	mock.ExpectQuery("FROM criativos cr").
		WithArgs(criativoID).
		WillReturnRows(sqlmock.NewRows([]string{"ca_id", "c_id", "f_id", "empresa_id"}).
			AddRow(conjuntoID, campanhaID, funilID, empresaID))

	h := NewHierarchy(db)
	l, err := h.ResolveLineage(context.Background(), models.EntityCriativo, criativoID)

	require.NoError(t, err)
	assert.Equal(t, empresaID, l.EmpresaID)
	assert.Equal(t, funilID, l.FunilID)
	assert.Equal(t, campanhaID, l.CampanhaID)
	assert.Equal(t, conjuntoID, l.ConjuntoID)
}

func TestResolveLineage_UnknownType(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	h := NewHierarchy(db)
	_, err = h.ResolveLineage(context.Background(), models.EntityType("conta"), uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity type")
}

func TestResolveLineage_MissingFunnel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	funilID := uuid.New()
	mock.ExpectQuery("SELECT empresa_id FROM funis").
		WithArgs(funilID).
		WillReturnError(sql.ErrNoRows)

	h := NewHierarchy(db)
	_, err = h.ResolveLineage(context.Background(), models.EntityFunil, funilID)

	require.True(t, errors.Is(err, sql.ErrNoRows))
}
