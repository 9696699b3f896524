package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scil/pkg/models"
)

func TestSeedDefaults(t *testing.T) {
	db, log := abrirBasePrueba(t)
	catalogos := NewCatalogoRepo(db, log)
	usuarios := NewUsuarioRepo(db, log)
	ctx := context.Background()

	require.NoError(t, catalogos.SeedDefaults(ctx))

	entradas, err := catalogos.CargarEntradas(ctx)
	require.NoError(t, err)
	require.Len(t, entradas, 3)
	claves := []string{entradas[0].Clave, entradas[1].Clave, entradas[2].Clave}
	assert.ElementsMatch(t, []string{"ENTE_00001", "ENTE_00002", "ENTE_00003"}, claves)

	u, err := usuarios.Autenticar(ctx, "odilia", "odilia2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"TODOS"}, u.Entes)

	// Idempotente: una base ya poblada no se toca.
	require.NoError(t, catalogos.SeedDefaults(ctx))
	conteos, err := catalogos.Conteos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, conteos["entes"])
	assert.Equal(t, 2, conteos["usuarios"])
}

func TestImportarYCargarEntradas(t *testing.T) {
	db, log := abrirBasePrueba(t)
	repo := NewCatalogoRepo(db, log)
	ctx := context.Background()

	n, err := repo.ImportarEntes(ctx, []models.CatalogoEntrada{
		{Clave: "ENTE_1", Nombre: "Secretaría de Salud", Siglas: "SESA", Clasificacion: "Dependencia", Ambito: models.AmbitoEstatal, Activo: true},
		{Clave: "ENTE_2", Nombre: "Ente Dado de Baja", Siglas: "BAJA", Clasificacion: "Dependencia", Ambito: models.AmbitoEstatal, Activo: false},
		{Nombre: "Sin clave, se descarta"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := repo.ImportarMunicipios(ctx, []models.CatalogoEntrada{
		{Clave: "MUN_33", Nombre: "Tlaxcala de Xicohténcatl", Siglas: "TLX", Clasificacion: "Municipio", Ambito: models.AmbitoMunicipal, Activo: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m)

	entradas, err := repo.CargarEntradas(ctx)
	require.NoError(t, err)
	require.Len(t, entradas, 2, "los inactivos no se cargan")
	assert.Equal(t, "ENTE_1", entradas[0].Clave)
	assert.Equal(t, "MUN_33", entradas[1].Clave, "municipios después de entes")

	// Reimportar la misma clave actualiza en lugar de duplicar.
	_, err = repo.ImportarEntes(ctx, []models.CatalogoEntrada{
		{Clave: "ENTE_1", Nombre: "Secretaría de Salud de Tlaxcala", Siglas: "SESA", Clasificacion: "Dependencia", Ambito: models.AmbitoEstatal, Activo: true},
	})
	require.NoError(t, err)
	entradas, err = repo.CargarEntradas(ctx)
	require.NoError(t, err)
	require.Len(t, entradas, 2)
	assert.Equal(t, "Secretaría de Salud de Tlaxcala", entradas[0].Nombre)
}

func TestLimpiarConservaCatalogos(t *testing.T) {
	db, log := abrirBasePrueba(t)
	catalogos := NewCatalogoRepo(db, log)
	hallazgos := NewHallazgoRepo(db, log)
	solventaciones := NewSolventacionRepo(db, log)
	ctx := context.Background()

	require.NoError(t, catalogos.SeedDefaults(ctx))
	_, err := hallazgos.Guardar(ctx, []models.Hallazgo{
		hallazgoPrueba("ABCD800101XYZ", "2025Q03", "ENTE_00002", "ENTE_00003"),
	})
	require.NoError(t, err)
	_, err = solventaciones.Actualizar(ctx, "ABCD800101XYZ", models.EstadoSolventado, "", "ENTE_00002")
	require.NoError(t, err)

	eliminados, err := catalogos.Limpiar(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, eliminados["laboral"])
	assert.EqualValues(t, 1, eliminados["solventaciones"])

	conteos, err := catalogos.Conteos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, conteos["laboral"])
	assert.Equal(t, 0, conteos["solventaciones"])
	assert.Equal(t, 3, conteos["entes"], "los catálogos sobreviven a la limpieza")
	assert.Equal(t, 2, conteos["usuarios"])
}

func TestLimpiarCatalogos(t *testing.T) {
	db, log := abrirBasePrueba(t)
	repo := NewCatalogoRepo(db, log)
	ctx := context.Background()

	require.NoError(t, repo.SeedDefaults(ctx))
	require.NoError(t, repo.LimpiarCatalogos(ctx))

	conteos, err := repo.Conteos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, conteos["entes"])
	assert.Equal(t, 0, conteos["municipios"])
	assert.Equal(t, 0, conteos["usuarios"])
}
