package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"scil/pkg/models"
)

// abrirBasePrueba crea una base SQLite temporal con el esquema aplicado.
func abrirBasePrueba(t *testing.T) (*sqlx.DB, *logrus.Logger) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "scil_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(ctx, db))

	log := logrus.New()
	log.SetOutput(io.Discard)
	return db, log
}

func hallazgoPrueba(rfc, fechaComun string, entes ...string) models.Hallazgo {
	registros := make([]models.RegistroFuente, 0, len(entes))
	for _, e := range entes {
		registros = append(registros, models.RegistroFuente{
			Ente:   e,
			Nombre: "EMPLEADO DE PRUEBA",
			Puesto: "ANALISTA",
			QNAs:   map[string]string{"QNA3": "1"},
		})
	}
	return models.Hallazgo{
		RFC:         rfc,
		Nombre:      "EMPLEADO DE PRUEBA",
		Entes:       entes,
		FechaComun:  fechaComun,
		TipoPatron:  models.PatronCruceQNA,
		Descripcion: "Activo en más de un ente en la quincena QNA3.",
		Registros:   registros,
		Estado:      models.EstadoSinValoracion,
	}
}
