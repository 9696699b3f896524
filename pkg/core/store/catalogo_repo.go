package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"scil/pkg/core/utils"
	"scil/pkg/models"
)

// CatalogoRepo materializa los catálogos de entes y municipios, junto con
// las tareas de mantenimiento que operan tabla por tabla.
type CatalogoRepo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewCatalogoRepo construye el repositorio de catálogos.
func NewCatalogoRepo(db *sqlx.DB, log *logrus.Logger) *CatalogoRepo {
	return &CatalogoRepo{db: db, log: log}
}

// CargarEntradas regresa los renglones activos de ambos catálogos, listos
// para armar el catálogo en memoria.
func (r *CatalogoRepo) CargarEntradas(ctx context.Context) ([]models.CatalogoEntrada, error) {
	var entradas []models.CatalogoEntrada
	for _, tabla := range []string{"entes", "municipios"} {
		var filas []models.CatalogoEntrada
		q := `SELECT clave, nombre,
			COALESCE(siglas, '') AS siglas,
			COALESCE(clasificacion, '') AS clasificacion,
			COALESCE(ambito, '') AS ambito,
			activo
		FROM ` + tabla + ` WHERE activo = 1 ORDER BY nombre`
		if err := r.db.SelectContext(ctx, &filas, q); err != nil {
			return nil, fmt.Errorf("leer catálogo %s: %w", tabla, err)
		}
		entradas = append(entradas, filas...)
	}
	return entradas, nil
}

// ImportarEntes hace upsert del catálogo estatal por clave.
func (r *CatalogoRepo) ImportarEntes(ctx context.Context, entradas []models.CatalogoEntrada) (int, error) {
	return r.importar(ctx, "entes", entradas)
}

// ImportarMunicipios hace upsert del catálogo municipal por clave.
func (r *CatalogoRepo) ImportarMunicipios(ctx context.Context, entradas []models.CatalogoEntrada) (int, error) {
	return r.importar(ctx, "municipios", entradas)
}

func (r *CatalogoRepo) importar(ctx context.Context, tabla string, entradas []models.CatalogoEntrada) (int, error) {
	q := r.db.Rebind(`INSERT INTO ` + tabla + ` (clave, nombre, siglas, clasificacion, ambito, activo)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (clave) DO UPDATE SET
			nombre = excluded.nombre,
			siglas = excluded.siglas,
			clasificacion = excluded.clasificacion,
			ambito = excluded.ambito,
			activo = excluded.activo`)
	n := 0
	for _, e := range entradas {
		if e.Clave == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, q, e.Clave, e.Nombre, e.Siglas, e.Clasificacion, e.Ambito, e.Activo); err != nil {
			return n, fmt.Errorf("importar %s %s: %w", tabla, e.Clave, err)
		}
		n++
	}
	return n, nil
}

// SeedDefaults inserta los renglones base: dos cuentas de auditoría y tres
// entes de arranque. Solo toca tablas vacías; una base ya poblada queda
// intacta.
func (r *CatalogoRepo) SeedDefaults(ctx context.Context) error {
	var usuarios int
	if err := r.db.GetContext(ctx, &usuarios, `SELECT COUNT(*) FROM usuarios`); err != nil {
		return fmt.Errorf("contar usuarios: %w", err)
	}
	if usuarios == 0 {
		base := []models.UsuarioSemilla{
			{Nombre: "C.P. Odilia Cuamatzi Bautista", Usuario: "odilia", Clave: utils.HashTexto("odilia2025"), Entes: "TODOS"},
			{Nombre: "C.P. Luis Felipe Camilo Fuentes", Usuario: "felipe", Clave: utils.HashTexto("felipe2025"), Entes: "TODOS"},
		}
		q := r.db.Rebind(`INSERT INTO usuarios (nombre, usuario, clave, entes) VALUES (?, ?, ?, ?)`)
		for _, u := range base {
			if _, err := r.db.ExecContext(ctx, q, u.Nombre, u.Usuario, u.Clave, u.Entes); err != nil {
				return fmt.Errorf("insertar usuario base %s: %w", u.Usuario, err)
			}
		}
		r.log.Info("usuarios base insertados")
	}

	var entes int
	if err := r.db.GetContext(ctx, &entes, `SELECT COUNT(*) FROM entes`); err != nil {
		return fmt.Errorf("contar entes: %w", err)
	}
	if entes == 0 {
		base := []models.CatalogoEntrada{
			{Clave: "ENTE_00001", Nombre: "Secretaría de Gobierno", Siglas: "SEGOB", Clasificacion: "Estatal", Ambito: "Estatal", Activo: true},
			{Clave: "ENTE_00002", Nombre: "Secretaría de Finanzas", Siglas: "SEFIN", Clasificacion: "Estatal", Ambito: "Estatal", Activo: true},
			{Clave: "ENTE_00003", Nombre: "Secretaría de Educación Pública", Siglas: "SEPE", Clasificacion: "Estatal", Ambito: "Estatal", Activo: true},
		}
		if _, err := r.importar(ctx, "entes", base); err != nil {
			return err
		}
		r.log.Info("entes base insertados")
	}
	return nil
}

// Limpiar vacía hallazgos y solventaciones; catálogos y usuarios se
// conservan. Regresa los renglones eliminados por tabla.
func (r *CatalogoRepo) Limpiar(ctx context.Context) (map[string]int64, error) {
	eliminados := make(map[string]int64, 2)
	for _, tabla := range []string{"laboral", "solventaciones"} {
		res, err := r.db.ExecContext(ctx, `DELETE FROM `+tabla)
		if err != nil {
			return eliminados, fmt.Errorf("limpiar %s: %w", tabla, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return eliminados, fmt.Errorf("limpiar %s: %w", tabla, err)
		}
		eliminados[tabla] = n
	}
	return eliminados, nil
}

// LimpiarCatalogos vacía entes, municipios y usuarios antes de una
// reimportación completa.
func (r *CatalogoRepo) LimpiarCatalogos(ctx context.Context) error {
	for _, tabla := range []string{"entes", "municipios", "usuarios"} {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+tabla); err != nil {
			return fmt.Errorf("limpiar %s: %w", tabla, err)
		}
	}
	return nil
}

// Conteos regresa el número de renglones por tabla; lo consume el CLI de
// mantenimiento y el endpoint de salud.
func (r *CatalogoRepo) Conteos(ctx context.Context) (map[string]int, error) {
	conteos := make(map[string]int, 5)
	for _, tabla := range []string{"laboral", "solventaciones", "usuarios", "entes", "municipios"} {
		var n int
		if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+tabla); err != nil {
			return conteos, fmt.Errorf("contar %s: %w", tabla, err)
		}
		conteos[tabla] = n
	}
	return conteos, nil
}
