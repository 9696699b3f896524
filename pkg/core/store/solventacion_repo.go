package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"scil/pkg/models"
)

// SolventacionRepo guarda la decisión de auditoría por (rfc, ente).
type SolventacionRepo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewSolventacionRepo construye el repositorio de solventaciones.
func NewSolventacionRepo(db *sqlx.DB, log *logrus.Logger) *SolventacionRepo {
	return &SolventacionRepo{db: db, log: log}
}

// Actualizar inserta o reemplaza la solventación de un RFC para un ente.
// Sin ente aplica el comodín GENERAL; sin estado, Sin valoración. Regresa
// los renglones afectados.
func (r *SolventacionRepo) Actualizar(ctx context.Context, rfc, estado, comentario, ente string) (int64, error) {
	rfc = strings.ToUpper(strings.TrimSpace(rfc))
	if rfc == "" {
		return 0, fmt.Errorf("solventación sin rfc")
	}
	ente = strings.ToUpper(strings.TrimSpace(ente))
	if ente == "" {
		ente = models.EnteGeneral
	}
	if strings.TrimSpace(estado) == "" {
		estado = models.EstadoSinValoracion
	}

	q := r.db.Rebind(`INSERT INTO solventaciones (rfc, ente, estado, comentario, actualizado)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (rfc, ente) DO UPDATE SET
			estado = excluded.estado,
			comentario = excluded.comentario,
			actualizado = CURRENT_TIMESTAMP`)
	res, err := r.db.ExecContext(ctx, q, rfc, ente, estado, comentario)
	if err != nil {
		return 0, fmt.Errorf("guardar solventación %s/%s: %w", rfc, ente, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("guardar solventación %s/%s: %w", rfc, ente, err)
	}
	r.log.WithFields(logrus.Fields{"rfc": rfc, "ente": ente, "estado": estado}).Info("solventación actualizada")
	return n, nil
}

// PorRFC regresa el estado y comentario por ente para un RFC.
func (r *SolventacionRepo) PorRFC(ctx context.Context, rfc string) (map[string]models.DetalleSolventacion, error) {
	var filas []struct {
		Ente       string `db:"ente"`
		Estado     string `db:"estado"`
		Comentario string `db:"comentario"`
	}
	q := r.db.Rebind(`SELECT ente, estado, COALESCE(comentario, '') AS comentario
		FROM solventaciones WHERE UPPER(rfc) = UPPER(?)`)
	if err := r.db.SelectContext(ctx, &filas, q, strings.TrimSpace(rfc)); err != nil {
		return nil, fmt.Errorf("consultar solventaciones de %s: %w", rfc, err)
	}
	detalle := make(map[string]models.DetalleSolventacion, len(filas))
	for _, f := range filas {
		detalle[f.Ente] = models.DetalleSolventacion{Estado: f.Estado, Comentario: f.Comentario}
	}
	return detalle, nil
}

// Estado regresa el estado más recientemente actualizado para (rfc, ente),
// o ErrNotFound si ese par no tiene solventación.
func (r *SolventacionRepo) Estado(ctx context.Context, rfc, ente string) (string, error) {
	var estado string
	q := r.db.Rebind(`SELECT estado FROM solventaciones
		WHERE UPPER(rfc) = UPPER(?) AND UPPER(ente) = UPPER(?)
		ORDER BY actualizado DESC, id DESC LIMIT 1`)
	err := r.db.GetContext(ctx, &estado, q, strings.TrimSpace(rfc), strings.TrimSpace(ente))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consultar estado %s/%s: %w", rfc, ente, err)
	}
	return estado, nil
}

// LimpiarHuerfanas elimina las solventaciones de RFC que ya no tienen
// ningún hallazgo persistido; quedan tras limpiar o remapear la tabla
// laboral.
func (r *SolventacionRepo) LimpiarHuerfanas(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM solventaciones WHERE rfc NOT IN (SELECT DISTINCT rfc FROM laboral)`)
	if err != nil {
		return 0, fmt.Errorf("limpiar solventaciones huérfanas: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("limpiar solventaciones huérfanas: %w", err)
	}
	return n, nil
}
