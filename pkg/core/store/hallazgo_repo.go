package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"scil/pkg/core/utils"
	"scil/pkg/models"
)

// tipoAnalisisGeneral es el tipo de patrón por omisión cuando un hallazgo
// llega sin tipo propio.
const tipoAnalisisGeneral = "GENERAL"

// HallazgoRepo persiste y consulta los hallazgos de la tabla laboral.
type HallazgoRepo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewHallazgoRepo construye el repositorio de hallazgos.
func NewHallazgoRepo(db *sqlx.DB, log *logrus.Logger) *HallazgoRepo {
	return &HallazgoRepo{db: db, log: log}
}

// CompararConHistorico firma cada hallazgo del lote y lo separa en nuevos y
// repetidos contra las firmas ya persistidas. Asigna HashFirma en ambos
// grupos y no escribe nada.
func (r *HallazgoRepo) CompararConHistorico(ctx context.Context, lote []models.Hallazgo) (nuevos, repetidos []models.Hallazgo, err error) {
	var firmas []string
	if err := r.db.SelectContext(ctx, &firmas, `SELECT hash_firma FROM laboral WHERE hash_firma IS NOT NULL`); err != nil {
		return nil, nil, fmt.Errorf("leer firmas históricas: %w", err)
	}
	historico := make(map[string]bool, len(firmas))
	for _, f := range firmas {
		historico[f] = true
	}

	for _, h := range lote {
		h.HashFirma = "" // la firma se calcula sin el propio campo
		firma, err := utils.HashFirma(h)
		if err != nil {
			return nil, nil, fmt.Errorf("firmar hallazgo %s: %w", h.RFC, err)
		}
		h.HashFirma = firma
		if historico[firma] {
			repetidos = append(repetidos, h)
		} else {
			nuevos = append(nuevos, h)
		}
	}
	return nuevos, repetidos, nil
}

// Guardar inserta los hallazgos uno por uno. El choque del índice único en
// hash_firma se omite en silencio: otro proceso, u otro archivo del mismo
// lote, ya persistió ese contenido exacto. Cualquier otro error aborta y
// regresa lo insertado hasta ese punto.
func (r *HallazgoRepo) Guardar(ctx context.Context, hallazgos []models.Hallazgo) (int, error) {
	q := r.db.Rebind(`INSERT INTO laboral (tipo_analisis, rfc, datos, hash_firma) VALUES (?, ?, ?, ?)`)
	insertados := 0
	for _, h := range hallazgos {
		if h.HashFirma == "" {
			firma, err := utils.HashFirma(h)
			if err != nil {
				return insertados, fmt.Errorf("firmar hallazgo %s: %w", h.RFC, err)
			}
			h.HashFirma = firma
		}
		datos, err := json.Marshal(h)
		if err != nil {
			return insertados, fmt.Errorf("serializar hallazgo %s: %w", h.RFC, err)
		}
		tipo := h.TipoPatron
		if tipo == "" {
			tipo = tipoAnalisisGeneral
		}
		if _, err := r.db.ExecContext(ctx, q, tipo, h.RFC, string(datos), h.HashFirma); err != nil {
			if esViolacionUnicidad(err) {
				r.log.WithFields(logrus.Fields{"rfc": h.RFC, "hash": h.HashFirma}).
					Debug("hallazgo ya persistido, se omite")
				continue
			}
			return insertados, fmt.Errorf("guardar hallazgo %s: %w", h.RFC, err)
		}
		insertados++
	}
	return insertados, nil
}

// PorRFC regresa la vista consolidada de un RFC: registros deduplicados de
// todos sus hallazgos, unión ordenada de entes, y nombre y estado tomados
// del hallazgo más reciente. Sin hallazgos legibles regresa ErrNotFound.
func (r *HallazgoRepo) PorRFC(ctx context.Context, rfc string) (*models.RegistroFusionado, error) {
	var filas []string
	q := r.db.Rebind(`SELECT datos FROM laboral WHERE UPPER(rfc) = UPPER(?) ORDER BY id DESC`)
	if err := r.db.SelectContext(ctx, &filas, q, strings.TrimSpace(rfc)); err != nil {
		return nil, fmt.Errorf("consultar hallazgos de %s: %w", rfc, err)
	}

	fusion := &models.RegistroFusionado{RFC: strings.ToUpper(strings.TrimSpace(rfc))}
	entes := make(map[string]bool)
	vistos := make(map[string]bool)
	decodificados := 0
	for _, datos := range filas {
		var h models.Hallazgo
		if err := json.Unmarshal([]byte(datos), &h); err != nil {
			r.log.WithField("rfc", rfc).WithError(err).Warn("hallazgo ilegible, se omite")
			continue
		}
		if decodificados == 0 {
			fusion.Nombre = h.Nombre
			fusion.Estado = h.Estado
			fusion.Solventacion = h.Solventacion
		}
		decodificados++
		for _, e := range h.Entes {
			entes[e] = true
		}
		for _, reg := range h.Registros {
			k := claveRegistro(reg)
			if vistos[k] {
				continue
			}
			vistos[k] = true
			fusion.Registros = append(fusion.Registros, reg)
		}
	}
	if decodificados == 0 {
		return nil, ErrNotFound
	}

	for e := range entes {
		fusion.Entes = append(fusion.Entes, e)
	}
	sort.Strings(fusion.Entes)
	if fusion.Estado == "" {
		fusion.Estado = models.EstadoSinValoracion
	}
	return fusion, nil
}

// claveRegistro identifica un registro para deduplicación entre hallazgos:
// mismo ente, puesto, monto y fechas cuentan como la misma relación laboral
// sin importar en cuántas quincenas apareció.
func claveRegistro(r models.RegistroFuente) string {
	var b strings.Builder
	b.WriteString(r.Ente)
	b.WriteByte(0x1f)
	b.WriteString(r.Puesto)
	b.WriteByte(0x1f)
	if r.Monto != nil {
		b.WriteString(strconv.FormatFloat(*r.Monto, 'f', -1, 64))
	}
	b.WriteByte(0x1f)
	if r.FechaIngreso != nil {
		b.WriteString(*r.FechaIngreso)
	}
	b.WriteByte(0x1f)
	if r.FechaEgreso != nil {
		b.WriteString(*r.FechaEgreso)
	}
	return b.String()
}

// Paginados regresa una página de hallazgos, el más reciente primero, y el
// total bajo el mismo filtro. El filtro es un LIKE sobre el documento JSON
// completo: alcanza RFC, nombre, entes y cualquier otro campo.
func (r *HallazgoRepo) Paginados(ctx context.Context, filtro string, pagina, limite int) ([]models.Hallazgo, int, error) {
	if pagina < 1 {
		pagina = 1
	}
	if limite < 1 {
		limite = 20
	}

	condicion := ""
	args := []any{}
	if f := strings.TrimSpace(filtro); f != "" {
		condicion = ` WHERE datos LIKE ?`
		args = append(args, "%"+f+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM laboral`+condicion), args...); err != nil {
		return nil, 0, fmt.Errorf("contar hallazgos: %w", err)
	}

	q := r.db.Rebind(`SELECT datos FROM laboral` + condicion + ` ORDER BY id DESC LIMIT ? OFFSET ?`)
	var filas []string
	if err := r.db.SelectContext(ctx, &filas, q, append(args, limite, (pagina-1)*limite)...); err != nil {
		return nil, 0, fmt.Errorf("leer hallazgos: %w", err)
	}

	hallazgos := make([]models.Hallazgo, 0, len(filas))
	for _, datos := range filas {
		var h models.Hallazgo
		if err := json.Unmarshal([]byte(datos), &h); err != nil {
			r.log.WithError(err).Warn("hallazgo ilegible, se omite")
			continue
		}
		hallazgos = append(hallazgos, h)
	}
	return hallazgos, total, nil
}

// Remapear reescribe los hallazgos cuya lista de entes quedó guardada con
// siglas o nombres, llevándola a clave canónica, y recalcula la firma. Si la
// firma recalculada ya existe, la versión canónica del mismo contenido ya
// está persistida y el renglón viejo se elimina. Regresa (actualizados,
// eliminados).
func (r *HallazgoRepo) Remapear(ctx context.Context, resolver func(string) (string, bool)) (int, int, error) {
	type fila struct {
		ID    int64  `db:"id"`
		Datos string `db:"datos"`
	}
	var filas []fila
	if err := r.db.SelectContext(ctx, &filas, `SELECT id, datos FROM laboral ORDER BY id`); err != nil {
		return 0, 0, fmt.Errorf("leer hallazgos: %w", err)
	}

	actualizados, eliminados := 0, 0
	for _, f := range filas {
		var h models.Hallazgo
		if err := json.Unmarshal([]byte(f.Datos), &h); err != nil {
			r.log.WithField("id", f.ID).WithError(err).Warn("hallazgo ilegible, se omite")
			continue
		}

		modificado := false
		nuevos := make([]string, len(h.Entes))
		for i, e := range h.Entes {
			if clave, ok := resolver(e); ok {
				nuevos[i] = clave
				if clave != e {
					modificado = true
				}
				continue
			}
			nuevos[i] = strings.ToUpper(strings.TrimSpace(e))
		}
		if !modificado {
			continue
		}

		h.Entes = nuevos
		h.HashFirma = ""
		firma, err := utils.HashFirma(h)
		if err != nil {
			return actualizados, eliminados, fmt.Errorf("refirmar hallazgo %d: %w", f.ID, err)
		}
		h.HashFirma = firma
		datos, err := json.Marshal(h)
		if err != nil {
			return actualizados, eliminados, fmt.Errorf("serializar hallazgo %d: %w", f.ID, err)
		}

		q := r.db.Rebind(`UPDATE laboral SET datos = ?, hash_firma = ? WHERE id = ?`)
		if _, err := r.db.ExecContext(ctx, q, string(datos), firma, f.ID); err != nil {
			if esViolacionUnicidad(err) {
				del := r.db.Rebind(`DELETE FROM laboral WHERE id = ?`)
				if _, err := r.db.ExecContext(ctx, del, f.ID); err != nil {
					return actualizados, eliminados, fmt.Errorf("eliminar hallazgo duplicado %d: %w", f.ID, err)
				}
				eliminados++
				continue
			}
			return actualizados, eliminados, fmt.Errorf("actualizar hallazgo %d: %w", f.ID, err)
		}
		actualizados++
	}
	return actualizados, eliminados, nil
}
