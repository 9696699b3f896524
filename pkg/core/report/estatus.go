// Package report arma las vistas de lectura sobre los hallazgos
// persistidos: la vista agrupada por ente, la fusión de estados por RFC y la
// exportación aplanada a CSV o XLSX. Nada aquí escribe a la base; todo es
// derivado.
package report

import (
	"sort"
	"strings"

	"scil/pkg/core/normalize"
	"scil/pkg/models"
)

// EstatusLabel normaliza un estado de texto libre a una de las tres
// etiquetas canónicas. El orden de las comparaciones importa: "No
// Solventado" también contiene "solvent".
func EstatusLabel(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case strings.Contains(s, "no"):
		return models.EstadoNoSolventado
	case strings.Contains(s, "solvent"):
		return models.EstadoSolventado
	default:
		return models.EstadoSinValoracion
	}
}

// FusionarEstado consolida el estado de un RFC: cada ente toma su
// solventación si existe, si no el estado base; un solo valor distinto se
// regresa tal cual y varios se reportan como Mixto. Mixto solo existe en
// esta lectura, nunca en disco.
func FusionarEstado(entes []string, solventaciones map[string]models.DetalleSolventacion, base string) string {
	if base == "" {
		base = models.EstadoSinValoracion
	}
	distintos := make(map[string]bool)
	ultimo := base
	for _, e := range entes {
		estado := base
		if d, ok := solventaciones[e]; ok && d.Estado != "" {
			estado = d.Estado
		}
		distintos[estado] = true
		ultimo = estado
	}
	if len(distintos) > 1 {
		return models.EstadoMixto
	}
	return ultimo
}

// EntesCruceReal recalcula, a partir de los registros del propio hallazgo,
// qué entes comparten de verdad alguna quincena activa con otro ente. Cubre
// hallazgos legados que guardaron listas de entes sin intersección real.
// El resultado sale ordenado.
func EntesCruceReal(h models.Hallazgo) []string {
	porEnte := make(map[string]map[string]bool)
	for _, r := range h.Registros {
		if r.Ente == "" {
			continue
		}
		qs := porEnte[r.Ente]
		if qs == nil {
			qs = make(map[string]bool)
			porEnte[r.Ente] = qs
		}
		for col, celda := range r.QNAs {
			if normalize.EsActivo(celda) {
				qs[col] = true
			}
		}
	}

	entes := make([]string, 0, len(porEnte))
	for e := range porEnte {
		entes = append(entes, e)
	}
	sort.Strings(entes)

	reales := make(map[string]bool)
	for i := 0; i < len(entes); i++ {
		for j := i + 1; j < len(entes); j++ {
			if comparteQuincena(porEnte[entes[i]], porEnte[entes[j]]) {
				reales[entes[i]] = true
				reales[entes[j]] = true
			}
		}
	}

	resultado := make([]string, 0, len(reales))
	for _, e := range entes {
		if reales[e] {
			resultado = append(resultado, e)
		}
	}
	return resultado
}

func comparteQuincena(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for q := range a {
		if b[q] {
			return true
		}
	}
	return false
}
