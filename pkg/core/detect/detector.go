// Package detect implementa el detector de incompatibilidades laborales por
// quincena: un RFC pagado por dos o más entes distintos en el mismo periodo.
//
// Reglas de emisión:
//  1. Los RFC se recorren en su orden de primera aparición en el lote.
//  2. Dentro de un RFC, las quincenas van en orden numérico ascendente
//     (QNA2 antes que QNA10).
//  3. Las listas de entes siempre salen ordenadas lexicográficamente y los
//     registros conservan el orden de entrada.
//  4. Dos filas del mismo ente cuentan como un solo ente: el detector
//     reporta cruces entre entes, no duplicados internos.
//
// Con la misma carga el detector produce exactamente los mismos hallazgos,
// byte por byte tras la serialización canónica.
package detect

import (
	"fmt"
	"sort"
	"time"

	"scil/pkg/core/normalize"
	"scil/pkg/models"
)

// Detector corre la detección de cruces sobre un ejercicio fiscal.
type Detector struct {
	Ejercicio int
}

// NewDetector crea un detector para el ejercicio dado; con cero o negativo
// toma el año en curso.
func NewDetector(ejercicio int) *Detector {
	if ejercicio <= 0 {
		ejercicio = time.Now().Year()
	}
	return &Detector{Ejercicio: ejercicio}
}

// Detectar produce el lote completo de hallazgos: primero los cruces entre
// entes por quincena, después un registro de trazabilidad por cada RFC que
// no apareció en ningún cruce.
func (d *Detector) Detectar(carga *models.CargaLaboral) []models.Hallazgo {
	hallazgos := d.CrucesQuincenales(carga)
	return append(hallazgos, d.SinCruce(carga, hallazgos)...)
}

// CrucesQuincenales emite un hallazgo por cada (RFC, quincena) donde hay dos
// o más entes distintos activos.
func (d *Detector) CrucesQuincenales(carga *models.CargaLaboral) []models.Hallazgo {
	var hallazgos []models.Hallazgo

	for _, rfc := range carga.RFCs {
		registros := carga.PorRFC[rfc]
		if len(registros) < 2 {
			continue
		}

		// Unión de quincenas activas de todas las filas del RFC.
		presentes := make(map[int]string)
		for _, r := range registros {
			for col, celda := range r.QNAs {
				if !normalize.EsActivo(celda) {
					continue
				}
				if n, ok := normalize.NumeroQNA(col); ok {
					presentes[n] = col
				}
			}
		}
		if len(presentes) == 0 {
			continue
		}
		orden := make([]int, 0, len(presentes))
		for n := range presentes {
			orden = append(orden, n)
		}
		sort.Ints(orden)

		for _, n := range orden {
			col := presentes[n]
			var activos []models.RegistroFuente
			vistos := make(map[string]bool)
			var entes []string
			for _, r := range registros {
				celda, tiene := r.QNAs[col]
				if !tiene || !normalize.EsActivo(celda) {
					continue
				}
				activos = append(activos, r)
				if !vistos[r.Ente] {
					vistos[r.Ente] = true
					entes = append(entes, r.Ente)
				}
			}
			if len(entes) < 2 {
				continue
			}
			sort.Strings(entes)

			hallazgos = append(hallazgos, models.Hallazgo{
				RFC:          rfc,
				Nombre:       activos[0].Nombre,
				Entes:        entes,
				FechaComun:   fmt.Sprintf("%dQ%02d", d.Ejercicio, n),
				TipoPatron:   models.PatronCruceQNA,
				Descripcion:  fmt.Sprintf("Activo en más de un ente en la quincena %s.", col),
				Registros:    activos,
				Estado:       models.EstadoSinValoracion,
				Solventacion: "",
			})
		}
	}
	return hallazgos
}

// SinCruce agrega un registro SIN_DUPLICIDAD por cada RFC del lote que no
// figura en ningún cruce, para trazabilidad del padrón completo.
func (d *Detector) SinCruce(carga *models.CargaLaboral, hallazgos []models.Hallazgo) []models.Hallazgo {
	conCruce := make(map[string]bool, len(hallazgos))
	for _, h := range hallazgos {
		conCruce[h.RFC] = true
	}

	var faltantes []models.Hallazgo
	for _, rfc := range carga.RFCs {
		if conCruce[rfc] {
			continue
		}
		registros := carga.PorRFC[rfc]
		if len(registros) == 0 {
			continue
		}

		vistos := make(map[string]bool)
		var entes []string
		for _, r := range registros {
			if !vistos[r.Ente] {
				vistos[r.Ente] = true
				entes = append(entes, r.Ente)
			}
		}
		sort.Strings(entes)

		faltantes = append(faltantes, models.Hallazgo{
			RFC:          rfc,
			Nombre:       registros[0].Nombre,
			Entes:        entes,
			FechaComun:   models.FechaComunSinDuplicidad,
			TipoPatron:   models.PatronSinDuplicidad,
			Descripcion:  "Empleado sin cruce detectado",
			Registros:    registros,
			Estado:       models.EstadoSinValoracion,
			Solventacion: "",
		})
	}
	return faltantes
}
