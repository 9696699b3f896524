package report

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scil/pkg/core/catalog"
	"scil/pkg/models"
)

// claveAplanada identifica una relación laboral única dentro de la
// exportación: mismo RFC, ente, puesto, fechas y monto colapsan en un solo
// renglón por más hallazgos que los mencionen.
type claveAplanada struct {
	rfc    string
	ente   string
	puesto string
	fi     string
	fe     string
	monto  string
}

type acumuladoExport struct {
	fila      models.FilaExport
	quincenas map[int]bool
	otros     map[string]bool
	enteClave string
	estado    string
	solvTexto string
}

// Exportar recorre todos los hallazgos que cumplen el filtro y los aplana
// en renglones de exportación.
func (a *Agregador) Exportar(ctx context.Context, filtro string) ([]models.FilaExport, error) {
	hallazgos, err := a.todos(ctx, filtro)
	if err != nil {
		return nil, err
	}
	return a.Aplanar(ctx, hallazgos)
}

var patronFechaComun = regexp.MustCompile(`Q(\d{1,2})$`)

// quincenaDe extrae el número de quincena de una fecha común como
// "2025Q03". SIN_DUPLICIDAD y cualquier otra forma regresan false.
func quincenaDe(fechaComun string) (int, bool) {
	m := patronFechaComun.FindStringSubmatch(fechaComun)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 24 {
		return 0, false
	}
	return n, true
}

// Aplanar convierte hallazgos en renglones de exportación: una relación
// laboral por renglón con sus quincenas acumuladas y los entes con los que
// resultó incompatible. El orden de salida es el de primera aparición, que
// con el recorrido id descendente del almacén pone lo más reciente arriba.
func (a *Agregador) Aplanar(ctx context.Context, hallazgos []models.Hallazgo) ([]models.FilaExport, error) {
	acumulado := make(map[claveAplanada]*acumuladoExport)
	var orden []claveAplanada

	for _, h := range hallazgos {
		n, hayQNA := quincenaDe(h.FechaComun)
		for _, r := range h.Registros {
			k := claveAplanada{
				rfc:    h.RFC,
				ente:   catalog.Sanitizar(r.Ente),
				puesto: r.Puesto,
				fi:     derefCadena(r.FechaIngreso),
				fe:     derefCadena(r.FechaEgreso),
				monto:  formatearMonto(r.Monto),
			}
			acc, ok := acumulado[k]
			if !ok {
				clave := a.claveDe(r.Ente)
				acc = &acumuladoExport{
					fila: models.FilaExport{
						RFC:          h.RFC,
						Nombre:       h.Nombre,
						Ente:         a.catalogo.Etiqueta(clave),
						Puesto:       r.Puesto,
						FechaIngreso: k.fi,
						FechaEgreso:  k.fe,
						Monto:        k.monto,
					},
					quincenas: make(map[int]bool),
					otros:     make(map[string]bool),
					enteClave: clave,
					estado:    EstatusLabel(h.Estado),
					solvTexto: h.Solventacion,
				}
				acumulado[k] = acc
				orden = append(orden, k)
			}
			if hayQNA {
				acc.quincenas[n] = true
			}
			for _, e := range h.Entes {
				if catalog.Sanitizar(e) != k.ente {
					acc.otros[e] = true
				}
			}
		}
	}

	cache := a.nuevaCache()
	filas := make([]models.FilaExport, 0, len(orden))
	for _, k := range orden {
		acc := acumulado[k]
		fila := acc.fila
		fila.Quincenas = etiquetaQuincenas(acc.quincenas)
		fila.EntesIncompatibilidad = a.etiquetaOtros(acc.otros)

		solvs, err := cache.de(ctx, k.rfc)
		if err != nil {
			return nil, err
		}
		fila.Estatus = acc.estado
		fila.Solventacion = acc.solvTexto
		if d, ok := solvs[acc.enteClave]; ok {
			if d.Estado != "" {
				fila.Estatus = d.Estado
			}
			if d.Comentario != "" {
				fila.Solventacion = d.Comentario
			}
		}
		filas = append(filas, fila)
	}
	return filas, nil
}

// etiquetaQuincenas materializa el conjunto de quincenas acumuladas: el
// ejercicio completo con 24 o más distintas, la lista ascendente, o N/A
// cuando no hubo ninguna.
func etiquetaQuincenas(quincenas map[int]bool) string {
	if len(quincenas) >= 24 {
		return models.QuincenasTodoElEjercicio
	}
	if len(quincenas) == 0 {
		return models.QuincenasNA
	}
	orden := make([]int, 0, len(quincenas))
	for n := range quincenas {
		orden = append(orden, n)
	}
	sort.Ints(orden)
	partes := make([]string, len(orden))
	for i, n := range orden {
		partes[i] = fmt.Sprintf("QNA%d", n)
	}
	return strings.Join(partes, ", ")
}

func (a *Agregador) etiquetaOtros(otros map[string]bool) string {
	if len(otros) == 0 {
		return models.SinOtrosEntes
	}
	vistas := make(map[string]bool, len(otros))
	siglas := make([]string, 0, len(otros))
	for e := range otros {
		s := a.catalogo.Etiqueta(a.claveDe(e))
		if !vistas[s] {
			vistas[s] = true
			siglas = append(siglas, s)
		}
	}
	sort.Strings(siglas)
	return strings.Join(siglas, ", ")
}

// claveDe lleva cualquier etiqueta de ente a su clave canónica; lo que el
// catálogo no conoce se queda como vino.
func (a *Agregador) claveDe(etiqueta string) string {
	if clave, ok := a.catalogo.Resolver(etiqueta); ok {
		return clave
	}
	return etiqueta
}

func derefCadena(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatearMonto(m *float64) string {
	if m == nil {
		return ""
	}
	return strconv.FormatFloat(*m, 'f', -1, 64)
}
