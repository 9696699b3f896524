// Package ingest convierte libros de Excel del padrón quincenal en la carga
// normalizada que consume el detector. Cada hoja de un libro es un ente: el
// nombre de la hoja se resuelve contra el catálogo y las filas se limpian
// campo por campo.
//
// Los problemas de forma en la entrada (extensión desconocida, hoja que no
// resuelve, columnas faltantes) producen alertas visibles para el usuario y
// nunca interrumpen el resto del lote.
package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"scil/pkg/core/catalog"
	"scil/pkg/core/normalize"
	"scil/pkg/models"
)

// Archivo es un libro por ingerir: el nombre original decide la extensión y
// aparece en las alertas; el contenido se lee completo en memoria.
type Archivo struct {
	Nombre string
	Lector io.Reader
}

// Columnas que deben existir, ya normalizadas, en el encabezado de una hoja
// para que sus filas se procesen.
var columnasRequeridas = []string{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA"}

// columnaMonto es opcional; cuando existe alimenta el monto de la fila.
const columnaMonto = "TOT_PERC"

// Parser lee libros de ingesta. No guarda estado entre lotes y el catálogo
// es inmutable, así que una misma instancia sirve a varias peticiones.
type Parser struct {
	catalogo *catalog.Store
	log      *logrus.Logger
}

// NewParser construye un parser sobre el catálogo de entes dado.
func NewParser(catalogo *catalog.Store, log *logrus.Logger) *Parser {
	return &Parser{catalogo: catalogo, log: log}
}

// Procesar acumula en una sola carga las filas normalizadas de todos los
// libros del lote. Regresa la carga, las alertas de forma y un error solo
// cuando el contexto se cancela a medio lote.
func (p *Parser) Procesar(ctx context.Context, archivos []Archivo) (*models.CargaLaboral, []models.Alerta, error) {
	carga := models.NuevaCarga()
	alertas := []models.Alerta{}

	for _, a := range archivos {
		if err := ctx.Err(); err != nil {
			return carga, alertas, fmt.Errorf("ingesta interrumpida en %s: %w", a.Nombre, err)
		}

		ext := strings.ToLower(filepath.Ext(a.Nombre))
		if ext != ".xlsx" && ext != ".xlsm" {
			alertas = append(alertas, models.Alerta{
				Tipo:    models.AlertaArchivoInvalido,
				Mensaje: fmt.Sprintf("Archivo '%s' omitido: solo se aceptan libros .xlsx o .xlsm.", a.Nombre),
				Archivo: a.Nombre,
			})
			continue
		}

		libro, err := excelize.OpenReader(a.Lector)
		if err != nil {
			p.log.WithField("archivo", a.Nombre).WithError(err).Warn("libro ilegible")
			alertas = append(alertas, models.Alerta{
				Tipo:    models.AlertaArchivoInvalido,
				Mensaje: fmt.Sprintf("Archivo '%s' omitido: no se pudo leer como libro de Excel.", a.Nombre),
				Archivo: a.Nombre,
			})
			continue
		}
		alertas = p.procesarLibro(libro, a.Nombre, carga, alertas)
		libro.Close()
	}
	return carga, alertas, nil
}

func (p *Parser) procesarLibro(libro *excelize.File, archivo string, carga *models.CargaLaboral, alertas []models.Alerta) []models.Alerta {
	for _, hoja := range libro.GetSheetList() {
		clave, ok := p.catalogo.Resolver(hoja)
		if !ok {
			alertas = append(alertas, models.Alerta{
				Tipo:    models.AlertaEnteNoEncontrado,
				Mensaje: fmt.Sprintf("Hoja '%s' no encontrada en catálogo de entes. Verifique el nombre.", hoja),
				Hoja:    hoja,
				Archivo: archivo,
			})
			continue
		}

		filas, err := libro.GetRows(hoja)
		if err != nil {
			p.log.WithFields(logrus.Fields{"archivo": archivo, "hoja": hoja}).
				WithError(err).Warn("hoja ilegible")
			alertas = append(alertas, models.Alerta{
				Tipo:    models.AlertaArchivoInvalido,
				Mensaje: fmt.Sprintf("Hoja '%s' omitida: no se pudo leer su contenido.", hoja),
				Hoja:    hoja,
				Archivo: archivo,
			})
			continue
		}
		if len(filas) == 0 {
			continue
		}

		cols := indexarColumnas(filas[0])
		if faltan := cols.faltantes(); len(faltan) > 0 {
			alertas = append(alertas, models.Alerta{
				Tipo:    models.AlertaColumnasFaltantes,
				Mensaje: fmt.Sprintf("Hoja '%s' omitida: faltan columnas requeridas (%s).", hoja, strings.Join(faltan, ", ")),
				Hoja:    hoja,
				Archivo: archivo,
			})
			continue
		}

		validas := 0
		for _, fila := range filas[1:] {
			registro, rfc, ok := normalizarFila(fila, cols, clave)
			if !ok {
				continue
			}
			carga.Agregar(rfc, registro)
			validas++
		}
		p.log.WithFields(logrus.Fields{
			"archivo": archivo,
			"hoja":    hoja,
			"ente":    clave,
			"filas":   validas,
		}).Info("hoja procesada")
	}
	return alertas
}

// columnas mapea encabezado normalizado a su posición y recoge las columnas
// QNA en el orden de la hoja. Ante encabezados repetidos gana el primero.
type columnas struct {
	indice map[string]int
	qnas   []columnaQNA
}

type columnaQNA struct {
	nombre string // encabezado normalizado, QNA1..QNA24
	indice int
}

func indexarColumnas(encabezados []string) columnas {
	c := columnas{indice: make(map[string]int, len(encabezados))}
	for i, h := range encabezados {
		n := normalize.NormalizarEncabezado(h)
		if n == "" {
			continue
		}
		if _, visto := c.indice[n]; visto {
			continue
		}
		c.indice[n] = i
		if _, ok := normalize.NumeroQNA(n); ok {
			c.qnas = append(c.qnas, columnaQNA{nombre: n, indice: i})
		}
	}
	return c
}

func (c columnas) faltantes() []string {
	var faltan []string
	for _, req := range columnasRequeridas {
		if _, ok := c.indice[req]; !ok {
			faltan = append(faltan, req)
		}
	}
	return faltan
}

func (c columnas) celda(fila []string, nombre string) string {
	i, ok := c.indice[nombre]
	if !ok || i >= len(fila) {
		return ""
	}
	return fila[i]
}

// normalizarFila limpia una fila de la hoja. Una fila sin RFC válido se
// descarta en silencio; el padrón real trae renglones de totales y firmas
// que no son empleados.
func normalizarFila(fila []string, cols columnas, ente string) (models.RegistroFuente, string, bool) {
	rfc := normalize.LimpiarRFC(cols.celda(fila, "RFC"))
	if rfc == "" {
		return models.RegistroFuente{}, "", false
	}

	qnas := make(map[string]string)
	for _, q := range cols.qnas {
		if q.indice >= len(fila) {
			continue
		}
		v := strings.TrimSpace(fila[q.indice])
		if normalize.EsActivo(v) {
			qnas[q.nombre] = v
		}
	}

	registro := models.RegistroFuente{
		Ente:         ente,
		Nombre:       strings.TrimSpace(cols.celda(fila, "NOMBRE")),
		Puesto:       strings.TrimSpace(cols.celda(fila, "PUESTO")),
		FechaIngreso: fechaOpcional(cols.celda(fila, "FECHA_ALTA")),
		FechaEgreso:  fechaOpcional(cols.celda(fila, "FECHA_BAJA")),
		QNAs:         qnas,
		Monto:        montoOpcional(cols.celda(fila, columnaMonto)),
	}
	return registro, rfc, true
}

// fechaOpcional limpia una fecha; el vacío viaja como nil para que la llave
// JSON serialice null, igual que una fecha nunca capturada.
func fechaOpcional(v string) *string {
	f := normalize.LimpiarFecha(v)
	if f == "" {
		return nil
	}
	return &f
}

// montoOpcional interpreta la percepción total. Tolera signo de pesos y
// separador de miles; un valor no numérico viaja como nil.
func montoOpcional(v string) *float64 {
	s := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(v), "$"), ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	m, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &m
}
