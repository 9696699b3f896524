package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"scil/pkg/models"
)

// encabezadoExport fija el orden de columnas de toda exportación, en CSV y
// en XLSX por igual.
var encabezadoExport = []string{
	"RFC",
	"Nombre",
	"Ente",
	"Puesto",
	"Fecha Ingreso",
	"Fecha Egreso",
	"Monto",
	"Quincenas",
	"Entes Incompatibilidad",
	"Estatus",
	"Solventación",
}

func filaComoCadenas(f models.FilaExport) []string {
	return []string{
		f.RFC,
		f.Nombre,
		f.Ente,
		f.Puesto,
		f.FechaIngreso,
		f.FechaEgreso,
		f.Monto,
		f.Quincenas,
		f.EntesIncompatibilidad,
		f.Estatus,
		f.Solventacion,
	}
}

// EscribirCSV escribe las filas con BOM UTF-8 al frente para que Excel
// respete los acentos al abrir el archivo con doble clic.
func EscribirCSV(w io.Writer, filas []models.FilaExport) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("escribir BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(encabezadoExport); err != nil {
		return fmt.Errorf("escribir encabezado: %w", err)
	}
	for _, f := range filas {
		if err := cw.Write(filaComoCadenas(f)); err != nil {
			return fmt.Errorf("escribir fila de %s: %w", f.RFC, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EscribirXLSX arma un libro nuevo con una sola hoja Resultados. El
// llamador decide si lo guarda a disco o lo manda por la red.
func EscribirXLSX(filas []models.FilaExport) (*excelize.File, error) {
	libro := excelize.NewFile()
	const hoja = "Resultados"
	if err := libro.SetSheetName(libro.GetSheetName(0), hoja); err != nil {
		return nil, fmt.Errorf("nombrar hoja: %w", err)
	}
	for c, titulo := range encabezadoExport {
		celda, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, err
		}
		if err := libro.SetCellValue(hoja, celda, titulo); err != nil {
			return nil, err
		}
	}
	for i, f := range filas {
		for c, valor := range filaComoCadenas(f) {
			celda, err := excelize.CoordinatesToCellName(c+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := libro.SetCellValue(hoja, celda, valor); err != nil {
				return nil, err
			}
		}
	}
	return libro, nil
}

// NombreArchivo genera el nombre de exportación con sello de tiempo, por
// ejemplo laboral_resultados_20250825_1930.csv.
func NombreArchivo(formato string) string {
	return fmt.Sprintf("laboral_resultados_%s.%s", time.Now().Format("20060102_1504"), formato)
}
