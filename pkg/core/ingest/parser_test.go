package ingest

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"scil/pkg/core/catalog"
	"scil/pkg/models"
)

type hojaPrueba struct {
	nombre string
	filas  [][]any
}

// libroDePrueba arma un libro en memoria; nunca se escriben binarios al repo.
func libroDePrueba(t *testing.T, hojas []hojaPrueba) io.Reader {
	t.Helper()
	libro := excelize.NewFile()
	for i, h := range hojas {
		if i == 0 {
			if err := libro.SetSheetName(libro.GetSheetName(0), h.nombre); err != nil {
				t.Fatal(err)
			}
		} else if _, err := libro.NewSheet(h.nombre); err != nil {
			t.Fatal(err)
		}
		for r, fila := range h.filas {
			for c, v := range fila {
				celda, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatal(err)
				}
				if err := libro.SetCellValue(h.nombre, celda, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	buf, err := libro.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func encabezadoBase(extra ...string) []any {
	fila := []any{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "TOT_PERC"}
	for _, e := range extra {
		fila = append(fila, e)
	}
	return fila
}

func catalogoDePrueba() *catalog.Store {
	return catalog.NewStore([]models.CatalogoEntrada{
		{Clave: "ENTE_00001", Nombre: "Secretaría de Gobierno", Siglas: "SEGOB", Ambito: models.AmbitoEstatal, Activo: true},
		{Clave: "ENTE_00002", Nombre: "Secretaría de Finanzas", Siglas: "SEFIN", Ambito: models.AmbitoEstatal, Activo: true},
		{Clave: "ENTE_00003", Nombre: "Secretaría de Educación Pública", Siglas: "SEPE", Ambito: models.AmbitoEstatal, Activo: true},
	})
}

func parserDePrueba() *Parser {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewParser(catalogoDePrueba(), log)
}

func TestProcesarResuelveHojasYNormalizaFilas(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "SEPE", filas: [][]any{
			encabezadoBase("QNA1", "QNA3"),
			{"ABCD800101XYZ", "  JUANA PÉREZ  ", "DOCENTE", "2020-01-15", "", 12345.50, 0, 1},
		}},
		{nombre: "Secretaría de Finanzas", filas: [][]any{
			encabezadoBase("QNA3"),
			{"abcd-800101-xyz", "JUANA PÉREZ", "ANALISTA", "", "", "", "1"},
		}},
	})

	carga, alertas, err := parserDePrueba().Procesar(context.Background(), []Archivo{{Nombre: "nomina.xlsx", Lector: libro}})
	if err != nil {
		t.Fatal(err)
	}
	if len(alertas) != 0 {
		t.Fatalf("no se esperaban alertas: %+v", alertas)
	}
	registros := carga.PorRFC["ABCD800101XYZ"]
	if len(registros) != 2 {
		t.Fatalf("se esperaban 2 registros del RFC, hay %d", len(registros))
	}

	sepe := registros[0]
	if sepe.Ente != "ENTE_00003" {
		t.Errorf("la hoja SEPE debe resolver a ENTE_00003, no %q", sepe.Ente)
	}
	if sepe.Nombre != "JUANA PÉREZ" || sepe.Puesto != "DOCENTE" {
		t.Errorf("nombre/puesto sin recortar: %q %q", sepe.Nombre, sepe.Puesto)
	}
	if sepe.FechaIngreso == nil || *sepe.FechaIngreso != "2020-01-15" {
		t.Errorf("fecha de ingreso = %v", sepe.FechaIngreso)
	}
	if sepe.FechaEgreso != nil {
		t.Errorf("fecha de egreso vacía debe ser nil, no %q", *sepe.FechaEgreso)
	}
	if sepe.Monto == nil || *sepe.Monto != 12345.50 {
		t.Errorf("monto = %v", sepe.Monto)
	}
	if _, hay := sepe.QNAs["QNA1"]; hay {
		t.Error("QNA1=0 es inactiva y no debe guardarse")
	}
	if _, hay := sepe.QNAs["QNA3"]; !hay {
		t.Error("QNA3=1 debe guardarse como activa")
	}

	sefin := registros[1]
	if sefin.Ente != "ENTE_00002" {
		t.Errorf("la hoja por nombre completo debe resolver a ENTE_00002, no %q", sefin.Ente)
	}
	if sefin.Monto != nil {
		t.Errorf("monto vacío debe ser nil, no %v", *sefin.Monto)
	}
}

func TestProcesarHojaDesconocidaGeneraAlerta(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "FOO", filas: [][]any{
			encabezadoBase("QNA1"),
			{"ABCD800101XYZ", "ALGUIEN", "PUESTO", "", "", "", 1},
		}},
	})

	carga, alertas, err := parserDePrueba().Procesar(context.Background(), []Archivo{{Nombre: "nomina.xlsx", Lector: libro}})
	if err != nil {
		t.Fatal(err)
	}
	if len(carga.RFCs) != 0 {
		t.Errorf("una hoja desconocida no debe aportar filas: %v", carga.RFCs)
	}
	if len(alertas) != 1 || alertas[0].Tipo != models.AlertaEnteNoEncontrado {
		t.Fatalf("se esperaba una alerta ente_no_encontrado: %+v", alertas)
	}
	if alertas[0].Hoja != "FOO" || !strings.Contains(alertas[0].Mensaje, "'FOO'") {
		t.Errorf("la alerta debe nombrar la hoja: %+v", alertas[0])
	}
}

func TestProcesarColumnasFaltantes(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "SEPE", filas: [][]any{
			{"RFC", "NOMBRE", "QNA1"}, // sin PUESTO ni fechas
			{"ABCD800101XYZ", "ALGUIEN", 1},
		}},
	})

	carga, alertas, err := parserDePrueba().Procesar(context.Background(), []Archivo{{Nombre: "nomina.xlsx", Lector: libro}})
	if err != nil {
		t.Fatal(err)
	}
	if len(carga.RFCs) != 0 {
		t.Error("una hoja sin columnas requeridas no debe aportar filas")
	}
	if len(alertas) != 1 || alertas[0].Tipo != models.AlertaColumnasFaltantes {
		t.Fatalf("se esperaba una alerta columnas_faltantes: %+v", alertas)
	}
	for _, falta := range []string{"PUESTO", "FECHA_ALTA", "FECHA_BAJA"} {
		if !strings.Contains(alertas[0].Mensaje, falta) {
			t.Errorf("la alerta debe enumerar la columna %s: %s", falta, alertas[0].Mensaje)
		}
	}
}

func TestProcesarEncabezadosConEspaciosYMinusculas(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "SEPE", filas: [][]any{
			{" rfc ", "nombre", "puesto", "fecha alta", "fecha baja", "qna2"},
			{"ABCD800101XYZ", "ALGUIEN", "PUESTO", "", "", "X"},
		}},
	})

	carga, alertas, err := parserDePrueba().Procesar(context.Background(), []Archivo{{Nombre: "nomina.xlsx", Lector: libro}})
	if err != nil {
		t.Fatal(err)
	}
	if len(alertas) != 0 {
		t.Fatalf("los encabezados deben normalizarse antes de validar: %+v", alertas)
	}
	registros := carga.PorRFC["ABCD800101XYZ"]
	if len(registros) != 1 {
		t.Fatalf("se esperaba una fila, hay %d", len(registros))
	}
	if v, hay := registros[0].QNAs["QNA2"]; !hay || v != "X" {
		t.Errorf("la columna qna2 debe normalizarse a QNA2: %+v", registros[0].QNAs)
	}
}

func TestProcesarDescartaRFCInvalido(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "SEPE", filas: [][]any{
			encabezadoBase("QNA1"),
			{"TOTAL GENERAL", "", "", "", "", 99999, ""},
			{"ABC", "MUY CORTO", "X", "", "", "", 1},
			{"ABCD800101XYZ", "VÁLIDA", "DOCENTE", "", "", "", 1},
		}},
	})

	carga, _, err := parserDePrueba().Procesar(context.Background(), []Archivo{{Nombre: "nomina.xlsx", Lector: libro}})
	if err != nil {
		t.Fatal(err)
	}
	if len(carga.RFCs) != 1 || carga.RFCs[0] != "ABCD800101XYZ" {
		t.Errorf("solo la fila con RFC válido debe sobrevivir: %v", carga.RFCs)
	}
}

func TestProcesarExtensionInvalida(t *testing.T) {
	carga, alertas, err := parserDePrueba().Procesar(context.Background(), []Archivo{
		{Nombre: "nomina.csv", Lector: strings.NewReader("no importa")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(carga.RFCs) != 0 {
		t.Error("un archivo con extensión inválida no debe procesarse")
	}
	if len(alertas) != 1 || alertas[0].Tipo != models.AlertaArchivoInvalido {
		t.Fatalf("se esperaba una alerta archivo_invalido: %+v", alertas)
	}
}

func TestProcesarLibroCorrupto(t *testing.T) {
	carga, alertas, err := parserDePrueba().Procesar(context.Background(), []Archivo{
		{Nombre: "nomina.xlsx", Lector: bytes.NewReader([]byte("esto no es un zip"))},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(carga.RFCs) != 0 || len(alertas) != 1 || alertas[0].Tipo != models.AlertaArchivoInvalido {
		t.Fatalf("un libro corrupto debe alertar sin abortar: %+v", alertas)
	}
}

func TestProcesarContextoCancelado(t *testing.T) {
	ctx, cancelar := context.WithCancel(context.Background())
	cancelar()
	_, _, err := parserDePrueba().Procesar(ctx, []Archivo{
		{Nombre: "nomina.xlsx", Lector: strings.NewReader("")},
	})
	if err == nil {
		t.Fatal("la cancelación del contexto debe reportarse como error")
	}
}

func TestProcesarAliasDeHojaEquivalentes(t *testing.T) {
	// Tres etiquetas de hoja que resuelven al mismo ente deben producir
	// exactamente la misma clave en los registros.
	for _, etiqueta := range []string{"SEPE", "ENTE_00003", "Secretaría de Educación Pública"} {
		libro := libroDePrueba(t, []hojaPrueba{
			{nombre: etiqueta, filas: [][]any{
				encabezadoBase("QNA1"),
				{"ABCD800101XYZ", "ALGUIEN", "DOCENTE", "", "", "", 1},
			}},
		})
		carga, _, err := parserDePrueba().Procesar(context.Background(), []Archivo{{Nombre: "nomina.xlsx", Lector: libro}})
		if err != nil {
			t.Fatal(err)
		}
		registros := carga.PorRFC["ABCD800101XYZ"]
		if len(registros) != 1 || registros[0].Ente != "ENTE_00003" {
			t.Errorf("la hoja %q debe resolver a ENTE_00003: %+v", etiqueta, registros)
		}
	}
}
