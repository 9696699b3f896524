package ingest

import (
	"bytes"
	"testing"

	"scil/pkg/core/utils"
	"scil/pkg/models"
)

func TestClaveCatalogo(t *testing.T) {
	casos := []struct {
		prefijo, num, quiere string
	}{
		{PrefijoEnte, "11", "ENTE_11"},
		{PrefijoEnte, "11.", "ENTE_11"},
		{PrefijoEnte, "1.2", "ENTE_1_2"},
		{PrefijoEnte, " 7 ", "ENTE_7"},
		{PrefijoMunicipio, "33", "MUN_33"},
	}
	for _, c := range casos {
		if got := ClaveCatalogo(c.prefijo, c.num); got != c.quiere {
			t.Errorf("ClaveCatalogo(%q, %q) = %q, se esperaba %q", c.prefijo, c.num, got, c.quiere)
		}
	}
}

func TestLeerCatalogo(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "Estatales", filas: [][]any{
			{"NUM", "NOMBRE", "SIGLAS", "CLASIFICACION"},
			{"1", "Secretaría de Gobierno", "segob", "Dependencia"},
			{"", "SIN NÚMERO, SE DESCARTA", "X", "Y"},
			{"2.1", " Secretaría de Finanzas ", " SEFIN ", "Dependencia"},
		}},
	})

	entradas, err := LeerCatalogo(libro, PrefijoEnte, models.AmbitoEstatal)
	if err != nil {
		t.Fatal(err)
	}
	if len(entradas) != 2 {
		t.Fatalf("se esperaban 2 entradas, hay %d: %+v", len(entradas), entradas)
	}
	if entradas[0].Clave != "ENTE_1" || entradas[0].Siglas != "SEGOB" {
		t.Errorf("primera entrada: %+v", entradas[0])
	}
	if entradas[1].Clave != "ENTE_2_1" || entradas[1].Nombre != "Secretaría de Finanzas" {
		t.Errorf("segunda entrada: %+v", entradas[1])
	}
	for _, e := range entradas {
		if e.Ambito != models.AmbitoEstatal || !e.Activo {
			t.Errorf("ámbito/activo mal asignado: %+v", e)
		}
	}
}

func TestLeerUsuarios(t *testing.T) {
	libro := libroDePrueba(t, []hojaPrueba{
		{nombre: "Usuarios", filas: [][]any{
			{"Usuario", "Clave", "Nombre completo", "Entes asignados"},
			{"odilia", "odilia2025", "C.P. Odilia Cuamatzi Bautista", "todos"},
			{"", "ignorada", "FILA SIN USUARIO", ""},
			{"auditor1", "clave123", "Auditor de Finanzas", "sefin, sepe"},
		}},
	})

	usuarios, err := LeerUsuarios(libro)
	if err != nil {
		t.Fatal(err)
	}
	if len(usuarios) != 2 {
		t.Fatalf("se esperaban 2 usuarios, hay %d", len(usuarios))
	}
	if usuarios[0].Usuario != "odilia" || usuarios[0].Clave != utils.HashTexto("odilia2025") {
		t.Errorf("la contraseña debe almacenarse como SHA-256: %+v", usuarios[0])
	}
	if usuarios[0].Entes != "TODOS" || usuarios[1].Entes != "SEFIN, SEPE" {
		t.Errorf("los entes asignados deben ir en mayúsculas: %+v", usuarios)
	}
}

func TestLeerCatalogoLibroInvalido(t *testing.T) {
	// A diferencia de la ingesta, un catálogo ilegible es error: lo importa
	// un operador y el archivo es obligatorio.
	_, err := LeerCatalogo(bytes.NewReader([]byte("esto no es un zip")), PrefijoEnte, models.AmbitoEstatal)
	if err == nil {
		t.Fatal("un libro de catálogo ilegible debe ser error")
	}
}
