package utils

import (
	"strings"
	"testing"
)

func TestCanonicalJSONOrdenaLlaves(t *testing.T) {
	canon, err := CanonicalJSON(map[string]any{"b": "ñ", "a": 1})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if string(canon) != `{"a":1,"b":"ñ"}` {
		t.Errorf("forma canónica inesperada: %s", canon)
	}
}

func TestCanonicalJSONOrdenaNiveles(t *testing.T) {
	type interno struct {
		Z int `json:"z"`
		A int `json:"a"`
	}
	type externo struct {
		Nombre string  `json:"nombre"`
		Datos  interno `json:"datos"`
	}
	canon, err := CanonicalJSON(externo{Nombre: "x", Datos: interno{Z: 1, A: 2}})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	want := `{"datos":{"a":2,"z":1},"nombre":"x"}`
	if string(canon) != want {
		t.Errorf("esperaba %s, obtuve %s", want, canon)
	}
}

func TestCanonicalJSONSinEscapeHTML(t *testing.T) {
	canon, err := CanonicalJSON(map[string]string{"d": "a<b & c>d"})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if strings.Contains(string(canon), `<`) {
		t.Errorf("no debe escapar HTML: %s", canon)
	}
}

func TestHashFirmaIgnoraOrdenDeCampos(t *testing.T) {
	type v1 struct {
		RFC    string `json:"rfc"`
		Nombre string `json:"nombre"`
	}
	type v2 struct {
		Nombre string `json:"nombre"`
		RFC    string `json:"rfc"`
	}
	h1, err := HashFirma(v1{RFC: "CUPU800825569", Nombre: "ANA"})
	if err != nil {
		t.Fatalf("HashFirma v1: %v", err)
	}
	h2, err := HashFirma(v2{RFC: "CUPU800825569", Nombre: "ANA"})
	if err != nil {
		t.Fatalf("HashFirma v2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("el orden de campos no debe cambiar la firma: %s vs %s", h1, h2)
	}
}

func TestHashFirmaDivergePorContenido(t *testing.T) {
	base := map[string]any{"rfc": "CUPU800825569", "entes": []string{"ENTE_00002", "ENTE_00003"}}
	otro := map[string]any{"rfc": "CUPU800825569", "entes": []string{"ENTE_00002", "ENTE_00004"}}

	h1, err := HashFirma(base)
	if err != nil {
		t.Fatalf("HashFirma: %v", err)
	}
	h2, err := HashFirma(otro)
	if err != nil {
		t.Fatalf("HashFirma: %v", err)
	}
	if h1 == h2 {
		t.Error("contenido distinto debe producir firma distinta")
	}
}

func TestHashFirmaConMapaCanonico(t *testing.T) {
	h, err := HashFirma(map[string]any{"b": "ñ", "a": 1})
	if err != nil {
		t.Fatalf("HashFirma: %v", err)
	}
	// sha256 de {"a":1,"b":"ñ"} en UTF-8.
	if h != "8c9f0db71dc4a5572fb74bbd5f32748f47833e7b7ff3e9646940772ca2cdd0de" {
		t.Errorf("firma inesperada: %s", h)
	}
}

func TestHashTexto(t *testing.T) {
	if got := HashTexto("odilia2025"); got != "5c74d0372877b1eaa5fdd8daf38c75bfe86f208248193c28b22b0fcf2e36eaa1" {
		t.Errorf("hash de contraseña inesperado: %s", got)
	}
}
