package normalize

import "testing"

func TestLimpiarRFC(t *testing.T) {
	casos := []struct {
		entrada  string
		esperado string
	}{
		{"CUPU800825569", "CUPU800825569"},
		{" cupu800825569 ", "CUPU800825569"},
		{"CUPU-800825-569", "CUPU800825569"},
		{"ABCD123456", "ABCD123456"},      // 10, límite inferior
		{"ABCD123456789", "ABCD123456789"}, // 13, límite superior
		{"ABC123456", ""},                  // 9, corto
		{"ABCD1234567890", ""},             // 14, largo
		{"", ""},
		{"   ", ""},
		{"CUPÚ800825569", "CUP800825569"}, // la Ú no es [A-Z0-9]
	}
	for _, c := range casos {
		if got := LimpiarRFC(c.entrada); got != c.esperado {
			t.Errorf("LimpiarRFC(%q) = %q, esperaba %q", c.entrada, got, c.esperado)
		}
	}
}

func TestLimpiarFecha(t *testing.T) {
	casos := []struct {
		entrada  string
		esperado string
	}{
		{"2023-01-15", "2023-01-15"},
		{"15/01/2023", "2023-01-15"},
		{"5/3/2023", "2023-03-05"}, // día primero
		{"15-01-2023", "2023-01-15"},
		{"2023/1/15", "2023-01-15"},
		{"2023-01-15 00:00:00", "2023-01-15"},
		{"44941", "2023-01-15"}, // serial de Excel
		{"44941.75", "2023-01-15"},
		{"", ""},
		{"nan", ""},
		{"NaT", ""},
		{"None", ""},
		{"null", ""},
		{"no es fecha", ""},
		{"7", ""}, // serial fuera de rango
	}
	for _, c := range casos {
		if got := LimpiarFecha(c.entrada); got != c.esperado {
			t.Errorf("LimpiarFecha(%q) = %q, esperaba %q", c.entrada, got, c.esperado)
		}
	}
}

func TestEsActivo(t *testing.T) {
	inactivos := []string{"", "0", "0.0", "NO", "no", "N/A", "na", "NONE", "  0  "}
	for _, v := range inactivos {
		if EsActivo(v) {
			t.Errorf("EsActivo(%q) debe ser falso", v)
		}
	}
	activos := []string{"SI", "1", "100.50", "X", "0.00 MXN", "PAGADO"}
	for _, v := range activos {
		if !EsActivo(v) {
			t.Errorf("EsActivo(%q) debe ser verdadero", v)
		}
	}
}

func TestNormalizarEncabezado(t *testing.T) {
	casos := map[string]string{
		" fecha alta ":  "FECHA_ALTA",
		"FECHA_BAJA":    "FECHA_BAJA",
		"Tot Perc":      "TOT_PERC",
		"qna1":          "QNA1",
		"nombre  corto": "NOMBRE__CORTO",
	}
	for entrada, esperado := range casos {
		if got := NormalizarEncabezado(entrada); got != esperado {
			t.Errorf("NormalizarEncabezado(%q) = %q, esperaba %q", entrada, got, esperado)
		}
	}
}

func TestNumeroQNA(t *testing.T) {
	validos := map[string]int{"QNA1": 1, "QNA9": 9, "QNA10": 10, "QNA19": 19, "QNA20": 20, "QNA24": 24}
	for col, esperado := range validos {
		n, ok := NumeroQNA(col)
		if !ok || n != esperado {
			t.Errorf("NumeroQNA(%q) = (%d, %v), esperaba (%d, true)", col, n, ok, esperado)
		}
	}
	invalidos := []string{"QNA0", "QNA25", "QNA", "QNA01", "QNA100", "RFC", "qna3"}
	for _, col := range invalidos {
		if _, ok := NumeroQNA(col); ok {
			t.Errorf("NumeroQNA(%q) no debe aceptar la columna", col)
		}
	}
}
