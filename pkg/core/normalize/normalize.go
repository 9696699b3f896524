// Package normalize limpia los valores escalares que llegan en los libros
// laborales: RFC, fechas y celdas de actividad quincenal. Todas las funciones
// son puras; una entrada irrecuperable produce cadena vacía, nunca error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var noAlfanumerico = regexp.MustCompile(`[^A-Z0-9]`)

// LimpiarRFC valida y limpia un RFC mexicano: mayúsculas sin caracteres
// fuera de [A-Z0-9] y longitud de 10 a 13. Regresa cadena vacía cuando el
// valor no es un RFC.
func LimpiarRFC(v string) string {
	s := noAlfanumerico.ReplaceAllString(strings.ToUpper(strings.TrimSpace(v)), "")
	if l := len(s); l < 10 || l > 13 {
		return ""
	}
	return s
}

var nulosFecha = map[string]bool{
	"":     true,
	"nan":  true,
	"nat":  true,
	"none": true,
	"null": true,
}

// Diseños tolerados, el día primero en los ambiguos. Los no acolchonados
// también aceptan dígitos con cero a la izquierda.
var disenosFecha = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
}

// La época de fechas seriales de Excel (sistema 1900).
var epocaExcel = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// LimpiarFecha convierte un valor de celda a YYYY-MM-DD. Acepta los diseños
// día-primero de arriba y números seriales de Excel; los nulos obvios y los
// valores no interpretables regresan cadena vacía.
func LimpiarFecha(v string) string {
	s := strings.TrimSpace(v)
	if nulosFecha[strings.ToLower(s)] {
		return ""
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return fechaDesdeSerial(serial)
	}
	for _, diseno := range disenosFecha {
		if t, err := time.Parse(diseno, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// fechaDesdeSerial interpreta días desde 1899-12-30. Se rechazan seriales
// menores a 60 (zona del defecto de año bisiesto de Lotus) y mayores al año
// 9999; la fracción de tiempo se descarta.
func fechaDesdeSerial(serial float64) string {
	if serial < 60 || serial > 2958465 {
		return ""
	}
	return epocaExcel.AddDate(0, 0, int(serial)).Format("2006-01-02")
}

var celdasInactivas = map[string]bool{
	"":     true,
	"0":    true,
	"0.0":  true,
	"NO":   true,
	"N/A":  true,
	"NA":   true,
	"NONE": true,
}

// EsActivo decide si una celda quincenal indica pago. Cualquier valor fuera
// del conjunto de inactivos cuenta como activo.
func EsActivo(v string) bool {
	return !celdasInactivas[strings.ToUpper(strings.TrimSpace(v))]
}

// NormalizarEncabezado lleva un encabezado de columna a la forma canónica:
// recortado, en mayúsculas y con espacios como guiones bajos.
func NormalizarEncabezado(h string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(h)), " ", "_")
}

var patronQNA = regexp.MustCompile(`^QNA([1-9]|1[0-9]|2[0-4])$`)

// NumeroQNA extrae el número de quincena de un encabezado QNA1..QNA24 ya
// normalizado. Regresa false para cualquier otra columna.
func NumeroQNA(encabezado string) (int, bool) {
	m := patronQNA.FindStringSubmatch(encabezado)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
