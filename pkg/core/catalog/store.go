// Package catalog resuelve etiquetas de entes públicos (clave, nombre o
// siglas) hacia su clave canónica.
//
// Reglas de resolución:
//  1. Toda comparación es insensible a mayúsculas y acentos (ÁÉÍÓÚ -> AEIOU;
//     la Ñ se conserva: NIÑO y NINO son etiquetas distintas).
//  2. clave, nombre y siglas de una misma entrada resuelven a la misma clave.
//  3. El catálogo es inmutable después de construirse; las lecturas no
//     requieren sincronización.
package catalog

import (
	"strings"

	"scil/pkg/models"
)

// Info es la cara de presentación de una clave.
type Info struct {
	Siglas string
	Nombre string
	Ambito string
}

// Store es el catálogo unificado de entes y municipios en memoria.
type Store struct {
	alias map[string]string // etiqueta sanitizada -> clave
	info  map[string]Info   // clave -> presentación
}

var acentos = strings.NewReplacer("Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U")

// Sanitizar normaliza una etiqueta para comparación: recorta, convierte a
// mayúsculas y pliega las cinco vocales acentuadas.
func Sanitizar(s string) string {
	return acentos.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

// NewStore construye el catálogo a partir de los renglones de entes y
// municipios. Ante alias repetidos gana la primera entrada.
func NewStore(entradas []models.CatalogoEntrada) *Store {
	s := &Store{
		alias: make(map[string]string, len(entradas)*3),
		info:  make(map[string]Info, len(entradas)),
	}
	for _, e := range entradas {
		if e.Clave == "" {
			continue
		}
		s.info[e.Clave] = Info{Siglas: e.Siglas, Nombre: e.Nombre, Ambito: e.Ambito}
		for _, a := range []string{e.Clave, e.Nombre, e.Siglas} {
			k := Sanitizar(a)
			if k == "" {
				continue
			}
			if _, ocupado := s.alias[k]; !ocupado {
				s.alias[k] = e.Clave
			}
		}
	}
	return s
}

// Resolver regresa la clave canónica de una etiqueta (clave, nombre o
// siglas), o false si la etiqueta no está en el catálogo.
func (s *Store) Resolver(etiqueta string) (string, bool) {
	k := Sanitizar(etiqueta)
	if k == "" {
		return "", false
	}
	clave, ok := s.alias[k]
	return clave, ok
}

// Etiqueta regresa la mejor forma de presentación de una clave: siglas,
// después nombre, después la clave misma.
func (s *Store) Etiqueta(clave string) string {
	info, ok := s.info[clave]
	if !ok {
		return clave
	}
	if info.Siglas != "" {
		return info.Siglas
	}
	if info.Nombre != "" {
		return info.Nombre
	}
	return clave
}

// Ambito regresa ESTATAL o MUNICIPAL para una clave conocida.
func (s *Store) Ambito(clave string) string {
	return s.info[clave].Ambito
}

// Coincide decide si un token de usuario ampara una etiqueta de ente:
// resuelven a la misma clave, o una forma sanitizada contiene a la otra.
func (s *Store) Coincide(token, etiqueta string) bool {
	t := Sanitizar(token)
	e := Sanitizar(etiqueta)
	if t == "" || e == "" {
		return false
	}
	ct, okT := s.alias[t]
	ce, okE := s.alias[e]
	if okT && okE && ct == ce {
		return true
	}
	return strings.Contains(t, e) || strings.Contains(e, t)
}

// AccesoTotal reconoce los comodines de acceso irrestricto en la lista de
// tokens de un usuario.
func (s *Store) AccesoTotal(tokens []string) bool {
	for _, t := range tokens {
		switch Sanitizar(t) {
		case "TODOS", "ALL":
			return true
		}
	}
	return false
}

// Claves regresa el número de claves registradas; útil para bitácora y para
// verificar que el catálogo se cargó antes de aceptar ingestas.
func (s *Store) Claves() int {
	return len(s.info)
}
