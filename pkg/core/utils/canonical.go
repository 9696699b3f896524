// Package utils concentra la serialización canónica que sostiene la firma de
// hallazgos. La regla es una sola: el mismo contenido produce el mismo hash
// sin importar desde qué corrida o proceso se serialice.
package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializa v en su forma canónica: llaves de objeto ordenadas
// alfabéticamente en todos los niveles, UTF-8 sin escape de HTML y sin
// espacios ni salto final. Dos valores semánticamente iguales producen
// exactamente los mismos bytes.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serialización canónica: %w", err)
	}

	// El viaje por any colapsa el orden de campos de struct en orden de
	// llaves: encoding/json siempre emite los mapas ordenados.
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("reparseo canónico: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("codificación canónica: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HashFirma devuelve el SHA-256 hexadecimal de la forma canónica de v. Para
// hallazgos se calcula antes de asignar hash_firma; el campo lleva omitempty
// justo para quedar fuera de su propia firma.
func HashFirma(v any) (string, error) {
	canon, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// HashTexto devuelve el SHA-256 hexadecimal de un texto plano. Es el formato
// en que usuarios.clave guarda las contraseñas.
func HashTexto(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
