package store

import "errors"

// ErrNotFound señala consultas puntuales sin resultado.
var ErrNotFound = errors.New("registro no encontrado")

// ErrCredenciales señala autenticación fallida: usuario inexistente o
// contraseña equivocada, indistinguibles a propósito. La capa HTTP lo
// traduce a 401; nunca debe convertirse en 500.
var ErrCredenciales = errors.New("credenciales inválidas")
