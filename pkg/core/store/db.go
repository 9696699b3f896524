// Package store persiste hallazgos, solventaciones, usuarios y catálogos.
// Toda la capa habla sqlx y funciona igual sobre SQLite (operación normal,
// un archivo local) y Postgres (despliegues compartidos); el motor se decide
// por la forma del DSN.
//
// La tabla laboral guarda cada hallazgo como documento JSON en la columna
// datos; rfc y hash_firma se duplican como columnas para filtrar e indexar.
// El índice único sobre hash_firma es el único control de concurrencia del
// sistema: el primer escritor gana y los perdedores se tratan como
// duplicados.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib" // driver pgx para DSN postgres://
	_ "modernc.org/sqlite"             // driver sqlite puro Go
)

// Open abre la base según la forma del DSN: postgres:// o postgresql:// van
// por pgx, cualquier otra cosa se interpreta como ruta de archivo SQLite.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir base de datos: %w", err)
	}
	if driver == "sqlite" {
		// Un solo escritor evita SQLITE_BUSY bajo handlers concurrentes.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// InitSchema aplica el esquema completo; todas las sentencias son
// idempotentes (CREATE TABLE IF NOT EXISTS).
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	esquema := esquemaSQLite
	if db.DriverName() == "pgx" {
		esquema = esquemaPostgres
	}
	if _, err := db.ExecContext(ctx, esquema); err != nil {
		return fmt.Errorf("inicializar esquema: %w", err)
	}
	return nil
}

const esquemaSQLite = `
CREATE TABLE IF NOT EXISTS laboral (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tipo_analisis TEXT NOT NULL,
    rfc TEXT NOT NULL,
    datos TEXT NOT NULL,
    hash_firma TEXT UNIQUE,
    fecha_analisis TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_laboral_rfc ON laboral(rfc);

CREATE TABLE IF NOT EXISTS solventaciones (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    rfc TEXT NOT NULL,
    ente TEXT NOT NULL,
    estado TEXT NOT NULL,
    comentario TEXT,
    actualizado TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (rfc, ente)
);

CREATE TABLE IF NOT EXISTS usuarios (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre TEXT NOT NULL,
    usuario TEXT UNIQUE NOT NULL,
    clave TEXT NOT NULL,
    entes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    clave TEXT UNIQUE NOT NULL,
    nombre TEXT NOT NULL,
    siglas TEXT,
    clasificacion TEXT,
    ambito TEXT DEFAULT 'ESTATAL',
    activo INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS municipios (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    clave TEXT UNIQUE NOT NULL,
    nombre TEXT NOT NULL,
    siglas TEXT,
    clasificacion TEXT,
    ambito TEXT DEFAULT 'MUNICIPAL',
    activo INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

const esquemaPostgres = `
CREATE TABLE IF NOT EXISTS laboral (
    id BIGSERIAL PRIMARY KEY,
    tipo_analisis TEXT NOT NULL,
    rfc TEXT NOT NULL,
    datos TEXT NOT NULL,
    hash_firma TEXT UNIQUE,
    fecha_analisis TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_laboral_rfc ON laboral(rfc);

CREATE TABLE IF NOT EXISTS solventaciones (
    id BIGSERIAL PRIMARY KEY,
    rfc TEXT NOT NULL,
    ente TEXT NOT NULL,
    estado TEXT NOT NULL,
    comentario TEXT,
    actualizado TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (rfc, ente)
);

CREATE TABLE IF NOT EXISTS usuarios (
    id BIGSERIAL PRIMARY KEY,
    nombre TEXT NOT NULL,
    usuario TEXT UNIQUE NOT NULL,
    clave TEXT NOT NULL,
    entes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entes (
    id BIGSERIAL PRIMARY KEY,
    clave TEXT UNIQUE NOT NULL,
    nombre TEXT NOT NULL,
    siglas TEXT,
    clasificacion TEXT,
    ambito TEXT DEFAULT 'ESTATAL',
    activo INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS municipios (
    id BIGSERIAL PRIMARY KEY,
    clave TEXT UNIQUE NOT NULL,
    nombre TEXT NOT NULL,
    siglas TEXT,
    clasificacion TEXT,
    ambito TEXT DEFAULT 'MUNICIPAL',
    activo INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// esViolacionUnicidad reconoce el choque de un índice único en ambos
// motores: SQLite reporta "UNIQUE constraint failed", Postgres SQLSTATE
// 23505 ("duplicate key value violates unique constraint").
func esViolacionUnicidad(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint") || strings.Contains(s, "sqlstate 23505")
}
