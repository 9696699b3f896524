package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"scil/pkg/core/utils"
	"scil/pkg/models"
)

// UsuarioRepo autentica cuentas y carga el catálogo de usuarios.
type UsuarioRepo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewUsuarioRepo construye el repositorio de usuarios.
func NewUsuarioRepo(db *sqlx.DB, log *logrus.Logger) *UsuarioRepo {
	return &UsuarioRepo{db: db, log: log}
}

// Autenticar busca el usuario sin distinguir mayúsculas y compara el SHA-256
// de la contraseña. Usuario inexistente y contraseña equivocada producen el
// mismo ErrCredenciales; el llamador no puede distinguirlos.
func (r *UsuarioRepo) Autenticar(ctx context.Context, usuario, clave string) (*models.Usuario, error) {
	usuario = strings.TrimSpace(usuario)
	if usuario == "" || clave == "" {
		return nil, ErrCredenciales
	}

	var fila struct {
		Nombre  string `db:"nombre"`
		Usuario string `db:"usuario"`
		Clave   string `db:"clave"`
		Entes   string `db:"entes"`
	}
	q := r.db.Rebind(`SELECT nombre, usuario, clave, COALESCE(entes, '') AS entes
		FROM usuarios WHERE LOWER(usuario) = LOWER(?)`)
	err := r.db.GetContext(ctx, &fila, q, usuario)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("usuario %s: %w", usuario, ErrCredenciales)
	}
	if err != nil {
		return nil, fmt.Errorf("consultar usuario: %w", err)
	}
	if fila.Clave != utils.HashTexto(clave) {
		return nil, fmt.Errorf("usuario %s: %w", usuario, ErrCredenciales)
	}

	return &models.Usuario{
		Nombre:  fila.Nombre,
		Usuario: fila.Usuario,
		Entes:   partirEntes(fila.Entes),
	}, nil
}

// Importar hace upsert del catálogo de usuarios por nombre de usuario. La
// cuenta se guarda en minúsculas; la unicidad de la tabla vive sobre esa
// forma.
func (r *UsuarioRepo) Importar(ctx context.Context, usuarios []models.UsuarioSemilla) (int, error) {
	q := r.db.Rebind(`INSERT INTO usuarios (nombre, usuario, clave, entes) VALUES (?, ?, ?, ?)
		ON CONFLICT (usuario) DO UPDATE SET
			nombre = excluded.nombre,
			clave = excluded.clave,
			entes = excluded.entes`)
	n := 0
	for _, u := range usuarios {
		cuenta := strings.ToLower(strings.TrimSpace(u.Usuario))
		if cuenta == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, q, u.Nombre, cuenta, u.Clave, u.Entes); err != nil {
			return n, fmt.Errorf("importar usuario %s: %w", cuenta, err)
		}
		n++
	}
	return n, nil
}

// partirEntes separa la lista de tokens por coma: mayúsculas, recortados y
// sin vacíos.
func partirEntes(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
