// Package salud expone la verificación de vida del servicio. Es el único
// endpoint sin autenticación; los monitores no cargan credenciales.
package salud

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"scil/pkg/core/store"
)

type Handler struct {
	db        *sqlx.DB
	catalogos *store.CatalogoRepo
	log       *logrus.Logger
}

func NewHandler(db *sqlx.DB, catalogos *store.CatalogoRepo, log *logrus.Logger) *Handler {
	return &Handler{db: db, catalogos: catalogos, log: log}
}

// HandleSalud responde ok con los conteos de tablas, o 503 si la base no
// contesta.
func (h *Handler) HandleSalud(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.WithError(err).Error("base de datos sin respuesta")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"estado": "error", "detalle": "base de datos sin respuesta"})
		return
	}

	conteos, err := h.catalogos.Conteos(r.Context())
	if err != nil {
		h.log.WithError(err).Error("falla al contar tablas")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"estado": "error", "detalle": "falla al contar tablas"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"estado":  "ok",
		"conteos": conteos,
	})
}
