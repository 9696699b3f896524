// Package auth protege la superficie HTTP con autenticación Basic. No hay
// sesiones: cada petición valida sus credenciales contra la tabla de
// usuarios.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"scil/pkg/core/store"
	"scil/pkg/models"
)

// Autenticador valida credenciales. La implementación de producción es el
// Orquestador.
type Autenticador interface {
	Autenticar(ctx context.Context, usuario, clave string) (*models.Usuario, error)
}

// ManejadorAutenticado es un manejador HTTP que además recibe al usuario ya
// verificado.
type ManejadorAutenticado func(w http.ResponseWriter, r *http.Request, usuario *models.Usuario)

// Requerir envuelve un manejador con HTTP Basic. Credenciales rechazadas
// regresan 401 con WWW-Authenticate; solo las fallas de infraestructura
// llegan a 500.
func Requerir(autenticador Autenticador, log *logrus.Logger, siguiente ManejadorAutenticado) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usuario, clave, ok := r.BasicAuth()
		if !ok {
			noAutorizado(w)
			return
		}
		u, err := autenticador.Autenticar(r.Context(), usuario, clave)
		if err != nil {
			if errors.Is(err, store.ErrCredenciales) {
				log.WithField("usuario", usuario).Warn("credenciales rechazadas")
				noAutorizado(w)
				return
			}
			log.WithError(err).Error("error al autenticar")
			http.Error(w, "error interno al autenticar", http.StatusInternalServerError)
			return
		}
		siguiente(w, r, u)
	}
}

func noAutorizado(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="SCIL"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "credenciales inválidas"})
}
