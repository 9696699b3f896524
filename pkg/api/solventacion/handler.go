// Package solventacion registra por HTTP las decisiones de los entes sobre
// los cruces detectados.
package solventacion

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"scil/pkg/core/pipeline"
	"scil/pkg/models"
)

type Handler struct {
	orq *pipeline.Orquestador
	log *logrus.Logger
}

func NewHandler(orq *pipeline.Orquestador, log *logrus.Logger) *Handler {
	return &Handler{orq: orq, log: log}
}

type solicitudSolventacion struct {
	RFC        string `json:"rfc"`
	Estado     string `json:"estado"`
	Comentario string `json:"comentario"`
	Ente       string `json:"ente"`
}

// HandleActualizar registra o reemplaza la solventación de un RFC. Sin ente
// explícito la decisión se guarda como GENERAL.
func (h *Handler) HandleActualizar(w http.ResponseWriter, r *http.Request, usuario *models.Usuario) {
	if r.Method != http.MethodPost {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	var solicitud solicitudSolventacion
	if err := json.NewDecoder(r.Body).Decode(&solicitud); err != nil {
		http.Error(w, "cuerpo JSON inválido", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(solicitud.RFC) == "" {
		http.Error(w, "rfc requerido", http.StatusBadRequest)
		return
	}

	actualizados, err := h.orq.ActualizarSolventacion(r.Context(), solicitud.RFC, solicitud.Estado, solicitud.Comentario, solicitud.Ente)
	if err != nil {
		h.log.WithError(err).Error("falla al registrar solventación")
		http.Error(w, "falla al registrar la solventación", http.StatusInternalServerError)
		return
	}

	h.log.WithFields(logrus.Fields{
		"usuario": usuario.Usuario,
		"rfc":     solicitud.RFC,
		"estado":  solicitud.Estado,
	}).Info("solventación registrada")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{"actualizados": actualizados})
}
