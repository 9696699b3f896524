// Package export entrega los renglones aplanados de exportación por HTTP.
// La materialización a CSV o XLSX es trabajo de la herramienta de línea de
// comandos.
package export

import (
	"encoding/json"
	"net/http"

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

// HandleExport aplana los hallazgos que cumplen ?filtro= y los regresa como
// arreglo JSON.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request, usuario *models.Usuario) {
	if r.Method != http.MethodGet {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	filas, err := h.orq.Exportar(r.Context(), r.URL.Query().Get("filtro"))
	if err != nil {
		h.log.WithError(err).Error("falla al exportar")
		http.Error(w, "falla al exportar resultados", http.StatusInternalServerError)
		return
	}
	if filas == nil {
		filas = []models.FilaExport{}
	}

	h.log.WithFields(logrus.Fields{
		"usuario": usuario.Usuario,
		"filas":   len(filas),
	}).Info("exportación por API")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(filas)
}
