// Package resultados expone las vistas de consulta: cruces agrupados por
// ente, expediente por RFC y hallazgos paginados.
package resultados

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"scil/pkg/core/pipeline"
	"scil/pkg/core/store"
	"scil/pkg/models"
)

type Handler struct {
	orq *pipeline.Orquestador
	log *logrus.Logger
}

func NewHandler(orq *pipeline.Orquestador, log *logrus.Logger) *Handler {
	return &Handler{orq: orq, log: log}
}

// HandleCruces regresa la vista agrupada por ente, restringida a los entes
// asignados del usuario autenticado.
func (h *Handler) HandleCruces(w http.ResponseWriter, r *http.Request, usuario *models.Usuario) {
	if r.Method != http.MethodGet {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	grupos, err := h.orq.AgruparPorEnte(r.Context(), usuario.Entes)
	if err != nil {
		h.log.WithError(err).Error("falla al agrupar cruces")
		http.Error(w, "falla al consultar cruces", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(grupos)
}

// HandlePorRFC regresa el expediente fusionado de un RFC tomado de la ruta
// /api/rfc/{rfc}.
func (h *Handler) HandlePorRFC(w http.ResponseWriter, r *http.Request, _ *models.Usuario) {
	if r.Method != http.MethodGet {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	rfc := strings.TrimPrefix(r.URL.Path, "/api/rfc/")
	if rfc == "" || strings.Contains(rfc, "/") {
		http.Error(w, "rfc faltante en la ruta", http.StatusBadRequest)
		return
	}

	fusionado, err := h.orq.PorRFC(r.Context(), rfc)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "rfc sin hallazgos", http.StatusNotFound)
			return
		}
		h.log.WithError(err).Error("falla al consultar rfc")
		http.Error(w, "falla al consultar el rfc", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(fusionado)
}

type respuestaPaginada struct {
	Resultados []models.Hallazgo `json:"resultados"`
	Total      int               `json:"total"`
	Pagina     int               `json:"pagina"`
	Limite     int               `json:"limite"`
}

// HandleResultados pagina los hallazgos crudos con un filtro de texto
// libre: ?filtro=&pagina=&limite=.
func (h *Handler) HandleResultados(w http.ResponseWriter, r *http.Request, _ *models.Usuario) {
	if r.Method != http.MethodGet {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	pagina := enteroDeQuery(q.Get("pagina"), 1)
	limite := enteroDeQuery(q.Get("limite"), 20)
	filtro := q.Get("filtro")

	hallazgos, total, err := h.orq.Resultados(r.Context(), filtro, pagina, limite)
	if err != nil {
		h.log.WithError(err).Error("falla al paginar resultados")
		http.Error(w, "falla al consultar resultados", http.StatusInternalServerError)
		return
	}
	if hallazgos == nil {
		hallazgos = []models.Hallazgo{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(respuestaPaginada{
		Resultados: hallazgos,
		Total:      total,
		Pagina:     pagina,
		Limite:     limite,
	})
}

func enteroDeQuery(v string, defecto int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return defecto
	}
	return n
}
