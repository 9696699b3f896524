// Package ingesta expone la carga de libros de nómina por HTTP.
package ingesta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"scil/pkg/core/ingest"
	"scil/pkg/core/pipeline"
	"scil/pkg/models"
)

// Handler recibe cargas multipart y las pasa al orquestador.
type Handler struct {
	orq        *pipeline.Orquestador
	log        *logrus.Logger
	maxCargaMB int64
}

func NewHandler(orq *pipeline.Orquestador, log *logrus.Logger, maxCargaMB int64) *Handler {
	if maxCargaMB <= 0 {
		maxCargaMB = 32
	}
	return &Handler{orq: orq, log: log, maxCargaMB: maxCargaMB}
}

// HandleIngesta procesa uno o más libros enviados en el campo multipart
// "archivos". Las alertas de lectura viajan en la respuesta, no como error.
func (h *Handler) HandleIngesta(w http.ResponseWriter, r *http.Request, usuario *models.Usuario) {
	if r.Method != http.MethodPost {
		http.Error(w, "método no permitido", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxCargaMB<<20)
	if err := r.ParseMultipartForm(h.maxCargaMB << 20); err != nil {
		http.Error(w, "carga inválida o demasiado grande", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	cabeceras := r.MultipartForm.File["archivos"]
	if len(cabeceras) == 0 {
		http.Error(w, "no se recibió ningún archivo en el campo 'archivos'", http.StatusBadRequest)
		return
	}

	archivos := make([]ingest.Archivo, 0, len(cabeceras))
	for _, fh := range cabeceras {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("no se pudo abrir %s", fh.Filename), http.StatusBadRequest)
			return
		}
		defer f.Close()
		archivos = append(archivos, ingest.Archivo{Nombre: fh.Filename, Lector: f})
	}

	// Un minuto por libro; las cargas anuales completas son pesadas.
	ctx, cancelar := context.WithTimeout(r.Context(), time.Duration(len(archivos))*time.Minute)
	defer cancelar()

	resultado, err := h.orq.Ingestar(ctx, archivos)
	if err != nil {
		h.log.WithError(err).Error("falla al procesar la carga")
		http.Error(w, "falla al procesar la carga", http.StatusInternalServerError)
		return
	}

	h.log.WithFields(logrus.Fields{
		"usuario":  usuario.Usuario,
		"archivos": len(archivos),
		"nuevos":   resultado.Nuevos,
	}).Info("ingesta por API")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resultado)
}
