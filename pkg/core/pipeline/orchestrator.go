// Package pipeline encadena las etapas del análisis laboral: lectura de
// libros, detección de cruces, deduplicación contra el histórico y
// persistencia. El Orquestador es el único punto de entrada que conocen la
// API y las herramientas de línea de comandos.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scil/pkg/core/catalog"
	"scil/pkg/core/detect"
	"scil/pkg/core/ingest"
	"scil/pkg/core/report"
	"scil/pkg/models"
)

// AlmacenHallazgos persiste y consulta hallazgos. La implementación de
// producción es store.HallazgoRepo.
type AlmacenHallazgos interface {
	CompararConHistorico(ctx context.Context, lote []models.Hallazgo) (nuevos, repetidos []models.Hallazgo, err error)
	Guardar(ctx context.Context, hallazgos []models.Hallazgo) (int, error)
	PorRFC(ctx context.Context, rfc string) (*models.RegistroFusionado, error)
	Paginados(ctx context.Context, filtro string, pagina, limite int) ([]models.Hallazgo, int, error)
}

// AlmacenSolventaciones registra y consulta decisiones de los entes.
type AlmacenSolventaciones interface {
	Actualizar(ctx context.Context, rfc, estado, comentario, ente string) (int64, error)
	PorRFC(ctx context.Context, rfc string) (map[string]models.DetalleSolventacion, error)
}

// AlmacenUsuarios valida credenciales de acceso.
type AlmacenUsuarios interface {
	Autenticar(ctx context.Context, usuario, clave string) (*models.Usuario, error)
}

// Orquestador coordina parser, detector y almacenes. Es seguro compartirlo
// entre peticiones; no guarda estado de una llamada a otra.
type Orquestador struct {
	parser         *ingest.Parser
	detector       *detect.Detector
	hallazgos      AlmacenHallazgos
	solventaciones AlmacenSolventaciones
	usuarios       AlmacenUsuarios
	agregador      *report.Agregador
	log            *logrus.Logger
	porPagina      int
}

func NewOrquestador(
	catalogo *catalog.Store,
	parser *ingest.Parser,
	detector *detect.Detector,
	hallazgos AlmacenHallazgos,
	solventaciones AlmacenSolventaciones,
	usuarios AlmacenUsuarios,
	log *logrus.Logger,
) *Orquestador {
	return &Orquestador{
		parser:         parser,
		detector:       detector,
		hallazgos:      hallazgos,
		solventaciones: solventaciones,
		usuarios:       usuarios,
		agregador:      report.NewAgregador(catalogo, hallazgos, solventaciones, log),
		log:            log,
		porPagina:      20,
	}
}

// SetResultadosPorPagina ajusta el tamaño de página por defecto de las
// consultas paginadas.
func (o *Orquestador) SetResultadosPorPagina(n int) {
	if n > 0 {
		o.porPagina = n
	}
}

// Ingestar corre el análisis completo sobre un lote de libros: lee y
// normaliza, detecta cruces, separa lo ya conocido por firma y guarda solo
// lo nuevo. Las alertas de lectura regresan en el resultado, nunca como
// error; el error se reserva para fallas de almacenamiento o cancelación.
func (o *Orquestador) Ingestar(ctx context.Context, archivos []ingest.Archivo) (*models.ResultadoIngesta, error) {
	lote := uuid.NewString()
	bitacora := o.log.WithField("lote", lote)

	carga, alertas, err := o.parser.Procesar(ctx, archivos)
	if err != nil {
		return nil, err
	}
	if alertas == nil {
		alertas = []models.Alerta{}
	}

	hallazgos := o.detector.Detectar(carga)
	bitacora.WithFields(logrus.Fields{
		"archivos":  len(archivos),
		"rfcs":      len(carga.PorRFC),
		"hallazgos": len(hallazgos),
		"alertas":   len(alertas),
	}).Info("detección terminada")

	nuevos, repetidos, err := o.hallazgos.CompararConHistorico(ctx, hallazgos)
	if err != nil {
		return nil, fmt.Errorf("comparar con histórico: %w", err)
	}

	insertados, err := o.hallazgos.Guardar(ctx, nuevos)
	if err != nil {
		return nil, fmt.Errorf("guardar hallazgos: %w", err)
	}

	// Una firma repetida dentro del mismo lote pasa el comparador pero
	// choca al insertarse; cuenta como duplicado, igual que las históricas.
	resultado := &models.ResultadoIngesta{
		Total:      len(hallazgos),
		Nuevos:     insertados,
		Duplicados: len(repetidos) + (len(nuevos) - insertados),
		Alertas:    alertas,
	}
	bitacora.WithFields(logrus.Fields{
		"total":      resultado.Total,
		"nuevos":     resultado.Nuevos,
		"duplicados": resultado.Duplicados,
	}).Info("ingesta terminada")
	return resultado, nil
}

// PorRFC arma la vista fusionada de un RFC y le aplica sus solventaciones:
// el estado consolidado puede ser Mixto aunque ese valor nunca se persista.
func (o *Orquestador) PorRFC(ctx context.Context, rfc string) (*models.RegistroFusionado, error) {
	fusionado, err := o.hallazgos.PorRFC(ctx, rfc)
	if err != nil {
		return nil, err
	}
	solvs, err := o.solventaciones.PorRFC(ctx, fusionado.RFC)
	if err != nil {
		return nil, err
	}
	fusionado.Estado = report.FusionarEstado(fusionado.Entes, solvs, fusionado.Estado)
	if len(solvs) > 0 {
		fusionado.Solventaciones = solvs
	}
	return fusionado, nil
}

// Resultados pagina los hallazgos persistidos con un filtro de texto libre.
func (o *Orquestador) Resultados(ctx context.Context, filtro string, pagina, limite int) ([]models.Hallazgo, int, error) {
	if limite <= 0 {
		limite = o.porPagina
	}
	return o.hallazgos.Paginados(ctx, filtro, pagina, limite)
}

// AgruparPorEnte arma la vista de cruces por ente para los tokens de acceso
// de un usuario.
func (o *Orquestador) AgruparPorEnte(ctx context.Context, tokens []string) (map[string]*report.GrupoEnte, error) {
	return o.agregador.AgruparPorEnte(ctx, tokens)
}

// ActualizarSolventacion registra la decisión de un ente sobre un RFC.
func (o *Orquestador) ActualizarSolventacion(ctx context.Context, rfc, estado, comentario, ente string) (int64, error) {
	return o.solventaciones.Actualizar(ctx, rfc, estado, comentario, ente)
}

// Exportar aplana los hallazgos que cumplen el filtro en renglones listos
// para CSV o XLSX.
func (o *Orquestador) Exportar(ctx context.Context, filtro string) ([]models.FilaExport, error) {
	return o.agregador.Exportar(ctx, filtro)
}

// Autenticar valida credenciales y regresa el usuario con sus entes
// asignados.
func (o *Orquestador) Autenticar(ctx context.Context, usuario, clave string) (*models.Usuario, error) {
	return o.usuarios.Autenticar(ctx, usuario, clave)
}
