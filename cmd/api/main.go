package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"scil/pkg/api/auth"
	"scil/pkg/api/export"
	"scil/pkg/api/ingesta"
	"scil/pkg/api/resultados"
	"scil/pkg/api/salud"
	"scil/pkg/api/solventacion"
	"scil/pkg/config"
	"scil/pkg/core/catalog"
	"scil/pkg/core/detect"
	"scil/pkg/core/ingest"
	"scil/pkg/core/pipeline"
	"scil/pkg/core/store"
)

func main() {
	// Variables de entorno locales; en despliegue vienen del servicio.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("configuración inválida: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg)

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("no se pudo abrir la base de datos")
	}
	defer db.Close()
	if err := store.InitSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("no se pudo inicializar el esquema")
	}

	catalogos := store.NewCatalogoRepo(db, log)
	entradas, err := catalogos.CargarEntradas(ctx)
	if err != nil {
		log.WithError(err).Fatal("no se pudo cargar el catálogo de entes")
	}
	catalogo := catalog.NewStore(entradas)
	if catalogo.Claves() == 0 {
		log.Warn("catálogo de entes vacío; las hojas no resolverán hasta importar con cmd/tools/catalogos")
	} else {
		log.WithField("claves", catalogo.Claves()).Info("catálogo de entes cargado")
	}

	orq := pipeline.NewOrquestador(
		catalogo,
		ingest.NewParser(catalogo, log),
		detect.NewDetector(cfg.Ejercicio),
		store.NewHallazgoRepo(db, log),
		store.NewSolventacionRepo(db, log),
		store.NewUsuarioRepo(db, log),
		log,
	)
	orq.SetResultadosPorPagina(cfg.ResultadosPorPagina)

	// Carga de nómina
	ingestaHandler := ingesta.NewHandler(orq, log, int64(cfg.MaxUploadMB))
	http.HandleFunc("/api/ingesta", auth.Requerir(orq, log, ingestaHandler.HandleIngesta))

	// Consultas
	resultadosHandler := resultados.NewHandler(orq, log)
	http.HandleFunc("/api/cruces", auth.Requerir(orq, log, resultadosHandler.HandleCruces))
	http.HandleFunc("/api/rfc/", auth.Requerir(orq, log, resultadosHandler.HandlePorRFC))
	http.HandleFunc("/api/resultados", auth.Requerir(orq, log, resultadosHandler.HandleResultados))

	// Solventaciones
	solventacionHandler := solventacion.NewHandler(orq, log)
	http.HandleFunc("/api/solventacion", auth.Requerir(orq, log, solventacionHandler.HandleActualizar))

	// Exportación
	exportHandler := export.NewHandler(orq, log)
	http.HandleFunc("/api/export", auth.Requerir(orq, log, exportHandler.HandleExport))

	// Salud, sin autenticación para los monitores
	saludHandler := salud.NewHandler(db, catalogos, log)
	http.HandleFunc("/api/salud", saludHandler.HandleSalud)

	direccion := fmt.Sprintf(":%d", cfg.Puerto)
	fmt.Printf("SCIL API escuchando en %s\n", direccion)
	fmt.Println("  - POST /api/ingesta")
	fmt.Println("  - GET  /api/cruces")
	fmt.Println("  - GET  /api/rfc/{rfc}")
	fmt.Println("  - GET  /api/resultados")
	fmt.Println("  - POST /api/solventacion")
	fmt.Println("  - GET  /api/export")
	fmt.Println("  - GET  /api/salud")

	if err := http.ListenAndServe(direccion, nil); err != nil {
		log.WithError(err).Fatal("el servidor no pudo arrancar")
	}
}
