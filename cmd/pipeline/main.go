package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"scil/pkg/config"
	"scil/pkg/core/catalog"
	"scil/pkg/core/detect"
	"scil/pkg/core/ingest"
	"scil/pkg/core/pipeline"
	"scil/pkg/core/store"
)

func main() {
	_ = godotenv.Load()

	rutaDB := flag.String("db", "", "ruta del archivo SQLite o DSN postgres:// (por omisión la configurada)")
	ejercicio := flag.Int("ejercicio", 0, "año fiscal del análisis (por omisión el configurado)")
	flag.Parse()

	libros := flag.Args()
	if len(libros) == 0 {
		fmt.Println("uso: pipeline [-db RUTA] [-ejercicio AÑO] nomina1.xlsx [nomina2.xlsx ...]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("configuración inválida: %v\n", err)
		os.Exit(1)
	}
	if *rutaDB != "" {
		cfg.DB = *rutaDB
	}
	if *ejercicio != 0 {
		cfg.Ejercicio = *ejercicio
	}
	log := config.NewLogger(cfg)

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DB)
	if err != nil {
		fmt.Printf("no se pudo abrir la base de datos: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := store.InitSchema(ctx, db); err != nil {
		fmt.Printf("no se pudo inicializar el esquema: %v\n", err)
		os.Exit(1)
	}

	catalogos := store.NewCatalogoRepo(db, log)
	entradas, err := catalogos.CargarEntradas(ctx)
	if err != nil {
		fmt.Printf("no se pudo cargar el catálogo de entes: %v\n", err)
		os.Exit(1)
	}
	catalogo := catalog.NewStore(entradas)
	if catalogo.Claves() == 0 {
		fmt.Println("El catálogo de entes está vacío; importe entes con cmd/tools/catalogos antes de analizar.")
		os.Exit(1)
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

	archivos := make([]ingest.Archivo, 0, len(libros))
	for _, ruta := range libros {
		f, err := os.Open(ruta)
		if err != nil {
			fmt.Printf("no se pudo abrir %s: %v\n", ruta, err)
			os.Exit(1)
		}
		defer f.Close()
		archivos = append(archivos, ingest.Archivo{Nombre: filepath.Base(ruta), Lector: f})
	}

	fmt.Printf("Analizando %d libro(s) contra el ejercicio %d...\n", len(archivos), cfg.Ejercicio)
	inicio := time.Now()

	resultado, err := orq.Ingestar(ctx, archivos)
	if err != nil {
		fmt.Printf("la ingesta falló: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Análisis terminado en %v\n", time.Since(inicio).Round(time.Millisecond))
	fmt.Printf("  Hallazgos:  %d\n", resultado.Total)
	fmt.Printf("  Nuevos:     %d\n", resultado.Nuevos)
	fmt.Printf("  Duplicados: %d\n", resultado.Duplicados)
	for _, alerta := range resultado.Alertas {
		fmt.Printf("  [ALERTA] %s\n", alerta.Mensaje)
	}
}
