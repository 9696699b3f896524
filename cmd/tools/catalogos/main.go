// Importador de catálogos: entes estatales, municipios y usuarios desde los
// libros oficiales, más las semillas base para un despliegue nuevo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"scil/pkg/config"
	"scil/pkg/core/ingest"
	"scil/pkg/core/store"
	"scil/pkg/models"
)

func main() {
	_ = godotenv.Load()

	rutaDB := flag.String("db", "", "ruta del archivo SQLite o DSN postgres:// (por omisión la configurada)")
	entes := flag.String("entes", "", "libro xlsx con el catálogo de entes estatales")
	municipios := flag.String("municipios", "", "libro xlsx con el catálogo de municipios")
	usuarios := flag.String("usuarios", "", "libro xlsx con usuarios y sus entes asignados")
	defaults := flag.Bool("defaults", false, "siembra usuarios y entes base si las tablas están vacías")
	reemplazar := flag.Bool("reemplazar", false, "vacía entes, municipios y usuarios antes de importar")
	flag.Parse()

	if *entes == "" && *municipios == "" && *usuarios == "" && !*defaults && !*reemplazar {
		fmt.Println("uso: catalogos [-db RUTA] [-entes X.xlsx] [-municipios X.xlsx] [-usuarios X.xlsx] [-defaults] [-reemplazar]")
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

	if *reemplazar {
		if err := catalogos.LimpiarCatalogos(ctx); err != nil {
			fmt.Printf("no se pudieron vaciar los catálogos: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catálogos vaciados.")
	}

	if *entes != "" {
		n := importarCatalogo(ctx, catalogos.ImportarEntes, *entes, ingest.PrefijoEnte, models.AmbitoEstatal)
		fmt.Printf("Entes importados: %d\n", n)
	}
	if *municipios != "" {
		n := importarCatalogo(ctx, catalogos.ImportarMunicipios, *municipios, ingest.PrefijoMunicipio, models.AmbitoMunicipal)
		fmt.Printf("Municipios importados: %d\n", n)
	}
	if *usuarios != "" {
		f, err := os.Open(*usuarios)
		if err != nil {
			fmt.Printf("no se pudo abrir %s: %v\n", *usuarios, err)
			os.Exit(1)
		}
		semillas, err := ingest.LeerUsuarios(f)
		f.Close()
		if err != nil {
			fmt.Printf("no se pudo leer %s: %v\n", *usuarios, err)
			os.Exit(1)
		}
		n, err := store.NewUsuarioRepo(db, log).Importar(ctx, semillas)
		if err != nil {
			fmt.Printf("no se pudieron importar los usuarios: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Usuarios importados: %d\n", n)
	}
	if *defaults {
		if err := catalogos.SeedDefaults(ctx); err != nil {
			fmt.Printf("no se pudieron aplicar las semillas base: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Semillas base aplicadas.")
	}

	conteos, err := catalogos.Conteos(ctx)
	if err != nil {
		fmt.Printf("no se pudieron contar las tablas: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Estado final: entes=%d municipios=%d usuarios=%d\n",
		conteos["entes"], conteos["municipios"], conteos["usuarios"])
}

func importarCatalogo(ctx context.Context, importar func(context.Context, []models.CatalogoEntrada) (int, error), ruta, prefijo, ambito string) int {
	f, err := os.Open(ruta)
	if err != nil {
		fmt.Printf("no se pudo abrir %s: %v\n", ruta, err)
		os.Exit(1)
	}
	defer f.Close()

	entradas, err := ingest.LeerCatalogo(f, prefijo, ambito)
	if err != nil {
		fmt.Printf("no se pudo leer %s: %v\n", ruta, err)
		os.Exit(1)
	}
	n, err := importar(ctx, entradas)
	if err != nil {
		fmt.Printf("no se pudo importar %s: %v\n", ruta, err)
		os.Exit(1)
	}
	return n
}
