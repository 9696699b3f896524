// Herramienta de mantenimiento de la base laboral: limpieza, remapeo de
// etiquetas de entes, respaldo del archivo y exportación a CSV o XLSX.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"scil/pkg/config"
	"scil/pkg/core/catalog"
	"scil/pkg/core/report"
	"scil/pkg/core/store"
)

const uso = `uso: mantenimiento <orden> [opciones]

órdenes:
  limpiar     vacía hallazgos y solventaciones (conserva catálogos y usuarios)
              con -huerfanas borra solo solventaciones sin hallazgo
  remapear    reescribe etiquetas de entes guardadas a claves canónicas
  respaldar   copia el archivo SQLite con sello de tiempo a backups/
  exportar    materializa los resultados a CSV o XLSX
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(uso)
		os.Exit(1)
	}
	orden := os.Args[1]
	argumentos := os.Args[2:]

	var err error
	switch orden {
	case "limpiar":
		err = ordenLimpiar(argumentos)
	case "remapear":
		err = ordenRemapear(argumentos)
	case "respaldar":
		err = ordenRespaldar(argumentos)
	case "exportar":
		err = ordenExportar(argumentos)
	default:
		fmt.Printf("orden desconocida: %s\n\n%s", orden, uso)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("%s falló: %v\n", orden, err)
		os.Exit(1)
	}
}

// abrirBase resuelve la configuración, abre la base y asegura el esquema.
func abrirBase(ctx context.Context, rutaDB string) (*sqlx.DB, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if rutaDB != "" {
		cfg.DB = rutaDB
	}
	log := config.NewLogger(cfg)

	db, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := store.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, log, nil
}

func ordenLimpiar(argumentos []string) error {
	flags := flag.NewFlagSet("limpiar", flag.ExitOnError)
	rutaDB := flags.String("db", "", "ruta del archivo SQLite o DSN postgres://")
	soloHuerfanas := flags.Bool("huerfanas", false, "borra solo solventaciones sin hallazgos")
	_ = flags.Parse(argumentos)

	ctx := context.Background()
	db, log, err := abrirBase(ctx, *rutaDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if *soloHuerfanas {
		n, err := store.NewSolventacionRepo(db, log).LimpiarHuerfanas(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Solventaciones huérfanas eliminadas: %d\n", n)
		return nil
	}

	catalogos := store.NewCatalogoRepo(db, log)
	antes, err := catalogos.Conteos(ctx)
	if err != nil {
		return err
	}
	imprimirConteos("Antes", antes)

	borrados, err := catalogos.Limpiar(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Borrados: laboral=%d solventaciones=%d\n", borrados["laboral"], borrados["solventaciones"])

	despues, err := catalogos.Conteos(ctx)
	if err != nil {
		return err
	}
	imprimirConteos("Después", despues)
	return nil
}

func imprimirConteos(etiqueta string, conteos map[string]int) {
	tablas := make([]string, 0, len(conteos))
	for t := range conteos {
		tablas = append(tablas, t)
	}
	sort.Strings(tablas)

	partes := make([]string, 0, len(tablas))
	for _, t := range tablas {
		partes = append(partes, fmt.Sprintf("%s=%d", t, conteos[t]))
	}
	fmt.Printf("%s: %s\n", etiqueta, strings.Join(partes, " "))
}

func ordenRemapear(argumentos []string) error {
	flags := flag.NewFlagSet("remapear", flag.ExitOnError)
	rutaDB := flags.String("db", "", "ruta del archivo SQLite o DSN postgres://")
	_ = flags.Parse(argumentos)

	ctx := context.Background()
	db, log, err := abrirBase(ctx, *rutaDB)
	if err != nil {
		return err
	}
	defer db.Close()

	entradas, err := store.NewCatalogoRepo(db, log).CargarEntradas(ctx)
	if err != nil {
		return err
	}
	catalogo := catalog.NewStore(entradas)
	if catalogo.Claves() == 0 {
		return fmt.Errorf("el catálogo de entes está vacío; no hay claves a las que remapear")
	}

	actualizados, eliminados, err := store.NewHallazgoRepo(db, log).Remapear(ctx, catalogo.Resolver)
	if err != nil {
		return err
	}
	fmt.Printf("Hallazgos remapeados: %d\n", actualizados)
	fmt.Printf("Duplicados eliminados tras remapeo: %d\n", eliminados)
	return nil
}

func ordenRespaldar(argumentos []string) error {
	flags := flag.NewFlagSet("respaldar", flag.ExitOnError)
	rutaDB := flags.String("db", "", "ruta del archivo SQLite")
	destino := flags.String("destino", "backups", "directorio donde dejar la copia")
	_ = flags.Parse(argumentos)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *rutaDB != "" {
		cfg.DB = *rutaDB
	}
	if strings.HasPrefix(cfg.DB, "postgres://") || strings.HasPrefix(cfg.DB, "postgresql://") {
		return fmt.Errorf("respaldar solo aplica a bases SQLite; para Postgres use pg_dump")
	}

	origen, err := os.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("abrir base %s: %w", cfg.DB, err)
	}
	defer origen.Close()

	if err := os.MkdirAll(*destino, 0o755); err != nil {
		return err
	}
	ruta := filepath.Join(*destino, fmt.Sprintf("scil_backup_%s.db", time.Now().Format("20060102_150405")))

	copia, err := os.Create(ruta)
	if err != nil {
		return err
	}
	defer copia.Close()

	n, err := io.Copy(copia, origen)
	if err != nil {
		return err
	}
	fmt.Printf("Respaldo escrito en %s (%d bytes)\n", ruta, n)
	return nil
}

func ordenExportar(argumentos []string) error {
	flags := flag.NewFlagSet("exportar", flag.ExitOnError)
	rutaDB := flags.String("db", "", "ruta del archivo SQLite o DSN postgres://")
	formato := flags.String("formato", "csv", "csv o xlsx")
	salida := flags.String("salida", "", "archivo de salida (por omisión laboral_resultados_<fecha>.<formato>)")
	filtro := flags.String("filtro", "", "subcadena para filtrar hallazgos")
	_ = flags.Parse(argumentos)

	if *formato != "csv" && *formato != "xlsx" {
		return fmt.Errorf("formato desconocido %q: use csv o xlsx", *formato)
	}

	ctx := context.Background()
	db, log, err := abrirBase(ctx, *rutaDB)
	if err != nil {
		return err
	}
	defer db.Close()

	entradas, err := store.NewCatalogoRepo(db, log).CargarEntradas(ctx)
	if err != nil {
		return err
	}
	catalogo := catalog.NewStore(entradas)

	agregador := report.NewAgregador(
		catalogo,
		store.NewHallazgoRepo(db, log),
		store.NewSolventacionRepo(db, log),
		log,
	)
	filas, err := agregador.Exportar(ctx, *filtro)
	if err != nil {
		return err
	}

	ruta := *salida
	if ruta == "" {
		ruta = report.NombreArchivo(*formato)
	}

	switch *formato {
	case "csv":
		f, err := os.Create(ruta)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.EscribirCSV(f, filas); err != nil {
			return err
		}
	case "xlsx":
		libro, err := report.EscribirXLSX(filas)
		if err != nil {
			return err
		}
		defer libro.Close()
		if err := libro.SaveAs(ruta); err != nil {
			return err
		}
	}

	fmt.Printf("Exportados %d renglones a %s\n", len(filas), ruta)
	return nil
}
