package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"scil/pkg/core/utils"
	"scil/pkg/models"
)

// Prefijos de clave por catálogo.
const (
	PrefijoEnte      = "ENTE_"
	PrefijoMunicipio = "MUN_"
)

// ClaveCatalogo deriva la clave canónica a partir del número de renglón del
// catálogo: los puntos finales se descartan y los intermedios se vuelven
// guion bajo ("1.2" -> ENTE_1_2, "11." -> ENTE_11).
func ClaveCatalogo(prefijo, num string) string {
	n := strings.TrimRight(strings.TrimSpace(num), ".")
	n = strings.ReplaceAll(n, ".", "_")
	return prefijo + n
}

// LeerCatalogo lee un catálogo de entes o municipios desde la primera hoja
// de un libro con columnas NUM, NOMBRE, SIGLAS y CLASIFICACION. Los
// renglones sin NUM se descartan.
func LeerCatalogo(lector io.Reader, prefijo, ambito string) ([]models.CatalogoEntrada, error) {
	filas, cols, err := primeraHoja(lector)
	if err != nil {
		return nil, err
	}

	var entradas []models.CatalogoEntrada
	for _, fila := range filas {
		num := strings.TrimSpace(cols.celda(fila, "NUM"))
		if num == "" || strings.EqualFold(num, "nan") || strings.EqualFold(num, "none") {
			continue
		}
		entradas = append(entradas, models.CatalogoEntrada{
			Clave:         ClaveCatalogo(prefijo, num),
			Nombre:        strings.TrimSpace(cols.celda(fila, "NOMBRE")),
			Siglas:        strings.ToUpper(strings.TrimSpace(cols.celda(fila, "SIGLAS"))),
			Clasificacion: strings.TrimSpace(cols.celda(fila, "CLASIFICACION")),
			Ambito:        ambito,
			Activo:        true,
		})
	}
	return entradas, nil
}

// LeerUsuarios lee el catálogo de usuarios desde la primera hoja de un libro
// con columnas Usuario, Clave, Nombre completo y Entes asignados. La
// contraseña se hashea aquí; nunca viaja en claro más allá de esta función.
func LeerUsuarios(lector io.Reader) ([]models.UsuarioSemilla, error) {
	filas, cols, err := primeraHoja(lector)
	if err != nil {
		return nil, err
	}

	var usuarios []models.UsuarioSemilla
	for _, fila := range filas {
		usuario := strings.TrimSpace(cols.celda(fila, "USUARIO"))
		if usuario == "" {
			continue
		}
		usuarios = append(usuarios, models.UsuarioSemilla{
			Nombre:  strings.TrimSpace(cols.celda(fila, "NOMBRE_COMPLETO")),
			Usuario: usuario,
			Clave:   utils.HashTexto(strings.TrimSpace(cols.celda(fila, "CLAVE"))),
			Entes:   strings.ToUpper(strings.TrimSpace(cols.celda(fila, "ENTES_ASIGNADOS"))),
		})
	}
	return usuarios, nil
}

// primeraHoja abre el libro, toma su primera hoja y separa encabezado de
// datos.
func primeraHoja(lector io.Reader) ([][]string, columnas, error) {
	libro, err := excelize.OpenReader(lector)
	if err != nil {
		return nil, columnas{}, fmt.Errorf("abrir libro de catálogo: %w", err)
	}
	defer libro.Close()

	hojas := libro.GetSheetList()
	if len(hojas) == 0 {
		return nil, columnas{}, fmt.Errorf("el libro de catálogo no tiene hojas")
	}
	filas, err := libro.GetRows(hojas[0])
	if err != nil {
		return nil, columnas{}, fmt.Errorf("leer hoja %s: %w", hojas[0], err)
	}
	if len(filas) == 0 {
		return nil, columnas{}, fmt.Errorf("la hoja %s está vacía", hojas[0])
	}
	return filas[1:], indexarColumnas(filas[0]), nil
}
