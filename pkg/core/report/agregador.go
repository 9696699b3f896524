package report

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"scil/pkg/core/catalog"
	"scil/pkg/models"
)

// FuenteHallazgos entrega hallazgos persistidos por páginas.
type FuenteHallazgos interface {
	Paginados(ctx context.Context, filtro string, pagina, limite int) ([]models.Hallazgo, int, error)
}

// FuenteSolventaciones entrega las decisiones registradas por ente para un
// RFC.
type FuenteSolventaciones interface {
	PorRFC(ctx context.Context, rfc string) (map[string]models.DetalleSolventacion, error)
}

// FilaCruce es un renglón de la vista agrupada: un RFC con cruce visto
// desde un ente. Entes lista a los otros entes del cruce por sigla y
// EstadoEntes trae el estado de cada uno bajo esa misma sigla.
type FilaCruce struct {
	RFC         string            `json:"rfc"`
	Nombre      string            `json:"nombre"`
	Puesto      string            `json:"puesto"`
	Estado      string            `json:"estado"`
	Entes       []string          `json:"entes"`
	EstadoEntes map[string]string `json:"estado_entes"`
}

// GrupoEnte reúne los cruces de un ente bajo su etiqueta de presentación.
// Total cuenta los RFC distintos vistos en el ente, con o sin cruce.
type GrupoEnte struct {
	Ente       string      `json:"ente"`
	Filas      []FilaCruce `json:"filas"`
	Duplicados int         `json:"duplicados"`
	Total      int         `json:"total"`
}

// Agregador combina hallazgos, solventaciones y catálogo para armar las
// vistas de lectura. No guarda estado entre llamadas.
type Agregador struct {
	catalogo       *catalog.Store
	hallazgos      FuenteHallazgos
	solventaciones FuenteSolventaciones
	log            *logrus.Logger
}

func NewAgregador(catalogo *catalog.Store, hallazgos FuenteHallazgos, solventaciones FuenteSolventaciones, log *logrus.Logger) *Agregador {
	return &Agregador{
		catalogo:       catalogo,
		hallazgos:      hallazgos,
		solventaciones: solventaciones,
		log:            log,
	}
}

// paginaLectura es el tamaño de página con que el agregador recorre la
// tabla completa.
const paginaLectura = 500

// todos recorre la tabla de hallazgos página por página hasta agotarla.
func (a *Agregador) todos(ctx context.Context, filtro string) ([]models.Hallazgo, error) {
	var acumulado []models.Hallazgo
	for pagina := 1; ; pagina++ {
		lote, total, err := a.hallazgos.Paginados(ctx, filtro, pagina, paginaLectura)
		if err != nil {
			return nil, err
		}
		acumulado = append(acumulado, lote...)
		if len(lote) == 0 || len(acumulado) >= total {
			return acumulado, nil
		}
	}
}

// AgruparPorEnte arma la vista de cruces agrupada por ente para los tokens
// de acceso de un usuario. Solo los entes con cruce real aportan renglones,
// pero todo ente autorizado visto en cualquier hallazgo aparece en el mapa
// con su total de trabajadores, aunque no tenga un solo cruce.
func (a *Agregador) AgruparPorEnte(ctx context.Context, tokens []string) (map[string]*GrupoEnte, error) {
	hallazgos, err := a.todos(ctx, "")
	if err != nil {
		return nil, err
	}

	accesoTotal := a.catalogo.AccesoTotal(tokens)
	autorizado := func(ente string) bool {
		if accesoTotal {
			return true
		}
		for _, t := range tokens {
			if a.catalogo.Coincide(t, ente) {
				return true
			}
		}
		return false
	}

	grupos := make(map[string]*GrupoEnte)
	grupoDe := func(ente string) *GrupoEnte {
		etiqueta := a.catalogo.Etiqueta(ente)
		g, ok := grupos[etiqueta]
		if !ok {
			g = &GrupoEnte{Ente: etiqueta, Filas: []FilaCruce{}}
			grupos[etiqueta] = g
		}
		return g
	}

	cache := a.nuevaCache()
	rfcsPorEnte := make(map[string]map[string]bool)

	for _, h := range hallazgos {
		// El total por ente cuenta todos los registros, haya cruce o no.
		for _, r := range h.Registros {
			if r.Ente == "" || !autorizado(r.Ente) {
				continue
			}
			set := rfcsPorEnte[r.Ente]
			if set == nil {
				set = make(map[string]bool)
				rfcsPorEnte[r.Ente] = set
				grupoDe(r.Ente)
			}
			set[h.RFC] = true
		}

		reales := EntesCruceReal(h)
		if len(reales) < 2 {
			continue
		}

		solvs, err := cache.de(ctx, h.RFC)
		if err != nil {
			return nil, err
		}

		for _, e := range reales {
			if !autorizado(e) {
				continue
			}
			otros := make([]string, 0, len(reales)-1)
			estadoEntes := make(map[string]string, len(reales)-1)
			for _, otro := range reales {
				if otro == e {
					continue
				}
				sigla := a.catalogo.Etiqueta(otro)
				otros = append(otros, sigla)
				estadoEntes[sigla] = estadoDe(solvs, otro, h.Estado)
			}
			sort.Strings(otros)

			g := grupoDe(e)
			g.Filas = append(g.Filas, FilaCruce{
				RFC:         h.RFC,
				Nombre:      h.Nombre,
				Puesto:      puestosDistintos(h.Registros),
				Estado:      estadoDe(solvs, e, h.Estado),
				Entes:       otros,
				EstadoEntes: estadoEntes,
			})
			g.Duplicados++
		}
	}

	for ente, set := range rfcsPorEnte {
		grupoDe(ente).Total += len(set)
	}

	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"hallazgos": len(hallazgos),
			"grupos":    len(grupos),
		}).Debug("vista agrupada calculada")
	}
	return grupos, nil
}

// estadoDe regresa la solventación del ente si existe, si no el estado base
// del hallazgo.
func estadoDe(solventaciones map[string]models.DetalleSolventacion, ente, base string) string {
	if d, ok := solventaciones[ente]; ok && d.Estado != "" {
		return d.Estado
	}
	if base == "" {
		return models.EstadoSinValoracion
	}
	return base
}

// puestosDistintos junta los puestos de los registros sin repetir, en su
// orden de aparición.
func puestosDistintos(registros []models.RegistroFuente) string {
	vistos := make(map[string]bool)
	var puestos []string
	for _, r := range registros {
		p := strings.TrimSpace(r.Puesto)
		if p == "" || vistos[p] {
			continue
		}
		vistos[p] = true
		puestos = append(puestos, p)
	}
	return strings.Join(puestos, ", ")
}

// cacheSolventaciones evita consultar dos veces el mismo RFC dentro de una
// sola vista.
type cacheSolventaciones struct {
	fuente FuenteSolventaciones
	porRFC map[string]map[string]models.DetalleSolventacion
}

func (a *Agregador) nuevaCache() *cacheSolventaciones {
	return &cacheSolventaciones{
		fuente: a.solventaciones,
		porRFC: make(map[string]map[string]models.DetalleSolventacion),
	}
}

func (c *cacheSolventaciones) de(ctx context.Context, rfc string) (map[string]models.DetalleSolventacion, error) {
	if s, ok := c.porRFC[rfc]; ok {
		return s, nil
	}
	s, err := c.fuente.PorRFC(ctx, rfc)
	if err != nil {
		return nil, err
	}
	c.porRFC[rfc] = s
	return s, nil
}
