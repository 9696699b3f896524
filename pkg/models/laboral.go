package models

// Estados de solventación. Se guardan como texto libre; EstadoMixto solo
// existe en lecturas fusionadas, nunca en disco.
const (
	EstadoSinValoracion = "Sin valoración"
	EstadoSolventado    = "Solventado"
	EstadoNoSolventado  = "No Solventado"
	EstadoMixto         = "Mixto"
)

// Tipos de patrón persistidos en laboral.tipo_analisis.
const (
	PatronCruceQNA      = "CRUCE_ENTRE_ENTES_QNA"
	PatronSinDuplicidad = "SIN_DUPLICIDAD"
)

// EnteGeneral es la clave comodín para solventaciones sin ente específico.
const EnteGeneral = "GENERAL"

// FechaComunSinDuplicidad marca los registros de trazabilidad sin cruce.
const FechaComunSinDuplicidad = "SIN_DUPLICIDAD"

// RegistroFuente es una fila normalizada de un libro de ingesta. QNAs guarda
// únicamente las quincenas activas (nombre de columna -> celda cruda).
type RegistroFuente struct {
	Ente         string            `json:"ente"`
	Nombre       string            `json:"nombre"`
	Puesto       string            `json:"puesto"`
	FechaIngreso *string           `json:"fecha_ingreso"`
	FechaEgreso  *string           `json:"fecha_egreso"`
	QNAs         map[string]string `json:"qnas"`
	Monto        *float64          `json:"monto"`
}

// CargaLaboral acumula las filas normalizadas de un lote de ingesta,
// agrupadas por RFC. RFCs conserva el orden de primera aparición a lo largo
// de todos los libros y hojas del lote; de ahí sale el orden de emisión de
// hallazgos.
type CargaLaboral struct {
	PorRFC map[string][]RegistroFuente
	RFCs   []string
}

// NuevaCarga regresa una carga vacía lista para acumular.
func NuevaCarga() *CargaLaboral {
	return &CargaLaboral{PorRFC: make(map[string][]RegistroFuente)}
}

// Agregar anexa una fila al RFC, registrando su primera aparición.
func (c *CargaLaboral) Agregar(rfc string, r RegistroFuente) {
	if _, visto := c.PorRFC[rfc]; !visto {
		c.RFCs = append(c.RFCs, rfc)
	}
	c.PorRFC[rfc] = append(c.PorRFC[rfc], r)
}

// Hallazgo es el registro lógico que se persiste en laboral.datos. Las llaves
// JSON alimentan hash_firma y no deben cambiar.
type Hallazgo struct {
	RFC          string           `json:"rfc"`
	Nombre       string           `json:"nombre"`
	Entes        []string         `json:"entes"`
	FechaComun   string           `json:"fecha_comun"`
	TipoPatron   string           `json:"tipo_patron"`
	Descripcion  string           `json:"descripcion"`
	Registros    []RegistroFuente `json:"registros"`
	Estado       string           `json:"estado"`
	Solventacion string           `json:"solventacion"`
	HashFirma    string           `json:"hash_firma,omitempty"`
}

// Alerta es un problema de forma en la entrada, visible para el usuario.
// Nunca interrumpe la ingesta.
type Alerta struct {
	Tipo    string `json:"tipo"`
	Mensaje string `json:"mensaje"`
	Hoja    string `json:"hoja,omitempty"`
	Archivo string `json:"archivo,omitempty"`
}

// Tipos de alerta.
const (
	AlertaEnteNoEncontrado  = "ente_no_encontrado"
	AlertaColumnasFaltantes = "columnas_faltantes"
	AlertaArchivoInvalido   = "archivo_invalido"
)

// ResultadoIngesta resume una corrida de ingesta.
type ResultadoIngesta struct {
	Total      int      `json:"total"`
	Nuevos     int      `json:"new"`
	Duplicados int      `json:"duplicates"`
	Alertas    []Alerta `json:"alerts"`
}

// DetalleSolventacion es la vista (estado, comentario) por ente.
type DetalleSolventacion struct {
	Estado     string `json:"estado"`
	Comentario string `json:"comentario"`
}

// RegistroFusionado es la vista consolidada de un RFC: registros deduplicados
// de todos sus hallazgos, unión de entes y estado fusionado.
type RegistroFusionado struct {
	RFC            string                         `json:"rfc"`
	Nombre         string                         `json:"nombre"`
	Entes          []string                       `json:"entes"`
	Registros      []RegistroFuente               `json:"registros"`
	Estado         string                         `json:"estado"`
	Solventacion   string                         `json:"solventacion"`
	Solventaciones map[string]DetalleSolventacion `json:"solventaciones,omitempty"`
}

// Usuario es una cuenta autenticada; Entes trae los tokens de acceso ya
// normalizados (mayúsculas, sin espacios).
type Usuario struct {
	Nombre  string   `json:"nombre"`
	Usuario string   `json:"usuario"`
	Entes   []string `json:"entes"`
}

// UsuarioSemilla es un renglón del catálogo de usuarios listo para upsert.
// Clave ya viene como SHA-256 hexadecimal; Entes es la lista separada por
// comas tal como se captura en el catálogo.
type UsuarioSemilla struct {
	Nombre  string
	Usuario string
	Clave   string
	Entes   string
}

// CatalogoEntrada es un renglón de los catálogos entes/municipios.
type CatalogoEntrada struct {
	Clave         string `db:"clave" json:"clave"`
	Nombre        string `db:"nombre" json:"nombre"`
	Siglas        string `db:"siglas" json:"siglas"`
	Clasificacion string `db:"clasificacion" json:"clasificacion"`
	Ambito        string `db:"ambito" json:"ambito"`
	Activo        bool   `db:"activo" json:"activo"`
}

// Ámbitos de catálogo.
const (
	AmbitoEstatal   = "ESTATAL"
	AmbitoMunicipal = "MUNICIPAL"
)

// FilaExport es una fila aplanada para exportación CSV/XLSX.
type FilaExport struct {
	RFC                   string `json:"rfc"`
	Nombre                string `json:"nombre"`
	Ente                  string `json:"ente"`
	Puesto                string `json:"puesto"`
	FechaIngreso          string `json:"fecha_ingreso"`
	FechaEgreso           string `json:"fecha_egreso"`
	Monto                 string `json:"monto"`
	Quincenas             string `json:"quincenas"`
	EntesIncompatibilidad string `json:"entes_incompatibilidad"`
	Estatus               string `json:"estatus"`
	Solventacion          string `json:"solventacion"`
}

// Valores sentinela de la exportación aplanada.
const (
	QuincenasTodoElEjercicio = "Activo en Todo el Ejercicio"
	QuincenasNA              = "N/A"
	SinOtrosEntes            = "Sin otros entes"
)
