// Package config resuelve la configuración del servicio en tres capas:
// valores por omisión, archivo YAML opcional y variables de entorno.
// El entorno siempre gana; así un despliegue puede ajustar el puerto o la
// base sin tocar el archivo.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// ArchivoDefault es la ruta del archivo YAML opcional de configuración.
const ArchivoDefault = "config/scil.yaml"

// Config agrupa los parámetros operativos del servicio.
type Config struct {
	// DB es la ruta del archivo SQLite o un DSN postgres://.
	DB string `yaml:"db"`
	// Puerto donde escucha la API HTTP.
	Puerto int `yaml:"puerto"`
	// LogLevel acepta los niveles de logrus (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Ejercicio es el año fiscal usado para componer la fecha común (ej. 2025Q03).
	Ejercicio int `yaml:"ejercicio"`
	// ResultadosPorPagina es el tamaño de página por omisión en /api/resultados.
	ResultadosPorPagina int `yaml:"resultados_por_pagina"`
	// MaxUploadMB limita el tamaño total de una carga multipart.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// Defaults devuelve la configuración base sin leer archivo ni entorno.
func Defaults() Config {
	return Config{
		DB:                  "scil.db",
		Puerto:              4050,
		LogLevel:            "info",
		Ejercicio:           time.Now().Year(),
		ResultadosPorPagina: 20,
		MaxUploadMB:         32,
	}
}

// Load resuelve la configuración leyendo config/scil.yaml si existe.
func Load() (Config, error) {
	return LoadFile(ArchivoDefault)
}

// LoadFile resuelve la configuración a partir de un archivo YAML concreto.
// Un archivo inexistente no es error; un archivo ilegible o mal formado sí.
func LoadFile(ruta string) (Config, error) {
	cfg := Defaults()
	datos, err := os.ReadFile(ruta)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(datos, &cfg); err != nil {
			return cfg, fmt.Errorf("leer configuración %s: %w", ruta, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("leer configuración %s: %w", ruta, err)
	}
	aplicarEntorno(&cfg)
	return cfg, nil
}

func aplicarEntorno(cfg *Config) {
	if v := os.Getenv("SCIL_DB"); v != "" {
		cfg.DB = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Puerto = n
		}
	}
	if v := os.Getenv("SCIL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SCIL_EJERCICIO"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ejercicio = n
		}
	}
	if v := os.Getenv("SCIL_RESULTS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResultadosPorPagina = n
		}
	}
	if v := os.Getenv("SCIL_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxUploadMB = n
		}
	}
}

// NewLogger construye el logger del proceso con el nivel configurado.
// Un nivel desconocido cae en info en lugar de abortar el arranque.
func NewLogger(cfg Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	nivel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		nivel = logrus.InfoLevel
	}
	log.SetLevel(nivel)
	return log
}
