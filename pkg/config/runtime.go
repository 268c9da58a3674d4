package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/nodewee/picaxe/pkg/types"
)

// Environment variables recognised by applyEnvOverrides
const (
	EnvInterpreter   = "PICAXE_INTERPRETER"
	EnvScriptsDir    = "PICAXE_SCRIPTS_DIR"
	EnvRasterizer    = "PICAXE_RASTERIZER"
	EnvRasterDPI     = "PICAXE_RASTER_DPI"
	EnvRasterWorkers = "PICAXE_RASTER_WORKERS"
	EnvLogLevel      = "PICAXE_LOG_LEVEL"
	EnvVerbose       = "PICAXE_VERBOSE"
	EnvSampleDir     = "PICAXE_SAMPLE_PAPERS_DIR"
	EnvBulkDir       = "PICAXE_BULK_PAPERS_DIR"
	EnvExtractedDir  = "PICAXE_EXTRACTED_IMAGES_DIR"
	EnvTablesDir     = "PICAXE_OUTPUT_TABLES_DIR"
	EnvLogDir        = "PICAXE_LOG_DIR"
)

// applyEnvOverrides applies environment variable overrides on top of the file
func applyEnvOverrides(config *Config) {
	if value := os.Getenv(EnvInterpreter); value != "" {
		config.Scripts.Interpreter = value
	}
	if value := os.Getenv(EnvScriptsDir); value != "" {
		config.Scripts.Dir = value
	}
	if value := os.Getenv(EnvRasterizer); value != "" {
		config.Rasterizer = types.RasterizerKind(value)
	}
	if value := os.Getenv(EnvRasterDPI); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			config.RasterDPI = intVal
		}
	}
	if value := os.Getenv(EnvRasterWorkers); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			config.RasterWorkers = intVal
		}
	}
	if value := os.Getenv(EnvLogLevel); value != "" {
		config.LogLevel = value
	}
	if value := os.Getenv(EnvVerbose); value != "" {
		config.EnableVerbose = parseBool(value)
	}

	// Registry path overrides
	if value := os.Getenv(EnvSampleDir); value != "" {
		config.Paths.SamplePapersDir = value
	}
	if value := os.Getenv(EnvBulkDir); value != "" {
		config.Paths.BulkPapersDir = value
	}
	if value := os.Getenv(EnvExtractedDir); value != "" {
		config.Paths.ExtractedImagesDir = value
	}
	if value := os.Getenv(EnvTablesDir); value != "" {
		config.Paths.TablesDir = value
	}
	if value := os.Getenv(EnvLogDir); value != "" {
		config.Paths.LogDir = value
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
