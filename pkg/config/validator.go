package config

import (
	"fmt"
	"strings"

	"github.com/nodewee/picaxe/pkg/constants"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

// ConfigValidator validates a loaded registry before any stage runs
type ConfigValidator struct{}

// NewConfigValidator creates a configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate collects every problem and reports them as one configuration error
func (v *ConfigValidator) Validate(c *Config) error {
	var errors []string

	if err := v.validateRasterizer(c); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateNumericValues(c); err != nil {
		errors = append(errors, err.Error())
	}

	if err := v.validateLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	errors = append(errors, v.validatePaths(c)...)

	if len(errors) > 0 {
		return utils.NewConfigurationError("configuration validation failed",
			fmt.Errorf("validation errors: %s", strings.Join(errors, "; ")))
	}

	return nil
}

// validateRasterizer checks the rasterizer kind
func (v *ConfigValidator) validateRasterizer(c *Config) error {
	switch c.Rasterizer {
	case types.RasterizerScript, types.RasterizerNative:
		return nil
	default:
		return fmt.Errorf("invalid rasterizer: %s", c.Rasterizer)
	}
}

// validateNumericValues checks the native rasterizer settings
func (v *ConfigValidator) validateNumericValues(c *Config) error {
	if c.RasterDPI < 36 || c.RasterDPI > 1200 {
		return fmt.Errorf("raster dpi must be between 36 and 1200")
	}
	if c.RasterWorkers < 1 {
		return fmt.Errorf("raster workers must be at least 1")
	}
	if c.RasterWorkers > constants.MaxRasterWorkers {
		return fmt.Errorf("raster workers should not exceed %d", constants.MaxRasterWorkers)
	}
	return nil
}

// validateLogLevel checks the log level name
func (v *ConfigValidator) validateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}

	for _, valid := range validLevels {
		if strings.ToLower(level) == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid log level: %s", level)
}

// validatePaths requires every path to be set, and forbids an intermediate
// directory from aliasing or nesting with a final output, since success cleanup removes
// intermediate directories wholesale
func (v *ConfigValidator) validatePaths(c *Config) []string {
	var errors []string

	for _, binding := range pathBindings(c) {
		if strings.TrimSpace(*binding.value) == "" {
			errors = append(errors, fmt.Sprintf("%s must not be empty", binding.key))
		}
	}
	if c.Scripts.Interpreter == "" {
		errors = append(errors, "interpreter must not be empty")
	}
	if len(errors) > 0 {
		return errors
	}

	dirs := c.DirMap()
	finals := []types.DirKey{types.DirExtractedImages, types.DirTables}
	for _, key := range utils.IntermediateKeys {
		for _, final := range finals {
			switch {
			case utils.SamePath(dirs[key], dirs[final]):
				errors = append(errors, fmt.Sprintf("%s directory must differ from %s directory", key, final))
			case utils.PathContains(dirs[key], dirs[final]), utils.PathContains(dirs[final], dirs[key]):
				errors = append(errors, fmt.Sprintf("%s directory must not overlap %s directory", key, final))
			}
		}
		if utils.SamePath(dirs[key], c.Paths.LogDir) {
			errors = append(errors, fmt.Sprintf("%s directory must differ from the log directory", key))
		}
	}

	return errors
}
