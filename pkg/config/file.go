package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nodewee/picaxe/pkg/constants"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

const (
	ConfigFileName = "config.yaml"
	AppDirName     = ".picaxe"

	// ConfigEnvVar overrides the config file location
	ConfigEnvVar = "PICAXE_CONFIG"
)

// GetConfigDir returns the user configuration directory (~/.picaxe)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to get user home directory")
	}

	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigFilePath returns the full path to the configuration file
func GetConfigFilePath() (string, error) {
	if path := os.Getenv(ConfigEnvVar); path != "" {
		return path, nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ConfigFileName), nil
}

// loadConfigFromFile decodes the YAML file at configPath over cfg. Keys absent
// from the file keep their current value.
func loadConfigFromFile(configPath string, cfg *Config) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to read config file").
			WithContext("path", configPath)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to parse config file").
			WithContext("path", configPath)
	}

	return nil
}

// SaveConfig writes the persisted part of cfg to configPath
func SaveConfig(configPath string, cfg *Config) error {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, constants.DefaultFilePermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to write config file")
	}

	return nil
}

// setting exposes one configuration key to `config get|set`
type setting struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

type pathBinding struct {
	key   string
	value *string
}

// pathBindings lists every path-valued setting of c
func pathBindings(c *Config) []pathBinding {
	return []pathBinding{
		{"sample_papers_dir", &c.Paths.SamplePapersDir},
		{"bulk_papers_dir", &c.Paths.BulkPapersDir},
		{"pdf_imgs_dir", &c.Paths.PageImagesDir},
		{"page_output_dir", &c.Paths.PagesDir},
		{"pages_no_tables_dir", &c.Paths.PagesNoTablesDir},
		{"bounding_boxes_dir", &c.Paths.BoundingBoxesDir},
		{"text_removed_dir", &c.Paths.TextRemovedDir},
		{"masking_imgs_dir", &c.Paths.MaskingDir},
		{"target_images_dir", &c.Paths.TargetImagesDir},
		{"cropped_dir", &c.Paths.CroppedDir},
		{"output_tables_dir", &c.Paths.TablesDir},
		{"extracted_images_dir", &c.Paths.ExtractedImagesDir},
		{"log_dir", &c.Paths.LogDir},
		{"scripts_dir", &c.Scripts.Dir},
	}
}

func settings() map[string]setting {
	table := map[string]setting{
		"interpreter": {
			get: func(c *Config) string { return c.Scripts.Interpreter },
			set: func(c *Config, v string) error { c.Scripts.Interpreter = v; return nil },
		},
		"rasterizer": {
			get: func(c *Config) string { return string(c.Rasterizer) },
			set: func(c *Config, v string) error { c.Rasterizer = types.RasterizerKind(v); return nil },
		},
		"raster_dpi": {
			get: func(c *Config) string { return strconv.Itoa(c.RasterDPI) },
			set: func(c *Config, v string) error { return setInt(&c.RasterDPI, "raster_dpi", v) },
		},
		"raster_workers": {
			get: func(c *Config) string { return strconv.Itoa(c.RasterWorkers) },
			set: func(c *Config, v string) error { return setInt(&c.RasterWorkers, "raster_workers", v) },
		},
		"log_level": {
			get: func(c *Config) string { return c.LogLevel },
			set: func(c *Config, v string) error { c.LogLevel = v; return nil },
		},
	}

	for _, binding := range pathBindings(&Config{}) {
		key := binding.key
		table[key] = setting{
			get: func(c *Config) string { return *lookupPath(c, key) },
			set: func(c *Config, v string) error { *lookupPath(c, key) = v; return nil },
		}
	}

	return table
}

func lookupPath(c *Config, key string) *string {
	for _, binding := range pathBindings(c) {
		if binding.key == key {
			return binding.value
		}
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return utils.NewConfigurationError(fmt.Sprintf("%s must be an integer", key), err)
	}
	*dst = n
	return nil
}

// GetConfigValue gets a specific configuration value by key
func GetConfigValue(configPath, key string) (string, error) {
	s, ok := settings()[key]
	if !ok {
		return "", utils.NewConfigurationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return "", err
	}

	return s.get(cfg), nil
}

// SetConfigValue sets a specific configuration value by key and persists it.
// The resulting configuration must validate before anything is written.
func SetConfigValue(configPath, key, value string) error {
	s, ok := settings()[key]
	if !ok {
		return utils.NewConfigurationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}

	if configPath == "" {
		var err error
		if configPath, err = GetConfigFilePath(); err != nil {
			return err
		}
	}

	cfg := DefaultConfig("")
	if utils.Exists(configPath) {
		if err := loadConfigFromFile(configPath, cfg); err != nil {
			return err
		}
	}

	if err := s.set(cfg, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return SaveConfig(configPath, cfg)
}

// ListConfigKeys returns all available configuration keys, sorted
func ListConfigKeys() []string {
	keys := make([]string, 0)
	for key := range settings() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ListConfigValues returns every key with its effective value
func ListConfigValues(cfg *Config) map[string]string {
	values := make(map[string]string)
	for key, s := range settings() {
		values[key] = s.get(cfg)
	}
	return values
}
