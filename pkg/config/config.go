package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/nodewee/picaxe/pkg/constants"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

// Default values and constants
const (
	DefaultLogLevel      = "info"
	DefaultEnableVerbose = false
	DefaultRasterizer    = types.RasterizerScript
	DefaultRasterDPI     = constants.DefaultRasterDPI
	DefaultRasterWorkers = constants.DefaultRasterWorkers

	// HomeEnvVar roots every default path; the working directory is used when unset
	HomeEnvVar = "PICAXE_HOME"
)

// DefaultStageScripts maps every stage to the script the original layout ships
var DefaultStageScripts = map[types.StageName]string{
	types.StageRasterize:     "convert_pdfs_to_images.py",
	types.StageCropBorders:   "crop_borders.py",
	types.StageRemoveTables:  "remove_tables.py",
	types.StageRemoveText:    "remove_text.py",
	types.StageSelectTargets: "select_target_images.py",
	types.StageExtractImages: "extract_and_save_images.py",
}

// PathsConfig is the registry of canonical directories
type PathsConfig struct {
	SamplePapersDir    string `yaml:"sample_papers_dir"`
	BulkPapersDir      string `yaml:"bulk_papers_dir"`
	PageImagesDir      string `yaml:"pdf_imgs_dir"`
	PagesDir           string `yaml:"page_output_dir"`
	PagesNoTablesDir   string `yaml:"pages_no_tables_dir"`
	BoundingBoxesDir   string `yaml:"bounding_boxes_dir"`
	TextRemovedDir     string `yaml:"text_removed_dir"`
	MaskingDir         string `yaml:"masking_imgs_dir"`
	TargetImagesDir    string `yaml:"target_images_dir"`
	CroppedDir         string `yaml:"cropped_dir"`
	TablesDir          string `yaml:"output_tables_dir"`
	ExtractedImagesDir string `yaml:"extracted_images_dir"`
	LogDir             string `yaml:"log_dir"`
}

// ScriptsConfig describes how script stages are launched
type ScriptsConfig struct {
	Interpreter string                     `yaml:"interpreter"`
	Dir         string                     `yaml:"dir"`
	Stages      map[types.StageName]string `yaml:"stages,omitempty"`
}

// Config holds application configuration
type Config struct {
	Paths         PathsConfig          `yaml:"paths"`
	Scripts       ScriptsConfig        `yaml:"scripts"`
	Rasterizer    types.RasterizerKind `yaml:"rasterizer"`
	RasterDPI     int                  `yaml:"raster_dpi"`
	RasterWorkers int                  `yaml:"raster_workers"`
	LogLevel      string               `yaml:"log_level"`

	// Runtime settings (not persisted to file)
	EnableVerbose bool `yaml:"-"`
	WriteIndex    bool `yaml:"-"`
}

// DefaultConfig returns the configuration rooted at root. An empty root
// falls back to $PICAXE_HOME and then to the working directory.
func DefaultConfig(root string) *Config {
	if root == "" {
		root = resolveHome()
	}
	data := filepath.Join(root, "data")

	return &Config{
		Paths: PathsConfig{
			SamplePapersDir:    filepath.Join(data, "sample_papers"),
			BulkPapersDir:      filepath.Join(data, "bulk_papers"),
			PageImagesDir:      filepath.Join(data, "pdf_imgs"),
			PagesDir:           filepath.Join(data, "page_output"),
			PagesNoTablesDir:   filepath.Join(data, "pages_no_tables"),
			BoundingBoxesDir:   filepath.Join(data, "bounding_boxes"),
			TextRemovedDir:     filepath.Join(data, "text_removed"),
			MaskingDir:         filepath.Join(data, "masking_imgs"),
			TargetImagesDir:    filepath.Join(data, "target_images"),
			CroppedDir:         filepath.Join(data, "cropped"),
			TablesDir:          filepath.Join(data, "output_tables"),
			ExtractedImagesDir: filepath.Join(data, "extracted_images"),
			LogDir:             filepath.Join(root, "logs"),
		},
		Scripts: ScriptsConfig{
			Interpreter: constants.DetectInterpreter(),
			Dir:         filepath.Join(root, "src"),
			Stages:      cloneScripts(DefaultStageScripts),
		},
		Rasterizer:    DefaultRasterizer,
		RasterDPI:     DefaultRasterDPI,
		RasterWorkers: DefaultRasterWorkers,
		LogLevel:      DefaultLogLevel,
		EnableVerbose: DefaultEnableVerbose,
	}
}

// Load builds the configuration: defaults, then .env files, then the YAML
// file at configPath (the default location when empty), then environment
// overrides. A missing YAML file is not an error.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := DefaultConfig("")

	if configPath == "" {
		var err error
		configPath, err = GetConfigFilePath()
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(configPath, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to access config file")
	}

	applyEnvOverrides(cfg)

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()
	return validator.Validate(c)
}

// DirMap returns the canonical directories keyed by role
func (c *Config) DirMap() map[types.DirKey]string {
	return map[types.DirKey]string{
		types.DirPageImages:      c.Paths.PageImagesDir,
		types.DirPages:           c.Paths.PagesDir,
		types.DirPagesNoTables:   c.Paths.PagesNoTablesDir,
		types.DirBoundingBoxes:   c.Paths.BoundingBoxesDir,
		types.DirTextRemoved:     c.Paths.TextRemovedDir,
		types.DirMasking:         c.Paths.MaskingDir,
		types.DirTargets:         c.Paths.TargetImagesDir,
		types.DirCropped:         c.Paths.CroppedDir,
		types.DirTables:          c.Paths.TablesDir,
		types.DirExtractedImages: c.Paths.ExtractedImagesDir,
	}
}

// CreateFileManagers creates the intermediate and temporary file managers for a run
func (c *Config) CreateFileManagers(log *logger.Logger) (*utils.IntermediateManager, *utils.SimpleTempManager) {
	return utils.NewIntermediateManager(c.DirMap(), log), utils.NewSimpleTempManager(log)
}

// ScriptFor returns the script configured for a stage
func (c *Config) ScriptFor(stage types.StageName) string {
	if script, ok := c.Scripts.Stages[stage]; ok && script != "" {
		return script
	}
	return DefaultStageScripts[stage]
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Rasterizer: %s, LogLevel: %s, Verbose: %v, Scripts: %s}",
		c.Rasterizer, c.LogLevel, c.EnableVerbose, c.Scripts.Dir)
}

// expandPaths resolves ~ and environment variables in every configured path
func (c *Config) expandPaths() error {
	for _, binding := range pathBindings(c) {
		if *binding.value == "" {
			continue
		}
		expanded, err := utils.ExpandPath(*binding.value)
		if err != nil {
			return utils.WrapError(err, utils.ErrorTypeConfiguration,
				fmt.Sprintf("failed to expand %s", binding.key))
		}
		*binding.value = expanded
	}
	return nil
}

func resolveHome() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func cloneScripts(in map[types.StageName]string) map[types.StageName]string {
	out := make(map[types.StageName]string, len(in))
	for stage, script := range in {
		out[stage] = script
	}
	return out
}
