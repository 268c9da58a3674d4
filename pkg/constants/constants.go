package constants

// Application constants
const (
	AppName = "picaxe"
	// Note: AppVersion is managed via build-time ldflags injection in main.go
	// Use cmd.GetVersionInfo() to get the current version at runtime
)

// File processing constants
const (
	// Default file permissions
	DefaultFilePermission = 0644
	DefaultDirPermission  = 0755

	// Input validation
	PDFExtension = ".pdf"

	// Script stages
	ScriptExtension = ".py"

	// Native rasterizer
	DefaultRasterDPI     = 200
	DefaultRasterWorkers = 4
	MaxRasterWorkers     = 32
	PageImagePattern     = "%s_page_%d.png"
)

// Environment contract with script stages
const (
	// EnvInputSet carries the resolved input directory into every stage process
	EnvInputSet = "PDF_FILES"

	EnvStageName   = "PICAXE_STAGE"
	EnvStageInput  = "PICAXE_STAGE_INPUT"
	EnvStageOutput = "PICAXE_STAGE_OUTPUT"

	// EnvDirPattern names the variable exporting one intermediate directory
	EnvDirPattern = "PICAXE_%s_DIR"
)

// Custom output layout
const (
	OutputExtractedImagesDir = "extracted_images"
	OutputTablesDir          = "tables"
	IndexFileName            = "index.html"
)

// Error messages
const (
	ErrNoSelection       = "either --file, --bulk, or --sample, or (--input-dir and --output-dir) must be provided"
	ErrConflictSelection = "only one of --file, --bulk, --sample, or (--input-dir and --output-dir) may be provided"
	ErrIncompletePair    = "--input-dir and --output-dir must be provided together"
)

// ImageExtensions lists the artifact types linked from the HTML index
var ImageExtensions = []string{
	"jpg", "jpeg", "png", "gif", "bmp",
	"webp", "tiff", "tif",
}
