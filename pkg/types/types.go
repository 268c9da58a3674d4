package types

// SelectionMode identifies how the input set of a run was chosen
type SelectionMode string

const (
	SelectionSingleFile SelectionMode = "single-file"
	SelectionSampleSet  SelectionMode = "sample-set"
	SelectionBulkSet    SelectionMode = "bulk-set"
	SelectionCustomPair SelectionMode = "custom-directory-pair"
)

// StageName identifies one step of the extraction pipeline
type StageName string

const (
	StageRasterize     StageName = "rasterize"
	StageCropBorders   StageName = "crop-borders"
	StageRemoveTables  StageName = "remove-tables"
	StageRemoveText    StageName = "remove-text"
	StageSelectTargets StageName = "select-targets"
	StageExtractImages StageName = "extract-images"
)

// StageOrder is the fixed execution order of the pipeline
var StageOrder = []StageName{
	StageRasterize,
	StageCropBorders,
	StageRemoveTables,
	StageRemoveText,
	StageSelectTargets,
	StageExtractImages,
}

// DirKey names one canonical directory of the registry
type DirKey string

const (
	DirInput           DirKey = "input"            // resolved input set, not owned by the pipeline
	DirPageImages      DirKey = "page_images"      // rasterized pages
	DirPages           DirKey = "pages"            // border-cropped pages
	DirPagesNoTables   DirKey = "pages_no_tables"  // pages with tables masked out
	DirBoundingBoxes   DirKey = "bounding_boxes"   // layout detections
	DirTextRemoved     DirKey = "text_removed"     // pages with text masked out
	DirMasking         DirKey = "masking"          // masks used by text removal
	DirTargets         DirKey = "target_images"    // selected target regions
	DirCropped         DirKey = "cropped"          // cropped region outputs
	DirTables          DirKey = "tables"           // extracted tables
	DirExtractedImages DirKey = "extracted_images" // final figures
)

// RasterizerKind selects the implementation of the rasterize stage
type RasterizerKind string

const (
	RasterizerScript RasterizerKind = "script"
	RasterizerNative RasterizerKind = "native"
)
