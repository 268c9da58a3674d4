package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nodewee/picaxe/pkg/config"
	"github.com/nodewee/picaxe/pkg/constants"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

// Selection is the caller's choice of input set, as given on the command line
type Selection struct {
	File      string
	Bulk      bool
	Sample    bool
	InputDir  string
	OutputDir string
}

// Mode returns the one selection mode s describes. No selection, more than
// one selection, or half a directory pair is a configuration error.
func (s Selection) Mode() (types.SelectionMode, error) {
	hasInput, hasOutput := s.InputDir != "", s.OutputDir != ""
	if hasInput != hasOutput {
		return "", utils.NewConfigurationError(constants.ErrIncompletePair, nil)
	}

	var modes []types.SelectionMode
	if hasInput {
		modes = append(modes, types.SelectionCustomPair)
	}
	if s.Bulk {
		modes = append(modes, types.SelectionBulkSet)
	}
	if s.Sample {
		modes = append(modes, types.SelectionSampleSet)
	}
	if s.File != "" {
		modes = append(modes, types.SelectionSingleFile)
	}

	switch len(modes) {
	case 0:
		return "", utils.NewConfigurationError(constants.ErrNoSelection, nil)
	case 1:
		return modes[0], nil
	default:
		return "", utils.NewConfigurationError(constants.ErrConflictSelection, nil).
			WithContext("modes", modes)
	}
}

// RunConfig is the resolved input of one run. It does not change once the
// first stage starts.
type RunConfig struct {
	Mode      types.SelectionMode
	InputDir  string
	OutputDir string
	TempDir   string

	temp interfaces.TempFileManager
}

// Temporary reports whether the input directory was created for this run
func (rc *RunConfig) Temporary() bool {
	return rc.TempDir != ""
}

// FinalExtractedDir returns <output>/extracted_images, or "" outside custom mode
func (rc *RunConfig) FinalExtractedDir() string {
	if rc.OutputDir == "" {
		return ""
	}
	return filepath.Join(rc.OutputDir, constants.OutputExtractedImagesDir)
}

// FinalTablesDir returns <output>/tables, or "" outside custom mode
func (rc *RunConfig) FinalTablesDir() string {
	if rc.OutputDir == "" {
		return ""
	}
	return filepath.Join(rc.OutputDir, constants.OutputTablesDir)
}

// Release removes the temporary input directory, if any. Safe to call twice.
func (rc *RunConfig) Release() error {
	if rc == nil || rc.temp == nil {
		return nil
	}
	return rc.temp.Cleanup()
}

// WithRelease runs fn and releases the temporary input afterwards, whatever
// fn returns
func (rc *RunConfig) WithRelease(fn func() error) error {
	if rc.temp == nil {
		return fn()
	}
	return rc.temp.WithCleanup(fn)
}

// Resolver turns a Selection into a validated RunConfig
type Resolver struct {
	sampleDir string
	bulkDir   string
	logger    *logger.Logger

	// temp owns a single-file run's temp directory
	temp interfaces.TempFileManager
}

// NewResolver creates a resolver over the sample and bulk directories of cfg.
// Single-file runs copy their input into a directory created by temp.
func NewResolver(cfg *config.Config, temp interfaces.TempFileManager, log *logger.Logger) *Resolver {
	return &Resolver{
		sampleDir: cfg.Paths.SamplePapersDir,
		bulkDir:   cfg.Paths.BulkPapersDir,
		logger:    log,
		temp:      temp,
	}
}

// Resolve determines the input directory for sel and validates it. On error
// nothing created by Resolve is left behind.
func (r *Resolver) Resolve(sel Selection) (*RunConfig, error) {
	mode, err := sel.Mode()
	if err != nil {
		return nil, err
	}

	var rc *RunConfig
	switch mode {
	case types.SelectionCustomPair:
		rc, err = r.resolveCustomPair(sel.InputDir, sel.OutputDir)
	case types.SelectionBulkSet:
		rc = &RunConfig{Mode: mode, InputDir: r.bulkDir}
	case types.SelectionSampleSet:
		rc = &RunConfig{Mode: mode, InputDir: r.sampleDir}
	case types.SelectionSingleFile:
		rc, err = r.resolveSingleFile(sel.File)
	}
	if err != nil {
		return nil, err
	}

	if err := ValidateInputDir(rc.InputDir); err != nil {
		if releaseErr := rc.Release(); releaseErr != nil {
			r.logger.Warn("Failed to release temporary input: %v", releaseErr)
		}
		return nil, err
	}

	r.logger.Debug("Resolved %s input: %s", rc.Mode, rc.InputDir)
	return rc, nil
}

// resolveSingleFile looks for name in the sample directory first, then at
// the literal path, and copies the hit into a fresh temporary directory
func (r *Resolver) resolveSingleFile(name string) (*RunConfig, error) {
	candidates := []string{
		filepath.Join(r.sampleDir, filepath.Base(name)),
		name,
	}

	source := ""
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			source = candidate
			break
		}
	}
	if source == "" {
		return nil, utils.NewNotFoundError(
			fmt.Sprintf("the file %s does not exist in %s or at the provided path", name, r.sampleDir), nil).
			WithContext("searched", candidates)
	}

	temp := r.temp
	tempDir, err := temp.CreateTempDir(constants.GetPlatformConfig().TempDirPrefix)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to create temporary input directory")
	}

	rc := &RunConfig{
		Mode:     types.SelectionSingleFile,
		InputDir: tempDir,
		TempDir:  tempDir,
		temp:     temp,
	}

	if err := utils.CopyFile(source, filepath.Join(tempDir, filepath.Base(source))); err != nil {
		_ = rc.Release()
		return nil, utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to copy input file").
			WithContext("source", source)
	}

	r.logger.Debug("Copied %s into %s", source, tempDir)
	return rc, nil
}

// resolveCustomPair uses inputDir as is and prepares the output layout
func (r *Resolver) resolveCustomPair(inputDir, outputDir string) (*RunConfig, error) {
	rc := &RunConfig{
		Mode:      types.SelectionCustomPair,
		InputDir:  utils.NormalizePath(inputDir),
		OutputDir: utils.NormalizePath(outputDir),
	}

	for _, dir := range []string{rc.FinalExtractedDir(), rc.FinalTablesDir()} {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to create output directory").
				WithContext("path", dir)
		}
	}

	return rc, nil
}

// ValidateInputDir requires dir to exist, be non-empty and hold at least one
// entry whose name ends in .pdf
func ValidateInputDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return utils.NewNoInputError(fmt.Sprintf("no files found in %s", dir), err).
			WithContext("path", dir)
	}

	for _, entry := range entries {
		if utils.HasExtension(entry.Name(), constants.PDFExtension) {
			return nil
		}
	}

	return utils.NewNoInputError("no valid PDF files found", nil).WithContext("path", dir)
}
