package core

import (
	"context"
	"fmt"
	"time"

	"github.com/nodewee/picaxe/pkg/config"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/report"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

// RunResult describes a successful run
type RunResult struct {
	Mode         types.SelectionMode
	InputDir     string
	ExtractedDir string
	TablesDir    string
	IndexPath    string
	Elapsed      time.Duration
}

// Minutes returns the stage runtime in minutes
func (r *RunResult) Minutes() float64 {
	return r.Elapsed.Minutes()
}

// Pipeline runs the six stages over one resolved input set and publishes
// the artifacts
type Pipeline struct {
	descriptors   []StageDescriptor
	resolver      *Resolver
	runner        *StageRunner
	intermediates *utils.IntermediateManager
	cleanup       *CleanupManager
	observer      interfaces.ProgressObserver
	extractedDir  string
	tablesDir     string
	writeIndex    bool
	logger        *logger.Logger
}

// NewPipeline creates a pipeline over the registry of cfg
func NewPipeline(cfg *config.Config, descriptors []StageDescriptor, log *logger.Logger) *Pipeline {
	intermediates, temp := cfg.CreateFileManagers(log)
	dirs := intermediates.Dirs()

	return &Pipeline{
		descriptors:   descriptors,
		resolver:      NewResolver(cfg, temp, log),
		runner:        NewStageRunner(log),
		intermediates: intermediates,
		cleanup:       NewCleanupManager(cfg.Paths.LogDir, intermediates, log),
		observer:      noopObserver{},
		extractedDir:  dirs[types.DirExtractedImages],
		tablesDir:     dirs[types.DirTables],
		writeIndex:    cfg.WriteIndex,
		logger:        log,
	}
}

// SetObserver sets the progress observer notified around every stage
func (p *Pipeline) SetObserver(observer interfaces.ProgressObserver) {
	if observer == nil {
		observer = noopObserver{}
	}
	p.observer = observer
}

// Run resolves sel and executes the whole run. The temporary input, if any,
// is gone by the time Run returns, whatever the outcome. Log and
// intermediate directories are only cleaned after a full success.
func (p *Pipeline) Run(ctx context.Context, sel Selection) (*RunResult, error) {
	rc, err := p.resolver.Resolve(sel)
	if err != nil {
		return nil, err
	}

	var result *RunResult
	err = rc.WithRelease(func() error {
		var runErr error
		result, runErr = p.execute(ctx, rc)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// execute runs the stages over a resolved input and publishes the artifacts
func (p *Pipeline) execute(ctx context.Context, rc *RunConfig) (*RunResult, error) {
	start := time.Now()

	if err := p.runStages(ctx, rc); err != nil {
		return nil, err
	}

	if err := p.consolidate(); err != nil {
		return nil, err
	}

	result := &RunResult{
		Mode:         rc.Mode,
		InputDir:     rc.InputDir,
		ExtractedDir: p.extractedDir,
		TablesDir:    p.tablesDir,
	}

	if rc.Mode == types.SelectionCustomPair {
		if err := p.relocate(rc); err != nil {
			return nil, err
		}
		result.ExtractedDir = rc.FinalExtractedDir()
		result.TablesDir = rc.FinalTablesDir()
	}

	if err := p.cleanup.Cleanup(); err != nil {
		return nil, err
	}

	if p.writeIndex {
		path, err := report.WriteIndex(result.ExtractedDir, "Extracted images")
		if err != nil {
			return nil, utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to write artifact index")
		}
		result.IndexPath = path
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// runStages invokes every descriptor in order and stops at the first failure
func (p *Pipeline) runStages(ctx context.Context, rc *RunConfig) error {
	dirs := p.intermediates.WithInput(rc.InputDir)
	total := len(p.descriptors)

	for i, d := range p.descriptors {
		if err := ctx.Err(); err != nil {
			return utils.NewStageFailureError(string(d.Name), err)
		}

		sio := interfaces.StageIO{
			Stage:     d.Name,
			InputSet:  rc.InputDir,
			InputDir:  dirs[d.Input],
			OutputDir: dirs[d.Output],
			Dirs:      dirs,
		}

		p.observer.StageStarted(i+1, total, d.Name)
		stageStart := time.Now()
		err := p.runner.Run(ctx, d.Unit, sio)
		p.observer.StageFinished(i+1, total, d.Name, time.Since(stageStart), err)

		if err != nil {
			return err
		}
	}

	return nil
}

// consolidate copies the table outputs next to the extracted images. A
// file already present under the same name is overwritten.
func (p *Pipeline) consolidate() error {
	copied, err := utils.CopyRegularFiles(p.tablesDir, p.extractedDir)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to add tables to extracted images").
			WithContext("tables", p.tablesDir)
	}
	p.logger.Debug("Copied %d table files into %s", copied, p.extractedDir)
	return nil
}

// relocate moves the canonical outputs under the caller's output directory.
// An output that already is its destination stays where it is.
func (p *Pipeline) relocate(rc *RunConfig) error {
	moves := []struct{ src, dst string }{
		{p.extractedDir, rc.FinalExtractedDir()},
		{p.tablesDir, rc.FinalTablesDir()},
	}

	for _, move := range moves {
		if !utils.Exists(move.src) || utils.SamePath(move.src, move.dst) {
			continue
		}
		if utils.PathContains(move.src, move.dst) || utils.PathContains(move.dst, move.src) {
			return utils.NewUnexpectedError(
				fmt.Sprintf("cannot move %s to %s: one directory contains the other", move.src, move.dst), nil).
				WithContext("output", rc.OutputDir)
		}
		if err := utils.MoveTree(move.src, move.dst); err != nil {
			return utils.WrapError(err, utils.ErrorTypeUnexpected,
				fmt.Sprintf("failed to move %s to %s", move.src, move.dst))
		}
		p.logger.Debug("Moved %s to %s", move.src, move.dst)
	}

	return nil
}

type noopObserver struct{}

func (noopObserver) StageStarted(int, int, types.StageName) {}

func (noopObserver) StageFinished(int, int, types.StageName, time.Duration, error) {}
