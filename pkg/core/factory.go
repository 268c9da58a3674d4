package core

import (
	"fmt"

	"github.com/nodewee/picaxe/pkg/config"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/stages"
	"github.com/nodewee/picaxe/pkg/types"
)

// StageDescriptor places one stage in the pipeline: what it is, and which
// registry directories it reads and writes
type StageDescriptor struct {
	Name   types.StageName
	Input  types.DirKey
	Output types.DirKey
	Unit   interfaces.Stage
}

// stageLayout is the directory contract of every stage, in execution order
var stageLayout = []struct {
	name   types.StageName
	input  types.DirKey
	output types.DirKey
}{
	{types.StageRasterize, types.DirInput, types.DirPageImages},
	{types.StageCropBorders, types.DirPageImages, types.DirPages},
	{types.StageRemoveTables, types.DirPages, types.DirPagesNoTables},
	{types.StageRemoveText, types.DirPagesNoTables, types.DirTextRemoved},
	{types.StageSelectTargets, types.DirTextRemoved, types.DirTargets},
	{types.StageExtractImages, types.DirTargets, types.DirExtractedImages},
}

// StageFactory builds stage units from configuration
type StageFactory struct {
	config *config.Config
	logger *logger.Logger
}

// NewStageFactory creates a new stage factory
func NewStageFactory(cfg *config.Config, log *logger.Logger) *StageFactory {
	return &StageFactory{
		config: cfg,
		logger: log,
	}
}

// CreateStage creates the unit for one stage. The rasterize stage is served
// in process when the native rasterizer is configured.
func (f *StageFactory) CreateStage(name types.StageName) (interfaces.Stage, error) {
	if _, ok := config.DefaultStageScripts[name]; !ok {
		return nil, fmt.Errorf("unknown stage: %s", name)
	}

	if name == types.StageRasterize && f.config.Rasterizer == types.RasterizerNative {
		f.logger.Debug("Using native rasterizer at %d dpi with %d workers",
			f.config.RasterDPI, f.config.RasterWorkers)
		return stages.NewNativeRasterizer(f.config.RasterDPI, f.config.RasterWorkers, f.logger), nil
	}

	script := f.config.ScriptFor(name)
	f.logger.Debug("Using script %s for stage %s", script, name)
	return stages.NewScriptStage(name, f.config.Scripts.Interpreter, f.config.Scripts.Dir, script, f.logger), nil
}

// CreateDescriptors returns the six descriptors in execution order
func (f *StageFactory) CreateDescriptors() ([]StageDescriptor, error) {
	units := make(map[types.StageName]interfaces.Stage, len(stageLayout))
	for _, layout := range stageLayout {
		unit, err := f.CreateStage(layout.name)
		if err != nil {
			return nil, err
		}
		units[layout.name] = unit
	}
	return BindDescriptors(units)
}

// BindDescriptors lays units out in the fixed stage order. Every stage must
// have a unit.
func BindDescriptors(units map[types.StageName]interfaces.Stage) ([]StageDescriptor, error) {
	descriptors := make([]StageDescriptor, 0, len(stageLayout))
	for _, layout := range stageLayout {
		unit, ok := units[layout.name]
		if !ok || unit == nil {
			return nil, fmt.Errorf("no unit for stage: %s", layout.name)
		}
		descriptors = append(descriptors, StageDescriptor{
			Name:   layout.name,
			Input:  layout.input,
			Output: layout.output,
			Unit:   unit,
		})
	}
	return descriptors, nil
}
