package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/picaxe/pkg/config"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
	"github.com/nodewee/picaxe/pkg/utils"
)

// stubStage records its invocations and leaves a marker in its output
type stubStage struct {
	name   types.StageName
	calls  *[]types.StageName
	seen   *[]interfaces.StageIO
	action func(sio interfaces.StageIO) error
}

func (s *stubStage) Name() types.StageName { return s.name }

func (s *stubStage) Run(ctx context.Context, sio interfaces.StageIO) error {
	*s.calls = append(*s.calls, s.name)
	*s.seen = append(*s.seen, sio)
	if err := os.WriteFile(filepath.Join(sio.OutputDir, string(s.name)+".done"), nil, 0644); err != nil {
		return err
	}
	if s.action != nil {
		return s.action(sio)
	}
	return nil
}

type stubRun struct {
	calls []types.StageName
	seen  []interfaces.StageIO
}

// stubDescriptors mimics a real run: remove-tables writes a table and
// extract-images writes a figure. Overrides replace a stage's action.
func (r *stubRun) descriptors(t *testing.T, overrides map[types.StageName]func(interfaces.StageIO) error) []StageDescriptor {
	t.Helper()

	actions := map[types.StageName]func(interfaces.StageIO) error{
		types.StageRemoveTables: func(sio interfaces.StageIO) error {
			dir := sio.Dirs[types.DirTables]
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(dir, "table_1.png"), []byte("table"), 0644)
		},
		types.StageExtractImages: func(sio interfaces.StageIO) error {
			return os.WriteFile(filepath.Join(sio.OutputDir, "figure_1.png"), []byte("figure"), 0644)
		},
	}
	for name, action := range overrides {
		actions[name] = action
	}

	units := make(map[types.StageName]interfaces.Stage)
	for _, name := range types.StageOrder {
		units[name] = &stubStage{name: name, calls: &r.calls, seen: &r.seen, action: actions[name]}
	}

	descriptors, err := BindDescriptors(units)
	require.NoError(t, err)
	return descriptors
}

func intermediateDirs(cfg *config.Config) []string {
	dirs := cfg.DirMap()
	paths := make([]string, 0, len(utils.IntermediateKeys))
	for _, key := range utils.IntermediateKeys {
		paths = append(paths, dirs[key])
	}
	return paths
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "a.pdf"), "x")

	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	result, err := p.Run(context.Background(), Selection{Sample: true})
	require.NoError(t, err)

	assert.Equal(t, types.StageOrder, run.calls)
	require.Len(t, run.seen, 6)

	dirs := cfg.DirMap()
	assert.Equal(t, cfg.Paths.SamplePapersDir, run.seen[0].InputDir)
	assert.Equal(t, dirs[types.DirPageImages], run.seen[0].OutputDir)
	assert.Equal(t, dirs[types.DirPageImages], run.seen[1].InputDir)
	assert.Equal(t, dirs[types.DirExtractedImages], run.seen[5].OutputDir)
	for _, sio := range run.seen {
		assert.Equal(t, cfg.Paths.SamplePapersDir, sio.InputSet)
		assert.Equal(t, cfg.Paths.SamplePapersDir, sio.Dirs[types.DirInput])
	}

	assert.Equal(t, cfg.Paths.ExtractedImagesDir, result.ExtractedDir)
	assert.Empty(t, result.IndexPath)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "a.pdf"), "x")
	logFile := filepath.Join(cfg.Paths.LogDir, "run.json")
	writeFile(t, logFile, "{}")

	run := &stubRun{}
	descriptors := run.descriptors(t, map[types.StageName]func(interfaces.StageIO) error{
		types.StageRemoveTables: func(interfaces.StageIO) error { return errors.New("model crashed") },
	})
	p := NewPipeline(cfg, descriptors, logger.Discard())

	_, err := p.Run(context.Background(), Selection{Sample: true})
	require.Error(t, err)

	assert.Equal(t, utils.ErrorTypeStageFailure, utils.GetErrorType(err))
	assert.Contains(t, err.Error(), string(types.StageRemoveTables))
	assert.Contains(t, err.Error(), "model crashed")
	assert.Len(t, run.calls, 3)

	// failed runs keep their state for inspection
	assert.FileExists(t, logFile)
	assert.DirExists(t, cfg.Paths.PageImagesDir)
	assert.NoDirExists(t, cfg.Paths.ExtractedImagesDir)
}

func TestPipelineNoInputLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *config.Config)
	}{
		{name: "missing sample dir", setup: func(t *testing.T, cfg *config.Config) {}},
		{name: "empty sample dir", setup: func(t *testing.T, cfg *config.Config) {
			require.NoError(t, os.MkdirAll(cfg.Paths.SamplePapersDir, 0755))
		}},
		{name: "no pdf in sample dir", setup: func(t *testing.T, cfg *config.Config) {
			writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "b.txt"), "x")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			tt.setup(t, cfg)
			logFile := filepath.Join(cfg.Paths.LogDir, "previous.json")
			writeFile(t, logFile, "{}")
			stale := filepath.Join(cfg.Paths.PagesDir, "page.png")
			writeFile(t, stale, "x")

			run := &stubRun{}
			p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

			_, err := p.Run(context.Background(), Selection{Sample: true})
			require.Error(t, err)
			assert.Equal(t, utils.ErrorTypeNoInput, utils.GetErrorType(err))
			assert.Empty(t, run.calls)
			assert.FileExists(t, logFile)
			assert.FileExists(t, stale)
		})
	}
}

func TestPipelineConfigurationErrorRunsNothing(t *testing.T) {
	cfg := newTestConfig(t)
	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	_, err := p.Run(context.Background(), Selection{Sample: true, Bulk: true})
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeConfiguration, utils.GetErrorType(err))
	assert.Empty(t, run.calls)
}

func TestConsolidateIsIdempotent(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.TablesDir, "table_1.png"), "new")
	writeFile(t, filepath.Join(cfg.Paths.TablesDir, "table_2.png"), "two")
	writeFile(t, filepath.Join(cfg.Paths.TablesDir, "nested", "skip.png"), "x")
	writeFile(t, filepath.Join(cfg.Paths.ExtractedImagesDir, "table_1.png"), "old")
	writeFile(t, filepath.Join(cfg.Paths.ExtractedImagesDir, "figure.png"), "fig")

	p := NewPipeline(cfg, nil, logger.Discard())

	snapshot := func() map[string]string {
		entries, err := os.ReadDir(cfg.Paths.ExtractedImagesDir)
		require.NoError(t, err)
		out := make(map[string]string)
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(cfg.Paths.ExtractedImagesDir, e.Name()))
			require.NoError(t, err)
			out[e.Name()] = string(data)
		}
		return out
	}

	require.NoError(t, p.consolidate())
	once := snapshot()
	require.NoError(t, p.consolidate())
	twice := snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, map[string]string{
		"figure.png":  "fig",
		"table_1.png": "new",
		"table_2.png": "two",
	}, once)
}

func TestPipelineReleasesTempDir(t *testing.T) {
	tests := []struct {
		name    string
		fail    bool
		wantErr bool
	}{
		{name: "success"},
		{name: "stage failure", fail: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "report.pdf"), "x")

			overrides := map[types.StageName]func(interfaces.StageIO) error{}
			if tt.fail {
				overrides[types.StageCropBorders] = func(interfaces.StageIO) error { return errors.New("boom") }
			}

			run := &stubRun{}
			p := NewPipeline(cfg, run.descriptors(t, overrides), logger.Discard())

			_, err := p.Run(context.Background(), Selection{File: "report.pdf"})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.NotEmpty(t, run.seen)
			tempDir := run.seen[0].InputSet
			assert.NotEqual(t, cfg.Paths.SamplePapersDir, tempDir)
			assert.NoDirExists(t, tempDir)
			assert.FileExists(t, filepath.Join(cfg.Paths.SamplePapersDir, "report.pdf"))
		})
	}
}

func TestPipelineSingleFileEndToEnd(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "report.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(cfg.Paths.LogDir, "old.json"), "{}")
	writeFile(t, filepath.Join(cfg.Paths.LogDir, "stage.log"), "x")

	run := &stubRun{}
	var seenInput []string
	descriptors := run.descriptors(t, map[types.StageName]func(interfaces.StageIO) error{
		types.StageRasterize: func(sio interfaces.StageIO) error {
			names, err := utils.ListPDFs(sio.InputDir)
			seenInput = names
			return err
		},
	})
	p := NewPipeline(cfg, descriptors, logger.Discard())

	result, err := p.Run(context.Background(), Selection{File: "report.pdf"})
	require.NoError(t, err)

	assert.Equal(t, types.SelectionSingleFile, result.Mode)
	assert.Equal(t, []string{"report.pdf"}, seenInput)
	assert.Len(t, run.calls, 6)

	assert.FileExists(t, filepath.Join(cfg.Paths.ExtractedImagesDir, "figure_1.png"))
	assert.FileExists(t, filepath.Join(cfg.Paths.ExtractedImagesDir, "table_1.png"))
	assert.FileExists(t, filepath.Join(cfg.Paths.TablesDir, "table_1.png"))

	logs, err := os.ReadDir(cfg.Paths.LogDir)
	require.NoError(t, err)
	assert.Empty(t, logs)
	for _, dir := range intermediateDirs(cfg) {
		assert.NoDirExists(t, dir)
	}
}

func TestPipelineDirectoryPairEndToEnd(t *testing.T) {
	cfg := newTestConfig(t)
	input := filepath.Join(t.TempDir(), "X")
	output := filepath.Join(t.TempDir(), "Y")
	writeFile(t, filepath.Join(input, "one.pdf"), "x")
	writeFile(t, filepath.Join(input, "two.pdf"), "x")

	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	result, err := p.Run(context.Background(), Selection{InputDir: input, OutputDir: output})
	require.NoError(t, err)

	finalImages := filepath.Join(output, "extracted_images")
	finalTables := filepath.Join(output, "tables")
	assert.Equal(t, finalImages, result.ExtractedDir)
	assert.Equal(t, finalTables, result.TablesDir)

	assert.FileExists(t, filepath.Join(finalImages, "figure_1.png"))
	assert.FileExists(t, filepath.Join(finalImages, "table_1.png"))
	assert.FileExists(t, filepath.Join(finalTables, "table_1.png"))

	assert.NoDirExists(t, cfg.Paths.ExtractedImagesDir)
	assert.NoDirExists(t, cfg.Paths.TablesDir)
	for _, dir := range intermediateDirs(cfg) {
		assert.NoDirExists(t, dir)
	}
	assert.FileExists(t, filepath.Join(input, "one.pdf"))
}

func TestPipelineOutputDirIsDataRoot(t *testing.T) {
	cfg := newTestConfig(t)
	input := filepath.Join(t.TempDir(), "X")
	writeFile(t, filepath.Join(input, "one.pdf"), "x")
	output := filepath.Dir(cfg.Paths.ExtractedImagesDir)

	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	result, err := p.Run(context.Background(), Selection{InputDir: input, OutputDir: output})
	require.NoError(t, err)

	assert.Equal(t, cfg.Paths.ExtractedImagesDir, result.ExtractedDir)
	figure, err := os.ReadFile(filepath.Join(result.ExtractedDir, "figure_1.png"))
	require.NoError(t, err)
	assert.Equal(t, "figure", string(figure))
	assert.FileExists(t, filepath.Join(result.ExtractedDir, "table_1.png"))
	assert.FileExists(t, filepath.Join(result.TablesDir, "table_1.png"))
}

func TestPipelineRejectsNestedOutputDir(t *testing.T) {
	cfg := newTestConfig(t)
	input := filepath.Join(t.TempDir(), "X")
	writeFile(t, filepath.Join(input, "one.pdf"), "x")

	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	_, err := p.Run(context.Background(), Selection{InputDir: input, OutputDir: cfg.Paths.ExtractedImagesDir})
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeUnexpected, utils.GetErrorType(err))
	assert.Contains(t, err.Error(), "one directory contains the other")

	assert.FileExists(t, filepath.Join(cfg.Paths.ExtractedImagesDir, "figure_1.png"))
	assert.FileExists(t, filepath.Join(cfg.Paths.TablesDir, "table_1.png"))
}

func TestPipelineWritesIndex(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.WriteIndex = true
	writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "a.pdf"), "x")

	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	result, err := p.Run(context.Background(), Selection{Sample: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.Paths.ExtractedImagesDir, "index.html"), result.IndexPath)
	data, err := os.ReadFile(result.IndexPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `href="figure_1.png"`)
	assert.Contains(t, string(data), `href="table_1.png"`)
}

type recordingObserver struct {
	started  []int
	finished []error
}

func (o *recordingObserver) StageStarted(index, total int, name types.StageName) {
	o.started = append(o.started, index)
}

func (o *recordingObserver) StageFinished(index, total int, name types.StageName, _ time.Duration, err error) {
	o.finished = append(o.finished, err)
}

func TestPipelineNotifiesObserver(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "a.pdf"), "x")

	run := &stubRun{}
	descriptors := run.descriptors(t, map[types.StageName]func(interfaces.StageIO) error{
		types.StageRemoveText: func(interfaces.StageIO) error { return errors.New("boom") },
	})
	p := NewPipeline(cfg, descriptors, logger.Discard())
	observer := &recordingObserver{}
	p.SetObserver(observer)

	_, err := p.Run(context.Background(), Selection{Sample: true})
	require.Error(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, observer.started)
	require.Len(t, observer.finished, 4)
	assert.NoError(t, observer.finished[2])
	assert.Error(t, observer.finished[3])
}

func TestPipelineCancelledContext(t *testing.T) {
	cfg := newTestConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.SamplePapersDir, "a.pdf"), "x")

	run := &stubRun{}
	p := NewPipeline(cfg, run.descriptors(t, nil), logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Selection{Sample: true})
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeStageFailure, utils.GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, run.calls)
}
