package interfaces

import (
	"context"
	"time"

	"github.com/nodewee/picaxe/pkg/types"
)

// Stage is one independently invocable processing step. It reads from
// io.InputDir, writes into io.OutputDir and reports success or failure only.
type Stage interface {
	// Name returns the stage identity used in logs and failures
	Name() types.StageName

	// Run executes the stage synchronously
	Run(ctx context.Context, io StageIO) error
}

// StageIO is everything a stage is told about where to read and write
type StageIO struct {
	Stage types.StageName

	// InputSet is the resolved directory of PDFs for the whole run
	InputSet string

	// InputDir and OutputDir are this stage's contracted locations
	InputDir  string
	OutputDir string

	// Dirs is the full registry of canonical directories, for stages
	// that write side outputs (bounding boxes, masks, tables)
	Dirs map[types.DirKey]string
}

// ProgressObserver is notified around every stage invocation
type ProgressObserver interface {
	StageStarted(index, total int, name types.StageName)
	StageFinished(index, total int, name types.StageName, elapsed time.Duration, err error)
}
