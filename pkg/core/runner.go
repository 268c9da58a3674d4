package core

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/utils"
)

// StageRunner invokes one stage and waits for it
type StageRunner struct {
	logger *logger.Logger
}

// NewStageRunner creates a stage runner
func NewStageRunner(log *logger.Logger) *StageRunner {
	return &StageRunner{logger: log}
}

// Run executes stage against sio. Whatever the stage leaves in its output
// directory is accepted as is; any error or panic becomes a stage failure.
func (r *StageRunner) Run(ctx context.Context, stage interfaces.Stage, sio interfaces.StageIO) (err error) {
	name := string(stage.Name())
	log := r.logger.WithStage(name)

	if sio.OutputDir != "" {
		if mkErr := utils.EnsureDir(sio.OutputDir); mkErr != nil {
			return utils.NewStageFailureError(name, mkErr)
		}
	}

	defer func() {
		if p := recover(); p != nil {
			log.Debug("Stage panic stack: %s", debug.Stack())
			err = utils.NewStageFailureError(name, fmt.Errorf("panic: %v", p))
		}
	}()

	log.Debug("Stage input: %s, output: %s", sio.InputDir, sio.OutputDir)
	if runErr := stage.Run(ctx, sio); runErr != nil {
		log.Error("Stage failed: %v", runErr)
		if utils.GetErrorType(runErr) == utils.ErrorTypeStageFailure {
			return runErr
		}
		return utils.NewStageFailureError(name, runErr)
	}

	return nil
}
