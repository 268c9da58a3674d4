package stages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nodewee/picaxe/pkg/constants"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
)

// waitDelay bounds how long output copying may outlive a killed script
const waitDelay = 10 * time.Second

// ScriptStage runs one external stage script as a child process
type ScriptStage struct {
	name        types.StageName
	interpreter string
	scriptPath  string
	stdout      io.Writer
	stderr      io.Writer
	logger      *logger.Logger
}

// Ensure ScriptStage implements Stage interface
var _ interfaces.Stage = (*ScriptStage)(nil)

// NewScriptStage creates a stage running <interpreter> <scriptsDir>/<script>
func NewScriptStage(name types.StageName, interpreter, scriptsDir, script string, log *logger.Logger) *ScriptStage {
	return &ScriptStage{
		name:        name,
		interpreter: interpreter,
		scriptPath:  ResolveScriptPath(scriptsDir, script),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      log,
	}
}

// ResolveScriptPath joins dir and script, appending .py when the script has
// no such suffix
func ResolveScriptPath(dir, script string) string {
	path := filepath.Join(dir, script)
	if !strings.HasSuffix(path, constants.ScriptExtension) {
		path += constants.ScriptExtension
	}
	return path
}

// SetOutput redirects the child process streams
func (s *ScriptStage) SetOutput(stdout, stderr io.Writer) {
	s.stdout = stdout
	s.stderr = stderr
}

// Name returns the stage name
func (s *ScriptStage) Name() types.StageName {
	return s.name
}

// ScriptPath returns the resolved script location
func (s *ScriptStage) ScriptPath() string {
	return s.scriptPath
}

// Run executes the script and waits for it. A non-zero exit status or a
// signal is returned as an error.
func (s *ScriptStage) Run(ctx context.Context, sio interfaces.StageIO) error {
	if _, err := os.Stat(s.scriptPath); err != nil {
		return fmt.Errorf("stage script not found: %s: %w", s.scriptPath, err)
	}

	cmd := exec.CommandContext(ctx, s.interpreter, s.scriptPath)
	cmd.Env = append(os.Environ(), StageEnv(sio)...)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	cmd.WaitDelay = waitDelay

	s.logger.Debug("Running stage command: %s", cmd.String())
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s terminated abnormally (%s): %w",
			filepath.Base(s.scriptPath), exitErr.ProcessState.String(), err)
	}
	return fmt.Errorf("failed to start %s: %w", filepath.Base(s.scriptPath), err)
}

// StageEnv returns the environment entries handed to a stage process. It
// is the only channel carrying the input set to script stages.
func StageEnv(sio interfaces.StageIO) []string {
	env := []string{
		constants.EnvInputSet + "=" + sio.InputSet,
		constants.EnvStageName + "=" + string(sio.Stage),
		constants.EnvStageInput + "=" + sio.InputDir,
		constants.EnvStageOutput + "=" + sio.OutputDir,
	}

	keys := make([]string, 0, len(sio.Dirs))
	for key := range sio.Dirs {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := fmt.Sprintf(constants.EnvDirPattern, strings.ToUpper(key))
		env = append(env, name+"="+sio.Dirs[types.DirKey(key)])
	}
	return env
}
