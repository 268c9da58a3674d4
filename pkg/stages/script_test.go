package stages

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
)

func requireShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("script stage tests use sh")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func testIO(t *testing.T) interfaces.StageIO {
	t.Helper()
	root := t.TempDir()
	return interfaces.StageIO{
		Stage:     types.StageRemoveTables,
		InputSet:  filepath.Join(root, "pdfs"),
		InputDir:  filepath.Join(root, "pages"),
		OutputDir: filepath.Join(root, "pages_no_tables"),
		Dirs: map[types.DirKey]string{
			types.DirTables:        filepath.Join(root, "tables"),
			types.DirBoundingBoxes: filepath.Join(root, "bounding_boxes"),
		},
	}
}

func TestResolveScriptPath(t *testing.T) {
	tests := []struct {
		script string
		want   string
	}{
		{script: "crop_borders.py", want: filepath.Join("src", "crop_borders.py")},
		{script: "crop_borders", want: filepath.Join("src", "crop_borders.py")},
		{script: "tools/remove_text", want: filepath.Join("src", "tools", "remove_text.py")},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveScriptPath("src", tt.script))
		})
	}
}

func TestStageEnv(t *testing.T) {
	sio := testIO(t)
	env := StageEnv(sio)

	assert.Equal(t, []string{
		"PDF_FILES=" + sio.InputSet,
		"PICAXE_STAGE=remove-tables",
		"PICAXE_STAGE_INPUT=" + sio.InputDir,
		"PICAXE_STAGE_OUTPUT=" + sio.OutputDir,
		"PICAXE_BOUNDING_BOXES_DIR=" + sio.Dirs[types.DirBoundingBoxes],
		"PICAXE_TABLES_DIR=" + sio.Dirs[types.DirTables],
	}, env)
}

func TestScriptStageReceivesEnvironment(t *testing.T) {
	sh := requireShell(t)
	scripts := t.TempDir()
	writeScript(t, scripts, "remove_tables.py",
		`mkdir -p "$PICAXE_STAGE_OUTPUT"
printf '%s\n%s\n%s\n' "$PDF_FILES" "$PICAXE_STAGE" "$PICAXE_TABLES_DIR" > "$PICAXE_STAGE_OUTPUT/env.txt"
echo "stage done"
`)

	sio := testIO(t)
	stage := NewScriptStage(types.StageRemoveTables, sh, scripts, "remove_tables", logger.Discard())
	var stdout, stderr bytes.Buffer
	stage.SetOutput(&stdout, &stderr)

	require.NoError(t, stage.Run(context.Background(), sio))

	data, err := os.ReadFile(filepath.Join(sio.OutputDir, "env.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{sio.InputSet, "remove-tables", sio.Dirs[types.DirTables]}, lines)
	assert.Contains(t, stdout.String(), "stage done")

	// the input set is only passed to the child
	_, set := os.LookupEnv("PDF_FILES")
	assert.False(t, set)
}

func TestScriptStageFailures(t *testing.T) {
	sh := requireShell(t)

	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		want    string
	}{
		{name: "non-zero exit", body: "echo broken >&2\nexit 3\n", want: "exit status 3"},
		{name: "cancelled", body: "exec sleep 5\n", timeout: 100 * time.Millisecond, want: "terminated abnormally"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scripts := t.TempDir()
			writeScript(t, scripts, "stage.py", tt.body)

			stage := NewScriptStage(types.StageCropBorders, sh, scripts, "stage.py", logger.Discard())
			var stderr bytes.Buffer
			stage.SetOutput(&bytes.Buffer{}, &stderr)

			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}

			err := stage.Run(ctx, testIO(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "stage.py")
		})
	}
}

func TestScriptStageMissingScript(t *testing.T) {
	stage := NewScriptStage(types.StageRasterize, "python3", t.TempDir(), "convert_pdfs_to_images", logger.Discard())

	err := stage.Run(context.Background(), testIO(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "convert_pdfs_to_images.py")
	assert.Equal(t, types.StageRasterize, stage.Name())
}
