package utils

import (
	"fmt"
	"os"
	"sync"

	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
)

// SimpleTempManager tracks temporary directories created for one run and
// removes them on Cleanup
type SimpleTempManager struct {
	tempDirs []string
	mu       sync.Mutex
	logger   *logger.Logger
}

// Ensure SimpleTempManager implements TempFileManager interface
var _ interfaces.TempFileManager = (*SimpleTempManager)(nil)

// NewSimpleTempManager creates a new temporary file manager
func NewSimpleTempManager(log *logger.Logger) *SimpleTempManager {
	return &SimpleTempManager{
		logger: log,
	}
}

// CreateTempDir creates a temporary directory under the system temp root
func (tm *SimpleTempManager) CreateTempDir(prefix string) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tempDir, err := DefaultPathUtils.CreateTempDir(SanitizeFileName(prefix))
	if err != nil {
		return "", err
	}

	tm.tempDirs = append(tm.tempDirs, tempDir)
	tm.logger.Debug("Created temp directory: %s", tempDir)
	return tempDir, nil
}

// WithCleanup executes a function with automatic cleanup
func (tm *SimpleTempManager) WithCleanup(fn func() error) error {
	defer func() {
		if err := tm.Cleanup(); err != nil {
			tm.logger.Error("Temporary file cleanup failed: %v", err)
		}
	}()
	return fn()
}

// Cleanup cleans up temporary resources. It is safe to call more than once.
func (tm *SimpleTempManager) Cleanup() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var errors []error

	for _, dir := range tm.tempDirs {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			errors = append(errors, fmt.Errorf("failed to remove temp dir %s: %w", dir, err))
			tm.logger.Warn("Failed to remove temporary directory: %s, error: %v", dir, err)
		} else {
			tm.logger.Debug("Removed temporary directory: %s", dir)
		}
	}

	tm.tempDirs = tm.tempDirs[:0]

	if len(errors) > 0 {
		return fmt.Errorf("cleanup failed with %d errors: %v", len(errors), errors)
	}

	return nil
}
