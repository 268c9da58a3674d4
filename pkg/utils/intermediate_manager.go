package utils

import (
	"fmt"
	"os"
	"sync"

	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
)

// IntermediateKeys lists the directories that only live for the duration of
// a run. Final outputs (extracted images, tables) are deliberately absent.
var IntermediateKeys = []types.DirKey{
	types.DirPagesNoTables,
	types.DirPageImages,
	types.DirBoundingBoxes,
	types.DirTextRemoved,
	types.DirMasking,
	types.DirTargets,
	types.DirPages,
	types.DirCropped,
}

// IntermediateManager manages the canonical stage directories
type IntermediateManager struct {
	dirs   map[types.DirKey]string
	mu     sync.RWMutex
	logger *logger.Logger
}

// Ensure IntermediateManager implements IntermediateFileManager interface
var _ interfaces.IntermediateFileManager = (*IntermediateManager)(nil)

// NewIntermediateManager creates a manager over the given key to path mapping
func NewIntermediateManager(dirs map[types.DirKey]string, log *logger.Logger) *IntermediateManager {
	copied := make(map[types.DirKey]string, len(dirs))
	for key, dir := range dirs {
		copied[key] = NormalizePath(dir)
	}

	return &IntermediateManager{
		dirs:   copied,
		logger: log,
	}
}

// Path returns the directory registered under key, or "" when unknown
func (im *IntermediateManager) Path(key types.DirKey) string {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.dirs[key]
}

// Dirs returns a copy of the key to directory mapping
func (im *IntermediateManager) Dirs() map[types.DirKey]string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	copied := make(map[types.DirKey]string, len(im.dirs))
	for key, dir := range im.dirs {
		copied[key] = dir
	}
	return copied
}

// WithInput returns the mapping extended with the resolved input directory
func (im *IntermediateManager) WithInput(inputDir string) map[types.DirKey]string {
	dirs := im.Dirs()
	dirs[types.DirInput] = inputDir
	return dirs
}

// Cleanup removes every intermediate directory that exists
func (im *IntermediateManager) Cleanup() error {
	for _, key := range IntermediateKeys {
		dir := im.Path(key)
		if dir == "" || !Exists(dir) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s directory %s: %w", key, dir, err)
		}
		im.logger.Debug("Removed %s directory: %s", key, dir)
	}
	return nil
}
