package interfaces

import "github.com/nodewee/picaxe/pkg/types"

// FileManager defines the interface for file and directory management
type FileManager interface {
	// Cleanup performs cleanup operations
	Cleanup() error
}

// IntermediateFileManager owns the canonical per-stage directories of a run.
// Nothing namespaces them per run, so two concurrent runs share them.
type IntermediateFileManager interface {
	FileManager

	// Dirs returns a copy of the key to directory mapping
	Dirs() map[types.DirKey]string
}

// TempFileManager manages temporary directories released on every exit path
type TempFileManager interface {
	FileManager

	// CreateTempDir creates a temporary directory
	CreateTempDir(prefix string) (string, error)

	// WithCleanup executes a function with automatic cleanup
	WithCleanup(fn func() error) error
}
