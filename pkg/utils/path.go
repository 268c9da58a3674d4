package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nodewee/picaxe/pkg/constants"
)

// PathUtils provides cross-platform path utilities
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath normalizes a path for the current platform
func (p *PathUtils) NormalizePath(path string) string {
	// Clean the path and convert to platform-appropriate separators
	cleaned := filepath.Clean(path)

	// On Windows, ensure proper drive letter formatting
	if constants.IsWindows() && len(cleaned) >= 2 && cleaned[1] == ':' {
		if cleaned[0] >= 'a' && cleaned[0] <= 'z' {
			cleaned = strings.ToUpper(string(cleaned[0])) + cleaned[1:]
		}
	}

	return cleaned
}

// GetAbsolutePath returns the absolute path, handling cross-platform differences
func (p *PathUtils) GetAbsolutePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return p.NormalizePath(absPath), nil
}

// EnsureDir creates a directory if it doesn't exist
func (p *PathUtils) EnsureDir(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("directory path cannot be empty")
	}
	return os.MkdirAll(p.NormalizePath(dirPath), constants.DefaultDirPermission)
}

// GetTempDir returns a platform-appropriate temporary directory
func (p *PathUtils) GetTempDir() string {
	tempDir := os.TempDir()
	if tempDir == "" {
		return constants.GetDefaultTempDir()
	}
	return p.NormalizePath(tempDir)
}

// CreateTempDir creates a temporary directory with a platform-appropriate name
func (p *PathUtils) CreateTempDir(prefix string) (string, error) {
	fullPrefix := prefix
	if fullPrefix == "" {
		fullPrefix = constants.GetPlatformConfig().TempDirPrefix
	}
	if !strings.HasSuffix(fullPrefix, "-") {
		fullPrefix += "-"
	}

	dir, err := os.MkdirTemp(p.GetTempDir(), fullPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	return p.NormalizePath(dir), nil
}

// ExpandPath expands environment variables and user home directory in path
func (p *PathUtils) ExpandPath(path string) (string, error) {
	expanded := os.ExpandEnv(path)

	if strings.HasPrefix(expanded, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}

		if expanded == "~" {
			expanded = homeDir
		} else if strings.HasPrefix(expanded, "~/") {
			expanded = filepath.Join(homeDir, expanded[2:])
		}
	}

	return p.NormalizePath(expanded), nil
}

// SanitizeFileName sanitizes a filename for the current platform
func (p *PathUtils) SanitizeFileName(filename string) string {
	sanitized := filename

	if constants.IsWindows() {
		invalidChars := []string{"<", ">", ":", "\"", "/", "\\", "|", "?", "*"}
		for _, char := range invalidChars {
			sanitized = strings.ReplaceAll(sanitized, char, "_")
		}
		sanitized = strings.TrimRight(sanitized, ". ")
	} else {
		sanitized = strings.ReplaceAll(sanitized, "/", "_")
		sanitized = strings.ReplaceAll(sanitized, "\x00", "_")
	}

	if strings.TrimSpace(sanitized) == "" {
		sanitized = "unnamed_file"
	}

	return sanitized
}

// SamePath reports whether two paths point at the same location after cleaning
func (p *PathUtils) SamePath(a, b string) bool {
	absA, errA := p.GetAbsolutePath(a)
	absB, errB := p.GetAbsolutePath(b)
	if errA != nil || errB != nil {
		return p.NormalizePath(a) == p.NormalizePath(b)
	}
	return absA == absB
}

// PathContains reports whether child lies strictly inside parent
func (p *PathUtils) PathContains(parent, child string) bool {
	absParent, errP := p.GetAbsolutePath(parent)
	absChild, errC := p.GetAbsolutePath(child)
	if errP != nil || errC != nil {
		absParent, absChild = p.NormalizePath(parent), p.NormalizePath(child)
	}
	rel, err := filepath.Rel(absParent, absChild)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Global instance for easy access
var DefaultPathUtils = NewPathUtils()

// Convenience functions that use the default instance

func NormalizePath(path string) string {
	return DefaultPathUtils.NormalizePath(path)
}

func EnsureDir(dirPath string) error {
	return DefaultPathUtils.EnsureDir(dirPath)
}

func ExpandPath(path string) (string, error) {
	return DefaultPathUtils.ExpandPath(path)
}

func SanitizeFileName(filename string) string {
	return DefaultPathUtils.SanitizeFileName(filename)
}

func SamePath(a, b string) bool {
	return DefaultPathUtils.SamePath(a, b)
}

func PathContains(parent, child string) bool {
	return DefaultPathUtils.PathContains(parent, child)
}
