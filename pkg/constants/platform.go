package constants

import (
	"os/exec"
	"runtime"
)

// PlatformConfig holds platform-specific defaults for stage execution
type PlatformConfig struct {
	InterpreterCandidates []string
	TempDirPrefix         string
}

// GetPlatformConfig returns platform-specific configuration
func GetPlatformConfig() *PlatformConfig {
	switch runtime.GOOS {
	case "windows":
		return &PlatformConfig{
			InterpreterCandidates: []string{"python.exe", "py.exe", "python3.exe"},
			TempDirPrefix:         "picaxe-",
		}
	case "darwin":
		return &PlatformConfig{
			InterpreterCandidates: []string{
				"python3",
				"/opt/homebrew/bin/python3",
				"/usr/local/bin/python3",
				"python",
			},
			TempDirPrefix: "picaxe-",
		}
	default: // Linux and other Unix-like systems
		return &PlatformConfig{
			InterpreterCandidates: []string{"python3", "/usr/bin/python3", "python"},
			TempDirPrefix:         "picaxe-",
		}
	}
}

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

// DetectInterpreter returns the first interpreter candidate found in PATH,
// or the first candidate when none is installed.
func DetectInterpreter() string {
	candidates := GetPlatformConfig().InterpreterCandidates
	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return candidates[0]
}

// GetDefaultTempDir returns the fallback temporary directory for the platform
func GetDefaultTempDir() string {
	if IsWindows() {
		return "C:\\Windows\\Temp"
	}
	return "/tmp"
}
