package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Version information variables - set by main.go
var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
	buildBy   = "unknown"
)

// SetVersionInfo sets the version information from main.go
func SetVersionInfo(v, commit, buildTimeParam, buildByParam string) {
	version = v
	gitCommit = commit
	buildTime = buildTimeParam
	buildBy = buildByParam
}

// GetVersionInfo returns the current version information
func GetVersionInfo() (string, string, string, string) {
	return version, gitCommit, buildTime, buildBy
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: "Show build and runtime information of picaxe.\n\n" +
			"Version Information:\n" +
			"- Version\n" +
			"- Git Commit\n" +
			"- Build Time\n" +
			"- Built By\n" +
			"- Go Version\n" +
			"- OS/Architecture",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			showVersionInfo(cmd.OutOrStdout())
		},
	}
}

// showVersionInfo displays comprehensive version information
func showVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "⛏️  picaxe\n")
	fmt.Fprintf(w, "==========\n\n")

	// Application information
	fmt.Fprintf(w, "🔖 Version Information:\n")
	fmt.Fprintf(w, "  Version:     %s\n", version)
	fmt.Fprintf(w, "  Git Commit:  %s\n", gitCommit)
	fmt.Fprintf(w, "  Build Time:  %s\n", buildTime)
	fmt.Fprintf(w, "  Built By:    %s\n", buildBy)
	fmt.Fprintf(w, "\n")

	// Runtime information
	fmt.Fprintf(w, "⚙️ Runtime Information:\n")
	fmt.Fprintf(w, "  Go Version:  %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  Compiler:    %s\n", runtime.Compiler)
	fmt.Fprintf(w, "\n")

	if version != "dev" && !strings.Contains(version, "dev") && !strings.Contains(version, "+") {
		fmt.Fprintf(w, "🚀 This is a release build\n")
	} else {
		fmt.Fprintf(w, "🔧 This is a development build\n")
	}
}
