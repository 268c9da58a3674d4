package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nodewee/picaxe/pkg/config"
	"github.com/nodewee/picaxe/pkg/core"
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/ui"
	"github.com/nodewee/picaxe/pkg/utils"
)

// rootOptions holds the flags of one command invocation
type rootOptions struct {
	file       string
	bulk       bool
	sample     bool
	inputDir   string
	outputDir  string
	configPath string
	verbose    bool
	logLevel   string
	index      bool
}

func (o *rootOptions) selection() core.Selection {
	return core.Selection{
		File:      o.file,
		Bulk:      o.bulk,
		Sample:    o.sample,
		InputDir:  o.inputDir,
		OutputDir: o.outputDir,
	}
}

// AppHandler encapsulates application main processing logic
type AppHandler struct {
	opts   *rootOptions
	config *config.Config
	logger *logger.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewAppHandler creates an application handler
func NewAppHandler(opts *rootOptions, stdout, stderr io.Writer) *AppHandler {
	return &AppHandler{
		opts:   opts,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run executes one extraction run
func (h *AppHandler) Run(ctx context.Context) error {
	sel := h.opts.selection()
	if _, err := sel.Mode(); err != nil {
		return err
	}

	if err := h.initialize(); err != nil {
		return err
	}

	factory := core.NewStageFactory(h.config, h.logger)
	descriptors, err := factory.CreateDescriptors()
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeConfiguration, "failed to build pipeline")
	}

	pipeline := core.NewPipeline(h.config, descriptors, h.logger)
	pipeline.SetObserver(h.observer(len(descriptors)))

	h.logger.Info("Starting extraction with %s", h.config)
	result, err := pipeline.Run(ctx, sel)
	if err != nil {
		return err
	}

	h.displayResults(result)
	return nil
}

// initialize loads configuration and creates the logger
func (h *AppHandler) initialize() error {
	cfg, err := config.Load(h.opts.configPath)
	if err != nil {
		return err
	}
	h.config = cfg
	h.applyCommandLineOverrides()

	if err := h.config.Validate(); err != nil {
		return err
	}

	h.logger = logger.NewLoggerWithWriter(h.stderr, h.config.LogLevel, h.config.EnableVerbose)
	return nil
}

// applyCommandLineOverrides applies command line parameter overrides
func (h *AppHandler) applyCommandLineOverrides() {
	if h.opts.logLevel != "" {
		h.config.LogLevel = h.opts.logLevel
	}
	if h.opts.verbose {
		h.config.EnableVerbose = true
	}
	if h.opts.index {
		h.config.WriteIndex = true
	}
}

func (h *AppHandler) observer(total int) interfaces.ProgressObserver {
	if h.config.EnableVerbose {
		return ui.NewStageLog(h.logger)
	}
	return ui.NewStageBar(h.stderr, total)
}

// displayResults displays run results
func (h *AppHandler) displayResults(result *core.RunResult) {
	ui.Message(h.stdout, "")
	ui.Success(h.stdout, "Extraction completed successfully.")
	ui.Message(h.stdout, "📁 Extracted images: %s", result.ExtractedDir)
	ui.Message(h.stdout, "📁 Tables: %s", result.TablesDir)
	if result.IndexPath != "" {
		ui.Message(h.stdout, "📄 Index: %s", result.IndexPath)
	}
	ui.Message(h.stdout, "")
	ui.Message(h.stdout, "Runtime: %.2f minutes", result.Minutes())
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "picaxe",
		Short: "Extract figures and tables from scientific PDFs",
		Long: `picaxe runs a fixed six-stage image pipeline over a set of PDF files:
rasterize, crop borders, remove tables, remove text, select targets and
extract images. Extracted figures and tables end up in the extracted images
directory, or under --output-dir when a directory pair is given.

Exactly one input selection is required:
  --file <name>                      a single PDF; looked up in the sample directory first
  --sample                           every PDF of the sample directory
  --bulk                             every PDF of the bulk directory
  --input-dir <dir> --output-dir <dir>  a custom directory pair

Examples:
  picaxe --file report.pdf                       # Process one paper
  picaxe --sample -v                             # Process the sample set with verbose output
  picaxe --bulk --index                          # Process the bulk set and write index.html
  picaxe --input-dir ./papers --output-dir ./out # Process ./papers into ./out
  picaxe config list                             # Show the directory registry`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := NewAppHandler(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return handler.Run(cmd.Context())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.file, "file", "", "Name of a single PDF file to process")
	flags.BoolVar(&opts.bulk, "bulk", false, "Process every PDF of the bulk directory")
	flags.BoolVar(&opts.sample, "sample", false, "Process every PDF of the sample directory")
	flags.StringVar(&opts.inputDir, "input-dir", "", "Directory containing PDF files")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory for extracted results")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output to show progress information")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.index, "index", false, "Write an HTML index of the extracted images")

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Configuration file (default: ~/.picaxe/config.yaml)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// run executes the CLI with args and maps the outcome to an exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

// reportError prints err in the "Error (<type>): message" form
func reportError(w io.Writer, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		ui.Error(w, "Error: %v", err)
		return
	}

	ui.Error(w, "Error (%s): %s", appErr.Type, appErr.Message)
	if appErr.Cause != nil {
		fmt.Fprintf(w, "  caused by: %v\n", appErr.Cause)
	}

	keys := make([]string, 0, len(appErr.Context))
	for key := range appErr.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "  %s: %v\n", key, appErr.Context[key])
	}
}
