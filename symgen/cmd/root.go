package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"symgen/internal/config"
	"symgen/internal/container"
	"symgen/internal/errors"
	"symgen/internal/generator"
	"symgen/internal/logging"
	"symgen/internal/output"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	jsonOutput bool
	verbose    bool
	configPath string

	out    *output.Output
	logger = zerolog.Nop()
)

// engine is what the commands need from the container engine.
type engine interface {
	generator.Engine
	Ping(ctx context.Context) (container.Info, error)
	Rootless(ctx context.Context) (bool, error)
	Close() error
}

// connectRuntime dials the container runtime. Tests replace it.
var connectRuntime = func(ctx context.Context, logger zerolog.Logger) (engine, error) {
	e, err := container.Connect(ctx, logger)
	if err != nil {
		return nil, err
	}
	return e, nil
}

var rootCmd = &cobra.Command{
	Use:   "symgen",
	Short: "symgen builds Volatility 3 symbol files for Linux kernels",
	Long: `symgen builds Volatility 3 Linux symbol files (ISF, *.json.xz) by installing a
kernel's debug symbols inside a disposable distribution container and running
dwarf2json against the debug vmlinux.`,
	Version: Version,
	// SilenceErrors is used to prevent cobra from printing the error,
	// as we handle it ourselves in the Execute function.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupOutput(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Print the help message if no subcommand is provided
		return cmd.Help()
	},
}

func setupOutput(cmd *cobra.Command) {
	out = output.New(jsonOutput, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg := logging.DefaultConfig()
	if verbose {
		cfg.Level = "debug"
	}
	cfg.Pretty = !jsonOutput
	cfg.Output = cmd.ErrOrStderr()
	logger = logging.New(cfg)
}

// loadConfig reads settings from the file named by --config or the default
// location, then the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if err := cfg.Load(configPath); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reportError prints err the way the selected output mode expects.
func reportError(err error) {
	if out == nil {
		out = output.New(jsonOutput, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr())
	}
	if out.IsJSON() {
		out.Result(false, nil, err)
		return
	}
	out.Error(err.Error())
	if hint := errors.Hint(err); hint != "" {
		out.Info(hint)
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON lines")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every container line and internal step to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default ~/.symgen/config.yaml)")
}
