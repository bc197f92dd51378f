package cmd

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"symgen/internal/banner"
	"symgen/internal/container"
	"symgen/internal/errors"
	"symgen/internal/generator"
)

var (
	genBanner    string
	genKernel    string
	genDistro    string
	genRelease   string
	genOutputDir string
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate a symbol file for a kernel",
	Long: `Generate a Volatility 3 symbol file for a kernel, given either its boot banner
or the kernel version, distribution and release explicitly.`,
	Example: heredoc.Doc(`
		# From a banner (e.g. the output of "banners.Banners" in Volatility 3)
		$ symgen generate -b "Linux version 5.15.0-91-generic (buildd@lcy02-amd64-045) (gcc (Ubuntu 11.4.0-1ubuntu1~22.04) 11.4.0, GNU ld (GNU Binutils for Ubuntu) 2.38) #101-Ubuntu SMP"

		# Explicitly
		$ symgen generate -k 5.15.0-91-generic -d ubuntu -r 22.04 -o ./symbols
		$ symgen gen -k 4.18.0-513.el8.x86_64 -d rhel -r 8
	`),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return errors.E("generate", err)
		}
		outputDir := genOutputDir
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}

		req, err := resolveRequest(outputDir)
		if err != nil {
			return errors.E("generate", err)
		}

		mem, err := cfg.MemoryBytes()
		if err != nil {
			return errors.E("generate", err)
		}
		timeout, err := cfg.RunTimeout()
		if err != nil {
			return errors.E("generate", err)
		}

		rt, err := connectRuntime(ctx, logger)
		if err != nil {
			return errors.E("generate", err)
		}
		defer errors.DeferClose(logger, rt, "close container runtime")

		rootless, err := rt.Rootless(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("could not tell whether the daemon is rootless")
		}

		g := generator.New(rt, out, logger, generator.Options{
			Limits:   container.Limits{MemoryBytes: mem, CPUs: cfg.CPUs},
			Platform: cfg.Platform,
			Timeout:  timeout,
			Rootless: rootless,
		})
		res, err := g.Generate(ctx, req)
		if err != nil {
			return err
		}
		out.Result(true, res, nil)
		return nil
	},
}

// resolveRequest builds the request from --banner or the explicit flags.
func resolveRequest(outputDir string) (generator.Request, error) {
	if genBanner == "" {
		var missing []string
		for _, f := range []struct{ name, value string }{
			{"--kernel", genKernel},
			{"--distro", genDistro},
			{"--release", genRelease},
		} {
			if f.value == "" {
				missing = append(missing, f.name)
			}
		}
		if len(missing) > 0 {
			return generator.Request{}, fmt.Errorf("%w: %s required (or pass --banner)", errors.ErrInvalidInput, strings.Join(missing, ", "))
		}
		return generator.NewRequest(genKernel, genDistro, genRelease, outputDir)
	}

	parsed, ok := banner.Parse(genBanner)
	if !ok {
		return generator.Request{}, fmt.Errorf("%w: could not extract a kernel version from the banner", errors.ErrInvalidInput)
	}
	if !parsed.Complete() {
		if parsed.Distro == "" {
			return generator.Request{}, fmt.Errorf("%w: could not detect the distribution from the banner; pass -k %s -d <distro> -r <release>", errors.ErrInvalidInput, parsed.KernelVersion)
		}
		return generator.Request{}, fmt.Errorf("%w: could not detect the %s release from the banner; pass -k %s -d %s -r <release>",
			errors.ErrInvalidInput, parsed.Distro.DisplayName(), parsed.KernelVersion, parsed.Distro)
	}
	out.Info(fmt.Sprintf("Parsed banner: %s %s kernel %s", parsed.Distro.DisplayName(), parsed.DistroVersion, parsed.KernelVersion))
	return generator.NewRequest(parsed.KernelVersion, string(parsed.Distro), parsed.DistroVersion, outputDir)
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&genBanner, "banner", "b", "", "Kernel banner (\"Linux version ...\") to derive the target from")
	generateCmd.Flags().StringVarP(&genKernel, "kernel", "k", "", "Kernel version, e.g. 5.15.0-91-generic")
	generateCmd.Flags().StringVarP(&genDistro, "distro", "d", "", "Distribution (see 'symgen list')")
	generateCmd.Flags().StringVarP(&genRelease, "release", "r", "", "Distribution release, e.g. 22.04")
	generateCmd.Flags().StringVarP(&genRelease, "distro-version", "V", "", "Alias for --release")
	generateCmd.Flags().StringVarP(&genOutputDir, "output-dir", "o", "", "Directory for the symbol file (default: current directory)")
	_ = generateCmd.Flags().MarkHidden("distro-version")
	generateCmd.MarkFlagsMutuallyExclusive("banner", "kernel")
	generateCmd.MarkFlagsMutuallyExclusive("banner", "distro")
	generateCmd.MarkFlagsMutuallyExclusive("banner", "release")
	generateCmd.MarkFlagsMutuallyExclusive("banner", "distro-version")
}
