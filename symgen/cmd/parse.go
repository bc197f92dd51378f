package cmd

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"symgen/internal/banner"
	"symgen/internal/errors"
)

var parseCmd = &cobra.Command{
	Use:   "parse <banner>",
	Short: "Show what a kernel banner resolves to",
	Long: `Parse a kernel banner and print the kernel version, distribution and release
it resolves to, along with the generate command for it.`,
	Example: heredoc.Doc(`
		$ symgen parse "Linux version 6.1.0-18-amd64 (debian-kernel@lists.debian.org) (gcc-12 (Debian 12.2.0-14) 12.2.0) #1 SMP PREEMPT_DYNAMIC Debian 6.1.76-1 (2024-02-01)"
		$ symgen parse --json "$(cat /proc/version)"
	`),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, ok := banner.Parse(strings.Join(args, " "))
		if !ok {
			return errors.E("parse", fmt.Errorf("%w: could not extract a kernel version from the banner", errors.ErrInvalidInput))
		}
		if out.IsJSON() {
			out.Result(true, res, nil)
			return nil
		}

		out.Info("Kernel: " + res.KernelVersion)
		if res.Distro == "" {
			out.Warning("Distribution: unknown")
			return nil
		}
		out.Info("Distribution: " + res.Distro.DisplayName())
		if res.DistroVersion == "" {
			out.Warning("Release: unknown")
			return nil
		}
		out.Info("Release: " + res.DistroVersion)
		out.Success(res.SuggestedCommand)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
