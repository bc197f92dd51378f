package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"symgen/internal/errors"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the container runtime is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := connectRuntime(cmd.Context(), logger)
		if err != nil {
			return errors.E("check", err)
		}
		defer errors.DeferClose(logger, rt, "close container runtime")

		info, err := rt.Ping(cmd.Context())
		if err != nil {
			return errors.E("check", err)
		}
		out.Success(fmt.Sprintf("Docker is available and connected (API %s, %s)", info.APIVersion, info.OSType))
		out.Result(true, info, nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
