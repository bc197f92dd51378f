package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"symgen/internal/errors"
	"symgen/internal/generator"
	"symgen/internal/script"
)

var (
	scriptKernel  string
	scriptDistro  string
	scriptRelease string
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the provisioning script generate would run",
	Long: `Print the bash script that generate runs inside the distribution container,
without contacting the container runtime.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := generator.NewRequest(scriptKernel, scriptDistro, scriptRelease, "")
		if err != nil {
			return errors.E("script", err)
		}
		body, err := script.Synthesize(req.Kernel, req.Release)
		if err != nil {
			return errors.E("script", err)
		}
		if out.IsJSON() {
			out.Result(true, map[string]string{
				"image":  req.Release.Image,
				"script": body,
				"output": req.ArtifactName(),
			}, nil)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	scriptCmd.Flags().StringVarP(&scriptKernel, "kernel", "k", "", "Kernel version")
	scriptCmd.Flags().StringVarP(&scriptDistro, "distro", "d", "", "Distribution")
	scriptCmd.Flags().StringVarP(&scriptRelease, "release", "r", "", "Distribution release")
	_ = scriptCmd.MarkFlagRequired("kernel")
	_ = scriptCmd.MarkFlagRequired("distro")
	_ = scriptCmd.MarkFlagRequired("release")
}
