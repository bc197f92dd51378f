package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"symgen/internal/distro"
)

type distroListing struct {
	Name     string           `json:"name"`
	Versions []distro.Release `json:"versions"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List supported distributions and releases",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if out.IsJSON() {
			listing := make([]distroListing, 0, len(distro.All()))
			for _, d := range distro.All() {
				listing = append(listing, distroListing{Name: d.DisplayName(), Versions: distro.Versions(d)})
			}
			out.JSON(map[string]interface{}{"distros": listing})
			return nil
		}

		out.Info("Supported distributions and releases:")
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		header := []string{"DISTRO", "ID", "RELEASE", "CODENAME", "IMAGE"}
		table.Header(header)
		for _, d := range distro.All() {
			for _, r := range distro.Versions(d) {
				codename := r.Codename
				if codename == "" {
					codename = "-"
				}
				row := []string{d.DisplayName(), string(d), r.Version, codename, r.Image}
				table.Append(row)
			}
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
