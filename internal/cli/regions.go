package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/nfesynth/internal/region"
)

// NewRegionsCommand creates the regions command.
func NewRegionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List supported regions (UF)",
		Long: `List the UF abbreviations accepted by run.region together with the
codes written into documents. Unknown abbreviations fall back to ` + region.DefaultAbbreviation + `.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			infos := region.All()

			if rootOpts.Format == "json" {
				return formatter.Success(infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "UF\tcUF\tcMun\txMun")
			for _, info := range infos {
				marker := ""
				if info.Abbreviation == region.DefaultAbbreviation {
					marker = " (padrão)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%s\n", info.Abbreviation, info.Code, info.LocalityCode, info.LocalityName, marker)
			}
			return tw.Flush()
		},
	}
}
